package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"ma-zone/internal/models"
)

// NewHTTPClient builds the client shared by the provider adapters
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// getUpstream performs a GET against a provider and returns the body of a 2xx answer.
// Any other status becomes an UpstreamError carrying the status and body.
func getUpstream(ctx context.Context, client *http.Client, provider models.Source, endpoint string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating %s request: %w", provider, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending %s request: %w", provider, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Printf("Error closing response body: %v", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading %s response: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: provider, Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// decodeItems decodes every raw item on its own. An item that does not decode
// is logged and skipped so the rest of the list survives.
func decodeItems[T any](provider models.Source, raw []json.RawMessage) []T {
	items := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			log.Printf("Skipping malformed %s event at index %d: %v", provider.DisplayName(), i, err)
			continue
		}
		items = append(items, item)
	}
	return items
}
