// Package browse is a client of the ma-zone HTTP API. It plays the part of the
// list and detail views: aggregate, filter, select, then load a detail through
// the handoff cache.
package browse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ma-zone/internal/models"
	"ma-zone/internal/services"
)

// APIError is a non-2xx answer from the ma-zone API
type APIError struct {
	StatusCode int
	Message    string
	Status     int
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: services.NewHTTPClient(timeout),
	}
}

// Aggregate calls GET /api/events/aggregate
func (c *Client) Aggregate(ctx context.Context, q services.AggregateQuery) (*models.AggregateResult, error) {
	params := url.Values{}
	set := func(k, v string) {
		if v != "" {
			params.Set(k, v)
		}
	}
	set("countryCode", q.CountryCode)
	set("latlong", q.LatLong)
	set("radius", q.Radius)
	set("size", q.Size)
	set("locale", q.Locale)
	if q.PageCap > 0 {
		params.Set("pageCap", strconv.Itoa(q.PageCap))
	}

	var result models.AggregateResult
	if err := c.do(ctx, http.MethodGet, "/api/events/aggregate?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Resolve calls GET /api/events/{source}/{id}
func (c *Client) Resolve(ctx context.Context, source, id string) (*models.DetailResponse, error) {
	var detail models.DetailResponse
	path := fmt.Sprintf("/api/events/%s/%s", url.PathEscape(source), url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, path, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Favorites calls GET /api/favorites
func (c *Client) Favorites(ctx context.Context) ([]string, error) {
	var body struct {
		Favorites []string `json:"favorites"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/favorites", &body); err != nil {
		return nil, err
	}
	return body.Favorites, nil
}

// ToggleFavorite calls POST /api/favorites/{id}/toggle and returns whether id is now a favorite
func (c *Client) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var body struct {
		Favorite bool `json:"favorite"`
	}
	path := fmt.Sprintf("/api/favorites/%s/toggle", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, &body); err != nil {
		return false, err
	}
	return body.Favorite, nil
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error   string `json:"error"`
			Status  int    `json:"status"`
			Details string `json:"details"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.Status = e.Status
			apiErr.Details = e.Details
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is a 400 or 404 answer, the "not found" state of a detail view
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusNotFound
	}
	var validation *services.ValidationError
	return errors.As(err, &validation)
}
