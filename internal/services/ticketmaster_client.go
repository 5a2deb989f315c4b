package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"ma-zone/internal/models"
	"ma-zone/internal/normalize"
)

// CountryAll disables the country filter of a discovery search
const CountryAll = "ALL"

// TicketmasterClient talks to the Ticketmaster Discovery API
type TicketmasterClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// Locale is sent with single-event lookups; searches carry their own
	Locale string
}

func NewTicketmasterClient(baseURL, apiKey string, httpClient *http.Client) *TicketmasterClient {
	return &TicketmasterClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: httpClient,
	}
}

// SearchRaw runs a discovery-by-location search and returns the upstream payload untouched
func (t *TicketmasterClient) SearchRaw(ctx context.Context, q AggregateQuery) ([]byte, error) {
	params := url.Values{}
	params.Set("apikey", t.APIKey)
	params.Set("latlong", q.LatLong)
	params.Set("radius", q.Radius)
	params.Set("size", q.Size)
	params.Set("locale", q.Locale)
	if q.CountryCode != "" && !strings.EqualFold(q.CountryCode, CountryAll) {
		params.Set("countryCode", q.CountryCode)
	}

	endpoint := fmt.Sprintf("%s/events.json?%s", t.BaseURL, params.Encode())
	log.Printf("Searching Ticketmaster events (latlong=%s radius=%s country=%s)", q.LatLong, q.Radius, q.CountryCode)
	return getUpstream(ctx, t.HTTPClient, models.SourceTicketmaster, endpoint, nil)
}

// Search runs a discovery-by-location search and normalizes every returned event
func (t *TicketmasterClient) Search(ctx context.Context, q AggregateQuery) ([]models.Event, error) {
	body, err := t.SearchRaw(ctx, q)
	if err != nil {
		return nil, err
	}

	var resp models.TicketmasterSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error decoding Ticketmaster search response: %w", err)
	}

	items := decodeItems[models.RawTicketmasterItem](models.SourceTicketmaster, resp.Items())
	events := make([]models.Event, 0, len(items))
	for _, item := range items {
		events = append(events, normalize.Ticketmaster(item))
	}
	return events, nil
}

// GetEvent fetches a single event by its upstream id
func (t *TicketmasterClient) GetEvent(ctx context.Context, id string) (models.RawTicketmasterItem, json.RawMessage, error) {
	var item models.RawTicketmasterItem

	params := url.Values{}
	params.Set("apikey", t.APIKey)
	if t.Locale != "" {
		params.Set("locale", t.Locale)
	}
	endpoint := fmt.Sprintf("%s/events/%s.json?%s", t.BaseURL, url.PathEscape(id), params.Encode())

	body, err := getUpstream(ctx, t.HTTPClient, models.SourceTicketmaster, endpoint, nil)
	if err != nil {
		return item, nil, err
	}
	if err := json.Unmarshal(body, &item); err != nil {
		return item, nil, fmt.Errorf("error decoding Ticketmaster event %s: %w", id, err)
	}
	return item, body, nil
}
