package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ma-zone/internal/models"
	"ma-zone/internal/normalize"
)

// NoOrganizationMessage is the configuration message reported when the token owns no organization
const NoOrganizationMessage = "No organization found for token"

// EventbriteClient talks to the Eventbrite v3 API with a bearer token
type EventbriteClient struct {
	BaseURL    string
	Token      string
	PageSize   int
	HTTPClient *http.Client
}

func NewEventbriteClient(baseURL, token string, pageSize int, httpClient *http.Client) *EventbriteClient {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &EventbriteClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		PageSize:   pageSize,
		HTTPClient: httpClient,
	}
}

func (e *EventbriteClient) authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+e.Token)
	return h
}

// ResolveOrganizationID returns the first organization owned by the token
func (e *EventbriteClient) ResolveOrganizationID(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/users/me/organizations/", e.BaseURL)
	body, err := getUpstream(ctx, e.HTTPClient, models.SourceEventbrite, endpoint, e.authHeader())
	if err != nil {
		return "", err
	}

	var resp models.EventbriteOrganizationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("error decoding Eventbrite organizations: %w", err)
	}

	for _, org := range resp.Organizations {
		if org.ID != "" {
			log.Printf("Resolved Eventbrite organization %s (%s)", org.ID, org.Name)
			return org.ID, nil
		}
	}
	return "", &ConfigurationError{Provider: models.SourceEventbrite, Message: NoOrganizationMessage}
}

// FetchPage fetches and normalizes one page of the organization's events
func (e *EventbriteClient) FetchPage(ctx context.Context, orgID string, page int) (Page, error) {
	params := url.Values{}
	params.Set("expand", "venue,category,ticket_availability,ticket_classes")
	params.Set("order_by", "start_asc")
	params.Set("page_size", strconv.Itoa(e.PageSize))
	params.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/organizations/%s/events/?%s", e.BaseURL, url.PathEscape(orgID), params.Encode())

	body, err := getUpstream(ctx, e.HTTPClient, models.SourceEventbrite, endpoint, e.authHeader())
	if err != nil {
		return Page{}, err
	}

	var resp models.EventbriteEventsPage
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("error decoding Eventbrite events page %d: %w", page, err)
	}

	items := decodeItems[models.RawEventbriteItem](models.SourceEventbrite, resp.Events)
	events := make([]models.Event, 0, len(items))
	for _, item := range items {
		events = append(events, normalize.Eventbrite(item))
	}
	return Page{Number: page, Events: events, HasMore: resp.More()}, nil
}

// Pages returns the lazy page sequence of an organization's events
func (e *EventbriteClient) Pages(orgID string) PageSource {
	return NewPageSequence(func(ctx context.Context, page int) (Page, error) {
		return e.FetchPage(ctx, orgID, page)
	})
}

// GetEvent fetches a single event with its venue, category, organizer and ticket data expanded
func (e *EventbriteClient) GetEvent(ctx context.Context, id string) (models.RawEventbriteItem, json.RawMessage, error) {
	var item models.RawEventbriteItem

	params := url.Values{}
	params.Set("expand", "venue,category,organizer,ticket_availability,ticket_classes")
	endpoint := fmt.Sprintf("%s/events/%s/?%s", e.BaseURL, url.PathEscape(id), params.Encode())

	body, err := getUpstream(ctx, e.HTTPClient, models.SourceEventbrite, endpoint, e.authHeader())
	if err != nil {
		return item, nil, err
	}
	if err := json.Unmarshal(body, &item); err != nil {
		return item, nil, fmt.Errorf("error decoding Eventbrite event %s: %w", id, err)
	}
	return item, body, nil
}
