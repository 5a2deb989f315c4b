package services

import (
	"context"
	"encoding/json"
	"strings"

	"ma-zone/internal/models"
	"ma-zone/internal/normalize"
)

// TicketmasterFetcher fetches a single Ticketmaster event
type TicketmasterFetcher interface {
	GetEvent(ctx context.Context, id string) (models.RawTicketmasterItem, json.RawMessage, error)
}

// EventbriteFetcher fetches a single Eventbrite event
type EventbriteFetcher interface {
	GetEvent(ctx context.Context, id string) (models.RawEventbriteItem, json.RawMessage, error)
}

// DetailResolver fetches and normalizes the full detail of one event
type DetailResolver struct {
	ticketmaster TicketmasterFetcher
	eventbrite   EventbriteFetcher
}

// NewDetailResolver creates a resolver. A nil fetcher means the provider has no credential.
func NewDetailResolver(ticketmaster TicketmasterFetcher, eventbrite EventbriteFetcher) *DetailResolver {
	return &DetailResolver{ticketmaster: ticketmaster, eventbrite: eventbrite}
}

// Resolve validates the source, then dispatches to the matching provider.
// Upstream failures are returned as *UpstreamError with the provider status and body.
func (r *DetailResolver) Resolve(ctx context.Context, rawSource, id string) (*models.DetailResponse, error) {
	source, ok := normalize.ParseSource(rawSource)
	if !ok {
		return nil, &ValidationError{Field: "source", Message: "Invalid source"}
	}
	id = normalize.SourceID(source, strings.TrimSpace(id))
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "event id is required"}
	}

	switch source {
	case models.SourceTicketmaster:
		if r.ticketmaster == nil {
			return nil, &ConfigurationError{Provider: source, Message: "Missing Ticketmaster API key"}
		}
		item, raw, err := r.ticketmaster.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		return &models.DetailResponse{Source: source, Detail: normalize.TicketmasterDetail(item), Raw: raw}, nil

	default:
		if r.eventbrite == nil {
			return nil, &ConfigurationError{Provider: source, Message: "Missing Eventbrite API token"}
		}
		item, raw, err := r.eventbrite.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		return &models.DetailResponse{Source: source, Detail: normalize.EventbriteDetail(item), Raw: raw}, nil
	}
}
