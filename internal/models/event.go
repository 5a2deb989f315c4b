package models

import "encoding/json"

// Source identifies the upstream provider an event came from
type Source string

const (
	SourceTicketmaster Source = "ticketmaster"
	SourceEventbrite   Source = "eventbrite"
)

// DisplayName is the provider name as shown to users
func (s Source) DisplayName() string {
	switch s {
	case SourceTicketmaster:
		return "Ticketmaster"
	case SourceEventbrite:
		return "Eventbrite"
	}
	return string(s)
}

// Sources lists the providers in merge order. Ticketmaster is the primary provider.
var Sources = []Source{SourceTicketmaster, SourceEventbrite}

// Event represents a normalized, list-level event shared by both providers
type Event struct {
	ID           string   `json:"id"`
	Source       Source   `json:"source"`
	SourceID     string   `json:"sourceId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	URL          string   `json:"url,omitempty"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	LocationName string   `json:"locationName"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Price        *float64 `json:"price"` // nil = unknown, 0 = free
	Category     string   `json:"category"`
}

// IsFree reports whether the event is known to be free
func (e Event) IsFree() bool {
	return e.Price != nil && *e.Price == 0
}

// EventDetail represents the provider-shaped detail view of a single event.
// Sub-objects the providers return as nested documents are passed through untouched.
type EventDetail struct {
	Source             Source            `json:"source"`
	SourceID           string            `json:"sourceId"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	URL                string            `json:"url,omitempty"`
	Images             []string          `json:"images"`
	Date               string            `json:"date"`
	Time               string            `json:"time"`
	Status             string            `json:"status"`
	Timezone           string            `json:"timezone"`
	Venue              json.RawMessage   `json:"venue"`
	Organizer          json.RawMessage   `json:"organizer,omitempty"`
	Category           json.RawMessage   `json:"category,omitempty"`
	Classifications    []json.RawMessage `json:"classifications,omitempty"`
	PriceRanges        []json.RawMessage `json:"priceRanges,omitempty"`
	Capacity           *int              `json:"capacity,omitempty"`
	IsFree             *bool             `json:"isFree,omitempty"`
	TicketLimit        json.RawMessage   `json:"ticketLimit,omitempty"`
	AgeRestrictions    json.RawMessage   `json:"ageRestrictions,omitempty"`
	Accessibility      json.RawMessage   `json:"accessibility,omitempty"`
	Promoter           json.RawMessage   `json:"promoter,omitempty"`
	Seatmap            json.RawMessage   `json:"seatmap,omitempty"`
	TicketAvailability json.RawMessage   `json:"ticketAvailability,omitempty"`
}

// DetailResponse is the payload of the detail endpoint
type DetailResponse struct {
	Source Source          `json:"source"`
	Detail EventDetail     `json:"detail"`
	Raw    json.RawMessage `json:"raw"`
}

// DetailKind discriminates the two shapes a detail view can render
type DetailKind string

const (
	DetailKindCached DetailKind = "cached"
	DetailKindFull   DetailKind = "full"
)

// DetailView is what a detail page renders: either a list-level event seeded
// from the handoff cache or the full detail fetched live.
type DetailView struct {
	Kind   DetailKind      `json:"kind"`
	Cached *Event          `json:"cached,omitempty"`
	Full   *DetailResponse `json:"full,omitempty"`
}

// CachedView wraps a cached list event
func CachedView(e Event) DetailView {
	return DetailView{Kind: DetailKindCached, Cached: &e}
}

// FullView wraps a live detail response
func FullView(d *DetailResponse) DetailView {
	return DetailView{Kind: DetailKindFull, Full: d}
}
