package models

import "encoding/json"

// RawEventbriteItem represents one event of the Eventbrite v3 API
type RawEventbriteItem struct {
	ID                 string                        `json:"id"`
	Name               *EventbriteText               `json:"name"`
	Description        *EventbriteText               `json:"description"`
	Summary            string                        `json:"summary"`
	URL                string                        `json:"url"`
	Logo               *EventbriteLogo               `json:"logo"`
	Start              *EventbriteDateTime           `json:"start"`
	Status             string                        `json:"status"`
	IsFree             *bool                         `json:"is_free"`
	Capacity           *int                          `json:"capacity"`
	Venue              *EventbriteVenue              `json:"venue"`
	Category           *EventbriteCategory           `json:"category"`
	TicketClasses      []EventbriteTicketClass       `json:"ticket_classes"`
	TicketAvailability *EventbriteTicketAvailability `json:"ticket_availability"`

	Passthrough map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps every top-level field for passthrough
func (r *RawEventbriteItem) UnmarshalJSON(b []byte) error {
	type alias RawEventbriteItem
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	*r = RawEventbriteItem(a)
	r.Passthrough = all
	return nil
}

// Field returns a top-level field of the upstream document, or nil when it is absent or null
func (r RawEventbriteItem) Field(name string) json.RawMessage {
	return passthroughField(r.Passthrough, name)
}

type EventbriteText struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

type EventbriteLogo struct {
	URL      string    `json:"url"`
	Original *RawImage `json:"original"`
}

// EventbriteDateTime carries a combined local timestamp such as 2026-03-12T20:00:00
type EventbriteDateTime struct {
	Local    string `json:"local"`
	UTC      string `json:"utc"`
	Timezone string `json:"timezone"`
}

type EventbriteVenue struct {
	Name      string             `json:"name"`
	Address   *EventbriteAddress `json:"address"`
	Latitude  string             `json:"latitude"`
	Longitude string             `json:"longitude"`
}

type EventbriteAddress struct {
	Address1                string `json:"address_1"`
	City                    string `json:"city"`
	LocalizedAddressDisplay string `json:"localized_address_display"`
}

type EventbriteCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type EventbriteTicketClass struct {
	Name string           `json:"name"`
	Free bool             `json:"free"`
	Cost *EventbriteMoney `json:"cost"`
}

// EventbriteMoney is an amount in minor units (cents)
type EventbriteMoney struct {
	Currency string `json:"currency"`
	Value    *int64 `json:"value"`
	Display  string `json:"display"`
}

type EventbriteTicketAvailability struct {
	HasAvailableTickets bool             `json:"has_available_tickets"`
	IsSoldOut           bool             `json:"is_sold_out"`
	MinimumTicketPrice  *EventbriteMoney `json:"minimum_ticket_price"`
	MaximumTicketPrice  *EventbriteMoney `json:"maximum_ticket_price"`
}

// EventbriteOrganizationsResponse is returned by /users/me/organizations/
type EventbriteOrganizationsResponse struct {
	Organizations []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"organizations"`
}

// EventbritePagination is the page descriptor of organization-scoped listings
type EventbritePagination struct {
	PageNumber   int  `json:"page_number"`
	PageSize     int  `json:"page_size"`
	PageCount    int  `json:"page_count"`
	ObjectCount  int  `json:"object_count"`
	HasMoreItems bool `json:"has_more_items"`
	HasMore      bool `json:"has_more"`
}

// EventbriteEventsPage is one page of /organizations/{id}/events/. Events are
// kept raw so that each one is decoded on its own.
type EventbriteEventsPage struct {
	Events     []json.RawMessage     `json:"events"`
	Pagination *EventbritePagination `json:"pagination"`
}

// More reports whether the upstream declared another page
func (p EventbriteEventsPage) More() bool {
	if p.Pagination == nil {
		return false
	}
	return p.Pagination.HasMoreItems || p.Pagination.HasMore
}
