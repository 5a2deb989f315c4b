package models

import "encoding/json"

// RawImage is an image candidate as returned by either provider
type RawImage struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

// RawTicketmasterItem represents one event of the Ticketmaster Discovery API.
// Only the fields used for normalization are typed; the full document is kept in Passthrough.
type RawTicketmasterItem struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	Info            string                   `json:"info"`
	PleaseNote      string                   `json:"pleaseNote"`
	URL             string                   `json:"url"`
	Images          []RawImage               `json:"images"`
	Dates           *TicketmasterDates       `json:"dates"`
	Classifications []TicketmasterClass      `json:"classifications"`
	PriceRanges     []TicketmasterPriceRange `json:"priceRanges"`
	Embedded        *TicketmasterEmbedded    `json:"_embedded"`

	Passthrough map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps every top-level field for passthrough
func (r *RawTicketmasterItem) UnmarshalJSON(b []byte) error {
	type alias RawTicketmasterItem
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	*r = RawTicketmasterItem(a)
	r.Passthrough = all
	return nil
}

// Field returns a top-level field of the upstream document, or nil when it is absent or null
func (r RawTicketmasterItem) Field(name string) json.RawMessage {
	return passthroughField(r.Passthrough, name)
}

type TicketmasterDates struct {
	Start    *TicketmasterStart  `json:"start"`
	Timezone string              `json:"timezone"`
	Status   *TicketmasterStatus `json:"status"`
}

type TicketmasterStart struct {
	LocalDate string `json:"localDate"`
	LocalTime string `json:"localTime"`
}

type TicketmasterStatus struct {
	Code string `json:"code"`
}

type TicketmasterClass struct {
	Segment *TicketmasterNamed `json:"segment"`
	Genre   *TicketmasterNamed `json:"genre"`
}

type TicketmasterNamed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TicketmasterPriceRange struct {
	Type     string   `json:"type"`
	Currency string   `json:"currency"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
}

type TicketmasterEmbedded struct {
	Venues []TicketmasterVenue `json:"venues"`
}

type TicketmasterVenue struct {
	Name     string                `json:"name"`
	Address  *TicketmasterAddress  `json:"address"`
	City     *TicketmasterNamed    `json:"city"`
	Location *TicketmasterLocation `json:"location"`
}

type TicketmasterAddress struct {
	Line1 string `json:"line1"`
}

// TicketmasterLocation carries coordinates as strings, the way the API sends them
type TicketmasterLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// TicketmasterSearchResponse is the discovery search envelope. Events are kept
// raw so that each one is decoded on its own.
type TicketmasterSearchResponse struct {
	Embedded *struct {
		Events []json.RawMessage `json:"events"`
	} `json:"_embedded"`
	Page *struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

// Items returns the events of the envelope, empty when the search matched nothing
func (r TicketmasterSearchResponse) Items() []json.RawMessage {
	if r.Embedded == nil {
		return nil
	}
	return r.Embedded.Events
}

func passthroughField(all map[string]json.RawMessage, name string) json.RawMessage {
	v, ok := all[name]
	if !ok || string(v) == "null" {
		return nil
	}
	return v
}
