package models

// AggregateCounts holds the number of events returned in total and per provider
type AggregateCounts struct {
	Total        int `json:"total"`
	Ticketmaster int `json:"ticketmaster"`
	Eventbrite   int `json:"eventbrite"`
}

// PaginationMeta describes how far the Eventbrite page loop went
type PaginationMeta struct {
	PageCap        int  `json:"pageCap"`
	PagesRequested int  `json:"pagesRequested"`
	PagesFetched   int  `json:"pagesFetched"`
	HasMore        bool `json:"hasMore"`
}

// ProviderError is the per-provider failure reported inside an aggregate result
type ProviderError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
}

// AggregateResult represents the merged response of the aggregate endpoint
type AggregateResult struct {
	Events          []Event                   `json:"events"`
	Counts          AggregateCounts           `json:"counts"`
	Sources         map[Source]bool           `json:"sources"`
	EventbriteOrgID string                    `json:"eventbriteOrgId,omitempty"`
	PaginationMeta  *PaginationMeta           `json:"paginationMeta,omitempty"`
	Errors          map[Source]*ProviderError `json:"errors,omitempty"`
}

// Recount recomputes Counts from Events so that the totals always match the list
func (r *AggregateResult) Recount() {
	counts := AggregateCounts{Total: len(r.Events)}
	for _, e := range r.Events {
		switch e.Source {
		case SourceTicketmaster:
			counts.Ticketmaster++
		case SourceEventbrite:
			counts.Eventbrite++
		}
	}
	r.Counts = counts
}
