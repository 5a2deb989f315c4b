package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"ma-zone/internal/filter"
	"ma-zone/internal/models"
	"ma-zone/internal/services"
)

// Aggregator runs an aggregate query across providers
type Aggregator interface {
	Aggregate(ctx context.Context, q services.AggregateQuery) (*models.AggregateResult, error)
}

// DetailResolver resolves the live detail of one event
type DetailResolver interface {
	Resolve(ctx context.Context, source, id string) (*models.DetailResponse, error)
}

// RawSearcher returns the Ticketmaster discovery payload untouched
type RawSearcher interface {
	SearchRaw(ctx context.Context, q services.AggregateQuery) ([]byte, error)
}

// Mirror stores aggregated events in the durable detail cache
type Mirror interface {
	Mirror(ctx context.Context, events []models.Event)
}

type EventsHandler struct {
	aggregator Aggregator
	resolver   DetailResolver
	raw        RawSearcher
	mirror     Mirror

	mirrors sync.WaitGroup
}

// NewEventsHandler creates the events handler. raw and mirror may be nil.
func NewEventsHandler(aggregator Aggregator, resolver DetailResolver, raw RawSearcher, mirror Mirror) *EventsHandler {
	return &EventsHandler{
		aggregator: aggregator,
		resolver:   resolver,
		raw:        raw,
		mirror:     mirror,
	}
}

// Wait blocks until every in-flight mirror write has finished
func (h *EventsHandler) Wait() {
	h.mirrors.Wait()
}

// Aggregate handles GET /api/events/aggregate
func (h *EventsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.aggregator.Aggregate(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.mirror != nil && len(result.Events) > 0 {
		events := result.Events
		h.mirrors.Add(1)
		go func() {
			defer h.mirrors.Done()
			h.mirror.Mirror(context.WithoutCancel(r.Context()), events)
		}()
	}

	if criteria, ok := criteriaFromRequest(r); ok {
		result.Events = filter.Apply(result.Events, criteria)
		result.Recount()
	}

	writeJSON(w, http.StatusOK, result)
}

// Events handles GET /api/events, a Ticketmaster-only passthrough of the raw search payload
func (h *EventsHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.raw == nil {
		writeError(w, &services.ConfigurationError{Provider: models.SourceTicketmaster, Message: "Missing Ticketmaster API key"})
		return
	}

	q, err := queryFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := h.raw.SearchRaw(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Detail handles GET /api/events/{source}/{id}
func (h *EventsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	detail, err := h.resolver.Resolve(r.Context(), vars["source"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// queryFromRequest reads the aggregate parameters. Empty values fall back to the aggregator defaults.
func queryFromRequest(r *http.Request) (services.AggregateQuery, error) {
	values := r.URL.Query()
	q := services.AggregateQuery{
		CountryCode: strings.TrimSpace(values.Get("countryCode")),
		LatLong:     strings.TrimSpace(values.Get("latlong")),
		Radius:      strings.TrimSpace(values.Get("radius")),
		Size:        strings.TrimSpace(values.Get("size")),
		Locale:      strings.TrimSpace(values.Get("locale")),
	}

	if raw := values.Get("pageCap"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, &services.ValidationError{Field: "pageCap", Message: "pageCap must be a positive integer"}
		}
		q.PageCap = n
	}
	return q, nil
}

// criteriaFromRequest reads the optional filter parameters. ok is false when none is set.
func criteriaFromRequest(r *http.Request) (filter.Criteria, bool) {
	values := r.URL.Query()
	c := filter.Criteria{
		Query:    values.Get("q"),
		Category: values.Get("category"),
		DateFrom: values.Get("dateFrom"),
		DateTo:   values.Get("dateTo"),
	}
	c.FreeOnly, _ = strconv.ParseBool(values.Get("freeOnly"))

	ok := strings.TrimSpace(c.Query) != "" ||
		(c.Category != "" && !strings.EqualFold(c.Category, filter.CategoryAll)) ||
		c.FreeOnly || c.DateFrom != "" || c.DateTo != ""
	return c, ok
}
