package services

import (
	"context"
	"log"
	"sync"
	"time"

	"ma-zone/internal/metrics"
	"ma-zone/internal/models"
)

// AggregateQuery holds the parameters of an aggregate request
type AggregateQuery struct {
	CountryCode string
	LatLong     string
	Radius      string
	Size        string
	Locale      string
	PageCap     int
}

// TicketmasterSearcher is the location search of the primary provider
type TicketmasterSearcher interface {
	Search(ctx context.Context, q AggregateQuery) ([]models.Event, error)
}

// EventbriteLister is the organization-scoped listing of the secondary provider
type EventbriteLister interface {
	ResolveOrganizationID(ctx context.Context) (string, error)
	Pages(orgID string) PageSource
}

// Aggregator fans an aggregate request out to every configured provider and merges the results
type Aggregator struct {
	ticketmaster TicketmasterSearcher
	eventbrite   EventbriteLister
	defaults     AggregateQuery
	metrics      *metrics.Recorder
}

// NewAggregator creates an aggregator. A nil provider is treated as unconfigured.
func NewAggregator(ticketmaster TicketmasterSearcher, eventbrite EventbriteLister, defaults AggregateQuery, recorder *metrics.Recorder) *Aggregator {
	return &Aggregator{
		ticketmaster: ticketmaster,
		eventbrite:   eventbrite,
		defaults:     defaults,
		metrics:      recorder,
	}
}

type eventbriteOutcome struct {
	orgID  string
	events []models.Event
	meta   *models.PaginationMeta
	err    error
}

// Aggregate queries both providers concurrently. A provider failure is reported in
// the result's Errors map and never prevents the other provider's events from being
// returned. Only a request with no configured provider at all fails.
func (a *Aggregator) Aggregate(ctx context.Context, q AggregateQuery) (*models.AggregateResult, error) {
	q = a.withDefaults(q)

	result := &models.AggregateResult{
		Events: []models.Event{},
		Sources: map[models.Source]bool{
			models.SourceTicketmaster: a.ticketmaster != nil,
			models.SourceEventbrite:   a.eventbrite != nil,
		},
	}

	if a.ticketmaster == nil && a.eventbrite == nil {
		return nil, &ConfigurationError{Message: "No event provider configured"}
	}

	var (
		wg       sync.WaitGroup
		tmEvents []models.Event
		tmErr    error
		eb       eventbriteOutcome
	)

	if a.ticketmaster != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			tmEvents, tmErr = a.ticketmaster.Search(ctx, q)
			a.metrics.ObserveProvider(string(models.SourceTicketmaster), tmErr, time.Since(start))
		}()
	}

	if a.eventbrite != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			eb = a.collectEventbrite(ctx, q.PageCap)
			a.metrics.ObserveProvider(string(models.SourceEventbrite), eb.err, time.Since(start))
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	errs := map[models.Source]*models.ProviderError{}

	// Primary provider first, each provider in its own upstream order.
	result.Events = append(result.Events, tmEvents...)
	if tmErr != nil {
		log.Printf("Ticketmaster branch failed: %v", tmErr)
		errs[models.SourceTicketmaster] = ProviderErrorFrom(tmErr)
	}

	result.Events = append(result.Events, eb.events...)
	result.EventbriteOrgID = eb.orgID
	result.PaginationMeta = eb.meta
	if eb.err != nil {
		log.Printf("Eventbrite branch failed: %v", eb.err)
		errs[models.SourceEventbrite] = ProviderErrorFrom(eb.err)
	}

	if len(errs) > 0 {
		result.Errors = errs
	}
	result.Recount()

	log.Printf("Aggregated %d events (ticketmaster=%d eventbrite=%d, errors=%d)",
		result.Counts.Total, result.Counts.Ticketmaster, result.Counts.Eventbrite, len(errs))
	return result, nil
}

func (a *Aggregator) collectEventbrite(ctx context.Context, pageCap int) eventbriteOutcome {
	orgID, err := a.eventbrite.ResolveOrganizationID(ctx)
	if err != nil {
		return eventbriteOutcome{err: err}
	}

	events, meta, err := DrainPages(ctx, a.eventbrite.Pages(orgID), pageCap)
	a.metrics.ObservePages(meta.PagesRequested, meta.PagesFetched)
	return eventbriteOutcome{orgID: orgID, events: events, meta: &meta, err: err}
}

func (a *Aggregator) withDefaults(q AggregateQuery) AggregateQuery {
	if q.CountryCode == "" {
		q.CountryCode = a.defaults.CountryCode
	}
	if q.LatLong == "" {
		q.LatLong = a.defaults.LatLong
	}
	if q.Radius == "" {
		q.Radius = a.defaults.Radius
	}
	if q.Size == "" {
		q.Size = a.defaults.Size
	}
	if q.Locale == "" {
		q.Locale = a.defaults.Locale
	}
	if q.PageCap <= 0 {
		q.PageCap = a.defaults.PageCap
	}
	if q.PageCap <= 0 {
		q.PageCap = DefaultPageCap
	}
	return q
}
