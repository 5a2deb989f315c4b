package browse

import (
	"context"
	"fmt"
	"sync"

	"ma-zone/internal/detailcache"
	"ma-zone/internal/filter"
	"ma-zone/internal/kvcache"
	"ma-zone/internal/models"
	"ma-zone/internal/services"
)

// API is the part of the ma-zone API a session uses
type API interface {
	Aggregate(ctx context.Context, q services.AggregateQuery) (*models.AggregateResult, error)
	Resolve(ctx context.Context, source, id string) (*models.DetailResponse, error)
}

// Session holds the last loaded list and the handoff cache between list and detail
type Session struct {
	api   API
	cache *detailcache.Cache

	mu     sync.RWMutex
	events []models.Event
}

// NewSession creates a session. durable may be nil.
func NewSession(api API, session, durable kvcache.KeyValueCache) *Session {
	return &Session{
		api:   api,
		cache: detailcache.New(session, durable, api, nil),
	}
}

// Load runs an aggregate query and mirrors every event into the durable tier.
// A result arriving after ctx is done is discarded.
func (s *Session) Load(ctx context.Context, q services.AggregateQuery) (*models.AggregateResult, error) {
	result, err := s.api.Aggregate(ctx, q)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	s.cache.Mirror(ctx, result.Events)

	s.mu.Lock()
	s.events = result.Events
	s.mu.Unlock()
	return result, nil
}

// Events returns the last loaded list narrowed by c
func (s *Session) Events(c filter.Criteria) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Apply(s.events, c)
}

// Categories lists the categories of the last loaded list
func (s *Session) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Categories(s.events)
}

// Select hands the event with the given id over to the detail view
func (s *Session) Select(ctx context.Context, id string) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			s.cache.Remember(ctx, e)
			return e, nil
		}
	}
	return models.Event{}, fmt.Errorf("event %s is not in the current list", id)
}

// Detail loads a detail view through the handoff cache
func (s *Session) Detail(ctx context.Context, source, id string, opts detailcache.LoadOptions, emit func(models.DetailView)) error {
	return s.cache.Load(ctx, source, id, opts, emit)
}
