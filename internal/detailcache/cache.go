// Package detailcache hands a selected list event over to the detail view.
//
// Events are written to a session tier when selected and mirrored to a durable
// tier after every aggregate load. A detail load shows the cached event at once
// and replaces it with the live detail when the resolver answers.
package detailcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"ma-zone/internal/kvcache"
	"ma-zone/internal/metrics"
	"ma-zone/internal/models"
	"ma-zone/internal/normalize"
	"ma-zone/internal/services"
)

const KeyPrefix = "ma-zone:event:"

const (
	TierSession = "session"
	TierDurable = "durable"
	TierMiss    = "miss"
)

var (
	// ErrNoCachedDetail is returned by a NoRefresh load that found nothing in either tier
	ErrNoCachedDetail = errors.New("Impossible de charger les details (aucune donnee en cache).")

	// ErrDetailUnavailable wraps the resolver failure when no cached event could be shown
	ErrDetailUnavailable = errors.New("could not load details")
)

// Resolver fetches the live detail of an event
type Resolver interface {
	Resolve(ctx context.Context, source, id string) (*models.DetailResponse, error)
}

// LoadOptions tunes a detail load
type LoadOptions struct {
	// NoRefresh serves the cache only and never calls the resolver
	NoRefresh bool
}

type Cache struct {
	session  kvcache.KeyValueCache
	durable  kvcache.KeyValueCache
	resolver Resolver
	metrics  *metrics.Recorder
}

// New creates a cache. durable may be nil when no durable tier is configured.
func New(session, durable kvcache.KeyValueCache, resolver Resolver, recorder *metrics.Recorder) *Cache {
	return &Cache{
		session:  session,
		durable:  durable,
		resolver: resolver,
		metrics:  recorder,
	}
}

// Key returns the storage key of an event
func Key(source models.Source, sourceID string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, source, sourceID)
}

// Remember stores the selected event in the session tier
func (c *Cache) Remember(ctx context.Context, e models.Event) {
	c.write(ctx, c.session, TierSession, e)
}

// Mirror stores every event of an aggregate load in the durable tier
func (c *Cache) Mirror(ctx context.Context, events []models.Event) {
	if c.durable == nil {
		return
	}
	for _, e := range events {
		if ctx.Err() != nil {
			return
		}
		c.write(ctx, c.durable, TierDurable, e)
	}
}

// Lookup reads the session tier, then the durable tier. Storage failures count as misses.
func (c *Cache) Lookup(ctx context.Context, source models.Source, sourceID string) (models.Event, string, bool) {
	key := Key(source, sourceID)

	if e, ok := c.read(ctx, c.session, TierSession, key); ok {
		c.metrics.ObserveCacheLookup(TierSession)
		return e, TierSession, true
	}
	if e, ok := c.read(ctx, c.durable, TierDurable, key); ok {
		c.metrics.ObserveCacheLookup(TierDurable)
		return e, TierDurable, true
	}

	c.metrics.ObserveCacheLookup(TierMiss)
	return models.Event{}, TierMiss, false
}

// Load emits the cached event when one exists, then the live detail.
// Nothing is emitted once ctx is done. A refresh failure after a cached view
// was emitted leaves that view in place and is not returned.
func (c *Cache) Load(ctx context.Context, rawSource, id string, opts LoadOptions, emit func(models.DetailView)) error {
	source, ok := normalize.ParseSource(rawSource)
	if !ok {
		return &services.ValidationError{Field: "source", Message: "Invalid source"}
	}
	sourceID := normalize.SourceID(source, id)
	if sourceID == "" {
		return &services.ValidationError{Field: "id", Message: "event id is required"}
	}

	cached, tier, hit := c.Lookup(ctx, source, sourceID)
	if err := ctx.Err(); err != nil {
		return err
	}
	if hit {
		log.Printf("Detail %s served from %s cache", Key(source, sourceID), tier)
		emit(models.CachedView(cached))
	}

	if opts.NoRefresh {
		if !hit {
			return ErrNoCachedDetail
		}
		return nil
	}

	detail, err := c.resolver.Resolve(ctx, string(source), sourceID)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if hit {
			log.Printf("Error refreshing detail %s: %v", Key(source, sourceID), err)
			return nil
		}
		return fmt.Errorf("%w: %w", ErrDetailUnavailable, err)
	}

	emit(models.FullView(detail))
	return nil
}

func (c *Cache) write(ctx context.Context, store kvcache.KeyValueCache, tier string, e models.Event) {
	if store == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("Error encoding event %s for %s cache: %v", e.ID, tier, err)
		return
	}
	if err := store.Set(ctx, Key(e.Source, e.SourceID), data); err != nil {
		log.Printf("Error writing event %s to %s cache: %v", e.ID, tier, err)
	}
}

func (c *Cache) read(ctx context.Context, store kvcache.KeyValueCache, tier, key string) (models.Event, bool) {
	if store == nil {
		return models.Event{}, false
	}
	data, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Printf("Error reading %s from %s cache: %v", key, tier, err)
		return models.Event{}, false
	}
	if !ok {
		return models.Event{}, false
	}

	var e models.Event
	if err := json.Unmarshal(data, &e); err != nil {
		log.Printf("Error decoding %s from %s cache: %v", key, tier, err)
		return models.Event{}, false
	}
	return e, true
}
