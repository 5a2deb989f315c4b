package detailcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ma-zone/internal/kvcache"
	"ma-zone/internal/models"
	"ma-zone/internal/services"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, source, id string) (*models.DetailResponse, error) {
	args := m.Called(ctx, source, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DetailResponse), args.Error(1)
}

// brokenStore fails every operation
type brokenStore struct {
	gets int
}

func (b *brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	b.gets++
	return nil, false, errors.New("disk full")
}
func (b *brokenStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (b *brokenStore) Delete(context.Context, string) error      { return errors.New("disk full") }
func (b *brokenStore) Subscribe(func(kvcache.Change)) func()     { return func() {} }

// countingStore counts reads of a wrapped store
type countingStore struct {
	kvcache.KeyValueCache
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets++
	return c.KeyValueCache.Get(ctx, key)
}

func event(id string) models.Event {
	price := 10.0
	return models.Event{ID: "tm_" + id, Source: models.SourceTicketmaster, SourceID: id, Title: "Event " + id, Price: &price}
}

func fullDetail(id string) *models.DetailResponse {
	return &models.DetailResponse{
		Source: models.SourceTicketmaster,
		Detail: models.EventDetail{Source: models.SourceTicketmaster, SourceID: id, Title: "Live " + id},
		Raw:    json.RawMessage(`{}`),
	}
}

func collect(views *[]models.DetailView) func(models.DetailView) {
	return func(v models.DetailView) { *views = append(*views, v) }
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ma-zone:event:ticketmaster:G5", Key(models.SourceTicketmaster, "G5"))
}

func TestLookupSessionFirst(t *testing.T) {
	ctx := context.Background()
	session := kvcache.NewMemory()
	durable := &countingStore{KeyValueCache: kvcache.NewMemory()}
	c := New(session, durable, new(MockResolver), nil)

	c.Remember(ctx, event("1"))

	got, tier, ok := c.Lookup(ctx, models.SourceTicketmaster, "1")
	require.True(t, ok)
	assert.Equal(t, TierSession, tier)
	assert.Equal(t, "Event 1", got.Title)
	assert.Equal(t, 0, durable.gets, "durable tier is not consulted on a session hit")
}

func TestLookupDurableFallback(t *testing.T) {
	ctx := context.Background()
	c := New(kvcache.NewMemory(), kvcache.NewMemory(), new(MockResolver), nil)

	c.Mirror(ctx, []models.Event{event("1"), event("2")})

	got, tier, ok := c.Lookup(ctx, models.SourceTicketmaster, "2")
	require.True(t, ok)
	assert.Equal(t, TierDurable, tier)
	assert.Equal(t, "tm_2", got.ID)
	require.NotNil(t, got.Price)
	assert.Equal(t, 10.0, *got.Price)

	_, tier, ok = c.Lookup(ctx, models.SourceTicketmaster, "3")
	assert.False(t, ok)
	assert.Equal(t, TierMiss, tier)
}

func TestStorageFailuresAreMisses(t *testing.T) {
	ctx := context.Background()
	broken := &brokenStore{}
	c := New(broken, broken, new(MockResolver), nil)

	c.Remember(ctx, event("1"))
	c.Mirror(ctx, []models.Event{event("1")})

	_, _, ok := c.Lookup(ctx, models.SourceTicketmaster, "1")
	assert.False(t, ok)
	assert.Equal(t, 2, broken.gets)
}

func TestLookupIgnoresCorruptEntries(t *testing.T) {
	ctx := context.Background()
	session := kvcache.NewMemory()
	require.NoError(t, session.Set(ctx, Key(models.SourceTicketmaster, "1"), []byte("not json")))

	c := New(session, nil, new(MockResolver), nil)
	_, _, ok := c.Lookup(ctx, models.SourceTicketmaster, "1")
	assert.False(t, ok)
}

func TestLoadStaleWhileRevalidate(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "ticketmaster", "1").Return(fullDetail("1"), nil)

	c := New(kvcache.NewMemory(), nil, resolver, nil)
	c.Remember(ctx, event("1"))

	var views []models.DetailView
	require.NoError(t, c.Load(ctx, "tm", "tm_1", LoadOptions{}, collect(&views)))

	require.Len(t, views, 2)
	assert.Equal(t, models.DetailKindCached, views[0].Kind)
	assert.Equal(t, "Event 1", views[0].Cached.Title)
	assert.Equal(t, models.DetailKindFull, views[1].Kind)
	assert.Equal(t, "Live 1", views[1].Full.Detail.Title)
	resolver.AssertExpectations(t)
}

func TestLoadMissFallsThroughToResolver(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "ticketmaster", "9").Return(fullDetail("9"), nil)

	c := New(kvcache.NewMemory(), kvcache.NewMemory(), resolver, nil)

	var views []models.DetailView
	require.NoError(t, c.Load(context.Background(), "ticketmaster", "9", LoadOptions{}, collect(&views)))

	require.Len(t, views, 1)
	assert.Equal(t, models.DetailKindFull, views[0].Kind)
}

func TestLoadRefreshFailureKeepsCachedView(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &services.UpstreamError{Provider: models.SourceTicketmaster, Status: 500, Body: "down"})

	c := New(nil, kvcache.NewMemory(), resolver, nil)
	c.Mirror(ctx, []models.Event{event("1")})

	var views []models.DetailView
	require.NoError(t, c.Load(ctx, "ticketmaster", "1", LoadOptions{}, collect(&views)))
	require.Len(t, views, 1)
	assert.Equal(t, models.DetailKindCached, views[0].Kind)
}

func TestLoadBothMissAndResolverFailure(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &services.UpstreamError{Provider: models.SourceTicketmaster, Status: 404, Body: "nope"})

	c := New(kvcache.NewMemory(), nil, resolver, nil)

	var views []models.DetailView
	err := c.Load(context.Background(), "ticketmaster", "1", LoadOptions{}, collect(&views))

	assert.ErrorIs(t, err, ErrDetailUnavailable)
	var upstream *services.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.Status)
	assert.Empty(t, views)
}

func TestLoadNoRefresh(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	c := New(kvcache.NewMemory(), nil, resolver, nil)
	c.Remember(ctx, event("1"))

	var views []models.DetailView
	require.NoError(t, c.Load(ctx, "ticketmaster", "1", LoadOptions{NoRefresh: true}, collect(&views)))
	assert.Len(t, views, 1)

	views = nil
	err := c.Load(ctx, "ticketmaster", "2", LoadOptions{NoRefresh: true}, collect(&views))
	assert.ErrorIs(t, err, ErrNoCachedDetail)
	assert.Empty(t, views)

	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadInvalidSource(t *testing.T) {
	resolver := new(MockResolver)
	c := New(kvcache.NewMemory(), nil, resolver, nil)

	err := c.Load(context.Background(), "meetup", "1", LoadOptions{}, func(models.DetailView) {
		t.Fatal("nothing must be emitted")
	})

	var validation *services.ValidationError
	assert.ErrorAs(t, err, &validation)
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadDiscardsLateResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(fullDetail("1"), nil)

	c := New(kvcache.NewMemory(), nil, resolver, nil)

	var views []models.DetailView
	err := c.Load(ctx, "ticketmaster", "1", LoadOptions{}, collect(&views))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, views)
}
