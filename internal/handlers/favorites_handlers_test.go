package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ma-zone/internal/favorites"
	"ma-zone/internal/kvcache"
)

func newFavoritesRouter(h *FavoritesHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/favorites", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/favorites/stream", h.Stream).Methods(http.MethodGet)
	r.HandleFunc("/api/favorites/{id}/toggle", h.Toggle).Methods(http.MethodPost)
	return r
}

func newFavoritesHandler(t *testing.T) (*FavoritesHandler, *kvcache.Memory) {
	t.Helper()
	kv := kvcache.NewMemory()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewFavoritesHandler(favorites.NewStore(kv), hub), kv
}

func TestFavoritesToggleAndList(t *testing.T) {
	h, kv := newFavoritesHandler(t)
	router := newFavoritesRouter(h)

	rec := serve(t, router, http.MethodPost, "/api/favorites/tm_1/toggle")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"tm_1","favorite":true,"favorites":["tm_1"]}`, rec.Body.String())

	rec = serve(t, router, http.MethodPost, "/api/favorites/eb_2/toggle")
	assert.JSONEq(t, `{"id":"eb_2","favorite":true,"favorites":["eb_2","tm_1"]}`, rec.Body.String())

	rec = serve(t, router, http.MethodPost, "/api/favorites/tm_1/toggle")
	assert.JSONEq(t, `{"id":"tm_1","favorite":false,"favorites":["eb_2"]}`, rec.Body.String())

	// another process rewrites the key; List reads it back
	require.NoError(t, kv.Set(context.Background(), favorites.Key, []byte(`["eb_2","tm_9"]`)))
	rec = serve(t, router, http.MethodGet, "/api/favorites")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"favorites":["eb_2","tm_9"]}`, rec.Body.String())
}

func TestFavoritesToggleRejectsGet(t *testing.T) {
	h, _ := newFavoritesHandler(t)
	rec := serve(t, newFavoritesRouter(h), http.MethodGet, "/api/favorites/tm_1/toggle")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFavoritesStream(t *testing.T) {
	h, kv := newFavoritesHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Watch(ctx)

	srv := httptest.NewServer(newFavoritesRouter(h))
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/favorites/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan []string, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var payload struct {
				Favorites []string `json:"favorites"`
			}
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload) == nil {
				events <- payload.Favorites
			}
		}
		close(events)
	}()

	next := func() []string {
		select {
		case ids := <-events:
			return ids
		case <-time.After(2 * time.Second):
			t.Fatal("no favorites event received")
			return nil
		}
	}

	assert.Empty(t, next())

	// a write made by another process reaches open streams
	require.NoError(t, kv.ApplyRemote(ctx, kvcache.Change{Key: favorites.Key, Value: []byte(`["tm_7"]`), Origin: "other"}))
	assert.Equal(t, []string{"tm_7"}, next())
}

func TestHubFansOutAndStops(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish([]string{"tm_1"})
	for _, sub := range []*Subscriber{a, b} {
		select {
		case ids := <-sub.Updates():
			assert.Equal(t, []string{"tm_1"}, ids)
		case <-time.After(time.Second):
			t.Fatal("update not delivered")
		}
	}

	hub.Unsubscribe(a)
	_, open := <-a.Updates()
	assert.False(t, open)

	hub.Stop()
	hub.Stop()
	<-b.Done()

	// subscribing after Stop returns a closed subscriber
	late := hub.Subscribe()
	<-late.Done()
	hub.Publish([]string{"ignored"})
}

func TestServerShutdownEndsFavoritesStreams(t *testing.T) {
	h, _ := newFavoritesHandler(t)

	srv := httptest.NewUnstartedServer(newFavoritesRouter(h))
	srv.Config.RegisterOnShutdown(h.hub.Stop)
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/favorites/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	ended := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
		}
		close(ended)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Config.Shutdown(ctx))

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("favorites stream still open after shutdown")
	}
}
