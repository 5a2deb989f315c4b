package browse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ma-zone/internal/services"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/events/aggregate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FR", r.URL.Query().Get("countryCode"))
		assert.Equal(t, "4", r.URL.Query().Get("pageCap"))
		assert.Empty(t, r.URL.Query().Get("radius"))
		w.Write([]byte(`{"events":[{"id":"tm_1","source":"ticketmaster","sourceId":"1","title":"One"}],"counts":{"total":1,"ticketmaster":1,"eventbrite":0},"sources":{"ticketmaster":true,"eventbrite":false}}`))
	})
	mux.HandleFunc("/api/events/ticketmaster/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"source":"ticketmaster","detail":{"source":"ticketmaster","sourceId":"1","title":"One live"},"raw":{"id":"1"}}`))
	})
	mux.HandleFunc("/api/events/ticketmaster/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Ticketmaster API error","status":404,"details":"Resource not found"}`))
	})
	mux.HandleFunc("/api/favorites", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"favorites":["eb_2","tm_1"]}`))
	})
	mux.HandleFunc("/api/favorites/tm_1/toggle", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"id":"tm_1","favorite":false,"favorites":["eb_2"]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAggregate(t *testing.T) {
	client := NewClient(newAPIServer(t).URL, 5*time.Second)

	result, err := client.Aggregate(context.Background(), services.AggregateQuery{CountryCode: "FR", PageCap: 4})
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, "tm_1", result.Events[0].ID)
	assert.Equal(t, 1, result.Counts.Ticketmaster)
}

func TestClientResolve(t *testing.T) {
	client := NewClient(newAPIServer(t).URL, 5*time.Second)

	detail, err := client.Resolve(context.Background(), "ticketmaster", "1")
	require.NoError(t, err)
	assert.Equal(t, "One live", detail.Detail.Title)

	_, err = client.Resolve(context.Background(), "ticketmaster", "404")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Ticketmaster API error", apiErr.Message)
	assert.Equal(t, "Resource not found", apiErr.Details)
	assert.True(t, IsNotFound(err))
}

func TestClientFavorites(t *testing.T) {
	client := NewClient(newAPIServer(t).URL, 5*time.Second)

	ids, err := client.Favorites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"eb_2", "tm_1"}, ids)

	favorite, err := client.ToggleFavorite(context.Background(), "tm_1")
	require.NoError(t, err)
	assert.False(t, favorite)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).Favorites(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{StatusCode: http.StatusBadRequest}))
	assert.True(t, IsNotFound(&services.ValidationError{Field: "source", Message: "Invalid source"}))
	assert.False(t, IsNotFound(&APIError{StatusCode: http.StatusInternalServerError}))
}
