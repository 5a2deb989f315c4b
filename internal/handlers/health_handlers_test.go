package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadiness(t *testing.T) {
	h := NewHealthHandler()
	h.AddReadinessCheck("cache", func() error { return nil })

	rec := serve(t, http.HandlerFunc(h.HandleReadiness), http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UP", body.Status)
	assert.Equal(t, map[string]string{"cache": "OK"}, body.Details)
}

func TestReadinessFailure(t *testing.T) {
	h := NewHealthHandler()
	h.AddReadinessCheck("cache", func() error { return errors.New("database is locked") })

	rec := serve(t, http.HandlerFunc(h.HandleReadiness), http.MethodGet, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DOWN", body.Status)
	assert.Equal(t, "database is locked", body.Details["cache"])
}

func TestLivenessAndHealth(t *testing.T) {
	h := NewHealthHandler()

	rec := serve(t, http.HandlerFunc(h.HandleLiveness), http.MethodGet, "/livez")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Details)

	rec = serve(t, http.HandlerFunc(h.HandleHealth), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
