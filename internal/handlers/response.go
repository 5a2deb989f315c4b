package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ma-zone/internal/detailcache"
	"ma-zone/internal/services"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeJSON buffers the encoding so an encoding failure can still produce a 500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// writeError maps err to a status code and writes it as an ErrorResponse
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	body := ErrorResponse{Error: err.Error()}

	var upstream *services.UpstreamError
	var validation *services.ValidationError
	var cfgErr *services.ConfigurationError
	switch {
	case errors.As(err, &upstream):
		body.Error = upstream.Provider.DisplayName() + " API error"
		body.Status = upstream.Status
		body.Details = upstream.Body
	case errors.As(err, &validation):
		body.Error = validation.Message
	case errors.As(err, &cfgErr):
		body.Error = cfgErr.Message
	}

	if status >= http.StatusInternalServerError {
		log.Printf("Request failed: %v", err)
	}
	writeJSON(w, status, body)
}

// statusForError classifies an error into the HTTP status returned to the client
func statusForError(err error) int {
	var upstream *services.UpstreamError
	var validation *services.ValidationError
	var cfgErr *services.ConfigurationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		if upstream.Status >= 400 {
			return upstream.Status
		}
		return http.StatusBadGateway
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.Is(err, detailcache.ErrNoCachedDetail):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
