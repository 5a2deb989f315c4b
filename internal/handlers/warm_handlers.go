package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"ma-zone/internal/warmer"
)

type WarmEnqueuer interface {
	Enqueue(ctx context.Context, m warmer.Message) (string, error)
}

type WarmHandler struct {
	enqueuer WarmEnqueuer
}

func NewWarmHandler(enqueuer WarmEnqueuer) *WarmHandler {
	return &WarmHandler{enqueuer: enqueuer}
}

// Warm handles POST /api/cache/warm. An empty body warms the default query.
func (h *WarmHandler) Warm(w http.ResponseWriter, r *http.Request) {
	var m warmer.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil && err != io.EOF {
		log.Printf("Error decoding request body: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	messageID, err := h.enqueuer.Enqueue(r.Context(), m)
	if err != nil {
		log.Printf("Error enqueuing warm job: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Failed to enqueue warm job"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Warm job enqueued",
		"messageId": messageID,
	})
}
