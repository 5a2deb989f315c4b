package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ma-zone/internal/favorites"
)

const heartbeatInterval = 20 * time.Second

type FavoritesHandler struct {
	store *favorites.Store
	hub   *Hub
}

func NewFavoritesHandler(store *favorites.Store, hub *Hub) *FavoritesHandler {
	return &FavoritesHandler{store: store, hub: hub}
}

// Watch forwards every change of the favorites key to the stream hub until ctx is done
func (h *FavoritesHandler) Watch(ctx context.Context) {
	h.store.Load(ctx)
	h.store.Watch(ctx, func(set favorites.Set) {
		h.hub.Publish(set.Sorted())
	})
}

// List handles GET /api/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	set := h.store.Load(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"favorites": set.Sorted(),
	})
}

// Toggle handles POST /api/favorites/{id}/toggle
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "event id is required"})
		return
	}

	favorite, err := h.store.Toggle(r.Context(), id)
	if err != nil {
		log.Printf("Error toggling favorite %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to update favorites"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"favorite":  favorite,
		"favorites": h.store.IDs(),
	})
}

// Stream handles GET /api/favorites/stream, a server-sent event per favorites change
func (h *FavoritesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	// Current state first, so a new view does not wait for the next change.
	writeFavoritesEvent(w, h.store.Load(r.Context()).Sorted())
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case ids, ok := <-sub.Updates():
			if !ok {
				return
			}
			writeFavoritesEvent(w, ids)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprintf(w, ":\n\n")
			flusher.Flush()

		case <-ctx.Done():
			return

		case <-sub.Done():
			return
		}
	}
}

func writeFavoritesEvent(w http.ResponseWriter, ids []string) {
	data, err := json.Marshal(map[string]interface{}{"favorites": ids})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: favorites\ndata: %s\n\n", data)
}
