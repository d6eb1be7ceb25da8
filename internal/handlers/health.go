package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/WxboySuper/Santa-Tracker/internal/store"
)

// HealthHandler reports service liveness and store reachability.
type HealthHandler struct {
	store store.Store
}

func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// GetHealth handles GET /health. A missing route document still counts as
// healthy; only a store that cannot answer at all does not.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	_, err := h.store.LoadStops(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "error",
			"store":     "unreachable",
			"timestamp": time.Now().UTC(),
			"error":     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"store":     "connected",
		"timestamp": time.Now().UTC(),
	})
}
