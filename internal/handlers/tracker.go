// Package handlers implements the HTTP surface: the public tracker API and
// the admin route-management API. Handlers hold no route state of their own;
// every request reads through the store so concurrent admin edits are
// visible immediately.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/WxboySuper/Santa-Tracker/internal/feed"
	"github.com/WxboySuper/Santa-Tracker/internal/metrics"
	"github.com/WxboySuper/Santa-Tracker/internal/route"
	"github.com/WxboySuper/Santa-Tracker/internal/store"
	"github.com/WxboySuper/Santa-Tracker/internal/timeline"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]any) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// TrackerHandler serves the public read-only tracker API.
type TrackerHandler struct {
	store   store.Store
	metrics *metrics.Collector
	now     func() time.Time
}

func NewTrackerHandler(s store.Store, m *metrics.Collector) *TrackerHandler {
	return &TrackerHandler{store: s, metrics: m, now: time.Now}
}

// GetStatus handles GET /api/tracker/status. An optional "at" query
// parameter (RFC3339) computes the status for another instant, which the
// frontend countdown uses for previews.
func (h *TrackerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	if at := r.URL.Query().Get("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'at' timestamp", map[string]any{"at": at})
			return
		}
		now = parsed.UTC()
	}

	stops, err := h.loadStops(w, r)
	if err != nil {
		return
	}

	start := time.Now()
	status := timeline.StatusAt(stops, now)
	if h.metrics != nil {
		h.metrics.StatusRequests.Inc()
		h.metrics.StatusDuration.Observe(time.Since(start).Seconds())
		h.metrics.SetState(string(status.State))
		h.metrics.RouteStops.Set(float64(len(stops)))
	}

	w.Header().Set("Cache-Control", "public, max-age=15, stale-while-revalidate=10")
	writeJSON(w, http.StatusOK, status)
}

// RouteResponse is the JSON response for GET /api/tracker/route.
type RouteResponse struct {
	Route        []route.Stop `json:"route"`
	Count        int          `json:"count"`
	LastModified *time.Time   `json:"last_modified,omitempty"`
}

// GetRoute handles GET /api/tracker/route.
func (h *TrackerHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	stops, err := h.loadStops(w, r)
	if err != nil {
		return
	}
	if stops == nil {
		stops = []route.Stop{}
	}

	response := RouteResponse{
		Route: stops,
		Count: len(stops),
	}
	if modified, err := h.store.LastModified(r.Context()); err == nil {
		response.LastModified = &modified
	}

	w.Header().Set("Cache-Control", "public, max-age=60, stale-while-revalidate=30")
	writeJSON(w, http.StatusOK, response)
}

// GetFeed handles GET /api/tracker/feed.pb, the GTFS-Realtime rendering of
// the current status.
func (h *TrackerHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	stops, err := h.loadStops(w, r)
	if err != nil {
		return
	}

	data, err := feed.Marshal(timeline.StatusAt(stops, h.now().UTC()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode feed", map[string]any{"internal": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// loadStops reads the active route, writing the error response itself. An
// absent route document is not an error for public endpoints: the tracker
// simply has no route yet.
func (h *TrackerHandler) loadStops(w http.ResponseWriter, r *http.Request) ([]route.Stop, error) {
	stops, err := h.store.LoadStops(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		writeError(w, http.StatusInternalServerError, "Failed to load route", map[string]any{"internal": err.Error()})
		return nil, err
	}
	return stops, nil
}
