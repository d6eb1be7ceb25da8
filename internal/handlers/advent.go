package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/WxboySuper/Santa-Tracker/internal/advent"
)

// AdventHandler serves the advent calendar. The calendar lives in memory
// behind a mutex and is written back to its file after every admin edit.
type AdventHandler struct {
	mu       sync.RWMutex
	calendar *advent.Calendar
	path     string
	now      func() time.Time
}

// NewAdventHandler loads the calendar at path. A missing file is not fatal:
// the handler starts with an empty calendar that admin writes populate.
func NewAdventHandler(path string) (*AdventHandler, error) {
	h := &AdventHandler{path: path, now: time.Now}

	cal, err := advent.Load(path)
	if err != nil {
		cal, _ = advent.New(nil)
	}
	h.calendar = cal
	return h, nil
}

// GetManifest handles GET /api/advent. Payloads are never included.
func (h *AdventHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	manifest := h.calendar.Manifest(h.now().UTC())
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, manifest)
}

// GetDay handles GET /api/advent/{day}; the payload is included only when
// the day is unlocked.
func (h *AdventHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "day")
	day, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be an integer", map[string]any{"day": raw})
		return
	}

	h.mu.RLock()
	view, ok := h.calendar.DayContent(day, h.now().UTC())
	h.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "day not found", map[string]any{"day": day})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetDay handles PUT /api/admin/advent/{day}, replacing one day's content.
func (h *AdventHandler) SetDay(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "day")
	dayNumber, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be an integer", map[string]any{"day": raw})
		return
	}

	var day advent.Day
	if !decodeBody(w, r, &day) {
		return
	}
	day.Day = dayNumber

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.calendar.SetDay(day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.calendar.Save(h.path); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calendar", map[string]any{"internal": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": dayNumber})
}

// OverrideRequest is the body of POST /api/admin/advent/{day}/override.
// A null unlocked clears the override.
type OverrideRequest struct {
	Unlocked *bool `json:"unlocked"`
}

// SetOverride handles POST /api/admin/advent/{day}/override.
func (h *AdventHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "day")
	dayNumber, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be an integer", map[string]any{"day": raw})
		return
	}

	var req OverrideRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.calendar.SetOverride(dayNumber, req.Unlocked); err != nil {
		writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err := h.calendar.Save(h.path); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calendar", map[string]any{"internal": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": dayNumber, "unlocked": req.Unlocked})
}

// Validate handles GET /api/admin/advent/validate.
func (h *AdventHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	result := h.calendar.Validate()
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, result)
}
