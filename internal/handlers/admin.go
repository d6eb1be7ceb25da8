package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/WxboySuper/Santa-Tracker/internal/geo"
	"github.com/WxboySuper/Santa-Tracker/internal/metrics"
	"github.com/WxboySuper/Santa-Tracker/internal/route"
	"github.com/WxboySuper/Santa-Tracker/internal/store"
	"github.com/WxboySuper/Santa-Tracker/internal/timeline"
)

// AdminHandler serves the route management API. Writes always go through
// normalization and land in the store; the handler never keeps a copy.
type AdminHandler struct {
	store   store.Store
	metrics *metrics.Collector
	now     func() time.Time
}

func NewAdminHandler(s store.Store, m *metrics.Collector) *AdminHandler {
	return &AdminHandler{store: s, metrics: m, now: time.Now}
}

func (h *AdminHandler) countRequest() {
	if h.metrics != nil {
		h.metrics.AdminRequests.Inc()
	}
}

// writeFieldError maps the normalization error taxonomy onto status codes:
// anything the caller can fix is a 400, everything else is a 500.
func writeFieldError(w http.ResponseWriter, err error) {
	var rangeErr *geo.RangeError
	var convErr *geo.ConversionError
	var missingErr *route.MissingFieldError
	var malformedErr *route.MalformedRecordError
	switch {
	case errors.As(err, &rangeErr), errors.As(err, &convErr),
		errors.As(err, &missingErr), errors.As(err, &malformedErr):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to process location", map[string]any{"internal": err.Error()})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", map[string]any{"internal": err.Error()})
		return false
	}
	return true
}

// loadStops reads the active route for admin operations. Unlike the public
// endpoints a missing route document is a 404 here.
func (h *AdminHandler) loadStops(w http.ResponseWriter, r *http.Request) ([]route.Stop, bool) {
	stops, err := h.store.LoadStops(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no route document", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load route", map[string]any{"internal": err.Error()})
		}
		return nil, false
	}
	return stops, true
}

func (h *AdminHandler) saveStops(w http.ResponseWriter, r *http.Request, stops []route.Stop) bool {
	if err := h.store.SaveStops(r.Context(), stops); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save route", map[string]any{"internal": err.Error()})
		return false
	}
	return true
}

// stopIndex parses the {index} URL parameter against the current list.
func stopIndex(w http.ResponseWriter, r *http.Request, length int) (int, bool) {
	raw := chi.URLParam(r, "index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer", map[string]any{"index": raw})
		return 0, false
	}
	if idx < 0 || idx >= length {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no location at index %d", idx), nil)
		return 0, false
	}
	return idx, true
}

// LocationsResponse is the JSON response for GET /api/admin/locations.
type LocationsResponse struct {
	Locations []route.Stop `json:"locations"`
	Count     int          `json:"count"`
}

// ListLocations handles GET /api/admin/locations.
func (h *AdminHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	stops, err := h.store.LoadStops(r.Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to load route", map[string]any{"internal": err.Error()})
		return
	}
	if stops == nil {
		stops = []route.Stop{}
	}
	writeJSON(w, http.StatusOK, LocationsResponse{Locations: stops, Count: len(stops)})
}

// AddLocation handles POST /api/admin/locations. The payload must carry
// name, latitude, longitude and utc_offset; failures propagate as 400s
// rather than being skipped, since there is no batch to protect.
func (h *AdminHandler) AddLocation(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	var payload map[string]any
	if !decodeBody(w, r, &payload) {
		return
	}

	stop, err := route.StopFromPayload(payload)
	if err != nil {
		writeFieldError(w, err)
		return
	}

	stops, err := h.store.LoadStops(r.Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to load route", map[string]any{"internal": err.Error()})
		return
	}
	stops = append(stops, stop)
	if !h.saveStops(w, r, stops) {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"location": stop, "index": len(stops) - 1})
}

// UpdateLocation handles PUT /api/admin/locations/{index}. The body is a
// partial payload; absent fields keep their current values.
func (h *AdminHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	var payload map[string]any
	if !decodeBody(w, r, &payload) {
		return
	}

	stops, ok := h.loadStops(w, r)
	if !ok {
		return
	}
	idx, ok := stopIndex(w, r, len(stops))
	if !ok {
		return
	}

	updated, err := route.ApplyPayload(stops[idx], payload)
	if err != nil {
		writeFieldError(w, err)
		return
	}
	stops[idx] = updated
	if !h.saveStops(w, r, stops) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": updated, "index": idx})
}

// DeleteLocation handles DELETE /api/admin/locations/{index}.
func (h *AdminHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	stops, ok := h.loadStops(w, r)
	if !ok {
		return
	}
	idx, ok := stopIndex(w, r, len(stops))
	if !ok {
		return
	}

	removed := stops[idx]
	stops = append(stops[:idx], stops[idx+1:]...)
	if !h.saveStops(w, r, stops) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "count": len(stops)})
}

// ImportRequest is the body of POST /api/admin/locations/import. Data may
// be a bare record array or a document with a route/nodes/stops key, in
// either dialect.
type ImportRequest struct {
	Mode string          `json:"mode"` // "append" or "replace"; empty means replace
	Data json.RawMessage `json:"data"`
}

// ImportResponse reports what an import did, including what it skipped.
type ImportResponse struct {
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Skipped  []string `json:"skipped"`
	Warnings []string `json:"warnings"`
}

// ImportLocations handles POST /api/admin/locations/import. Bad records are
// skipped and reported, never fatal; a document that cannot be parsed at
// all is a 400.
func (h *AdminHandler) ImportLocations(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	var req ImportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Mode != "" && req.Mode != "append" && req.Mode != "replace" {
		writeError(w, http.StatusBadRequest, "mode must be \"append\" or \"replace\"", map[string]any{"mode": req.Mode})
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "data is required", nil)
		return
	}

	records, err := route.ParseDocument(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	imported, report := route.NormalizeForPersistence(records)
	if h.metrics != nil {
		h.metrics.RecordsSkipped.Add(float64(len(report.Skipped)))
	}

	stops := imported
	if req.Mode == "append" {
		existing, err := h.store.LoadStops(r.Context())
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "Failed to load route", map[string]any{"internal": err.Error()})
			return
		}
		stops = append(existing, imported...)
	}
	if !h.saveStops(w, r, stops) {
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{
		Imported: len(imported),
		Total:    len(stops),
		Skipped:  append([]string{}, report.Skipped...),
		Warnings: append([]string{}, report.Warnings...),
	})
}

// ValidateLocations handles GET /api/admin/locations/validate.
func (h *AdminHandler) ValidateLocations(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	stops, ok := h.loadStops(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, route.ValidateStops(stops))
}

// RouteStatusResponse is the JSON response for GET /api/admin/route/status.
// RouteComplete means every stop carries a full schedule.
type RouteStatusResponse struct {
	Summary           timeline.Summary `json:"summary"`
	PriorityBreakdown map[string]int   `json:"priority_breakdown"`
	RouteComplete     bool             `json:"route_complete"`
	LastModified      *time.Time       `json:"last_modified,omitempty"`
}

// RouteStatus handles GET /api/admin/route/status: timing summary plus a
// count of stops per priority bucket, unset priorities under "default".
func (h *AdminHandler) RouteStatus(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	stops, ok := h.loadStops(w, r)
	if !ok {
		return
	}

	breakdown := map[string]int{}
	for _, s := range stops {
		key := "default"
		if s.Priority != nil {
			key = strconv.Itoa(*s.Priority)
		}
		breakdown[key]++
	}

	summary := timeline.Summarize(stops)
	response := RouteStatusResponse{
		Summary:           summary,
		PriorityBreakdown: breakdown,
		RouteComplete:     len(stops) > 0 && summary.WithTiming == len(stops),
	}
	if modified, err := h.store.LastModified(r.Context()); err == nil {
		response.LastModified = &modified
	}
	writeJSON(w, http.StatusOK, response)
}

// SimulateRequest is the body of POST /api/admin/route/simulate.
// location_ids must be a JSON array when present; any other type is a hard
// 400, unlike individual out-of-range indices which are dropped silently.
type SimulateRequest struct {
	LocationIDs json.RawMessage `json:"location_ids"`
}

// Simulate handles POST /api/admin/route/simulate.
func (h *AdminHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	var req SimulateRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	var indices []int
	if len(req.LocationIDs) > 0 && string(req.LocationIDs) != "null" {
		if err := json.Unmarshal(req.LocationIDs, &indices); err != nil {
			writeError(w, http.StatusBadRequest, "location_ids must be an array of integers", nil)
			return
		}
		if indices == nil {
			indices = []int{}
		}
	}

	stops, ok := h.loadStops(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, timeline.Preview(stops, indices))
}

// CreateTrial handles POST /api/admin/trial. With an empty body the trial
// starts as a copy of the active route; with a data document it starts from
// that, normalized with the usual skip-and-report rules.
func (h *AdminHandler) CreateTrial(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	var req struct {
		Data json.RawMessage `json:"data"`
	}
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	var stops []route.Stop
	var report route.NormalizeReport
	if len(req.Data) > 0 && string(req.Data) != "null" {
		records, err := route.ParseDocument(req.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		stops, report = route.NormalizeForPersistence(records)
	} else {
		var ok bool
		stops, ok = h.loadStops(w, r)
		if !ok {
			return
		}
	}

	if err := h.store.SaveTrial(r.Context(), stops); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save trial route", map[string]any{"internal": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"count":    len(stops),
		"skipped":  append([]string{}, report.Skipped...),
		"warnings": append([]string{}, report.Warnings...),
	})
}

// GetTrial handles GET /api/admin/trial.
func (h *AdminHandler) GetTrial(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	stops, err := h.store.LoadTrial(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no trial route", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load trial route", map[string]any{"internal": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, LocationsResponse{Locations: stops, Count: len(stops)})
}

// SimulateTrial handles POST /api/admin/trial/simulate, previewing the trial
// route with the same selection rules as Simulate.
func (h *AdminHandler) SimulateTrial(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	var req SimulateRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	var indices []int
	if len(req.LocationIDs) > 0 && string(req.LocationIDs) != "null" {
		if err := json.Unmarshal(req.LocationIDs, &indices); err != nil {
			writeError(w, http.StatusBadRequest, "location_ids must be an array of integers", nil)
			return
		}
		if indices == nil {
			indices = []int{}
		}
	}

	stops, err := h.store.LoadTrial(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no trial route", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load trial route", map[string]any{"internal": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, timeline.Preview(stops, indices))
}

// DeleteTrial handles DELETE /api/admin/trial.
func (h *AdminHandler) DeleteTrial(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	err := h.store.DeleteTrial(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no trial route", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to delete trial route", map[string]any{"internal": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ApplyTrial handles POST /api/admin/trial/apply, promoting the trial route
// to active.
func (h *AdminHandler) ApplyTrial(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	stops, err := store.ApplyTrial(r.Context(), h.store)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no trial route", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to apply trial route", map[string]any{"internal": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": true, "count": len(stops)})
}

// ExportBackup handles GET /api/admin/backup/export.
func (h *AdminHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	h.countRequest()
	backup, err := store.ExportBackup(r.Context(), h.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export backup", map[string]any{"internal": err.Error()})
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"tracker-backup-%s.json\"", h.now().Format("20060102-150405")))
	writeJSON(w, http.StatusOK, backup)
}
