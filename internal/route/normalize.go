package route

import (
	"encoding/json"
	"fmt"
	"log"
	"math"

	"github.com/WxboySuper/Santa-Tracker/internal/geo"
)

// NormalizeReport collects the non-fatal fallout of a batch normalization:
// records that had to be skipped and fields that were dropped. One bad
// record never discards the rest of the batch.
type NormalizeReport struct {
	Skipped  []string
	Warnings []string
}

func (r *NormalizeReport) skip(index int, err error) {
	msg := fmt.Sprintf("skipping record at index %d: %v", index, err)
	log.Printf("normalize: %s", msg)
	r.Skipped = append(r.Skipped, msg)
}

func (r *NormalizeReport) warn(index int, msg string) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("record %d: %s", index, msg))
}

// ExtractNodes locates the raw record list inside a decoded JSON document.
// It accepts a bare array, or an object keyed by "route", "nodes" or
// "stops". Anything else is an error; a present key holding a non-array is
// reported separately from an unsupported document type.
func ExtractNodes(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case []map[string]any:
		return v, nil
	case []any:
		return recordList(v)
	case map[string]any:
		for _, key := range []string{"route", "nodes", "stops"} {
			raw, ok := v[key]
			if !ok {
				continue
			}
			arr, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("unable to locate nodes list in input JSON: %q is not an array", key)
			}
			return recordList(arr)
		}
		return nil, fmt.Errorf("unable to locate nodes list in input JSON: no route/nodes/stops key")
	default:
		return nil, fmt.Errorf("input must be a JSON array or an object with a route/nodes/stops key, got %T", doc)
	}
}

// ParseDocument decodes raw JSON bytes and extracts the record list.
func ParseDocument(data []byte) ([]map[string]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode route document: %w", err)
	}
	return ExtractNodes(doc)
}

func recordList(arr []any) ([]map[string]any, error) {
	records := make([]map[string]any, 0, len(arr))
	for i, item := range arr {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record at index %d is not an object", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

// NormalizeForPersistence converts a batch of raw records, of whatever
// dialect, into canonical Stops in the flat legacy shape used by the route
// document on disk. Per-record failures are logged, counted and skipped.
func NormalizeForPersistence(records []map[string]any) ([]Stop, NormalizeReport) {
	var report NormalizeReport
	stops := make([]Stop, 0, len(records))
	for i, rec := range records {
		stop, warnings, err := normalizeOne(rec, i)
		for _, w := range warnings {
			report.warn(i, w)
		}
		if err != nil {
			report.skip(i, err)
			continue
		}
		stops = append(stops, stop)
	}
	return stops, report
}

// NormalizeForComputation converts a batch of raw records into canonical
// nested Nodes for programmatic callers. Top-level bookkeeping fields
// (notes, priority) are stripped; they are persistence pass-through only.
func NormalizeForComputation(records []map[string]any) ([]Node, NormalizeReport) {
	var report NormalizeReport
	nodes := make([]Node, 0, len(records))
	for i, rec := range records {
		stop, warnings, err := normalizeOne(rec, i)
		for _, w := range warnings {
			report.warn(i, w)
		}
		if err != nil {
			report.skip(i, err)
			continue
		}
		node := Node{
			ID:   stop.ID,
			Type: stringValue(rec["type"]),
			Location: NodeLocation{
				Name:           stop.Name,
				Lat:            stop.Latitude,
				Lng:            stop.Longitude,
				TimezoneOffset: stop.UTCOffset,
				Region:         stop.Country,
			},
		}
		if stop.HasSchedule() {
			node.Schedule = &NodeSchedule{ArrivalUTC: stop.ArrivalTime, DepartureUTC: stop.DepartureTime}
		}
		if stop.StopDuration != nil {
			node.StopExperience = &NodeExperience{DurationSeconds: float64(*stop.StopDuration) * 60}
		}
		nodes = append(nodes, node)
	}
	return nodes, report
}

// normalizeOne is the single extraction path: flat records are synthesized
// into the nested shape first, so both dialects flow through the same code.
func normalizeOne(rec map[string]any, index int) (Stop, []string, error) {
	switch DetectDialect(rec) {
	case DialectNested:
		return stopFromNested(rec, index)
	case DialectFlat:
		return stopFromNested(synthesizeNested(rec), index)
	default:
		return Stop{}, nil, &MalformedRecordError{Index: index}
	}
}

// synthesizeNested rewrites a legacy flat record as an equivalent nested one
// in memory. In the flat dialect "location" holds the display name, not a
// sub-object.
func synthesizeNested(rec map[string]any) map[string]any {
	loc := map[string]any{}
	if v, ok := firstKey(rec, "name", "location"); ok {
		loc["name"] = v
	}
	if v, ok := firstKey(rec, "latitude", "lat"); ok {
		loc["lat"] = v
	}
	if v, ok := firstKey(rec, "longitude", "lng"); ok {
		loc["lng"] = v
	}
	if v, ok := firstKey(rec, "utc_offset", "timezone_offset"); ok {
		loc["timezone_offset"] = v
	}
	if v, ok := firstKey(rec, "region", "country"); ok {
		loc["region"] = v
	}

	nested := map[string]any{"location": loc}
	if arr, arrOK := rec["arrival_time"]; arrOK {
		sched := map[string]any{"arrival_utc": arr}
		if dep, depOK := rec["departure_time"]; depOK {
			sched["departure_utc"] = dep
		}
		nested["schedule"] = sched
	} else if dep, depOK := rec["departure_time"]; depOK {
		nested["schedule"] = map[string]any{"departure_utc": dep}
	}
	for _, key := range []string{"id", "stop_duration", "priority", "is_stop", "type"} {
		if v, ok := rec[key]; ok {
			nested[key] = v
		}
	}
	if v, ok := firstKey(rec, "notes", "fun_facts"); ok {
		nested["notes"] = v
	}
	return nested
}

// stopFromNested extracts one canonical Stop from a nested-shaped record.
// Missing coordinates are the only hard per-record failure; a bad optional
// field is dropped with a warning and the rest of the record survives.
func stopFromNested(rec map[string]any, index int) (Stop, []string, error) {
	var warnings []string
	loc, _ := rec["location"].(map[string]any)

	rawLat, ok := firstKey(loc, "lat", "latitude")
	if !ok {
		return Stop{}, warnings, &MissingFieldError{Field: "latitude"}
	}
	lat, err := geo.CoerceFloat("latitude", rawLat)
	if err != nil {
		return Stop{}, warnings, err
	}
	rawLng, ok := firstKey(loc, "lng", "longitude")
	if !ok {
		return Stop{}, warnings, &MissingFieldError{Field: "longitude"}
	}
	lng, err := geo.CoerceFloat("longitude", rawLng)
	if err != nil {
		return Stop{}, warnings, err
	}

	// Timezone offset defaults to UTC when absent; a present but garbled
	// value is dropped the same way, with a warning.
	tz := 0.0
	if rawTZ, tzOK := firstKey(loc, "timezone_offset", "utc_offset"); tzOK {
		if v, convErr := geo.CoerceFloat("timezone_offset", rawTZ); convErr == nil {
			tz = v
		} else {
			warnings = append(warnings, fmt.Sprintf("unusable timezone_offset %v, defaulting to 0", rawTZ))
		}
	}

	lat, lng, tz, geoWarnings, err := geo.ValidateAndNormalize(lat, lng, tz)
	if err != nil {
		return Stop{}, warnings, err
	}
	warnings = append(warnings, geoWarnings...)

	name := stringValue(loc["name"])
	stop := Stop{
		ID:        stringValue(rec["id"]),
		Name:      name,
		Latitude:  lat,
		Longitude: lng,
		UTCOffset: tz,
		Country:   stringValue(loc["region"]),
		IsStop:    true,
	}
	if stop.ID == "" {
		stop.ID = deriveID(name, index)
	}

	if sched, ok := rec["schedule"].(map[string]any); ok {
		stop.ArrivalTime = stringValue(sched["arrival_utc"])
		stop.DepartureTime = stringValue(sched["departure_utc"])
	}

	stop.StopDuration, warnings = extractDuration(rec, warnings)

	if rawPri, ok := rec["priority"]; ok && rawPri != nil {
		pri, err := coercePriority(rawPri)
		if err != nil {
			return Stop{}, warnings, err
		}
		stop.Priority = &pri
	}

	if rawNotes, ok := firstKey(rec, "notes", "fun_facts"); ok {
		stop.Notes = stringValue(rawNotes)
	}
	if v, ok := rec["is_stop"].(bool); ok {
		stop.IsStop = v
	}
	return stop, warnings, nil
}

// extractDuration resolves the two duration encodings: a nested
// stop_experience.duration_seconds (converted to whole minutes) or a flat
// stop_duration already in minutes. Non-numeric values are dropped, never
// defaulted.
func extractDuration(rec map[string]any, warnings []string) (*int, []string) {
	if exp, ok := rec["stop_experience"].(map[string]any); ok {
		if raw, rawOK := exp["duration_seconds"]; rawOK && raw != nil {
			secs, err := geo.CoerceFloat("duration_seconds", raw)
			if err != nil {
				return nil, append(warnings, fmt.Sprintf("unusable duration_seconds %v, dropping stop duration", raw))
			}
			mins := int(secs / 60)
			return &mins, warnings
		}
	}
	if raw, ok := rec["stop_duration"]; ok && raw != nil {
		mins, err := geo.CoerceFloat("stop_duration", raw)
		if err != nil {
			return nil, append(warnings, fmt.Sprintf("unusable stop_duration %v, dropping stop duration", raw))
		}
		m := int(mins)
		return &m, warnings
	}
	return nil, warnings
}

func coercePriority(raw any) (int, error) {
	f, err := geo.CoerceFloat("priority", raw)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, &geo.ConversionError{Field: "priority", Value: raw}
	}
	pri := int(f)
	if pri < 1 || pri > 3 {
		return 0, &geo.RangeError{Field: "priority", Value: f, Min: 1, Max: 3}
	}
	return pri, nil
}

// StopFromPayload normalizes a single externally supplied record (an admin
// add operation). Unlike batch normalization there is no rest-of-batch to
// protect, so failures propagate directly. Name and all three numeric
// fields are required.
func StopFromPayload(payload map[string]any) (Stop, error) {
	if payload == nil {
		return Stop{}, fmt.Errorf("payload must be an object")
	}
	nameRaw, ok := firstKey(payload, "name", "location")
	name := stringValue(nameRaw)
	if !ok || name == "" {
		return Stop{}, &MissingFieldError{Field: "name"}
	}
	for _, field := range []struct {
		name string
		keys []string
	}{
		{"latitude", []string{"latitude", "lat"}},
		{"longitude", []string{"longitude", "lng"}},
		{"utc_offset", []string{"utc_offset", "timezone_offset"}},
	} {
		if _, present := firstKey(payload, field.keys...); !present {
			return Stop{}, &MissingFieldError{Field: field.name}
		}
	}
	stop, _, err := normalizeOne(payload, 0)
	if err != nil {
		return Stop{}, err
	}
	return stop, nil
}

// ApplyPayload builds a new Stop from an existing one and a partial update
// payload. The original Stop is never modified; callers replace the stop at
// its index with the returned value.
func ApplyPayload(s Stop, payload map[string]any) (Stop, error) {
	updated := s
	if raw, ok := firstKey(payload, "name", "location"); ok {
		if name := stringValue(raw); name != "" {
			updated.Name = name
		}
	}
	if raw, ok := firstKey(payload, "latitude", "lat"); ok {
		lat, err := geo.CoerceFloat("latitude", raw)
		if err != nil {
			return Stop{}, err
		}
		if err := geo.CheckLatitude(lat); err != nil {
			return Stop{}, err
		}
		updated.Latitude = lat
	}
	if raw, ok := firstKey(payload, "longitude", "lng"); ok {
		lng, err := geo.CoerceFloat("longitude", raw)
		if err != nil {
			return Stop{}, err
		}
		updated.Longitude = geo.WrapLongitude(lng)
	}
	if raw, ok := firstKey(payload, "utc_offset", "timezone_offset"); ok {
		tz, err := geo.CoerceFloat("utc_offset", raw)
		if err != nil {
			return Stop{}, err
		}
		if err := geo.CheckUTCOffset(tz); err != nil {
			return Stop{}, err
		}
		updated.UTCOffset = tz
	}
	if raw, ok := payload["arrival_time"]; ok {
		updated.ArrivalTime = stringValue(raw)
	}
	if raw, ok := payload["departure_time"]; ok {
		updated.DepartureTime = stringValue(raw)
	}
	if raw, ok := payload["priority"]; ok {
		if raw == nil {
			updated.Priority = nil
		} else {
			pri, err := coercePriority(raw)
			if err != nil {
				return Stop{}, err
			}
			updated.Priority = &pri
		}
	}
	if raw, ok := payload["stop_duration"]; ok {
		if raw == nil {
			updated.StopDuration = nil
		} else if mins, err := geo.CoerceFloat("stop_duration", raw); err == nil {
			m := int(mins)
			updated.StopDuration = &m
		}
	}
	if raw, ok := firstKey(payload, "notes", "fun_facts"); ok {
		updated.Notes = stringValue(raw)
	}
	if v, ok := payload["is_stop"].(bool); ok {
		updated.IsStop = v
	}
	return updated, nil
}
