// Package route defines the canonical Stop model and converts the raw
// record dialects found in route documents into it. The package is purely
// computational: it never reads files or mutates its inputs, and every
// normalization call builds fresh Stop values.
package route

import (
	"fmt"
	"strings"
)

// Stop is the canonical unit of the route: one waypoint with coordinates,
// an optional schedule and optional metadata. Field tags give the flat
// legacy persistence shape written to route documents.
type Stop struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UTCOffset float64 `json:"utc_offset"`
	Country   string  `json:"country,omitempty"` // alias keys: region, country

	ArrivalTime   string `json:"arrival_time,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	StopDuration  *int   `json:"stop_duration,omitempty"` // minutes
	Priority      *int   `json:"priority,omitempty"`      // 1..3, 1 highest
	Notes         string `json:"fun_facts,omitempty"`
	IsStop        bool   `json:"is_stop"`
}

// HasSchedule reports whether both schedule timestamps are present. It says
// nothing about whether they parse; the timeline package decides that.
func (s Stop) HasSchedule() bool {
	return s.ArrivalTime != "" && s.DepartureTime != ""
}

// EffectivePriority is the priority used for sorting: the stored value when
// set, otherwise 2. The default is never written back to the Stop.
func (s Stop) EffectivePriority() int {
	if s.Priority != nil {
		return *s.Priority
	}
	return 2
}

// Node is the canonical nested record produced for programmatic callers.
// Top-level bookkeeping fields (notes, priority) are deliberately absent:
// they are legacy pass-through for file-backed persistence only.
type Node struct {
	ID             string          `json:"id"`
	Type           string          `json:"type,omitempty"`
	Location       NodeLocation    `json:"location"`
	Schedule       *NodeSchedule   `json:"schedule,omitempty"`
	StopExperience *NodeExperience `json:"stop_experience,omitempty"`
}

type NodeLocation struct {
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	TimezoneOffset float64 `json:"timezone_offset"`
	Region         string  `json:"region,omitempty"`
}

type NodeSchedule struct {
	ArrivalUTC   string `json:"arrival_utc,omitempty"`
	DepartureUTC string `json:"departure_utc,omitempty"`
}

type NodeExperience struct {
	DurationSeconds float64 `json:"duration_seconds"`
}

// Dialect identifies which raw shape a record uses. Detection is the single
// discriminator for the whole package; nothing else probes record keys.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectNested          // location sub-object carrying coordinates
	DialectFlat            // top-level coordinates, legacy shape
)

func (d Dialect) String() string {
	switch d {
	case DialectNested:
		return "nested"
	case DialectFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// DetectDialect inspects which keys a raw record carries. Rules are tried in
// order and the first match wins: a coordinate-bearing location sub-object
// means nested; top-level coordinates with no location sub-object mean flat;
// anything else is unknown and the record is rejected. A record the package
// itself persisted must always re-detect as flat.
func DetectDialect(rec map[string]any) Dialect {
	if loc, ok := rec["location"].(map[string]any); ok && hasCoordKeys(loc) {
		return DialectNested
	}
	if _, ok := rec["location"].(map[string]any); ok {
		return DialectUnknown
	}
	if hasCoordKeys(rec) {
		return DialectFlat
	}
	return DialectUnknown
}

func hasCoordKeys(m map[string]any) bool {
	_, lat := firstKey(m, "lat", "latitude")
	_, lng := firstKey(m, "lng", "longitude")
	return lat && lng
}

// firstKey resolves a small set of legacy aliases to one value. Alias
// resolution happens here, once, at ingestion; consumers only ever see
// canonical names.
func firstKey(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// deriveID builds a stable identifier for a record that arrived without one:
// a slug of the display name, or the record's position in the batch.
func deriveID(name string, index int) string {
	if name != "" {
		slug := strings.ToLower(strings.TrimSpace(name))
		slug = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			case r == ' ', r == '-', r == '_':
				return '-'
			default:
				return -1
			}
		}, slug)
		slug = strings.Trim(slug, "-")
		if slug != "" {
			return slug
		}
	}
	return fmt.Sprintf("stop-%d", index)
}
