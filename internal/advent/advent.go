// Package advent holds the December 1-24 advent calendar: daily content
// unlocked by a server-side clock, with an admin override per day. Unlock
// decisions always happen here; clients only ever see the computed flag.
package advent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var validContentTypes = []string{"fact", "game", "story", "video", "activity", "quiz"}

// Day is one calendar entry. Payload is free-form per content type; the
// override, when set, wins over the unlock time in both directions.
type Day struct {
	Day              int            `json:"day"`
	Title            string         `json:"title"`
	UnlockTime       string         `json:"unlock_time"`
	ContentType      string         `json:"content_type"`
	Payload          map[string]any `json:"payload"`
	UnlockedOverride *bool          `json:"is_unlocked_override,omitempty"`
}

// Check validates the fields every Day must carry. Called on load and on
// admin writes; a calendar file with a bad day never loads partially.
func (d Day) Check() error {
	if d.Day < 1 || d.Day > 24 {
		return fmt.Errorf("day must be between 1 and 24, got %d", d.Day)
	}
	valid := false
	for _, t := range validContentTypes {
		if d.ContentType == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("content type must be one of %v, got %q", validContentTypes, d.ContentType)
	}
	if _, err := time.Parse(time.RFC3339, d.UnlockTime); err != nil {
		return fmt.Errorf("invalid unlock_time for day %d: %w", d.Day, err)
	}
	return nil
}

// Unlocked reports whether the day is open at now. The admin override, when
// present, is authoritative.
func (d Day) Unlocked(now time.Time) bool {
	if d.UnlockedOverride != nil {
		return *d.UnlockedOverride
	}
	unlockAt, err := time.Parse(time.RFC3339, d.UnlockTime)
	if err != nil {
		return false
	}
	return !now.Before(unlockAt)
}

// View is the client-facing shape of a day. Payload is present only when
// the day is unlocked and the caller asked for content.
type View struct {
	Day         int            `json:"day"`
	Title       string         `json:"title"`
	UnlockTime  string         `json:"unlock_time"`
	ContentType string         `json:"content_type"`
	IsUnlocked  bool           `json:"is_unlocked"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func (d Day) view(includePayload bool, now time.Time) View {
	v := View{
		Day:         d.Day,
		Title:       d.Title,
		UnlockTime:  d.UnlockTime,
		ContentType: d.ContentType,
		IsUnlocked:  d.Unlocked(now),
	}
	if includePayload && v.IsUnlocked {
		v.Payload = d.Payload
	}
	return v
}

// Manifest lists every day with its unlock state but never any payload, so
// a locked day's content cannot leak through the listing.
type Manifest struct {
	TotalDays int    `json:"total_days"`
	Days      []View `json:"days"`
}

// Calendar is an in-memory advent calendar loaded from a JSON file.
type Calendar struct {
	days []Day
}

func New(days []Day) (*Calendar, error) {
	for _, d := range days {
		if err := d.Check(); err != nil {
			return nil, err
		}
	}
	return &Calendar{days: days}, nil
}

// Load reads a {"days": [...]} calendar document from disk.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read advent calendar: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("advent calendar file is empty: %s", path)
	}

	var doc struct {
		Days []Day `json:"days"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode advent calendar %s: %w", path, err)
	}
	return New(doc.Days)
}

// Save writes the calendar back as an indented {"days": [...]} document,
// through a temp file and rename.
func (c *Calendar) Save(path string) error {
	data, err := json.MarshalIndent(map[string]any{"days": c.days}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode advent calendar: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".advent-*.json")
	if err != nil {
		return fmt.Errorf("create temp calendar: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp calendar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp calendar: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace calendar file: %w", err)
	}
	return nil
}

func (c *Calendar) Days() []Day {
	out := make([]Day, len(c.days))
	copy(out, c.days)
	return out
}

// Manifest returns unlock state for every day, payloads withheld.
func (c *Calendar) Manifest(now time.Time) Manifest {
	views := make([]View, len(c.days))
	for i, d := range c.days {
		views[i] = d.view(false, now)
	}
	return Manifest{TotalDays: len(c.days), Days: views}
}

// DayContent returns the full view for one day, payload included when
// unlocked. The second return is false when the day does not exist.
func (c *Calendar) DayContent(dayNumber int, now time.Time) (View, bool) {
	if dayNumber < 1 || dayNumber > 24 {
		return View{}, false
	}
	for _, d := range c.days {
		if d.Day == dayNumber {
			return d.view(true, now), true
		}
	}
	return View{}, false
}

// SetDay inserts or replaces one day's entry.
func (c *Calendar) SetDay(day Day) error {
	if err := day.Check(); err != nil {
		return err
	}
	for i, d := range c.days {
		if d.Day == day.Day {
			c.days[i] = day
			return nil
		}
	}
	c.days = append(c.days, day)
	sort.Slice(c.days, func(i, j int) bool { return c.days[i].Day < c.days[j].Day })
	return nil
}

// SetOverride forces a day open or closed, or clears the override with nil.
func (c *Calendar) SetOverride(dayNumber int, override *bool) error {
	for i, d := range c.days {
		if d.Day == dayNumber {
			c.days[i].UnlockedOverride = override
			return nil
		}
	}
	return fmt.Errorf("day %d not found", dayNumber)
}

// ValidationResult reports calendar-wide problems. Duplicate days are
// errors; gaps and thin payloads are warnings.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	TotalDays    int      `json:"total_days"`
	CompleteDays int      `json:"complete_days"`
}

// payloadKeyByType names the payload field each content type must carry.
var payloadKeyByType = map[string]string{
	"fact":     "text",
	"story":    "text",
	"game":     "url",
	"video":    "video_url",
	"activity": "url",
	"quiz":     "url",
}

func (c *Calendar) Validate() ValidationResult {
	result := ValidationResult{
		Errors:    []string{},
		Warnings:  []string{},
		TotalDays: len(c.days),
	}

	seen := map[int]bool{}
	duplicates := map[int]bool{}
	for _, d := range c.days {
		if seen[d.Day] {
			duplicates[d.Day] = true
		}
		seen[d.Day] = true
	}
	if len(duplicates) > 0 {
		dups := make([]int, 0, len(duplicates))
		for d := range duplicates {
			dups = append(dups, d)
		}
		sort.Ints(dups)
		result.Errors = append(result.Errors, fmt.Sprintf("duplicate day numbers found: %v", dups))
	}

	var missing []int
	for day := 1; day <= 24; day++ {
		if !seen[day] {
			missing = append(missing, day)
		}
	}
	if len(missing) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("missing days: %v", missing))
	}

	for _, d := range c.days {
		if len(d.Payload) > 0 {
			result.CompleteDays++
		}
		if key := payloadKeyByType[d.ContentType]; key != "" {
			if v, ok := d.Payload[key].(string); !ok || v == "" {
				result.Warnings = append(result.Warnings, fmt.Sprintf("day %d: missing %q in payload", d.Day, key))
			}
		}
		if img, ok := d.Payload["image_url"].(string); ok && img != "" &&
			!strings.HasPrefix(img, "/static/") && !strings.HasPrefix(img, "http") {
			result.Warnings = append(result.Warnings, fmt.Sprintf("day %d: unusual image_url format: %s", d.Day, img))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
