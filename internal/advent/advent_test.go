package advent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleDay(day int, unlockTime string) Day {
	return Day{
		Day:         day,
		Title:       "Test day",
		UnlockTime:  unlockTime,
		ContentType: "fact",
		Payload:     map[string]any{"text": "Reindeer can see ultraviolet light."},
	}
}

func TestDayCheck(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Day)
		wantErr string
	}{
		{"valid", func(d *Day) {}, ""},
		{"day zero", func(d *Day) { d.Day = 0 }, "between 1 and 24"},
		{"day 25", func(d *Day) { d.Day = 25 }, "between 1 and 24"},
		{"bad content type", func(d *Day) { d.ContentType = "meme" }, "content type"},
		{"bad unlock time", func(d *Day) { d.UnlockTime = "december first" }, "unlock_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDay(1, "2024-12-01T00:00:00Z")
			tt.mutate(&d)
			err := d.Check()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Check() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Check() = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestDayUnlocked(t *testing.T) {
	d := sampleDay(1, "2024-12-01T00:00:00Z")

	before := time.Date(2024, 11, 30, 23, 59, 59, 0, time.UTC)
	exact := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)

	if d.Unlocked(before) {
		t.Error("locked before unlock time")
	}
	if !d.Unlocked(exact) {
		t.Error("the unlock instant itself counts as unlocked")
	}
	if !d.Unlocked(after) {
		t.Error("unlocked after unlock time")
	}

	forceOpen := true
	d.UnlockedOverride = &forceOpen
	if !d.Unlocked(before) {
		t.Error("override true should open a future day")
	}
	forceClosed := false
	d.UnlockedOverride = &forceClosed
	if d.Unlocked(after) {
		t.Error("override false should close a past day")
	}
}

func TestManifestNeverLeaksPayload(t *testing.T) {
	cal, err := New([]Day{
		sampleDay(1, "2024-12-01T00:00:00Z"),
		sampleDay(2, "2024-12-02T00:00:00Z"),
	})
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)
	manifest := cal.Manifest(now)
	if manifest.TotalDays != 2 {
		t.Errorf("total_days = %d", manifest.TotalDays)
	}
	if !manifest.Days[0].IsUnlocked || manifest.Days[1].IsUnlocked {
		t.Errorf("unlock flags wrong: %+v", manifest.Days)
	}
	for _, v := range manifest.Days {
		if v.Payload != nil {
			t.Errorf("manifest leaked payload for day %d", v.Day)
		}
	}
}

func TestDayContent(t *testing.T) {
	cal, err := New([]Day{
		sampleDay(1, "2024-12-01T00:00:00Z"),
		sampleDay(2, "2024-12-02T00:00:00Z"),
	})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)

	open, ok := cal.DayContent(1, now)
	if !ok || open.Payload == nil {
		t.Errorf("unlocked day should return payload: %+v", open)
	}

	locked, ok := cal.DayContent(2, now)
	if !ok || locked.Payload != nil || locked.IsUnlocked {
		t.Errorf("locked day should return metadata only: %+v", locked)
	}

	if _, ok := cal.DayContent(3, now); ok {
		t.Error("absent day should report not found")
	}
	if _, ok := cal.DayContent(0, now); ok {
		t.Error("day 0 is out of range")
	}
	if _, ok := cal.DayContent(25, now); ok {
		t.Error("day 25 is out of range")
	}
}

func TestCalendarSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advent_calendar.json")
	cal, err := New([]Day{sampleDay(1, "2024-12-01T00:00:00Z")})
	if err != nil {
		t.Fatal(err)
	}
	if err := cal.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	days := loaded.Days()
	if len(days) != 1 || days[0].Title != "Test day" {
		t.Errorf("round trip drifted: %+v", days)
	}
}

func TestLoadRejectsEmptyAndInvalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); err == nil {
		t.Error("empty file should fail to load")
	}

	bad := filepath.Join(dir, "bad.json")
	doc := `{"days": [{"day": 30, "title": "x", "unlock_time": "2024-12-01T00:00:00Z", "content_type": "fact", "payload": {}}]}`
	if err := os.WriteFile(bad, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("out-of-range day should fail to load")
	}
}

func TestSetDayAndOverride(t *testing.T) {
	cal, err := New([]Day{sampleDay(2, "2024-12-02T00:00:00Z")})
	if err != nil {
		t.Fatal(err)
	}

	if err := cal.SetDay(sampleDay(1, "2024-12-01T00:00:00Z")); err != nil {
		t.Fatal(err)
	}
	days := cal.Days()
	if len(days) != 2 || days[0].Day != 1 {
		t.Errorf("days should stay sorted: %+v", days)
	}

	replacement := sampleDay(2, "2024-12-02T06:00:00Z")
	if err := cal.SetDay(replacement); err != nil {
		t.Fatal(err)
	}
	if len(cal.Days()) != 2 {
		t.Error("setting an existing day should replace, not append")
	}

	open := true
	if err := cal.SetOverride(2, &open); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	if v, _ := cal.DayContent(2, now); !v.IsUnlocked {
		t.Error("override should unlock the day")
	}
	if err := cal.SetOverride(2, nil); err != nil {
		t.Fatal(err)
	}
	if v, _ := cal.DayContent(2, now); v.IsUnlocked {
		t.Error("clearing the override should restore clock behavior")
	}

	if err := cal.SetOverride(9, &open); err == nil {
		t.Error("overriding an absent day should fail")
	}
}

func TestValidate(t *testing.T) {
	missingText := sampleDay(3, "2024-12-03T00:00:00Z")
	missingText.Payload = map[string]any{}
	weirdImage := sampleDay(4, "2024-12-04T00:00:00Z")
	weirdImage.Payload["image_url"] = "ftp://example.com/elf.png"

	cal := &Calendar{days: []Day{
		sampleDay(1, "2024-12-01T00:00:00Z"),
		sampleDay(1, "2024-12-01T00:00:00Z"),
		missingText,
		weirdImage,
	}}

	result := cal.Validate()
	if result.Valid {
		t.Error("duplicate days should make the calendar invalid")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "duplicate") {
		t.Errorf("errors = %v", result.Errors)
	}
	if result.TotalDays != 4 || result.CompleteDays != 3 {
		t.Errorf("counts = %d/%d, want 4/3", result.TotalDays, result.CompleteDays)
	}

	var hasMissing, hasPayload, hasImage bool
	for _, w := range result.Warnings {
		switch {
		case strings.Contains(w, "missing days"):
			hasMissing = true
		case strings.Contains(w, `missing "text"`):
			hasPayload = true
		case strings.Contains(w, "image_url"):
			hasImage = true
		}
	}
	if !hasMissing || !hasPayload || !hasImage {
		t.Errorf("warnings = %v", result.Warnings)
	}
}
