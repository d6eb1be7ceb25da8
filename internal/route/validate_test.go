package route

import (
	"strings"
	"testing"
)

func mkStop(name string, lat, lng, offset float64) Stop {
	return Stop{Name: name, Latitude: lat, Longitude: lng, UTCOffset: offset, IsStop: true}
}

func TestValidateStopsDuplicateNames(t *testing.T) {
	report := ValidateStops([]Stop{
		mkStop("Paris", 48.8566, 2.3522, 1),
		mkStop("Lyon", 45.7640, 4.8357, 1),
		mkStop("Paris", 33.6609, -95.5555, -6), // Paris, Texas
	})

	if report.Valid {
		t.Error("duplicate names must fail validation")
	}
	if report.Total != 3 {
		t.Errorf("Total = %d, want 3", report.Total)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", report.Errors)
	}
	if msg := report.Errors[0]; !strings.Contains(msg, `"Paris"`) ||
		!strings.Contains(msg, "0") || !strings.Contains(msg, "2") {
		t.Errorf("error should name both indices: %q", msg)
	}
}

func TestValidateStopsNameCaseSensitive(t *testing.T) {
	report := ValidateStops([]Stop{
		mkStop("paris", 48.8566, 2.3522, 1),
		mkStop("Paris", 33.6609, -95.5555, -6),
	})
	if !report.Valid {
		t.Errorf("names differing in case are distinct, got errors %v", report.Errors)
	}
}

func TestValidateStopsSharedCoordinatesWarnOnly(t *testing.T) {
	report := ValidateStops([]Stop{
		mkStop("Terminal A", 51.47002, -0.45429, 0),
		mkStop("Terminal B", 51.47004, -0.45431, 0), // same after 4-decimal rounding
	})

	if !report.Valid {
		t.Errorf("shared coordinates alone must not fail validation: %v", report.Errors)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "share coordinates") {
		t.Errorf("unexpected warning: %q", report.Warnings[0])
	}
}

func TestValidateStopsRangeAndPriority(t *testing.T) {
	bad := mkStop("Broken", 95, 200, 16)
	pri := 5
	bad.Priority = &pri

	report := ValidateStops([]Stop{bad})
	if report.Valid {
		t.Error("out-of-range stop must fail validation")
	}
	// latitude, longitude, utc_offset and priority each contribute an error
	if len(report.Errors) != 4 {
		t.Errorf("expected 4 errors, got %v", report.Errors)
	}
}

func TestValidateStopsUnusualOffsetWarns(t *testing.T) {
	report := ValidateStops([]Stop{
		mkStop("Kathmandu", 27.7172, 85.3240, 5.75),
		mkStop("Oddball", 0, 0, 5.3),
	})
	if !report.Valid {
		t.Errorf("unusual offsets are warnings, got errors %v", report.Errors)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "Oddball") {
		t.Errorf("expected a single warning for Oddball, got %v", report.Warnings)
	}
}

func TestValidateStopsEmpty(t *testing.T) {
	report := ValidateStops(nil)
	if !report.Valid || report.Total != 0 {
		t.Errorf("empty list should be valid: %+v", report)
	}
	if report.Errors == nil || report.Warnings == nil {
		t.Error("error and warning lists must serialize as [] not null")
	}
}
