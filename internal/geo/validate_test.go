package geo

import (
	"errors"
	"testing"
)

func TestWrapLongitude(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{179.5, 179.5},
		{180, -180},
		{181, -179},
		{-181, 179},
		{-180, -180},
		{360, 0},
		{540, -180},
		{-74.006, -74.006},
	}
	for _, tt := range tests {
		if got := WrapLongitude(tt.in); got != tt.want {
			t.Errorf("WrapLongitude(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWrapLongitudeInRangeExactIdentity(t *testing.T) {
	// In-range longitudes must come back bit-for-bit identical; modular
	// arithmetic on them accumulates float drift across save/load cycles.
	for _, lng := range []float64{139.6503, -0.1278, 2.35, 151.2093, -122.4194, -179.9999} {
		got := WrapLongitude(lng)
		if got != lng {
			t.Errorf("WrapLongitude(%v) = %v, want the input unchanged", lng, got)
		}
		if again := WrapLongitude(got); again != got {
			t.Errorf("WrapLongitude(WrapLongitude(%v)) = %v, not stable", lng, again)
		}
	}

	// Wrapped results are themselves in range, so a second pass is identity.
	for _, lng := range []float64{181, -181, 180, 360.5, -359.9} {
		once := WrapLongitude(lng)
		if twice := WrapLongitude(once); twice != once {
			t.Errorf("wrap of %v not idempotent: %v then %v", lng, once, twice)
		}
	}
}

func TestValidateAndNormalizeRanges(t *testing.T) {
	// Latitude out of range is always a hard error.
	for _, lat := range []float64{90.1, 91, -91, 100} {
		_, _, _, _, err := ValidateAndNormalize(lat, 0, 0)
		var re *RangeError
		if !errors.As(err, &re) {
			t.Errorf("latitude %v: expected RangeError, got %v", lat, err)
		} else if re.Field != "latitude" {
			t.Errorf("latitude %v: RangeError on field %q", lat, re.Field)
		}
	}

	// UTC offset out of range is a hard error too.
	for _, tz := range []float64{15, -12.5, 14.01} {
		_, _, _, _, err := ValidateAndNormalize(0, 0, tz)
		var re *RangeError
		if !errors.As(err, &re) {
			t.Errorf("utc offset %v: expected RangeError, got %v", tz, err)
		}
	}

	// Boundary values are legal.
	for _, tt := range []struct{ lat, lng, tz float64 }{
		{90, 0, 0}, {-90, 0, 0}, {0, 0, 14}, {0, 0, -12},
	} {
		if _, _, _, _, err := ValidateAndNormalize(tt.lat, tt.lng, tt.tz); err != nil {
			t.Errorf("ValidateAndNormalize(%v, %v, %v) = %v, want nil", tt.lat, tt.lng, tt.tz, err)
		}
	}
}

func TestUnusualOffsetWarning(t *testing.T) {
	// Quarter-hour offsets exist in the real world (Nepal is +5.75) and are
	// not flagged.
	for _, tz := range []float64{0, 5.5, 5.75, -3.5, 12.25, -9.75} {
		_, _, _, warnings, err := ValidateAndNormalize(0, 0, tz)
		if err != nil {
			t.Fatalf("offset %v: unexpected error %v", tz, err)
		}
		if len(warnings) != 0 {
			t.Errorf("offset %v: unexpected warnings %v", tz, warnings)
		}
	}

	for _, tz := range []float64{5.3, -4.1, 0.001} {
		_, _, _, warnings, err := ValidateAndNormalize(0, 0, tz)
		if err != nil {
			t.Fatalf("offset %v: unexpected error %v", tz, err)
		}
		if len(warnings) == 0 {
			t.Errorf("offset %v: expected an unusual-offset warning", tz)
		}
	}
}

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"float", 40.7128, 40.7128, false},
		{"int", 9, 9, false},
		{"numeric string", "-74.006", -74.006, false},
		{"thousands separator", "1,234.5", 1234.5, false},
		{"padded string", " 5 ", 5, false},
		{"garbage string", "not-a-number", 0, true},
		{"nil", nil, 0, true},
		{"bool", true, 0, true},
		{"slice", []any{1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceFloat("f", tt.in)
			if tt.wantErr {
				var ce *ConversionError
				if !errors.As(err, &ce) {
					t.Fatalf("CoerceFloat(%v) err = %v, want ConversionError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CoerceFloat(%v) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("CoerceFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
