// Package geo provides pure field-level validation and normalization for
// geographic coordinates and UTC offsets. It performs no I/O and holds no
// state; every function takes its full input and returns a new result.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinUTCOffset = -12.0
	MaxUTCOffset = 14.0
)

// offsetEpsilon is the tolerance used when checking whether a UTC offset
// falls on a quarter-hour boundary. Real zones use :00, :15, :30 and :45;
// anything else is legal but worth a warning.
const offsetEpsilon = 1e-9

// RangeError reports a numeric value outside its legal domain. Longitude is
// never range-checked; it wraps instead (see WrapLongitude).
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v out of range [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// ConversionError reports a value that could not be coerced to a number.
type ConversionError struct {
	Field string
	Value any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: cannot convert %v (%T) to number", e.Field, e.Value, e.Value)
}

// CoerceFloat converts a raw JSON value to a float64. Numeric strings are
// accepted, including forms with thousands separators ("1,234.5"). Anything
// else yields a *ConversionError.
func CoerceFloat(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &ConversionError{Field: field, Value: v}
		}
		return f, nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ConversionError{Field: field, Value: v}
		}
		return f, nil
	default:
		return 0, &ConversionError{Field: field, Value: v}
	}
}

// WrapLongitude normalizes a longitude into [-180, 180). Out-of-range values
// wrap around rather than fail: 181 becomes -179, -181 becomes 179, and 180
// maps to -180. In-range values are returned untouched so repeated
// normalization never drifts a coordinate.
func WrapLongitude(lng float64) float64 {
	if lng >= -180 && lng < 180 {
		return lng
	}
	m := math.Mod(lng+180, 360)
	if m < 0 {
		m += 360
	}
	return m - 180
}

// UnusualOffset reports whether the fractional part of a UTC offset is not a
// quarter-hour multiple (within offsetEpsilon).
func UnusualOffset(utcOffset float64) bool {
	frac := utcOffset - math.Floor(utcOffset)
	for _, q := range []float64{0, 0.25, 0.5, 0.75, 1} {
		if math.Abs(frac-q) < offsetEpsilon {
			return false
		}
	}
	return true
}

// CheckLatitude returns a *RangeError when lat is outside [-90, 90].
func CheckLatitude(lat float64) error {
	if lat < MinLatitude || lat > MaxLatitude {
		return &RangeError{Field: "latitude", Value: lat, Min: MinLatitude, Max: MaxLatitude}
	}
	return nil
}

// CheckUTCOffset returns a *RangeError when the offset is outside [-12, 14].
func CheckUTCOffset(utcOffset float64) error {
	if utcOffset < MinUTCOffset || utcOffset > MaxUTCOffset {
		return &RangeError{Field: "utc_offset", Value: utcOffset, Min: MinUTCOffset, Max: MaxUTCOffset}
	}
	return nil
}

// ValidateAndNormalize validates latitude and UTC offset, wraps longitude
// into [-180, 180), and reports non-fatal warnings (currently only the
// unusual-offset check). Latitude and UTC offset out of range are hard
// errors; longitude never fails.
func ValidateAndNormalize(lat, lng, utcOffset float64) (float64, float64, float64, []string, error) {
	if err := CheckLatitude(lat); err != nil {
		return 0, 0, 0, nil, err
	}
	if err := CheckUTCOffset(utcOffset); err != nil {
		return 0, 0, 0, nil, err
	}
	var warnings []string
	if UnusualOffset(utcOffset) {
		warnings = append(warnings, fmt.Sprintf("unusual UTC offset %v: not a quarter-hour multiple", utcOffset))
	}
	return lat, WrapLongitude(lng), utcOffset, warnings, nil
}
