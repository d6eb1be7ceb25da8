package route

import (
	"fmt"
	"math"

	"github.com/WxboySuper/Santa-Tracker/internal/geo"
)

// Report is the outcome of cross-record validation. Errors make the route
// invalid; warnings are advisory only.
type Report struct {
	Valid    bool     `json:"valid"`
	Total    int      `json:"total_locations"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// coordinate equality is decided after rounding to 4 decimal places, about
// 11 meters at the equator.
func roundCoord(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ValidateStops runs every cross-record check over a canonical stop list.
// Checks are independent: all of them run, none short-circuits another.
//   - duplicate display names (case-sensitive) are errors;
//   - coordinates equal after rounding are warnings, since two genuinely
//     adjacent stops are legal;
//   - field ranges are re-validated as defense in depth;
//   - a priority outside {1,2,3} is an error.
func ValidateStops(stops []Stop) Report {
	report := Report{
		Total:    len(stops),
		Errors:   []string{},
		Warnings: []string{},
	}

	seenNames := make(map[string]int)
	seenCoords := make(map[[2]float64]int)
	for i, stop := range stops {
		if stop.Name != "" {
			if first, dup := seenNames[stop.Name]; dup {
				report.Errors = append(report.Errors,
					fmt.Sprintf("duplicate name %q at indices %d and %d", stop.Name, first, i))
			} else {
				seenNames[stop.Name] = i
			}
		}

		coordKey := [2]float64{roundCoord(stop.Latitude), roundCoord(stop.Longitude)}
		if first, near := seenCoords[coordKey]; near {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("stops at indices %d and %d share coordinates (%.4f, %.4f)",
					first, i, coordKey[0], coordKey[1]))
		} else {
			seenCoords[coordKey] = i
		}

		if err := geo.CheckLatitude(stop.Latitude); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("stop %d (%s): %v", i, stop.Name, err))
		}
		if stop.Longitude < -180 || stop.Longitude >= 180 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("stop %d (%s): longitude %v outside [-180, 180)", i, stop.Name, stop.Longitude))
		}
		if err := geo.CheckUTCOffset(stop.UTCOffset); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("stop %d (%s): %v", i, stop.Name, err))
		}
		if geo.UnusualOffset(stop.UTCOffset) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("unusual UTC offset for %q (index %d): %v", stop.Name, i, stop.UTCOffset))
		}
		if stop.Priority != nil && (*stop.Priority < 1 || *stop.Priority > 3) {
			report.Errors = append(report.Errors,
				fmt.Sprintf("stop %d (%s): priority %d outside {1,2,3}", i, stop.Name, *stop.Priority))
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}
