package timeline

import (
	"sort"
	"time"

	"github.com/WxboySuper/Santa-Tracker/internal/route"
)

// Summary condenses a previewed route: how many stops, how many carry
// usable timing, and the overall time bounds. Times are nil when no stop
// has a parseable schedule.
type Summary struct {
	Total                int     `json:"total_locations"`
	WithTiming           int     `json:"locations_with_timing"`
	StartTime            *string `json:"start_time"`
	EndTime              *string `json:"end_time"`
	TotalDurationMinutes int     `json:"total_duration_minutes"`
}

// PreviewResult is a read-only preview of a (sub)route. Nothing persisted is
// touched; the input stop list is never modified.
type PreviewResult struct {
	Stops   []route.Stop `json:"route_preview"`
	Summary Summary      `json:"summary"`
}

// Preview builds a simulation preview over an optional index subset of the
// stop list. Indices outside the list are silently dropped. The preview
// trusts whatever timestamps each stop already carries; it does no clock
// arithmetic of its own beyond summarization.
//
// Stops are visited east to west by time zone: the sort key is
// (-utc_offset, effective priority), where an unprioritized stop sorts as
// priority 2. The default lives only in the sort key, never on the Stop.
func Preview(stops []route.Stop, indices []int) PreviewResult {
	selected := selectStops(stops, indices)

	sorted := make([]route.Stop, len(selected))
	copy(sorted, selected)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UTCOffset != sorted[j].UTCOffset {
			return sorted[i].UTCOffset > sorted[j].UTCOffset
		}
		return sorted[i].EffectivePriority() < sorted[j].EffectivePriority()
	})

	return PreviewResult{
		Stops:   sorted,
		Summary: Summarize(sorted),
	}
}

func selectStops(stops []route.Stop, indices []int) []route.Stop {
	if indices == nil {
		out := make([]route.Stop, len(stops))
		copy(out, stops)
		return out
	}
	out := make([]route.Stop, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(stops) {
			continue
		}
		out = append(out, stops[idx])
	}
	return out
}

// Summarize reports the time bounds of a stop list: the first timed stop's
// arrival, the last timed stop's departure, and their distance in whole
// minutes. With fewer than one usable schedule the duration is 0 and the
// bounds are nil.
func Summarize(stops []route.Stop) Summary {
	summary := Summary{Total: len(stops)}

	timed := parseSchedule(stops)
	summary.WithTiming = len(timed)
	if len(timed) == 0 {
		return summary
	}

	start := timed[0].stop.ArrivalTime
	end := timed[len(timed)-1].stop.DepartureTime
	summary.StartTime = &start
	summary.EndTime = &end

	duration := timed[len(timed)-1].departure.Sub(timed[0].arrival)
	if duration > 0 {
		summary.TotalDurationMinutes = int(duration / time.Minute)
	}
	return summary
}
