// Package timeline computes where the vehicle is on a schedule-bearing stop
// list at a given instant, and previews candidate routes. Like the rest of
// the engine it is purely computational: callers pass the stop list and the
// current time, and get a fresh result back.
package timeline

import (
	"fmt"
	"time"

	"github.com/WxboySuper/Santa-Tracker/internal/route"
)

// State is the tracker's position in its lifecycle. For increasing time the
// machine moves not_started -> (in_transit <-> at_stop) -> completed and
// never revisits an earlier state.
type State string

const (
	StateNoRoute    State = "no_route"
	StateNoSchedule State = "no_schedule"
	StateNotStarted State = "not_started"
	StateAtStop     State = "at_stop"
	StateInTransit  State = "in_transit"
	StateCompleted  State = "completed"
)

// StopInfo is the slice of a Stop exposed in status results.
type StopInfo struct {
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ArrivalTime   string  `json:"arrival_time,omitempty"`
	DepartureTime string  `json:"departure_time,omitempty"`
}

type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Status is the full answer to "where is it, what is it doing, what comes
// next" at a single instant.
type Status struct {
	State        State     `json:"state"`
	Message      string    `json:"message,omitempty"`
	CurrentStop  *StopInfo `json:"current_stop,omitempty"`
	PreviousStop *StopInfo `json:"previous_stop,omitempty"`
	NextStop     *StopInfo `json:"next_stop,omitempty"`
	Position     *Position `json:"position,omitempty"`
	StopsVisited int       `json:"stops_visited"`
	TotalStops   int       `json:"total_stops"`
	Progress     float64   `json:"progress"`
	AsOf         time.Time `json:"as_of"`
}

// timedStop pairs a stop with its parsed schedule.
type timedStop struct {
	stop      route.Stop
	arrival   time.Time
	departure time.Time
}

// parseSchedule filters to stops whose arrival and departure both parse.
// Stops with broken or absent schedules are invisible to the state machine.
func parseSchedule(stops []route.Stop) []timedStop {
	timed := make([]timedStop, 0, len(stops))
	for _, s := range stops {
		if !s.HasSchedule() {
			continue
		}
		arrival, err := time.Parse(time.RFC3339, s.ArrivalTime)
		if err != nil {
			continue
		}
		departure, err := time.Parse(time.RFC3339, s.DepartureTime)
		if err != nil {
			continue
		}
		timed = append(timed, timedStop{stop: s, arrival: arrival, departure: departure})
	}
	return timed
}

func stopInfo(ts timedStop) *StopInfo {
	return &StopInfo{
		Name:          ts.stop.Name,
		Latitude:      ts.stop.Latitude,
		Longitude:     ts.stop.Longitude,
		ArrivalTime:   ts.stop.ArrivalTime,
		DepartureTime: ts.stop.DepartureTime,
	}
}

// progressBetween is the elapsed fraction of [start, end] at now, clamped to
// [0, 1]. A zero-length interval counts as already finished, which keeps the
// interpolation defined when two keyframes coincide.
func progressBetween(start, end, now time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return 1.0
	}
	if !now.After(start) {
		return 0.0
	}
	if !now.Before(end) {
		return 1.0
	}
	return float64(now.Sub(start)) / float64(total)
}

// interpolate linearly blends latitude and longitude between two stops.
func interpolate(a, b route.Stop, factor float64) Position {
	return Position{
		Lat: a.Latitude + (b.Latitude-a.Latitude)*factor,
		Lng: a.Longitude + (b.Longitude-a.Longitude)*factor,
	}
}

// StatusAt computes the tracker status for a stop list at a given instant.
// Array order is assumed to reflect travel order; the caller sorts if it
// wants a different itinerary. Boundaries are closed at arrival and
// half-open at departure, so the instant of departure already belongs to
// the transit segment. A departure that coincides with the next arrival
// (zero-length transit) therefore lands directly in at_stop for the next
// stop.
func StatusAt(stops []route.Stop, now time.Time) Status {
	status := Status{AsOf: now.UTC()}

	if len(stops) == 0 {
		status.State = StateNoRoute
		status.Message = "no route stops available"
		return status
	}

	timed := parseSchedule(stops)
	if len(timed) == 0 {
		status.State = StateNoSchedule
		status.Message = "no stops with a usable arrival/departure pair"
		return status
	}
	total := len(timed)
	status.TotalStops = total

	if now.Before(timed[0].arrival) {
		status.State = StateNotStarted
		status.Message = "journey has not started yet"
		status.NextStop = stopInfo(timed[0])
		return status
	}

	last := timed[total-1]
	if !now.Before(last.departure) {
		status.State = StateCompleted
		status.Message = "journey complete"
		status.CurrentStop = stopInfo(last)
		status.StopsVisited = total
		status.Progress = 1.0
		return status
	}

	for i, ts := range timed {
		if !now.Before(ts.arrival) && now.Before(ts.departure) {
			status.State = StateAtStop
			status.Message = fmt.Sprintf("at %s", ts.stop.Name)
			status.CurrentStop = stopInfo(ts)
			if i > 0 {
				status.PreviousStop = stopInfo(timed[i-1])
			}
			if i < total-1 {
				status.NextStop = stopInfo(timed[i+1])
			}
			status.StopsVisited = i + 1
			status.Progress = float64(i+1) / float64(total)
			return status
		}
		if i < total-1 {
			next := timed[i+1]
			if !now.Before(ts.departure) && now.Before(next.arrival) {
				factor := progressBetween(ts.departure, next.arrival, now)
				pos := interpolate(ts.stop, next.stop, factor)
				status.State = StateInTransit
				status.Message = fmt.Sprintf("traveling from %s to %s", ts.stop.Name, next.stop.Name)
				status.Position = &pos
				status.PreviousStop = stopInfo(ts)
				status.NextStop = stopInfo(next)
				status.StopsVisited = i + 1
				status.Progress = (float64(i+1) + factor) / float64(total)
				return status
			}
		}
	}

	// Schedules that overlap or run backwards can leave gaps the scan does
	// not cover. Surface that instead of guessing a position.
	status.State = StateNoSchedule
	status.Message = "unable to place the current time on the schedule"
	return status
}
