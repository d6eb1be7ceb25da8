package timeline

import (
	"testing"

	"github.com/WxboySuper/Santa-Tracker/internal/route"
)

func offsetStop(name string, offset float64, priority *int) route.Stop {
	return route.Stop{Name: name, UTCOffset: offset, Priority: priority, IsStop: true}
}

func intp(v int) *int { return &v }

func TestPreviewSortsEastToWest(t *testing.T) {
	stops := []route.Stop{
		offsetStop("UTC", 0, nil),
		offsetStop("Tokyo", 9, nil),
		offsetStop("New York", -5, nil),
	}

	result := Preview(stops, nil)
	want := []string{"Tokyo", "UTC", "New York"}
	for i, name := range want {
		if result.Stops[i].Name != name {
			t.Fatalf("order = %v, want %v", names(result.Stops), want)
		}
	}
	if len(stops) != 3 || stops[1].Name != "Tokyo" {
		t.Error("Preview must not reorder its input slice")
	}
}

func TestPreviewPriorityBreaksOffsetTies(t *testing.T) {
	stops := []route.Stop{
		offsetStop("Second", 1, intp(2)),
		offsetStop("First", 1, intp(1)),
		offsetStop("Implicit second", 1, nil),
		offsetStop("Third", 1, intp(3)),
	}

	result := Preview(stops, nil)
	want := []string{"First", "Second", "Implicit second", "Third"}
	for i, name := range want {
		if result.Stops[i].Name != name {
			t.Fatalf("order = %v, want %v", names(result.Stops), want)
		}
	}
	// Sorting with a defaulted priority must not write the default back.
	for _, s := range result.Stops {
		if s.Name == "Implicit second" && s.Priority != nil {
			t.Errorf("default priority leaked onto the stop: %d", *s.Priority)
		}
	}
}

func TestPreviewIndexSelection(t *testing.T) {
	stops := []route.Stop{
		offsetStop("A", 3, nil),
		offsetStop("B", 2, nil),
		offsetStop("C", 1, nil),
	}

	result := Preview(stops, []int{2, 0, 99, -1})
	if len(result.Stops) != 2 {
		t.Fatalf("invalid indices should be dropped silently, got %v", names(result.Stops))
	}
	if result.Stops[0].Name != "A" || result.Stops[1].Name != "C" {
		t.Errorf("order = %v, want [A C]", names(result.Stops))
	}
	if result.Summary.Total != 2 {
		t.Errorf("summary total = %d, want 2", result.Summary.Total)
	}

	empty := Preview(stops, []int{})
	if len(empty.Stops) != 0 || empty.Summary.Total != 0 {
		t.Errorf("explicit empty selection should yield an empty preview, got %+v", empty)
	}
}

func TestSummarize(t *testing.T) {
	stops := []route.Stop{
		timedStopAt("A", 0, 0, "2024-12-24T00:00:00Z", "2024-12-24T00:10:00Z"),
		offsetStop("No timing", 0, nil),
		timedStopAt("B", 1, 1, "2024-12-24T01:00:00Z", "2024-12-24T01:30:30Z"),
	}

	summary := Summarize(stops)
	if summary.Total != 3 || summary.WithTiming != 2 {
		t.Errorf("counts = %d/%d, want 3/2", summary.Total, summary.WithTiming)
	}
	if summary.StartTime == nil || *summary.StartTime != "2024-12-24T00:00:00Z" {
		t.Errorf("start = %v", summary.StartTime)
	}
	if summary.EndTime == nil || *summary.EndTime != "2024-12-24T01:30:30Z" {
		t.Errorf("end = %v", summary.EndTime)
	}
	// 90.5 minutes truncates to whole minutes.
	if summary.TotalDurationMinutes != 90 {
		t.Errorf("duration = %d, want 90", summary.TotalDurationMinutes)
	}
}

func TestSummarizeNoTiming(t *testing.T) {
	summary := Summarize([]route.Stop{offsetStop("A", 0, nil)})
	if summary.WithTiming != 0 || summary.StartTime != nil || summary.EndTime != nil {
		t.Errorf("untimed summary should have nil bounds: %+v", summary)
	}
	if summary.TotalDurationMinutes != 0 {
		t.Errorf("duration = %d, want 0", summary.TotalDurationMinutes)
	}
}

func names(stops []route.Stop) []string {
	out := make([]string, len(stops))
	for i, s := range stops {
		out[i] = s.Name
	}
	return out
}
