package timeline

import (
	"fmt"
	"sort"
	"time"
)

// SortEvents orders events date-ascending. The sort is stable, so events on
// the same day keep their extraction order, which is itself deterministic.
func SortEvents(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// Assemble groups date-sorted enriched events into calendar-month periods.
// Months with no events emit no period; no event appears in more than one
// period.
func Assemble(events []EnrichedEvent) Timeline {
	sorted := make([]EnrichedEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var periods []Period
	for _, evt := range sorted {
		start := monthStart(evt.Date)
		if len(periods) == 0 || !periods[len(periods)-1].Start.Equal(start) {
			periods = append(periods, Period{
				Label: evt.Date.Format("January 2006"),
				Start: start,
			})
		}
		last := &periods[len(periods)-1]
		last.Events = append(last.Events, evt)
	}

	for i := range periods {
		periods[i].Summary = summarizePeriod(periods[i].Events)
		periods[i].KeyFindings = keyFindings(periods[i].Events, 3)
	}
	return Timeline{Periods: periods}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func summarizePeriod(events []EnrichedEvent) string {
	categories := map[Category]bool{}
	critical := 0
	for _, e := range events {
		categories[e.Category] = true
		if e.Importance == ImportanceCritical {
			critical++
		}
	}
	return fmt.Sprintf("%d events across %d categories (%d critical)",
		len(events), len(categories), critical)
}

// keyFindings returns the titles of up to limit high or critical importance
// events, critical first, preserving date order within an importance level.
func keyFindings(events []EnrichedEvent, limit int) []string {
	var notable []EnrichedEvent
	for _, e := range events {
		if e.Importance == ImportanceHigh || e.Importance == ImportanceCritical {
			notable = append(notable, e)
		}
	}
	sort.SliceStable(notable, func(i, j int) bool {
		return notable[i].Importance.Rank() > notable[j].Importance.Rank()
	})
	var findings []string
	for _, e := range notable {
		if len(findings) == limit {
			break
		}
		findings = append(findings, e.Title)
	}
	return findings
}
