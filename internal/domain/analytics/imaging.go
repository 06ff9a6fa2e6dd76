package analytics

import (
	"strings"
	"time"

	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

// Comparison classifies a pair of consecutive imaging studies.
type Comparison struct {
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
}

// Fixed confidence constants per classification. Keyword matching on
// free-text findings is inherently fuzzy, so stable (an explicit statement)
// outranks progression/improvement, and indeterminate stays low.
const (
	confidenceProgression   = 0.8
	confidenceImprovement   = 0.8
	confidenceStable        = 0.9
	confidenceIndeterminate = 0.35
)

var improvementFindings = []string{
	"decreased", "decrease", "improved", "improvement", "resolution",
	"resolved", "shrink", "reduction", "regression", "smaller",
	"partial response", "complete response",
}

var stableFindings = []string{
	"stable", "unchanged", "no change", "no interval change", "no evidence",
}

// CompareImaging classifies the current study's findings against the
// previous study. The previous findings anchor the comparison but the
// radiologist's current read carries the interval-change language, so
// classification keys on the current text.
func CompareImaging(previousFindings, currentFindings string) Comparison {
	lower := strings.ToLower(currentFindings)
	switch {
	case timeline.HasProgressionFindings(lower):
		return Comparison{Status: "progression", Confidence: confidenceProgression}
	case containsAny(lower, improvementFindings):
		return Comparison{Status: "improvement", Confidence: confidenceImprovement}
	case containsAny(lower, stableFindings):
		return Comparison{Status: "stable", Confidence: confidenceStable}
	default:
		return Comparison{Status: "indeterminate", Confidence: confidenceIndeterminate}
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SeriesEntry is one study's classification within a patient's imaging
// history.
type SeriesEntry struct {
	Date       time.Time `json:"date"`
	Modality   string    `json:"modality,omitempty"`
	BodyRegion string    `json:"body_region,omitempty"`
	Status     string    `json:"status"`
	Confidence float64   `json:"confidence"`
}

// CompareImagingSeries walks date-sorted events and classifies each imaging
// study against its predecessor. The first study is always the baseline with
// no comparison.
func CompareImagingSeries(events []timeline.EnrichedEvent) []SeriesEntry {
	var entries []SeriesEntry
	var prevFindings string
	for _, evt := range events {
		if evt.Kind != timeline.KindImaging {
			continue
		}
		details, _ := evt.Details.(timeline.ImagingDetails)
		entry := SeriesEntry{
			Date:       evt.Date,
			Modality:   details.Modality,
			BodyRegion: details.BodyRegion,
		}
		if len(entries) == 0 {
			entry.Status = "baseline"
			entry.Confidence = 1.0
		} else {
			cmp := CompareImaging(prevFindings, details.Findings)
			entry.Status = cmp.Status
			entry.Confidence = cmp.Confidence
		}
		prevFindings = details.Findings
		entries = append(entries, entry)
	}
	return entries
}
