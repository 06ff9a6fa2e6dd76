package timeline

import (
	"math"
	"time"
)

// relatedWindowDays bounds the context window for related-event lookup.
const relatedWindowDays = 7

// trendThresholdPct is the relative change below which consecutive results of
// the same test count as stable.
const trendThresholdPct = 10.0

type kindPair struct {
	a, b EventKind
}

// relationships labels event pairs that fall inside the context window. Pairs
// without an entry get the generic temporal-proximity label.
var relationships = map[kindPair]string{
	{KindLabResult, KindTreatmentStart}:       "pre-treatment-assessment",
	{KindImaging, KindTreatmentStart}:         "baseline-imaging",
	{KindLabResult, KindTreatmentEnd}:         "post-treatment-assessment",
	{KindImaging, KindTreatmentEnd}:           "response-assessment",
	{KindAdverseEvent, KindTreatmentStart}:    "treatment-toxicity",
	{KindLabResult, KindAdverseEvent}:         "toxicity-monitoring",
	{KindPathologyCollection, KindDiagnosis}:  "diagnostic-workup",
	{KindPathologyReport, KindDiagnosis}:      "diagnostic-confirmation",
	{KindImaging, KindDiagnosis}:              "staging-workup",
	{KindGenomics, KindDiagnosis}:             "molecular-workup",
	{KindGenomics, KindTreatmentStart}:        "therapy-selection",
	{KindHistoryEntry, KindTreatmentStart}:    "treatment-planning",
	{KindTrialEnrollment, KindGenomics}:       "biomarker-driven-enrollment",
	{KindPathologyReport, KindTreatmentStart}: "pathology-guided-treatment",
}

func relationshipLabel(a, b EventKind) string {
	if label, ok := relationships[kindPair{a, b}]; ok {
		return label
	}
	return "temporal-proximity"
}

// Enrich derives temporal and clinical context for each event of a
// date-sorted list. It is a pure function over the full list: no event
// mutates another and the input slice is left untouched.
func Enrich(sorted []Event) []EnrichedEvent {
	diagnosisDate, hasDiagnosis := firstDiagnosisDate(sorted)

	enriched := make([]EnrichedEvent, len(sorted))
	lastLabValue := map[string]float64{}

	for i, evt := range sorted {
		days := 0
		if hasDiagnosis {
			days = daysBetween(diagnosisDate, evt.Date)
		}
		enriched[i] = EnrichedEvent{
			Event:             evt,
			DaysFromDiagnosis: days,
			RelatedEvents:     relatedEvents(sorted, i),
			ClinicalPhase:     phaseFor(days),
		}
		if evt.Kind == KindLabResult {
			enriched[i].Trend = labTrend(evt, lastLabValue)
		}
	}
	return enriched
}

func firstDiagnosisDate(events []Event) (time.Time, bool) {
	for _, e := range events {
		if e.Kind == KindDiagnosis {
			return e.Date, true
		}
	}
	return time.Time{}, false
}

// relatedEvents collects every other event within the ±7 day window around
// events[i], labeled by the pairwise relationship table.
func relatedEvents(events []Event, i int) []RelatedEvent {
	var related []RelatedEvent
	current := events[i]
	for j, other := range events {
		if j == i {
			continue
		}
		gap := daysBetween(current.Date, other.Date)
		if gap < -relatedWindowDays || gap > relatedWindowDays {
			continue
		}
		related = append(related, RelatedEvent{
			ID:           other.ID,
			Kind:         other.Kind,
			Relationship: relationshipLabel(current.Kind, other.Kind),
		})
	}
	return related
}

// phaseFor buckets a diagnosis offset into the clinical phase thresholds:
// <0, 0-30, 31-90, 91-365, >365 days.
func phaseFor(daysFromDiagnosis int) ClinicalPhase {
	switch {
	case daysFromDiagnosis < 0:
		return PhasePreDiagnosis
	case daysFromDiagnosis <= 30:
		return PhaseInitialWorkup
	case daysFromDiagnosis <= 90:
		return PhasePrimaryTreatment
	case daysFromDiagnosis <= 365:
		return PhaseActiveTreatment
	default:
		return PhaseLongTermFollowUp
	}
}

// labTrend tags a lab result against the immediately preceding result of the
// same test name. The first occurrence of a test is the baseline. A change
// above the threshold maps through the per-test directionality table; tests
// without an entry get the raw increasing/decreasing tags.
func labTrend(evt Event, lastValue map[string]float64) string {
	details, ok := evt.Details.(LabDetails)
	if !ok {
		return ""
	}
	key := NormalizeTestName(details.TestName)
	prev, seen := lastValue[key]
	lastValue[key] = details.Value
	if !seen {
		return "baseline"
	}
	if prev == 0 {
		// No meaningful relative change from a zero baseline.
		return "stable"
	}

	changePct := (details.Value - prev) / prev * 100
	if math.Abs(changePct) <= trendThresholdPct {
		return "stable"
	}
	rising := changePct > 0
	switch DirectionalityFor(details.TestName) {
	case RisingImproves:
		if rising {
			return "improving"
		}
		return "declining"
	case RisingDeclines:
		if rising {
			return "declining"
		}
		return "improving"
	default:
		if rising {
			return "increasing"
		}
		return "decreasing"
	}
}
