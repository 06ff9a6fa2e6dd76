package analytics

import (
	"strings"
	"time"

	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

// TreatmentPeriod is one treatment course reconstructed from the event
// stream: its boundary events, the toxicity observed during it, and response
// classifications from imaging and biomarkers inside its window.
type TreatmentPeriod struct {
	Regimen           string             `json:"regimen,omitempty"`
	TreatmentType     string             `json:"treatment_type,omitempty"`
	Line              int                `json:"line"`
	Intent            string             `json:"intent,omitempty"`
	Start             time.Time          `json:"start"`
	End               *time.Time         `json:"end,omitempty"`
	Response          string             `json:"response,omitempty"`
	AdverseEventCount int                `json:"adverse_event_count"`
	Toxicity          string             `json:"toxicity"`
	ImagingResponse   string             `json:"imaging_response"`
	BiomarkerResponse string             `json:"biomarker_response"`
	Effectiveness     float64            `json:"effectiveness"`
	StartEventID      string             `json:"start_event_id"`
	EndEventID        string             `json:"end_event_id,omitempty"`
}

// Effectiveness score deltas. The base of 0.5 is "no signal either way";
// every contribution is bounded and additive, and the sum is clamped to
// [0,1]. Toxicity is reported alongside but never moves the score.
const (
	effectivenessBase     = 0.5
	bonusCompleteResponse = 0.4
	bonusPartialResponse  = 0.3
	bonusStableResponse   = 0.1
	bonusImagingImproving = 0.2
	bonusImagingStable    = 0.1
	bonusBiomarkerImprove = 0.1
)

// BuildTreatmentPeriods reconstructs one period per treatment-start event in
// the date-sorted stream, pairing end events and adverse events by regimen
// and order, then classifies and scores each period.
func BuildTreatmentPeriods(events []timeline.EnrichedEvent) []TreatmentPeriod {
	var periods []TreatmentPeriod
	for _, evt := range events {
		if evt.Kind != timeline.KindTreatmentStart {
			continue
		}
		details, _ := evt.Details.(timeline.TreatmentStartDetails)
		p := TreatmentPeriod{
			Regimen:       details.Regimen,
			TreatmentType: details.TreatmentType,
			Line:          details.Line,
			Intent:        details.Intent,
			Start:         evt.Date,
			StartEventID:  evt.ID.String(),
		}
		attachCourseEvents(&p, events)
		p.ImagingResponse = imagingResponseDuring(&p, events)
		p.BiomarkerResponse = biomarkerResponseDuring(&p, events)
		p.Effectiveness = ScoreTreatmentPeriod(p)
		periods = append(periods, p)
	}
	return periods
}

// attachCourseEvents finds the matching treatment-end event and the adverse
// events that belong to this course. The end event is paired first so the
// course window is closed before adverse events are scoped to it: on a
// re-challenge with the same regimen each course keeps only its own
// toxicity.
func attachCourseEvents(p *TreatmentPeriod, events []timeline.EnrichedEvent) {
	for _, evt := range events {
		if evt.Kind != timeline.KindTreatmentEnd {
			continue
		}
		details, _ := evt.Details.(timeline.TreatmentEndDetails)
		if details.Regimen == p.Regimen && details.TreatmentType == p.TreatmentType &&
			!evt.Date.Before(p.Start) {
			end := evt.Date
			p.End = &end
			p.Response = details.Response
			p.EndEventID = evt.ID.String()
			break
		}
	}

	maxSeverity := 0
	for _, evt := range events {
		if evt.Kind != timeline.KindAdverseEvent {
			continue
		}
		details, _ := evt.Details.(timeline.AdverseEventDetails)
		if details.Regimen == p.Regimen && p.inWindow(evt.Date) {
			p.AdverseEventCount++
			if rank := severityRank(details.Severity); rank > maxSeverity {
				maxSeverity = rank
			}
		}
	}
	p.Toxicity = severityName(maxSeverity)
}

func severityRank(severity string) int {
	switch severity {
	case "severe":
		return 3
	case "moderate":
		return 2
	case "mild":
		return 1
	default:
		return 0
	}
}

func severityName(rank int) string {
	switch rank {
	case 3:
		return "severe"
	case 2:
		return "moderate"
	case 1:
		return "mild"
	default:
		return "none"
	}
}

// inWindow reports whether t falls inside the course. An open-ended course
// extends to the end of the record.
func (p *TreatmentPeriod) inWindow(t time.Time) bool {
	if t.Before(p.Start) {
		return false
	}
	return p.End == nil || !t.After(*p.End)
}

// imagingResponseDuring classifies the imaging studies inside the course
// window: any progression wins, then improvement, then stable.
func imagingResponseDuring(p *TreatmentPeriod, events []timeline.EnrichedEvent) string {
	progression, improvement, stable := false, false, false
	var prevFindings string
	seenBaseline := false
	for _, evt := range events {
		if evt.Kind != timeline.KindImaging {
			continue
		}
		details, _ := evt.Details.(timeline.ImagingDetails)
		if p.inWindow(evt.Date) && seenBaseline {
			switch CompareImaging(prevFindings, details.Findings).Status {
			case "progression":
				progression = true
			case "improvement":
				improvement = true
			case "stable":
				stable = true
			}
		}
		prevFindings = details.Findings
		seenBaseline = true
	}
	switch {
	case progression:
		return "worsening"
	case improvement:
		return "improving"
	case stable:
		return "stable"
	default:
		return "unknown"
	}
}

// biomarkerResponseDuring reduces the enricher's per-result trend tags inside
// the course window to a single classification.
func biomarkerResponseDuring(p *TreatmentPeriod, events []timeline.EnrichedEvent) string {
	improving, declining, stable := 0, 0, 0
	for _, evt := range events {
		if evt.Kind != timeline.KindLabResult || !p.inWindow(evt.Date) {
			continue
		}
		switch evt.Trend {
		case "improving":
			improving++
		case "declining":
			declining++
		case "stable":
			stable++
		}
	}
	switch {
	case improving == 0 && declining == 0 && stable == 0:
		return "unknown"
	case improving > declining:
		return "improving"
	case declining > improving:
		return "declining"
	default:
		return "stable"
	}
}

// ScoreTreatmentPeriod computes the 0..1 effectiveness score from the
// period's response text and in-course classifications.
func ScoreTreatmentPeriod(p TreatmentPeriod) float64 {
	score := effectivenessBase
	response := strings.ToLower(p.Response)
	switch {
	case strings.Contains(response, "complete"):
		score += bonusCompleteResponse
	case strings.Contains(response, "partial"):
		score += bonusPartialResponse
	case strings.Contains(response, "stable"):
		score += bonusStableResponse
	}
	switch p.ImagingResponse {
	case "improving":
		score += bonusImagingImproving
	case "stable":
		score += bonusImagingStable
	}
	if p.BiomarkerResponse == "improving" {
		score += bonusBiomarkerImprove
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
