package summary

import (
	"fmt"
	"math"
	"strings"

	"github.com/oncotrace/oncotrace/internal/domain/analytics"
	"github.com/oncotrace/oncotrace/internal/domain/record"
	"github.com/oncotrace/oncotrace/internal/domain/risk"
	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

// Service runs the full pipeline: extract, sort, enrich, assemble, analyze.
// It holds no state; every call is an independent, reentrant recomputation
// from the record, so concurrent summaries need no coordination.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// BuildSummary computes the aggregate output for one record. A record with no
// extractable events yields the typed empty summary rather than an error; the
// only failure mode is a structural violation inside extraction (a relative
// lab offset with no resolvable baseline).
func (s *Service) BuildSummary(rec *record.PatientRecord) (*PatientSummary, error) {
	events, err := timeline.ExtractEvents(rec)
	if err != nil {
		return nil, fmt.Errorf("extract events for %s: %w", rec.ID, err)
	}
	if len(events) == 0 {
		return &PatientSummary{
			PatientID: rec.ID,
			Empty:     true,
			Insights: Insights{
				DataCompleteness: completeness(rec),
			},
			TreatmentJourney: TreatmentJourney{HighestToxicity: "none"},
		}, nil
	}

	sorted := timeline.SortEvents(events)
	enriched := timeline.Enrich(sorted)
	tl := timeline.Assemble(enriched)

	trajectory := analytics.OverallTrajectory(enriched)
	treatments := analytics.BuildTreatmentPeriods(enriched)

	out := &PatientSummary{
		PatientID:   rec.ID,
		TotalEvents: len(sorted),
		Timespan:    timespan(sorted),
		Timeline:    tl,
		Insights: Insights{
			Trajectory:       trajectory,
			BiomarkerTrends:  analytics.CollectTrends(enriched),
			CareCoordination: careCoordination(sorted),
			DataCompleteness: completeness(rec),
			RiskAssessment:   risk.AssessRisk(rec, sorted),
		},
		KeyMilestones:    keyMilestones(enriched),
		TreatmentJourney: treatmentJourney(treatments),
		DiseaseProgression: DiseaseProgression{
			ImagingSeries: analytics.CompareImagingSeries(enriched),
			Trajectory:    trajectory,
		},
		DataQualityFindings: dataQualityFindings(sorted),
	}
	return out, nil
}

func timespan(sorted []timeline.Event) Timespan {
	start := sorted[0].Date
	end := sorted[len(sorted)-1].Date
	return Timespan{
		Start:     start,
		End:       end,
		TotalDays: int(end.Sub(start).Hours() / 24),
	}
}

func keyMilestones(enriched []timeline.EnrichedEvent) []timeline.EnrichedEvent {
	var milestones []timeline.EnrichedEvent
	for _, evt := range enriched {
		if evt.Importance == timeline.ImportanceCritical {
			milestones = append(milestones, evt)
		}
	}
	return milestones
}

func careCoordination(sorted []timeline.Event) CareCoordination {
	categories := map[timeline.Category]bool{}
	longestGap := 0
	for i, evt := range sorted {
		categories[evt.Category] = true
		if i > 0 {
			gap := int(evt.Date.Sub(sorted[i-1].Date).Hours() / 24)
			if gap > longestGap {
				longestGap = gap
			}
		}
	}

	months := 1.0
	if len(sorted) > 1 {
		span := sorted[len(sorted)-1].Date.Sub(sorted[0].Date).Hours() / 24
		if m := span / 30; m > 1 {
			months = m
		}
	}
	perMonth := float64(len(sorted)) / months

	return CareCoordination{
		ActiveCategories:  len(categories),
		LongestGapDays:    longestGap,
		AvgEventsPerMonth: math.Round(perMonth*10) / 10,
	}
}

func completeness(rec *record.PatientRecord) DataCompleteness {
	sections := rec.SectionPresence()
	present := 0
	for _, ok := range sections {
		if ok {
			present++
		}
	}
	score := float64(present) / float64(len(sections))
	return DataCompleteness{
		Score:    math.Round(score*100) / 100,
		Sections: sections,
	}
}

var responseOrder = []string{"complete", "partial", "stable"}
var toxicityOrder = []string{"severe", "moderate", "mild"}

func treatmentJourney(periods []analytics.TreatmentPeriod) TreatmentJourney {
	journey := TreatmentJourney{
		Treatments:      periods,
		TotalCourses:    len(periods),
		HighestToxicity: "none",
	}
	for _, p := range periods {
		journey.TotalAdverseEvents += p.AdverseEventCount
	}
	for _, label := range responseOrder {
		if anyPeriod(periods, func(p analytics.TreatmentPeriod) bool {
			return strings.Contains(strings.ToLower(p.Response), label)
		}) {
			journey.BestResponse = label
			break
		}
	}
	for _, label := range toxicityOrder {
		if anyPeriod(periods, func(p analytics.TreatmentPeriod) bool { return p.Toxicity == label }) {
			journey.HighestToxicity = label
			break
		}
	}
	return journey
}

func anyPeriod(periods []analytics.TreatmentPeriod, match func(analytics.TreatmentPeriod) bool) bool {
	for _, p := range periods {
		if match(p) {
			return true
		}
	}
	return false
}

func dataQualityFindings(sorted []timeline.Event) []string {
	var findings []string
	for _, evt := range sorted {
		findings = append(findings, evt.Warnings...)
	}
	return findings
}
