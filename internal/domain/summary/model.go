package summary

import (
	"time"

	"github.com/oncotrace/oncotrace/internal/domain/analytics"
	"github.com/oncotrace/oncotrace/internal/domain/risk"
	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

// PatientSummary is the engine's aggregate output: the enriched timeline plus
// every derived insight, shaped for the report/export collaborators.
type PatientSummary struct {
	PatientID string `json:"patient_id"`
	// Empty marks the typed empty-result for records with no extractable
	// events, letting callers render an empty state instead of failing.
	Empty bool `json:"empty,omitempty"`

	TotalEvents int      `json:"total_events"`
	Timespan    Timespan `json:"timespan"`

	Timeline timeline.Timeline `json:"timeline"`
	Insights Insights          `json:"insights"`

	KeyMilestones      []timeline.EnrichedEvent `json:"key_milestones,omitempty"`
	TreatmentJourney   TreatmentJourney         `json:"treatment_journey"`
	DiseaseProgression DiseaseProgression       `json:"disease_progression"`

	// DataQualityFindings aggregates per-event warnings (malformed dates,
	// negative pathology turnaround) at the record level.
	DataQualityFindings []string `json:"data_quality_findings,omitempty"`
}

type Timespan struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	TotalDays int       `json:"total_days"`
}

type Insights struct {
	Trajectory       analytics.Trajectory    `json:"trajectory"`
	BiomarkerTrends  []analytics.TrendResult `json:"biomarker_trends,omitempty"`
	CareCoordination CareCoordination        `json:"care_coordination"`
	DataCompleteness DataCompleteness        `json:"data_completeness"`
	RiskAssessment   risk.RiskAssessment     `json:"risk_assessment"`
}

// CareCoordination summarizes how continuously the patient is being
// followed across the record's span.
type CareCoordination struct {
	ActiveCategories  int     `json:"active_categories"`
	LongestGapDays    int     `json:"longest_gap_days"`
	AvgEventsPerMonth float64 `json:"avg_events_per_month"`
}

// DataCompleteness scores how many optional record sections carry data.
type DataCompleteness struct {
	Score    float64         `json:"score"`
	Sections map[string]bool `json:"sections"`
}

type TreatmentJourney struct {
	Treatments         []analytics.TreatmentPeriod `json:"treatments,omitempty"`
	TotalCourses       int                         `json:"total_courses"`
	BestResponse       string                      `json:"best_response,omitempty"`
	TotalAdverseEvents int                         `json:"total_adverse_events"`
	HighestToxicity    string                      `json:"highest_toxicity"`
}

type DiseaseProgression struct {
	ImagingSeries []analytics.SeriesEntry `json:"imaging_series,omitempty"`
	Trajectory    analytics.Trajectory    `json:"trajectory"`
}
