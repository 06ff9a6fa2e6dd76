package timeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/oncotrace/oncotrace/internal/domain/record"
)

// EventKind discriminates the per-kind Details payload carried by an Event.
type EventKind string

const (
	KindDiagnosis           EventKind = "diagnosis"
	KindHistoryEntry        EventKind = "history-entry"
	KindLabResult           EventKind = "lab-result"
	KindImaging             EventKind = "imaging"
	KindPathologyCollection EventKind = "pathology-collection"
	KindPathologyReport     EventKind = "pathology-report"
	KindGenomics            EventKind = "genomics"
	KindTreatmentStart      EventKind = "treatment-start"
	KindTreatmentEnd        EventKind = "treatment-end"
	KindAdverseEvent        EventKind = "adverse-event"
	KindTrialEnrollment     EventKind = "trial-enrollment"
)

type Category string

const (
	CategoryDiagnosis  Category = "diagnosis"
	CategoryClinical   Category = "clinical"
	CategoryLaboratory Category = "laboratory"
	CategoryImaging    Category = "imaging"
	CategoryPathology  Category = "pathology"
	CategoryMolecular  Category = "molecular"
	CategoryTreatment  Category = "treatment"
	CategorySafety     Category = "safety"
	CategoryResearch   Category = "research"
)

type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

var importanceRank = map[Importance]int{
	ImportanceLow: 0, ImportanceMedium: 1, ImportanceHigh: 2, ImportanceCritical: 3,
}

// Rank orders importances for sorting; critical ranks highest.
func (i Importance) Rank() int { return importanceRank[i] }

// Event is one timestamped clinical occurrence extracted from a
// PatientRecord. Events are immutable once created; IDs are name-based UUIDs
// derived from the record ID and the event's source position, so repeated
// extraction of the same record yields identical events.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Kind        EventKind  `json:"kind"`
	Date        time.Time  `json:"date"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Details     any        `json:"details,omitempty"`
	Source      string     `json:"source"`
	Category    Category   `json:"category"`
	Importance  Importance `json:"importance"`
	// Warnings records per-event data-quality findings (unparseable source
	// dates, negative pathology turnaround) instead of failing extraction.
	Warnings []string `json:"warnings,omitempty"`
}

// -- Per-kind detail payloads --

type DiagnosisDetails struct {
	PrimarySite string `json:"primary_site,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Histology   string `json:"histology,omitempty"`
	Grade       string `json:"grade,omitempty"`
}

type VisitDetails struct {
	VisitType string `json:"visit_type,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

type LabDetails struct {
	TestName       string  `json:"test_name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	ReferenceRange string  `json:"reference_range,omitempty"`
	Interpretation string  `json:"interpretation,omitempty"`
	PanelName      string  `json:"panel_name,omitempty"`
}

type ImagingDetails struct {
	Modality   string `json:"modality,omitempty"`
	BodyRegion string `json:"body_region"`
	Findings   string `json:"findings,omitempty"`
	ImageRef   string `json:"image_ref,omitempty"`
}

type PathologyCollectionDetails struct {
	SpecimenType string `json:"specimen_type,omitempty"`
}

type PathologyReportDetails struct {
	SpecimenType   string `json:"specimen_type,omitempty"`
	Diagnosis      string `json:"diagnosis,omitempty"`
	TurnaroundDays int    `json:"turnaround_days"`
}

type ActionableMutation struct {
	Gene         string `json:"gene"`
	Variant      string `json:"variant,omitempty"`
	TherapyClass string `json:"therapy_class"`
}

type GenomicsDetails struct {
	Mutations  []record.Mutation    `json:"mutations,omitempty"`
	Actionable []ActionableMutation `json:"actionable,omitempty"`
	TMB        float64              `json:"tmb,omitempty"`
	MSIStatus  string               `json:"msi_status,omitempty"`
}

type TreatmentStartDetails struct {
	TreatmentType string `json:"treatment_type,omitempty"`
	Regimen       string `json:"regimen,omitempty"`
	Line          int    `json:"line"`
	Intent        string `json:"intent"`
}

type TreatmentEndDetails struct {
	TreatmentType string `json:"treatment_type,omitempty"`
	Regimen       string `json:"regimen,omitempty"`
	DurationDays  int    `json:"duration_days"`
	Response      string `json:"response,omitempty"`
}

type AdverseEventDetails struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Regimen     string `json:"regimen,omitempty"`
}

type TrialDetails struct {
	TrialID string `json:"trial_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Status  string `json:"status,omitempty"`
	Arm     string `json:"arm,omitempty"`
}

// ClinicalPhase locates an event relative to the diagnosis date.
type ClinicalPhase string

const (
	PhasePreDiagnosis     ClinicalPhase = "pre-diagnosis"
	PhaseInitialWorkup    ClinicalPhase = "initial-workup"
	PhasePrimaryTreatment ClinicalPhase = "primary-treatment"
	PhaseActiveTreatment  ClinicalPhase = "active-treatment"
	PhaseLongTermFollowUp ClinicalPhase = "long-term-follow-up"
)

// RelatedEvent references another event within the ±7 day context window.
type RelatedEvent struct {
	ID           uuid.UUID `json:"id"`
	Kind         EventKind `json:"kind"`
	Relationship string    `json:"relationship"`
}

// EnrichedEvent is an Event plus derived temporal and clinical context.
type EnrichedEvent struct {
	Event
	DaysFromDiagnosis int            `json:"days_from_diagnosis"`
	RelatedEvents     []RelatedEvent `json:"related_events,omitempty"`
	ClinicalPhase     ClinicalPhase  `json:"clinical_phase"`
	// Trend is set only on lab-result events: baseline for the first
	// occurrence of a test name, then a direction tag comparing against the
	// immediately preceding result of the same test.
	Trend string `json:"trend,omitempty"`
}

// Period groups a calendar month's enriched events.
type Period struct {
	Label       string          `json:"label"`
	Start       time.Time       `json:"start"`
	Events      []EnrichedEvent `json:"events"`
	Summary     string          `json:"summary"`
	KeyFindings []string        `json:"key_findings,omitempty"`
}

// Timeline is the ordered sequence of non-empty calendar-month periods.
type Timeline struct {
	Periods []Period `json:"periods"`
}

// Events flattens the timeline back into a date-ascending event list.
func (t Timeline) Events() []EnrichedEvent {
	var out []EnrichedEvent
	for _, p := range t.Periods {
		out = append(out, p.Events...)
	}
	return out
}
