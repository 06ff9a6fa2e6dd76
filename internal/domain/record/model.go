package record

// PatientRecord is the normalized per-patient clinical dataset handed to the
// timeline engine by the ingestion layer. The engine treats it as immutable:
// every derived structure is computed fresh from it and never written back.
//
// All dates are ISO-8601 strings as produced by the normalizer. Lab panels may
// alternatively carry a relative day offset from the case baseline; the
// baseline is BaselineDate when set, otherwise the diagnosis date.
type PatientRecord struct {
	ID           string             `json:"id"`
	Demographics Demographics       `json:"demographics"`
	Cancer       CancerDiagnosis    `json:"cancer"`
	BaselineDate string             `json:"baseline_date,omitempty"`
	Visits       []VisitEntry       `json:"visits,omitempty"`
	Labs         []LabPanel         `json:"labs,omitempty"`
	Imaging      []ImagingStudy     `json:"imaging,omitempty"`
	Pathology    []PathologyReport  `json:"pathology,omitempty"`
	Genomics     *GenomicProfile    `json:"genomics,omitempty"`
	Treatments   []TreatmentCourse  `json:"treatments,omitempty"`
	Trials       []TrialEnrollment  `json:"trials,omitempty"`
}

type Demographics struct {
	Age       int    `json:"age,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	Sex       string `json:"sex,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

// CancerDiagnosis is the record's cancer classification.
type CancerDiagnosis struct {
	PrimarySite   string `json:"primary_site,omitempty"`
	Stage         string `json:"stage,omitempty"`
	Histology     string `json:"histology,omitempty"`
	Grade         string `json:"grade,omitempty"`
	DiagnosisDate string `json:"diagnosis_date,omitempty"`
}

type VisitEntry struct {
	Type     string `json:"type,omitempty"`
	Date     string `json:"date,omitempty"`
	Provider string `json:"provider,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// LabPanel is one collected lab result. A panel holds one or more individual
// observations; clinical practice tracks each analyte independently, so the
// extractor emits one event per observation, not one per panel.
type LabPanel struct {
	PanelName     string           `json:"panel_name,omitempty"`
	CollectedDate string           `json:"collected_date,omitempty"`
	// CollectedDayOffset is a relative offset in days from the case baseline,
	// used by sources that export de-identified relative timestamps.
	CollectedDayOffset *int            `json:"collected_day_offset,omitempty"`
	Observations       []LabObservation `json:"observations,omitempty"`
}

type LabObservation struct {
	TestName       string  `json:"test_name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	ReferenceRange string  `json:"reference_range,omitempty"`
	Interpretation string  `json:"interpretation,omitempty"`
}

type ImagingStudy struct {
	Modality string `json:"modality,omitempty"`
	Date     string `json:"date,omitempty"`
	Findings string `json:"findings,omitempty"`
	ImageRef string `json:"image_ref,omitempty"`
}

type PathologyReport struct {
	SpecimenType   string `json:"specimen_type,omitempty"`
	CollectionDate string `json:"collection_date,omitempty"`
	ReportDate     string `json:"report_date,omitempty"`
	Diagnosis      string `json:"diagnosis,omitempty"`
}

type GenomicProfile struct {
	Mutations  []Mutation `json:"mutations,omitempty"`
	TMB        float64    `json:"tmb,omitempty"`
	MSIStatus  string     `json:"msi_status,omitempty"`
	ReportDate string     `json:"report_date,omitempty"`
}

type Mutation struct {
	Gene           string  `json:"gene"`
	Variant        string  `json:"variant,omitempty"`
	AlleleFraction float64 `json:"allele_fraction,omitempty"`
}

type TreatmentCourse struct {
	Type          string   `json:"type,omitempty"`
	Regimen       string   `json:"regimen,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Response      string   `json:"response,omitempty"`
	AdverseEvents []string `json:"adverse_events,omitempty"`
}

type TrialEnrollment struct {
	TrialID        string `json:"trial_id,omitempty"`
	Name           string `json:"name,omitempty"`
	EnrollmentDate string `json:"enrollment_date,omitempty"`
	Status         string `json:"status,omitempty"`
	Arm            string `json:"arm,omitempty"`
}

// SectionPresence reports which optional sections of the record carry data.
// The summary layer folds this into its data-completeness insight.
func (r *PatientRecord) SectionPresence() map[string]bool {
	return map[string]bool{
		"demographics": r.Demographics != (Demographics{}),
		"diagnosis":    r.Cancer.DiagnosisDate != "",
		"visits":       len(r.Visits) > 0,
		"labs":         len(r.Labs) > 0,
		"imaging":      len(r.Imaging) > 0,
		"pathology":    len(r.Pathology) > 0,
		"genomics":     r.Genomics != nil && len(r.Genomics.Mutations) > 0,
		"treatments":   len(r.Treatments) > 0,
		"trials":       len(r.Trials) > 0,
	}
}
