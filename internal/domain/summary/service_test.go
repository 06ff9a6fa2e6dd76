package summary

import (
	"bytes"
	"errors"
	"testing"

	"github.com/oncotrace/oncotrace/internal/domain/record"
	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

func intPtr(v int) *int { return &v }

func testRecord() *record.PatientRecord {
	return &record.PatientRecord{
		ID: "pt-100",
		Demographics: record.Demographics{
			Age: 68,
			Sex: "male",
		},
		Cancer: record.CancerDiagnosis{
			PrimarySite:   "colon",
			Stage:         "IIIB",
			Histology:     "adenocarcinoma",
			DiagnosisDate: "2022-11-01",
		},
		Labs: []record.LabPanel{
			{
				PanelName:     "Tumor markers",
				CollectedDate: "2022-11-05",
				Observations: []record.LabObservation{
					{TestName: "CEA", Value: 40, Unit: "ng/mL", Interpretation: "high"},
				},
			},
			{
				PanelName:     "Tumor markers",
				CollectedDate: "2023-02-05",
				Observations: []record.LabObservation{
					{TestName: "CEA", Value: 18, Unit: "ng/mL"},
				},
			},
		},
		Imaging: []record.ImagingStudy{
			{Modality: "CT", Date: "2022-10-28", Findings: "circumferential sigmoid mass"},
			{Modality: "CT", Date: "2023-03-10", Findings: "decreased size of sigmoid lesion"},
		},
		Treatments: []record.TreatmentCourse{
			{
				Type:          "chemotherapy",
				Regimen:       "FOLFOX",
				StartDate:     "2022-12-01",
				EndDate:       "2023-05-01",
				Response:      "partial response",
				AdverseEvents: []string{"grade 2 neuropathy"},
			},
		},
	}
}

func TestBuildSummary_FullPipeline(t *testing.T) {
	svc := NewService()
	got, err := svc.BuildSummary(testRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Empty {
		t.Fatal("populated record must not yield the empty summary")
	}
	if got.PatientID != "pt-100" {
		t.Errorf("expected patient id pt-100, got %s", got.PatientID)
	}
	// 1 diagnosis + 2 labs + 2 imaging + 2 treatment boundaries + 1 AE = 8.
	if got.TotalEvents != 8 {
		t.Errorf("expected 8 events, got %d", got.TotalEvents)
	}
	if got.Timespan.Start.IsZero() || got.Timespan.End.Before(got.Timespan.Start) {
		t.Errorf("invalid timespan: %+v", got.Timespan)
	}

	// CEA falling 40 -> 18 reads as improvement for a tumor marker.
	if len(got.Insights.BiomarkerTrends) != 1 {
		t.Fatalf("expected 1 biomarker trend, got %d", len(got.Insights.BiomarkerTrends))
	}
	if got.Insights.BiomarkerTrends[0].Direction != "improving" {
		t.Errorf("expected improving CEA trend, got %s", got.Insights.BiomarkerTrends[0].Direction)
	}

	if got.Insights.Trajectory.Status != "improving" {
		t.Errorf("expected improving trajectory, got %s", got.Insights.Trajectory.Status)
	}

	journey := got.TreatmentJourney
	if journey.TotalCourses != 1 {
		t.Errorf("expected 1 course, got %d", journey.TotalCourses)
	}
	if journey.BestResponse != "partial" {
		t.Errorf("expected partial best response, got %q", journey.BestResponse)
	}
	if journey.HighestToxicity != "moderate" {
		t.Errorf("grade 2 neuropathy should yield moderate toxicity, got %s", journey.HighestToxicity)
	}

	// Diagnosis and treatment start are the critical milestones.
	if len(got.KeyMilestones) != 2 {
		t.Errorf("expected 2 key milestones, got %d", len(got.KeyMilestones))
	}

	if got.Insights.RiskAssessment.Score <= 0 || got.Insights.RiskAssessment.Score > 1 {
		t.Errorf("risk score out of bounds: %f", got.Insights.RiskAssessment.Score)
	}
	if len(got.DiseaseProgression.ImagingSeries) != 2 {
		t.Errorf("expected 2 imaging series entries, got %d", len(got.DiseaseProgression.ImagingSeries))
	}
}

func TestBuildSummary_Deterministic(t *testing.T) {
	svc := NewService()

	first, err := svc.BuildSummary(testRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.BuildSummary(testRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := Export(first, FormatStructured)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	b, err := Export(second, FormatStructured)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated summaries of the same record must serialize byte-identically")
	}
}

func TestBuildSummary_EmptyRecord(t *testing.T) {
	svc := NewService()
	got, err := svc.BuildSummary(&record.PatientRecord{ID: "pt-empty"})
	if err != nil {
		t.Fatalf("empty record must not error: %v", err)
	}
	if !got.Empty {
		t.Error("expected the typed empty summary")
	}
	if got.TotalEvents != 0 {
		t.Errorf("expected 0 events, got %d", got.TotalEvents)
	}
	if got.TreatmentJourney.HighestToxicity != "none" {
		t.Errorf("expected none toxicity, got %s", got.TreatmentJourney.HighestToxicity)
	}
	if got.Insights.DataCompleteness.Score != 0 {
		t.Errorf("expected 0 completeness, got %f", got.Insights.DataCompleteness.Score)
	}
}

func TestBuildSummary_MissingBaselinePropagates(t *testing.T) {
	rec := &record.PatientRecord{
		ID: "pt-nobaseline",
		Labs: []record.LabPanel{
			{
				CollectedDayOffset: intPtr(14),
				Observations:       []record.LabObservation{{TestName: "CEA", Value: 10}},
			},
		},
	}
	_, err := NewService().BuildSummary(rec)
	var missing *timeline.MissingBaselineError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingBaselineError, got %v", err)
	}
}

func TestBuildSummary_DataQualityFindings(t *testing.T) {
	rec := testRecord()
	rec.Imaging[0].Date = "last tuesday"

	got, err := NewService().BuildSummary(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.DataQualityFindings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got.DataQualityFindings))
	}
}

func TestCompleteness(t *testing.T) {
	got := completeness(testRecord())
	// demographics, diagnosis, labs, imaging, treatments: 5 of 9.
	if got.Score != 0.56 {
		t.Errorf("expected 0.56, got %f", got.Score)
	}
	if got.Sections["visits"] {
		t.Error("visits section should read absent")
	}
	if !got.Sections["labs"] {
		t.Error("labs section should read present")
	}
}

func TestCareCoordination(t *testing.T) {
	events, err := timeline.ExtractEvents(testRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := careCoordination(timeline.SortEvents(events))
	if got.ActiveCategories < 3 {
		t.Errorf("expected at least 3 active categories, got %d", got.ActiveCategories)
	}
	if got.LongestGapDays <= 0 {
		t.Errorf("expected a positive longest gap, got %d", got.LongestGapDays)
	}
	if got.AvgEventsPerMonth <= 0 {
		t.Errorf("expected positive events per month, got %f", got.AvgEventsPerMonth)
	}
}
