package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func samplesAt(values ...float64) []Sample {
	base := day("2023-01-01")
	out := make([]Sample, len(values))
	for i, v := range values {
		out[i] = Sample{Date: base.AddDate(0, 0, i*14), Value: v}
	}
	return out
}

func labResult(date, test string, value float64, trend string) timeline.EnrichedEvent {
	return timeline.EnrichedEvent{
		Event: timeline.Event{
			ID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(test+date)),
			Kind:    timeline.KindLabResult,
			Date:    day(date),
			Details: timeline.LabDetails{TestName: test, Value: value},
		},
		Trend: trend,
	}
}

func TestComputeTrend_EmptyAndSingle(t *testing.T) {
	empty := ComputeTrend("CEA", nil)
	if empty.Direction != "unknown" {
		t.Errorf("no samples: expected unknown, got %s", empty.Direction)
	}

	single := ComputeTrend("CEA", samplesAt(12))
	if single.Direction != "baseline" {
		t.Errorf("one sample: expected baseline, got %s", single.Direction)
	}
	if single.SampleCount != 1 {
		t.Errorf("expected sample count 1, got %d", single.SampleCount)
	}
}

func TestComputeTrend_FlatSeries(t *testing.T) {
	r := ComputeTrend("Hemoglobin", samplesAt(10, 10, 10))
	if r.Direction != "stable" {
		t.Errorf("expected stable, got %s", r.Direction)
	}
	if r.ChangePercent != 0 {
		t.Errorf("expected 0%% change, got %f", r.ChangePercent)
	}
	if r.Slope != 0 {
		t.Errorf("expected zero slope, got %f", r.Slope)
	}
	if !math.IsNaN(r.Correlation) {
		t.Errorf("zero-variance series should report NaN correlation, got %f", r.Correlation)
	}
}

func TestComputeTrend_Directionality(t *testing.T) {
	tests := []struct {
		name       string
		test       string
		values     []float64
		wantDir    string
		wantChange float64
	}{
		{"hemoglobin rising improves", "Hemoglobin", []float64{9, 11}, "improving", 22.2},
		{"hemoglobin falling declines", "Hemoglobin", []float64{12, 9}, "declining", -25.0},
		{"tumor marker rising declines", "CEA", []float64{10, 20}, "declining", 100.0},
		{"tumor marker falling improves", "CA125", []float64{80, 40}, "improving", -50.0},
		{"unknown test rising", "Glucose", []float64{100, 150}, "increasing", 50.0},
		{"unknown test falling", "Glucose", []float64{150, 100}, "decreasing", -33.3},
		{"small change is stable", "CEA", []float64{10, 10.5}, "stable", 5.0},
		// Sign of the change follows the signed first value, not its
		// magnitude.
		{"negative first sample", "Base Excess", []float64{-4, -2}, "decreasing", -50.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := ComputeTrend(tc.test, samplesAt(tc.values...))
			if r.Direction != tc.wantDir {
				t.Errorf("expected %s, got %s", tc.wantDir, r.Direction)
			}
			if math.Abs(r.ChangePercent-tc.wantChange) > 0.1 {
				t.Errorf("expected %.1f%% change, got %.1f%%", tc.wantChange, r.ChangePercent)
			}
		})
	}
}

func TestComputeTrend_SlopeAndCorrelation(t *testing.T) {
	r := ComputeTrend("CEA", samplesAt(10, 12, 14, 16))
	if math.Abs(r.Slope-2.0) > 1e-9 {
		t.Errorf("expected slope 2, got %f", r.Slope)
	}
	if math.Abs(r.Correlation-1.0) > 1e-9 {
		t.Errorf("perfectly linear series should correlate 1, got %f", r.Correlation)
	}
}

func TestCollectTrends(t *testing.T) {
	events := []timeline.EnrichedEvent{
		labResult("2023-01-01", "Hemoglobin", 9, "baseline"),
		labResult("2023-02-01", "Hemoglobin", 11, "improving"),
		labResult("2023-01-01", "CEA", 10, "baseline"),
		labResult("2023-02-01", "CEA", 20, "declining"),
		labResult("2023-01-01", "Sodium", 140, "baseline"),
		{Event: timeline.Event{Kind: timeline.KindImaging, Date: day("2023-01-05")}},
	}

	results := CollectTrends(events)

	// Sodium has one sample; imaging is not a lab.
	if len(results) != 2 {
		t.Fatalf("expected 2 trends, got %d", len(results))
	}
	// Sorted by test name for deterministic serialization.
	if results[0].TestName != "CEA" || results[1].TestName != "Hemoglobin" {
		t.Errorf("expected CEA then Hemoglobin, got %s then %s", results[0].TestName, results[1].TestName)
	}
	if results[0].Direction != "declining" {
		t.Errorf("CEA doubling should read declining, got %s", results[0].Direction)
	}
	if results[1].Direction != "improving" {
		t.Errorf("hemoglobin recovery should read improving, got %s", results[1].Direction)
	}
}

func TestCollectTrends_MergesTestNameAliases(t *testing.T) {
	// Aliases of the same analyte must form one series, matching how the
	// per-event trend tags are keyed. The first spelling seen names it.
	events := []timeline.EnrichedEvent{
		labResult("2023-01-01", "Hemoglobin", 9, "baseline"),
		labResult("2023-02-01", "HGB", 11, "improving"),
	}

	results := CollectTrends(events)
	if len(results) != 1 {
		t.Fatalf("expected hemoglobin aliases to merge into 1 trend, got %d", len(results))
	}
	r := results[0]
	if r.TestName != "Hemoglobin" {
		t.Errorf("expected first-seen display name Hemoglobin, got %q", r.TestName)
	}
	if r.SampleCount != 2 {
		t.Errorf("expected both samples in the merged series, got %d", r.SampleCount)
	}
	if r.Direction != "improving" {
		t.Errorf("merged hemoglobin recovery should read improving, got %s", r.Direction)
	}
}

func TestCollectTrends_Deterministic(t *testing.T) {
	events := []timeline.EnrichedEvent{
		labResult("2023-01-01", "WBC", 4, "baseline"),
		labResult("2023-02-01", "WBC", 6, "improving"),
		labResult("2023-01-01", "ANC", 1.2, "baseline"),
		labResult("2023-02-01", "ANC", 2.4, "improving"),
	}
	first := CollectTrends(events)
	second := CollectTrends(events)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("trend %d differs across runs", i)
		}
	}
}
