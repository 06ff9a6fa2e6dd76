package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

// Sample is one dated numeric measurement of a biomarker.
type Sample struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TrendResult summarizes the direction of a same-test biomarker series.
type TrendResult struct {
	TestName      string  `json:"test_name"`
	SampleCount   int     `json:"sample_count"`
	Direction     string  `json:"direction"`
	Slope         float64 `json:"slope"`
	// Correlation is the Pearson coefficient of value against sample index.
	// NaN means zero variance: insufficient variation, not an error.
	Correlation   float64 `json:"correlation"`
	ChangePercent float64 `json:"change_percent"`
	Interpretation string `json:"interpretation"`
}

// trendChangeThresholdPct mirrors the enricher's per-result threshold: a
// first-to-last change inside it counts as stable.
const trendChangeThresholdPct = 10.0

// ComputeTrend fits an ordinary least-squares line over the value sequence
// indexed 0..n-1 and classifies the overall direction through the per-test
// directionality table.
func ComputeTrend(testName string, samples []Sample) TrendResult {
	result := TrendResult{TestName: testName, SampleCount: len(samples)}
	if len(samples) == 0 {
		result.Direction = "unknown"
		result.Interpretation = "no samples"
		return result
	}
	if len(samples) == 1 {
		result.Direction = "baseline"
		result.Interpretation = fmt.Sprintf("single %s measurement, no trend yet", testName)
		return result
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	result.Slope, result.Correlation = leastSquares(values)

	first, last := values[0], values[len(values)-1]
	if first != 0 {
		result.ChangePercent = (last - first) / first * 100
	}
	result.Direction = classifyDirection(testName, result.ChangePercent)
	result.Interpretation = interpret(testName, result)
	return result
}

// leastSquares returns the OLS slope and Pearson correlation of values
// against their indices. Correlation is NaN when the values have no
// variance.
func leastSquares(values []float64) (slope, correlation float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}
	denomX := n*sumXX - sumX*sumX
	slope = (n*sumXY - sumX*sumY) / denomX

	denomY := n*sumYY - sumY*sumY
	correlation = (n*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)
	return slope, correlation
}

func classifyDirection(testName string, changePct float64) string {
	if math.Abs(changePct) <= trendChangeThresholdPct {
		return "stable"
	}
	rising := changePct > 0
	switch timeline.DirectionalityFor(testName) {
	case timeline.RisingImproves:
		if rising {
			return "improving"
		}
		return "declining"
	case timeline.RisingDeclines:
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

func interpret(testName string, r TrendResult) string {
	switch r.Direction {
	case "stable":
		return fmt.Sprintf("%s stable over %d samples", testName, r.SampleCount)
	case "improving":
		return fmt.Sprintf("%s trending favorably (%.1f%% over %d samples)", testName, r.ChangePercent, r.SampleCount)
	case "declining":
		return fmt.Sprintf("%s trending unfavorably (%.1f%% over %d samples)", testName, r.ChangePercent, r.SampleCount)
	default:
		return fmt.Sprintf("%s %s %.1f%% over %d samples, no clinical directionality on file",
			testName, r.Direction, r.ChangePercent, r.SampleCount)
	}
}

// CollectTrends groups date-sorted lab events by normalized test name, so
// aliases of the same analyte form one series, and computes a trend per
// biomarker with at least two samples. The first spelling seen becomes the
// series display name. Results come back sorted by key so repeated runs
// serialize identically.
func CollectTrends(events []timeline.EnrichedEvent) []TrendResult {
	series := map[string][]Sample{}
	names := map[string]string{}
	for _, evt := range events {
		if evt.Kind != timeline.KindLabResult {
			continue
		}
		details, ok := evt.Details.(timeline.LabDetails)
		if !ok {
			continue
		}
		key := timeline.NormalizeTestName(details.TestName)
		series[key] = append(series[key], Sample{Date: evt.Date, Value: details.Value})
		if _, ok := names[key]; !ok {
			names[key] = details.TestName
		}
	}

	keys := make([]string, 0, len(series))
	for k := range series {
		if len(series[k]) >= 2 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	results := make([]TrendResult, 0, len(keys))
	for _, k := range keys {
		results = append(results, ComputeTrend(names[k], series[k]))
	}
	return results
}
