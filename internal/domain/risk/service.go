package risk

import (
	"sort"
	"strings"

	"github.com/oncotrace/oncotrace/internal/domain/record"
	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

// Score deltas are fixed, additive, and bounded; the result is clamped to
// [0,1]. Keeping them as named constants keeps the model auditable.
const (
	baseScore = 0.5

	deltaAgeOver65       = 0.10
	deltaStageIV         = 0.30
	deltaStageIII        = 0.20
	deltaStageII         = 0.10
	deltaCompleteResp    = -0.20
	deltaPartialResp     = -0.10
	deltaProgressiveResp = 0.20
	deltaActionable      = -0.10
	deltaHighTMB         = -0.05

	tmbHighThreshold = 10.0

	maxPredictionConfidence = 0.95
)

// AssessRisk extracts the fixed feature vector from the record and event
// stream and computes the composite heuristic score, category, and ranked
// prognostic factors.
func AssessRisk(rec *record.PatientRecord, events []timeline.Event) RiskAssessment {
	features := ExtractFeatures(rec, events)

	score := baseScore
	if features.Age > 65 {
		score += deltaAgeOver65
	}
	score += stageDelta(features.Stage)
	score += responseDelta(features.BestResponse)
	if features.ActionableCount >= 1 {
		score += deltaActionable
	}
	if features.TMB > tmbHighThreshold {
		score += deltaHighTMB
	}
	score = clamp01(score)

	return RiskAssessment{
		Score:                score,
		Category:             categoryFor(score),
		Factors:              prognosticFactors(features),
		Features:             features,
		PredictionConfidence: predictionConfidence(features),
	}
}

// ExtractFeatures derives the model's inputs. Best response is the most
// favorable response text observed over all treatment courses.
func ExtractFeatures(rec *record.PatientRecord, events []timeline.Event) Features {
	features := Features{
		Age:            rec.Demographics.Age,
		Sex:            rec.Demographics.Sex,
		Stage:          rec.Cancer.Stage,
		Histology:      rec.Cancer.Histology,
		Grade:          rec.Cancer.Grade,
		TreatmentCount: len(rec.Treatments),
		BestResponse:   bestResponse(rec.Treatments),
	}
	seenTypes := map[string]bool{}
	for _, course := range rec.Treatments {
		if course.Type != "" && !seenTypes[course.Type] {
			seenTypes[course.Type] = true
			features.TreatmentTypes = append(features.TreatmentTypes, course.Type)
		}
	}
	if rec.Genomics != nil {
		features.MutationCount = len(rec.Genomics.Mutations)
		features.TMB = rec.Genomics.TMB
		features.MSIStatus = rec.Genomics.MSIStatus
	}
	for _, evt := range events {
		if evt.Kind != timeline.KindGenomics {
			continue
		}
		if details, ok := evt.Details.(timeline.GenomicsDetails); ok {
			features.ActionableCount = len(details.Actionable)
		}
	}
	return features
}

var responseRank = []string{"complete", "partial", "stable", "progressive"}

func bestResponse(courses []record.TreatmentCourse) string {
	best := ""
	bestIdx := len(responseRank)
	for _, course := range courses {
		lower := strings.ToLower(course.Response)
		for idx, label := range responseRank {
			if strings.Contains(lower, label) && idx < bestIdx {
				best, bestIdx = label, idx
				break
			}
		}
	}
	return best
}

func stageDelta(stage string) float64 {
	upper := strings.ToUpper(stage)
	switch {
	case strings.Contains(upper, "IV"):
		return deltaStageIV
	case strings.Contains(upper, "III"):
		return deltaStageIII
	case strings.Contains(upper, "II"):
		return deltaStageII
	default:
		return 0
	}
}

func responseDelta(best string) float64 {
	switch best {
	case "complete":
		return deltaCompleteResp
	case "partial":
		return deltaPartialResp
	case "progressive":
		return deltaProgressiveResp
	default:
		return 0
	}
}

// categoryFor buckets the score into 0.2-wide bands.
func categoryFor(score float64) string {
	switch {
	case score < 0.2:
		return "very-low"
	case score < 0.4:
		return "low"
	case score < 0.6:
		return "moderate"
	case score < 0.8:
		return "high"
	default:
		return "very-high"
	}
}

// prognosticFactors applies the fixed rule table to the features and returns
// the matches sorted by strength, strongest first.
func prognosticFactors(f Features) []PrognosticFactor {
	var factors []PrognosticFactor
	add := func(name, direction, strength, rationale string) {
		factors = append(factors, PrognosticFactor{
			Name: name, Direction: direction, Strength: strength, Rationale: rationale,
		})
	}

	upper := strings.ToUpper(f.Stage)
	switch {
	case strings.Contains(upper, "IV"):
		add("metastatic disease", "negative", "high", "stage IV at diagnosis")
	case strings.Contains(upper, "III"):
		add("locally advanced disease", "negative", "moderate", "stage III at diagnosis")
	}
	if f.Age > 65 {
		add("advanced age", "negative", "low", "age over 65")
	}
	switch f.BestResponse {
	case "complete":
		add("complete treatment response", "positive", "high", "best observed response was complete")
	case "partial":
		add("partial treatment response", "positive", "moderate", "best observed response was partial")
	case "progressive":
		add("progressive disease on treatment", "negative", "high", "best observed response was progression")
	}
	if f.ActionableCount >= 1 {
		add("actionable mutation present", "positive", "moderate", "targeted therapy options available")
	}
	if f.TMB > tmbHighThreshold {
		add("high tumor mutational burden", "positive", "low", "may predict immunotherapy benefit")
	}
	if strings.EqualFold(f.MSIStatus, "MSI-High") || strings.EqualFold(f.MSIStatus, "MSI-H") {
		add("microsatellite instability high", "positive", "moderate", "immunotherapy-responsive phenotype")
	}
	if f.TreatmentCount >= 3 {
		add("heavily pretreated", "negative", "moderate", "three or more treatment lines")
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return strengthRank[factors[i].Strength] > strengthRank[factors[j].Strength]
	})
	return factors
}

// predictionConfidence rewards feature completeness. The cap below 1.0 is
// deliberate: a heuristic model must never report certainty.
func predictionConfidence(f Features) float64 {
	present := 0
	for _, known := range []bool{
		f.Age > 0,
		f.Sex != "",
		f.Stage != "",
		f.Histology != "",
		f.Grade != "",
		f.TreatmentCount > 0,
		f.MutationCount > 0,
		f.TMB > 0,
		f.MSIStatus != "",
		f.BestResponse != "",
	} {
		if known {
			present++
		}
	}
	confidence := 0.5 + 0.045*float64(present)
	if confidence > maxPredictionConfidence {
		confidence = maxPredictionConfidence
	}
	return confidence
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
