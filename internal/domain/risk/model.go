package risk

// Features is the fixed feature vector the heuristic model scores. Fields
// mirror what the canonical record and the event stream can support; absent
// data leaves the zero value and lowers prediction confidence instead of
// failing.
type Features struct {
	Age             int      `json:"age,omitempty"`
	Sex             string   `json:"sex,omitempty"`
	Stage           string   `json:"stage,omitempty"`
	Histology       string   `json:"histology,omitempty"`
	Grade           string   `json:"grade,omitempty"`
	TreatmentCount  int      `json:"treatment_count"`
	TreatmentTypes  []string `json:"treatment_types,omitempty"`
	MutationCount   int      `json:"mutation_count"`
	ActionableCount int      `json:"actionable_count"`
	TMB             float64  `json:"tmb,omitempty"`
	MSIStatus       string   `json:"msi_status,omitempty"`
	BestResponse    string   `json:"best_response,omitempty"`
}

// PrognosticFactor is one explainable contributor to the assessment.
type PrognosticFactor struct {
	Name      string `json:"name"`
	Direction string `json:"direction"` // positive | negative
	Strength  string `json:"strength"`  // high | moderate | low
	Rationale string `json:"rationale"`
}

// RiskAssessment is the composite heuristic output. PredictionConfidence is
// capped below 1.0: the model is explainable weighting, not calibrated.
type RiskAssessment struct {
	Score                float64            `json:"score"`
	Category             string             `json:"category"`
	Factors              []PrognosticFactor `json:"factors,omitempty"`
	Features             Features           `json:"features"`
	PredictionConfidence float64            `json:"prediction_confidence"`
}

var strengthRank = map[string]int{"high": 3, "moderate": 2, "low": 1}
