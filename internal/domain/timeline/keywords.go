package timeline

import "strings"

// Fixed keyword tables used to classify free-text clinical fields. These are
// deliberately plain substring allow-lists: classification must stay
// deterministic and explainable, not model-driven.

var progressionKeywords = []string{
	"mass", "progression", "progressive", "recurrence", "recurrent",
	"new lesion", "new nodule", "new ", "metastas", "enlarg", "worsening",
	"growth", "increased size",
}

var stabilityKeywords = []string{
	"stable", "unchanged", "no evidence", "resolution", "resolved",
	"decreased", "improved", "improvement", "shrink", "reduction",
	"regression", "smaller", "partial response", "complete response",
}

// HasProgressionFindings reports whether free-text findings contain a
// progression-indicating keyword.
func HasProgressionFindings(text string) bool {
	return containsAny(text, progressionKeywords)
}

// HasStabilityFindings reports whether free-text findings contain a
// stability or improvement keyword.
func HasStabilityFindings(text string) bool {
	return containsAny(text, stabilityKeywords)
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// bodyRegions maps a coarse region label to the findings keywords that imply
// it. Lookup order is fixed so classification is deterministic when findings
// mention several regions.
var bodyRegionOrder = []string{"chest", "abdomen", "pelvis", "head", "neck", "bone", "breast"}

var bodyRegions = map[string][]string{
	"chest":   {"lung", "chest", "thorax", "thoracic", "pulmonary", "mediastin", "pleura"},
	"abdomen": {"abdomen", "abdominal", "liver", "hepatic", "pancrea", "kidney", "renal", "adrenal"},
	"pelvis":  {"pelvis", "pelvic", "bladder", "prostate", "ovar", "uter", "rectal", "rectum"},
	"head":    {"brain", "head", "cranial", "skull", "cerebr", "intracranial"},
	"neck":    {"neck", "cervical lymph", "thyroid"},
	"bone":    {"bone", "osseous", "spine", "vertebr", "skeletal", "femur", "pelvic bone"},
	"breast":  {"breast", "mammary", "axilla"},
}

func classifyBodyRegion(text string) string {
	lower := strings.ToLower(text)
	for _, region := range bodyRegionOrder {
		for _, kw := range bodyRegions[region] {
			if strings.Contains(lower, kw) {
				return region
			}
		}
	}
	return "unspecified"
}

// tumorMarkers is the test-name class whose results are always high
// importance regardless of flagging.
var tumorMarkers = map[string]bool{
	"cea": true, "ca125": true, "ca199": true, "ca153": true,
	"psa": true, "afp": true, "hcg": true, "betahcg": true,
	"ldh": true, "ca724": true,
}

func isTumorMarker(testName string) bool {
	return tumorMarkers[NormalizeTestName(testName)]
}

// NormalizeTestName canonicalizes a lab test name for keyed lookups, so
// aliases like "Hemoglobin" and "HGB" and spelling variants like "CA 19-9"
// and "ca199" land on the same key.
func NormalizeTestName(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer(" ", "", "-", "", "_", "", ".", "").Replace(name)
	return name
}

var abnormalInterpretations = []string{
	"abnormal", "critical", "high", "low", "elevated", "decreased",
	"positive", "flag",
}

func isAbnormalInterpretation(interp string) bool {
	return containsAny(interp, abnormalInterpretations)
}

// actionableTherapies maps the fixed actionable-gene allow-list to its
// established targeted-therapy class.
var actionableTherapies = map[string]string{
	"EGFR":  "EGFR tyrosine kinase inhibitor",
	"ALK":   "ALK inhibitor",
	"ROS1":  "ROS1 inhibitor",
	"BRAF":  "BRAF/MEK inhibitor",
	"HER2":  "anti-HER2 therapy",
	"ERBB2": "anti-HER2 therapy",
	"MET":   "MET inhibitor",
	"RET":   "RET inhibitor",
	"NTRK1": "TRK inhibitor",
	"NTRK2": "TRK inhibitor",
	"NTRK3": "TRK inhibitor",
	"BRCA1": "PARP inhibitor",
	"BRCA2": "PARP inhibitor",
	"KRAS":  "KRAS G12C inhibitor",
}

func therapyClassFor(gene string) (string, bool) {
	class, ok := actionableTherapies[strings.ToUpper(strings.TrimSpace(gene))]
	return class, ok
}

var severeAEKeywords = []string{"grade 3", "grade 4", "grade 5", "severe", "life-threatening", "hospitali", "sepsis", "febrile neutropenia"}
var moderateAEKeywords = []string{"grade 2", "moderate", "persistent"}

func classifyAESeverity(description string) string {
	switch {
	case containsAny(description, severeAEKeywords):
		return "severe"
	case containsAny(description, moderateAEKeywords):
		return "moderate"
	default:
		return "mild"
	}
}

// TrendDirectionality says what a rising raw value of a test means
// clinically.
type TrendDirectionality int

const (
	DirectionalityUnknown TrendDirectionality = iota
	RisingImproves
	RisingDeclines
)

// testDirectionality is the fixed per-test directionality table. Tumor
// markers rise with tumor burden, so a rising value is a clinical decline
// even though the raw number increased.
var testDirectionality = map[string]TrendDirectionality{
	"hemoglobin":  RisingImproves,
	"hgb":         RisingImproves,
	"albumin":     RisingImproves,
	"platelets":   RisingImproves,
	"neutrophils": RisingImproves,
	"anc":         RisingImproves,
	"wbc":         RisingImproves,
	"cea":         RisingDeclines,
	"ca125":       RisingDeclines,
	"ca199":       RisingDeclines,
	"ca153":       RisingDeclines,
	"psa":         RisingDeclines,
	"afp":         RisingDeclines,
	"hcg":         RisingDeclines,
	"ldh":         RisingDeclines,
	"creatinine":  RisingDeclines,
	"bilirubin":   RisingDeclines,
}

// DirectionalityFor looks up the clinical directionality of a test name.
func DirectionalityFor(testName string) TrendDirectionality {
	return testDirectionality[NormalizeTestName(testName)]
}
