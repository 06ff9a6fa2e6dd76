package analytics

import (
	"fmt"
	"strings"

	"github.com/oncotrace/oncotrace/internal/domain/timeline"
)

// Trajectory is the overall disease-course classification derived from
// counting progression markers against response markers across the whole
// event stream.
type Trajectory struct {
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence,omitempty"`
}

// OverallTrajectory tallies progression markers (imaging with progression
// keywords, labs trending clinically down) against response markers (imaging
// showing stability or improvement, treatments ending in complete or partial
// response).
func OverallTrajectory(events []timeline.EnrichedEvent) Trajectory {
	progression, response := 0, 0
	var evidence []string

	for _, evt := range events {
		switch evt.Kind {
		case timeline.KindImaging:
			details, _ := evt.Details.(timeline.ImagingDetails)
			if timeline.HasProgressionFindings(details.Findings) {
				progression++
				evidence = append(evidence, fmt.Sprintf("imaging %s: progression findings", evt.Date.Format("2006-01-02")))
			} else if timeline.HasStabilityFindings(details.Findings) {
				response++
				evidence = append(evidence, fmt.Sprintf("imaging %s: stable or improved", evt.Date.Format("2006-01-02")))
			}
		case timeline.KindLabResult:
			if evt.Trend == "declining" {
				details, _ := evt.Details.(timeline.LabDetails)
				progression++
				evidence = append(evidence, fmt.Sprintf("%s declining at %s", details.TestName, evt.Date.Format("2006-01-02")))
			}
		case timeline.KindTreatmentEnd:
			details, _ := evt.Details.(timeline.TreatmentEndDetails)
			response2 := strings.ToLower(details.Response)
			if strings.Contains(response2, "complete") || strings.Contains(response2, "partial") {
				response++
				evidence = append(evidence, fmt.Sprintf("%s ended with %s", orTreatment(details.Regimen), details.Response))
			}
		}
	}

	switch {
	case response > progression:
		return Trajectory{Status: "improving", Confidence: 0.8, Evidence: evidence}
	case progression > response:
		return Trajectory{Status: "progressing", Confidence: 0.7, Evidence: evidence}
	default:
		return Trajectory{Status: "stable", Confidence: 0.6, Evidence: evidence}
	}
}

func orTreatment(regimen string) string {
	if regimen == "" {
		return "treatment"
	}
	return regimen
}
