package summary

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// Format selects the export projection. Every format is a pure serialization
// of the same summary; writing the bytes anywhere is the caller's job.
type Format string

const (
	// FormatStructured is the full summary as indented JSON.
	FormatStructured Format = "structured"
	// FormatTabular flattens the timeline to CSV, one row per event.
	FormatTabular Format = "tabular"
	// FormatDocument renders a plain-text fragment listing periods and
	// their events, for embedding in downstream documents.
	FormatDocument Format = "document"
)

// ParseFormat maps a request parameter to a Format, defaulting to
// structured.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "structured", "json":
		return FormatStructured, nil
	case "tabular", "csv":
		return FormatTabular, nil
	case "document", "text":
		return FormatDocument, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType returns the MIME type for HTTP responses in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatTabular:
		return "text/csv"
	case FormatDocument:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Export serializes the summary into the requested format.
func Export(s *PatientSummary, format Format) ([]byte, error) {
	switch format {
	case FormatTabular:
		return exportTabular(s)
	case FormatDocument:
		return exportDocument(s), nil
	default:
		return json.MarshalIndent(s, "", "  ")
	}
}

var tabularHeader = []string{"date", "kind", "title", "description", "category", "importance", "source"}

func exportTabular(s *PatientSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tabularHeader); err != nil {
		return nil, err
	}
	for _, evt := range s.Timeline.Events() {
		row := []string{
			evt.Date.Format("2006-01-02"),
			string(evt.Kind),
			evt.Title,
			evt.Description,
			string(evt.Category),
			string(evt.Importance),
			evt.Source,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportDocument(s *PatientSummary) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient %s clinical timeline\n", s.PatientID)
	if s.Empty {
		b.WriteString("No extractable events in record.\n")
		return []byte(b.String())
	}
	fmt.Fprintf(&b, "%d events, %s to %s (%d days)\n",
		s.TotalEvents,
		s.Timespan.Start.Format("2006-01-02"),
		s.Timespan.End.Format("2006-01-02"),
		s.Timespan.TotalDays)
	fmt.Fprintf(&b, "Trajectory: %s (confidence %.1f); risk %s (%.2f)\n",
		s.Insights.Trajectory.Status,
		s.Insights.Trajectory.Confidence,
		s.Insights.RiskAssessment.Category,
		s.Insights.RiskAssessment.Score)

	for _, period := range s.Timeline.Periods {
		fmt.Fprintf(&b, "\n%s: %s\n", period.Label, period.Summary)
		for _, finding := range period.KeyFindings {
			fmt.Fprintf(&b, "  * %s\n", finding)
		}
		for _, evt := range period.Events {
			fmt.Fprintf(&b, "  - %s [%s/%s] %s\n",
				evt.Date.Format("2006-01-02"), evt.Kind, evt.Importance, evt.Title)
		}
	}

	if len(s.DataQualityFindings) > 0 {
		b.WriteString("\nData quality findings:\n")
		for _, finding := range s.DataQualityFindings {
			fmt.Fprintf(&b, "  ! %s\n", finding)
		}
	}
	return []byte(b.String())
}
