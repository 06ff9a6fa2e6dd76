package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oncotrace/oncotrace/internal/domain/record"
)

// eventNamespace seeds name-based event IDs. Extraction must be a pure
// function of the record, so IDs are SHA1 UUIDs over record ID + source
// position rather than random v4s.
var eventNamespace = uuid.MustParse("6f1c3f7e-9d34-4a14-8b6a-2f0d5c7e9a41")

// adverseEventOffsetDays is the fixed, deterministic offset from a course
// start used to timestamp adverse events whose sources carry no date of
// their own.
const adverseEventOffsetDays = 7

func eventID(recordID, source string, ordinal int) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(fmt.Sprintf("%s/%s/%d", recordID, source, ordinal)))
}

// ExtractEvents maps every populated section of the record into typed events.
// Absent optional sections simply contribute nothing; unparseable dates are
// downgraded to per-event warnings. The hard failures are dates that cannot
/// be placed at all: a relative offset, absent date, or unparseable date with
// no case baseline to resolve against.
func ExtractEvents(rec *record.PatientRecord) ([]Event, error) {
	baseline, hasBaseline := recordBaseline(rec)

	events := extractDiagnosis(rec)
	sections := []func(*record.PatientRecord, time.Time, bool) ([]Event, error){
		extractVisits,
		extractLabs,
		extractImaging,
		extractPathology,
		extractGenomics,
		extractTreatments,
		extractTrials,
	}
	for _, extract := range sections {
		section, err := extract(rec, baseline, hasBaseline)
		if err != nil {
			return nil, err
		}
		events = append(events, section...)
	}
	return events, nil
}

// recordBaseline resolves the case baseline used for relative offsets and
// date placeholders: the explicit baseline date when present, otherwise the
// diagnosis date.
func recordBaseline(rec *record.PatientRecord) (time.Time, bool) {
	if t, ok := parseDate(rec.BaselineDate); ok {
		return t, true
	}
	if t, ok := parseDate(rec.Cancer.DiagnosisDate); ok {
		return t, true
	}
	return time.Time{}, false
}

func extractDiagnosis(rec *record.PatientRecord) []Event {
	dx := rec.Cancer
	date, ok := parseDate(dx.DiagnosisDate)
	if !ok {
		// No diagnosis date, no diagnosis event.
		return nil
	}
	title := "Cancer diagnosis"
	if dx.PrimarySite != "" {
		title = "Cancer diagnosis: " + dx.PrimarySite
	}
	desc := strings.TrimSpace(strings.Join(nonEmpty(
		stagePrefix(dx.Stage), dx.Histology, gradePrefix(dx.Grade)), ", "))
	return []Event{{
		ID:          eventID(rec.ID, "diagnosis", 0),
		Kind:        KindDiagnosis,
		Date:        date,
		Title:       title,
		Description: desc,
		Details: DiagnosisDetails{
			PrimarySite: dx.PrimarySite,
			Stage:       dx.Stage,
			Histology:   dx.Histology,
			Grade:       dx.Grade,
		},
		Source:     "cancer-classification",
		Category:   CategoryDiagnosis,
		Importance: ImportanceCritical,
	}}
}

func extractVisits(rec *record.PatientRecord, baseline time.Time, hasBaseline bool) ([]Event, error) {
	var events []Event
	for i, v := range rec.Visits {
		date, warn, err := resolveDate(v.Date, fmt.Sprintf("visits[%d].date", i), baseline, hasBaseline)
		if err != nil {
			return nil, err
		}
		importance := ImportanceMedium
		if strings.EqualFold(v.Type, "diagnosis") {
			importance = ImportanceHigh
		}
		title := "Clinical visit"
		if v.Type != "" {
			title = v.Type + " visit"
		}
		evt := Event{
			ID:          eventID(rec.ID, "visits", i),
			Kind:        KindHistoryEntry,
			Date:        date,
			Title:       title,
			Description: v.Summary,
			Details:     VisitDetails{VisitType: v.Type, Provider: v.Provider},
			Source:      "visit-history",
			Category:    CategoryClinical,
			Importance:  importance,
		}
		if warn != nil {
			evt.Warnings = append(evt.Warnings, warn.Error())
		}
		events = append(events, evt)
	}
	return events, nil
}

func extractLabs(rec *record.PatientRecord, baseline time.Time, hasBaseline bool) ([]Event, error) {
	var events []Event
	ordinal := 0
	for i, panel := range rec.Labs {
		var date time.Time
		var warn *MalformedDateError
		switch {
		case panel.CollectedDayOffset != nil:
			resolved, err := resolveOffset(*panel.CollectedDayOffset,
				fmt.Sprintf("labs[%d].collected_day_offset", i), baseline, hasBaseline)
			if err != nil {
				return nil, err
			}
			date = resolved
		default:
			var err error
			date, warn, err = resolveDate(panel.CollectedDate,
				fmt.Sprintf("labs[%d].collected_date", i), baseline, hasBaseline)
			if err != nil {
				return nil, err
			}
		}

		// One event per observation: each analyte is tracked independently,
		// so a 5-analyte panel contributes 5 events.
		for _, obs := range panel.Observations {
			evt := Event{
				ID:   eventID(rec.ID, "labs", ordinal),
				Kind: KindLabResult,
				Date: date,
				Title: strings.TrimSpace(fmt.Sprintf("%s: %s %s",
					obs.TestName, trimFloat(obs.Value), obs.Unit)),
				Description: labDescription(panel.PanelName, obs),
				Details: LabDetails{
					TestName:       obs.TestName,
					Value:          obs.Value,
					Unit:           obs.Unit,
					ReferenceRange: obs.ReferenceRange,
					Interpretation: obs.Interpretation,
					PanelName:      panel.PanelName,
				},
				Source:     "lab-results",
				Category:   CategoryLaboratory,
				Importance: labImportance(obs),
			}
			if warn != nil {
				evt.Warnings = append(evt.Warnings, warn.Error())
			}
			events = append(events, evt)
			ordinal++
		}
	}
	return events, nil
}

func labImportance(obs record.LabObservation) Importance {
	if isTumorMarker(obs.TestName) || isAbnormalInterpretation(obs.Interpretation) {
		return ImportanceHigh
	}
	if obs.Interpretation != "" {
		return ImportanceMedium
	}
	return ImportanceLow
}

func labDescription(panelName string, obs record.LabObservation) string {
	parts := nonEmpty(panelName, obs.Interpretation)
	if obs.ReferenceRange != "" {
		parts = append(parts, "ref "+obs.ReferenceRange)
	}
	return strings.Join(parts, "; ")
}

func extractImaging(rec *record.PatientRecord, baseline time.Time, hasBaseline bool) ([]Event, error) {
	var events []Event
	for i, study := range rec.Imaging {
		date, warn, err := resolveDate(study.Date, fmt.Sprintf("imaging[%d].date", i), baseline, hasBaseline)
		if err != nil {
			return nil, err
		}
		region := classifyBodyRegion(study.Findings)

		importance := ImportanceLow
		switch {
		case HasProgressionFindings(study.Findings):
			importance = ImportanceHigh
		case HasStabilityFindings(study.Findings):
			importance = ImportanceMedium
		}

		title := strings.TrimSpace(study.Modality)
		if title == "" {
			title = "Imaging study"
		}
		if region != "unspecified" {
			title = title + " " + region
		}

		evt := Event{
			ID:          eventID(rec.ID, "imaging", i),
			Kind:        KindImaging,
			Date:        date,
			Title:       title,
			Description: study.Findings,
			Details: ImagingDetails{
				Modality:   study.Modality,
				BodyRegion: region,
				Findings:   study.Findings,
				ImageRef:   study.ImageRef,
			},
			Source:     "imaging-studies",
			Category:   CategoryImaging,
			Importance: importance,
		}
		if warn != nil {
			evt.Warnings = append(evt.Warnings, warn.Error())
		}
		events = append(events, evt)
	}
	return events, nil
}

// extractPathology emits two events per report: one for specimen collection
// and one for the signed-out report, carrying the turnaround between them.
func extractPathology(rec *record.PatientRecord, baseline time.Time, hasBaseline bool) ([]Event, error) {
	var events []Event
	for i, rep := range rec.Pathology {
		collected, collWarn, err := resolveDate(rep.CollectionDate,
			fmt.Sprintf("pathology[%d].collection_date", i), baseline, hasBaseline)
		if err != nil {
			return nil, err
		}
		reported, repWarn, err := resolveDate(rep.ReportDate,
			fmt.Sprintf("pathology[%d].report_date", i), baseline, hasBaseline)
		if err != nil {
			return nil, err
		}

		collection := Event{
			ID:          eventID(rec.ID, "pathology-collection", i),
			Kind:        KindPathologyCollection,
			Date:        collected,
			Title:       "Specimen collected: " + orUnknown(rep.SpecimenType),
			Details:     PathologyCollectionDetails{SpecimenType: rep.SpecimenType},
			Source:      "pathology-reports",
			Category:    CategoryPathology,
			Importance:  ImportanceMedium,
		}
		if collWarn != nil {
			collection.Warnings = append(collection.Warnings, collWarn.Error())
		}

		turnaround := daysBetween(collected, reported)
		report := Event{
			ID:          eventID(rec.ID, "pathology-report", i),
			Kind:        KindPathologyReport,
			Date:        reported,
			Title:       "Pathology report: " + orUnknown(rep.SpecimenType),
			Description: rep.Diagnosis,
			Source:      "pathology-reports",
			Category:    CategoryPathology,
			Importance:  ImportanceHigh,
		}
		if repWarn != nil {
			report.Warnings = append(report.Warnings, repWarn.Error())
		}
		if turnaround < 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"data quality: pathology[%d] report_date precedes collection_date", i))
			turnaround = 0
		}
		report.Details = PathologyReportDetails{
			SpecimenType:   rep.SpecimenType,
			Diagnosis:      rep.Diagnosis,
			TurnaroundDays: turnaround,
		}
		events = append(events, collection, report)
	}
	return events, nil
}

func extractGenomics(rec *record.PatientRecord, baseline time.Time, hasBaseline bool) ([]Event, error) {
	profile := rec.Genomics
	if profile == nil {
		return nil, nil
	}
	date, warn, err := resolveDate(profile.ReportDate, "genomics.report_date", baseline, hasBaseline)
	if err != nil {
		return nil, err
	}

	var actionable []ActionableMutation
	for _, m := range profile.Mutations {
		if class, ok := therapyClassFor(m.Gene); ok {
			actionable = append(actionable, ActionableMutation{
				Gene:         m.Gene,
				Variant:      m.Variant,
				TherapyClass: class,
			})
		}
	}

	desc := fmt.Sprintf("%d mutation(s), %d actionable", len(profile.Mutations), len(actionable))
	if profile.MSIStatus != "" {
		desc += ", MSI " + profile.MSIStatus
	}
	if profile.TMB > 0 {
		desc += fmt.Sprintf(", TMB %s", trimFloat(profile.TMB))
	}

	evt := Event{
		ID:          eventID(rec.ID, "genomics", 0),
		Kind:        KindGenomics,
		Date:        date,
		Title:       "Genomic profile",
		Description: desc,
		Details: GenomicsDetails{
			Mutations:  profile.Mutations,
			Actionable: actionable,
			TMB:        profile.TMB,
			MSIStatus:  profile.MSIStatus,
		},
		Source:     "genomic-profile",
		Category:   CategoryMolecular,
		Importance: ImportanceHigh,
	}
	if warn != nil {
		evt.Warnings = append(evt.Warnings, warn.Error())
	}
	return []Event{evt}, nil
}

func extractTreatments(rec *record.PatientRecord, baseline time.Time, hasBaseline bool) ([]Event, error) {
	intent := treatmentIntent(rec.Cancer.Stage)
	var events []Event
	ordinal := 0
	for i, course := range rec.Treatments {
		start, startWarn, err := resolveDate(course.StartDate,
			fmt.Sprintf("treatments[%d].start_date", i), baseline, hasBaseline)
		if err != nil {
			return nil, err
		}
		name := courseName(course)

		startEvt := Event{
			ID:    eventID(rec.ID, "treatment-start", i),
			Kind:  KindTreatmentStart,
			Date:  start,
			Title: fmt.Sprintf("Started %s (line %d)", name, i+1),
			Details: TreatmentStartDetails{
				TreatmentType: course.Type,
				Regimen:       course.Regimen,
				Line:          i + 1,
				Intent:        intent,
			},
			Source:     "treatment-courses",
			Category:   CategoryTreatment,
			Importance: ImportanceCritical,
		}
		if startWarn != nil {
			startEvt.Warnings = append(startEvt.Warnings, startWarn.Error())
		}
		events = append(events, startEvt)

		if course.EndDate != "" {
			end, endWarn, err := resolveDate(course.EndDate,
				fmt.Sprintf("treatments[%d].end_date", i), baseline, hasBaseline)
			if err != nil {
				return nil, err
			}
			endEvt := Event{
				ID:          eventID(rec.ID, "treatment-end", i),
				Kind:        KindTreatmentEnd,
				Date:        end,
				Title:       "Completed " + name,
				Description: course.Response,
				Details: TreatmentEndDetails{
					TreatmentType: course.Type,
					Regimen:       course.Regimen,
					DurationDays:  daysBetween(start, end),
					Response:      course.Response,
				},
				Source:     "treatment-courses",
				Category:   CategoryTreatment,
				Importance: ImportanceHigh,
			}
			if endWarn != nil {
				endEvt.Warnings = append(endEvt.Warnings, endWarn.Error())
			}
			events = append(events, endEvt)
		}

		// Adverse events carry no source date; a fixed offset from the
		// course start keeps extraction deterministic.
		aeDate := start.AddDate(0, 0, adverseEventOffsetDays)
		for _, ae := range course.AdverseEvents {
			events = append(events, Event{
				ID:          eventID(rec.ID, "adverse-events", ordinal),
				Kind:        KindAdverseEvent,
				Date:        aeDate,
				Title:       "Adverse event: " + ae,
				Description: fmt.Sprintf("During %s", name),
				Details: AdverseEventDetails{
					Description: ae,
					Severity:    classifyAESeverity(ae),
					Regimen:     course.Regimen,
				},
				Source:     "treatment-courses",
				Category:   CategorySafety,
				Importance: ImportanceMedium,
			})
			ordinal++
		}
	}
	return events, nil
}

func treatmentIntent(stage string) string {
	upper := strings.ToUpper(stage)
	switch {
	case strings.Contains(upper, "IV") || strings.Contains(upper, "M1"):
		return "palliative"
	case upper != "":
		return "curative"
	default:
		return "unknown"
	}
}

func courseName(c record.TreatmentCourse) string {
	if c.Regimen != "" {
		return c.Regimen
	}
	if c.Type != "" {
		return c.Type
	}
	return "treatment"
}

func extractTrials(rec *record.PatientRecord, baseline time.Time, hasBaseline bool) ([]Event, error) {
	var events []Event
	for i, trial := range rec.Trials {
		date, warn, err := resolveDate(trial.EnrollmentDate,
			fmt.Sprintf("trials[%d].enrollment_date", i), baseline, hasBaseline)
		if err != nil {
			return nil, err
		}
		name := trial.Name
		if name == "" {
			name = trial.TrialID
		}
		evt := Event{
			ID:          eventID(rec.ID, "trials", i),
			Kind:        KindTrialEnrollment,
			Date:        date,
			Title:       "Enrolled in trial: " + orUnknown(name),
			Description: strings.Join(nonEmpty(trial.Status, trial.Arm), ", "),
			Details: TrialDetails{
				TrialID: trial.TrialID,
				Name:    trial.Name,
				Status:  trial.Status,
				Arm:     trial.Arm,
			},
			Source:     "trial-enrollments",
			Category:   CategoryResearch,
			Importance: ImportanceHigh,
		}
		if warn != nil {
			evt.Warnings = append(evt.Warnings, warn.Error())
		}
		events = append(events, evt)
	}
	return events, nil
}

// -- small helpers --

func nonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stagePrefix(stage string) string {
	if stage == "" {
		return ""
	}
	return "stage " + stage
}

func gradePrefix(grade string) string {
	if grade == "" {
		return ""
	}
	return "grade " + grade
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
