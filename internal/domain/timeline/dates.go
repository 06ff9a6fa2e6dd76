package timeline

import (
	"fmt"
	"time"
)

// Layouts accepted for normalized record dates, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// MalformedDateError describes a source timestamp that no recognized layout
// can parse. It is attached to the offending event as a warning rather than
// propagated, so one bad record does not blank the whole timeline.
type MalformedDateError struct {
	Field string
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date in %s: %q", e.Field, e.Value)
}

// MissingBaselineError reports a date that cannot be placed at all: a
// relative day offset, an absent date, or an unparseable date on a record
// with no case baseline to resolve against. Unlike a malformed date with a
// baseline there is no safe default, so this aborts extraction.
type MissingBaselineError struct {
	Field string
}

func (e *MissingBaselineError) Error() string {
	return fmt.Sprintf("no resolvable date for %s and record has no case baseline", e.Field)
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// resolveDate turns a source timestamp into a concrete UTC time. Unparseable
// values fall back to the deterministic baseline placeholder and return a
// MalformedDateError for the caller to record as a warning. An empty value
// also resolves to the baseline, silently: absent dates are a normal shape
// for some sections, not a data-quality finding. Either fallback needs a
// baseline to fall back on; without one the event cannot be placed anywhere
// and extraction must abort with a MissingBaselineError.
func resolveDate(value string, field string, baseline time.Time, hasBaseline bool) (time.Time, *MalformedDateError, error) {
	if value == "" {
		if !hasBaseline {
			return time.Time{}, nil, &MissingBaselineError{Field: field}
		}
		return baseline, nil, nil
	}
	if t, ok := parseDate(value); ok {
		return t, nil, nil
	}
	if !hasBaseline {
		return time.Time{}, nil, &MissingBaselineError{Field: field}
	}
	return baseline, &MalformedDateError{Field: field, Value: value}, nil
}

// resolveOffset resolves a relative day offset against the case baseline.
func resolveOffset(offset int, field string, baseline time.Time, hasBaseline bool) (time.Time, error) {
	if !hasBaseline {
		return time.Time{}, &MissingBaselineError{Field: field}
	}
	return baseline.AddDate(0, 0, offset), nil
}

// daysBetween returns the whole-day difference b-a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
