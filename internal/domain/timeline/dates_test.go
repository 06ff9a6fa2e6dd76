package timeline

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate_Layouts(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"2023-01-10", true},
		{"2023-01-10T14:30:00Z", true},
		{"2023-01-10 14:30:00", true},
		{"2023/01/10", true},
		{"01/10/2023", true},
		{"10 Jan 2023", false},
		{"", false},
		{"garbage", false},
	}
	for _, tc := range tests {
		if _, ok := parseDate(tc.value); ok != tc.ok {
			t.Errorf("parseDate(%q): expected ok=%v, got %v", tc.value, tc.ok, ok)
		}
	}
}

func TestResolveDate(t *testing.T) {
	baseline := day("2023-01-10")

	got, warn, err := resolveDate("", "f", baseline, true)
	if warn != nil || err != nil || !got.Equal(baseline) {
		t.Errorf("empty value should resolve to baseline silently, got %v warn %v err %v", got, warn, err)
	}

	got, warn, err = resolveDate("2023-02-01", "f", baseline, true)
	if warn != nil || err != nil || !got.Equal(day("2023-02-01")) {
		t.Errorf("valid value should parse, got %v warn %v err %v", got, warn, err)
	}

	got, warn, err = resolveDate("bogus", "labs[0].collected_date", baseline, true)
	if err != nil {
		t.Fatalf("malformed value with a baseline must not be fatal: %v", err)
	}
	if warn == nil {
		t.Fatal("expected MalformedDateError")
	}
	if warn.Field != "labs[0].collected_date" || warn.Value != "bogus" {
		t.Errorf("error should carry field and value, got %+v", warn)
	}
	if !got.Equal(baseline) {
		t.Errorf("malformed value should fall back to baseline, got %v", got)
	}
}

func TestResolveDate_NoBaseline(t *testing.T) {
	// A parseable date never needs the baseline.
	got, warn, err := resolveDate("2023-02-01", "f", time.Time{}, false)
	if warn != nil || err != nil || !got.Equal(day("2023-02-01")) {
		t.Errorf("valid value should parse without a baseline, got %v warn %v err %v", got, warn, err)
	}

	// Empty and unparseable values have nothing to fall back on.
	for _, value := range []string{"", "bogus"} {
		_, _, err := resolveDate(value, "visits[0].date", time.Time{}, false)
		var missing *MissingBaselineError
		if !errors.As(err, &missing) {
			t.Fatalf("value %q: expected MissingBaselineError, got %v", value, err)
		}
		if missing.Field != "visits[0].date" {
			t.Errorf("value %q: unexpected field %q", value, missing.Field)
		}
	}
}

func TestResolveOffset(t *testing.T) {
	baseline := day("2023-01-10")
	got, err := resolveOffset(30, "f", baseline, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(day("2023-02-09")) {
		t.Errorf("expected 2023-02-09, got %v", got)
	}

	if _, err := resolveOffset(30, "f", time.Time{}, false); err == nil {
		t.Error("expected MissingBaselineError without a baseline")
	}
}

func TestDaysBetween(t *testing.T) {
	if got := daysBetween(day("2023-01-10"), day("2023-01-15")); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := daysBetween(day("2023-01-15"), day("2023-01-10")); got != -5 {
		t.Errorf("expected -5, got %d", got)
	}
}
