package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/oncotrace/oncotrace/internal/domain/record"
)

func newTestHandler(t *testing.T, seed ...*record.PatientRecord) (*echo.Echo, *Handler) {
	t.Helper()
	repo := record.NewMemRepo()
	for _, rec := range seed {
		if err := repo.Save(context.Background(), rec); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	e := echo.New()
	h := NewHandler(NewService(), repo)
	h.RegisterRoutes(e.Group("/api/v1"))
	return e, h
}

func TestSummarizeRecord(t *testing.T) {
	e, _ := newTestHandler(t)

	body, err := json.Marshal(testRecord())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summaries", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got PatientSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not a summary: %v", err)
	}
	if got.PatientID != "pt-100" || got.TotalEvents == 0 {
		t.Errorf("unexpected summary: %s with %d events", got.PatientID, got.TotalEvents)
	}
}

func TestSummarizeRecord_UnknownFormat(t *testing.T) {
	e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summaries?format=xml", strings.NewReader("{}"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSummarizeRecord_MissingBaseline(t *testing.T) {
	e, _ := newTestHandler(t)

	body := `{"id":"pt-x","labs":[{"collected_day_offset":14,"observations":[{"test_name":"CEA","value":10}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summaries", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for a relative offset without baseline, got %d", rec.Code)
	}
}

func TestGetSummary_Formats(t *testing.T) {
	e, _ := newTestHandler(t, testRecord())

	tests := []struct {
		query       string
		contentType string
	}{
		{"", "application/json"},
		{"?format=tabular", "text/csv"},
		{"?format=document", "text/plain"},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/pt-100/summary"+tc.query, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tc.query, rec.Code)
		}
		if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, tc.contentType) {
			t.Errorf("%q: expected content type %s, got %s", tc.query, tc.contentType, ct)
		}
	}
}

func TestGetSummary_NotFound(t *testing.T) {
	e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/nobody/summary", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPutGetDeleteRecord(t *testing.T) {
	e, _ := newTestHandler(t)

	body, _ := json.Marshal(testRecord())
	req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/pt-100/record", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/patients/pt-100/record", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	var got record.PatientRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("get: response is not a record: %v", err)
	}
	if got.Cancer.PrimarySite != "colon" {
		t.Errorf("record lost fields on round trip: %+v", got.Cancer)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/patients/pt-100/record", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/patients/pt-100/record", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestListPatients(t *testing.T) {
	second := testRecord()
	second.ID = "pt-200"
	e, _ := newTestHandler(t, testRecord(), second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data    []string `json:"data"`
		Total   int      `json:"total"`
		HasMore bool     `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected response shape: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
	if len(resp.Data) != 1 || resp.Data[0] != "pt-100" {
		t.Errorf("expected first page [pt-100], got %v", resp.Data)
	}
	if !resp.HasMore {
		t.Error("expected has_more on the first page")
	}
}
