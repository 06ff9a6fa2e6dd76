package summary

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oncotrace/oncotrace/internal/domain/record"
	"github.com/oncotrace/oncotrace/internal/domain/timeline"
	"github.com/oncotrace/oncotrace/pkg/pagination"
)

// Handler exposes the engine over HTTP. It is a thin calling layer: all
// computation happens in the pure pipeline, and the handler only moves
// records in and serialized summaries out.
type Handler struct {
	svc     *Service
	records record.Repository
}

func NewHandler(svc *Service, records record.Repository) *Handler {
	return &Handler{svc: svc, records: records}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/summaries", h.SummarizeRecord)
	api.GET("/patients", h.ListPatients)
	api.PUT("/patients/:id/record", h.PutRecord)
	api.GET("/patients/:id/record", h.GetRecord)
	api.DELETE("/patients/:id/record", h.DeleteRecord)
	api.GET("/patients/:id/summary", h.GetSummary)
}

// SummarizeRecord runs the pipeline over a canonical record supplied in the
// request body, without touching the store.
func (h *Handler) SummarizeRecord(c echo.Context) error {
	var rec record.PatientRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.respondWithSummary(c, &rec)
}

// GetSummary loads a stored record and runs the pipeline over it.
func (h *Handler) GetSummary(c echo.Context) error {
	rec, err := h.records.GetByPatient(c.Request().Context(), c.Param("id"))
	if errors.Is(err, record.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient record not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.respondWithSummary(c, rec)
}

func (h *Handler) respondWithSummary(c echo.Context, rec *record.PatientRecord) error {
	format, err := ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	summary, err := h.svc.BuildSummary(rec)
	if err != nil {
		var baseline *timeline.MissingBaselineError
		if errors.As(err, &baseline) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	payload, err := Export(summary, format)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, format.ContentType(), payload)
}

func (h *Handler) PutRecord(c echo.Context) error {
	var rec record.PatientRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = c.Param("id")
	if rec.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient id is required")
	}
	if err := h.records.Save(c.Request().Context(), &rec); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	rec, err := h.records.GetByPatient(c.Request().Context(), c.Param("id"))
	if errors.Is(err, record.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient record not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	err := h.records.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, record.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient record not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	records, total, err := h.records.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(ids, total, pg.Limit, pg.Offset))
}
