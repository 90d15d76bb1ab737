package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type agendaExporterMock struct {
	format string
	err    error
}

func (m *agendaExporterMock) Agenda(_ context.Context, _ models.Actor, teacherID, format string, start, end time.Time) (*service.AgendaExport, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.AgendaExport{Filename: "agenda_" + teacherID + ".csv", ContentType: "text/csv", Content: []byte("Date,Start\n")}, nil
}

func exportRoutes(h *ExportHandler) func(r gin.IRoutes) {
	return func(r gin.IRoutes) {
		r.GET("/teachers/:id/agenda/export", h.Agenda)
	}
}

func TestExportHandlerStreamsAttachment(t *testing.T) {
	svc := &agendaExporterMock{}
	r := testRouter(teacherClaims, exportRoutes(NewExportHandler(svc)))

	w := doJSON(r, http.MethodGet, "/teachers/t1/agenda/export?format=csv&start=2024-03-04T00:00:00Z&end=2024-03-11T00:00:00Z", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="agenda_t1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Start\n", w.Body.String())
}

func TestExportHandlerErrors(t *testing.T) {
	r := testRouter(teacherClaims, exportRoutes(NewExportHandler(&agendaExporterMock{})))
	w := doJSON(r, http.MethodGet, "/teachers/t1/agenda/export?format=csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = testRouter(teacherClaims, exportRoutes(NewExportHandler(&agendaExporterMock{err: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")})))
	w = doJSON(r, http.MethodGet, "/teachers/t1/agenda/export?format=xlsx&start=2024-03-04T00:00:00Z&end=2024-03-11T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
