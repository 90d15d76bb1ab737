package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

type agendaExporter interface {
	Agenda(ctx context.Context, actor models.Actor, teacherID, format string, start, end time.Time) (*service.AgendaExport, error)
}

// ExportHandler streams agenda documents.
type ExportHandler struct {
	service agendaExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service agendaExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Agenda godoc
// @Summary Export teacher agenda
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Teacher ID"
// @Param format query string false "csv (default) or pdf"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /teachers/{id}/agenda/export [get]
func (h *ExportHandler) Agenda(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	start, end, ok := timeRange(c)
	if !ok {
		return
	}
	doc, err := h.service.Agenda(c.Request.Context(), actor, c.Param("id"), c.Query("format"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Content)
}
