package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/export"
)

// Supported agenda export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var agendaHeaders = []string{"Date", "Start", "End", "Kind", "Status", "Title", "Lesson", "Students"}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
}

// AgendaExport is a rendered agenda document.
type AgendaExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders a teacher's agenda (lessons plus free time) as CSV or PDF.
type ExportService struct {
	availability *AvailabilityService
	lessons      lessonRangeLister
	teachers     teacherReader
	exporters    map[string]export.Exporter
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService constructs an ExportService. Nil exporters fall back to the
// built-in CSV and PDF renderers.
func NewExportService(availability *AvailabilityService, lessons lessonRangeLister, teachers teacherReader, cfg ExportConfig, logger *zap.Logger, csv, pdf export.Exporter) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		availability: availability,
		lessons:      lessons,
		teachers:     teachers,
		exporters:    map[string]export.Exporter{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:       logger,
		cfg:          cfg,
	}
}

// Agenda renders the lessons and free ranges of a teacher inside [start, end).
// Cancelled lessons are listed so the document doubles as a change log.
func (s *ExportService) Agenda(ctx context.Context, actor models.Actor, teacherID, format string, start, end time.Time) (*AgendaExport, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "agenda export is disabled")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	window, _, err := s.availability.Window(ctx, teacherID, start, end)
	if err != nil {
		return nil, err
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !actor.IsAdmin() && !(actor.Role == models.RoleTeacher && teacher.UserID == actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the teacher can export this agenda")
	}
	lessons, err := s.lessons.ListInRange(ctx, models.LessonFilter{
		TeacherID:        teacherID,
		From:             window.Start,
		To:               window.End,
		IncludeCancelled: true,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	loc := s.availability.Location(teacher)
	dataset := buildAgendaDataset(teacher, window, lessons, loc)
	payload, err := exporter.Render(dataset)
	if err != nil {
		s.logger.Error("render agenda failed", zap.String("teacher_id", teacherID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render agenda")
	}

	return &AgendaExport{
		Filename:    fmt.Sprintf("agenda_%s_%s_%s.%s", sanitizeFilename(teacherID), start.In(loc).Format("20060102"), end.In(loc).Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Content:     payload,
	}, nil
}

type agendaRow struct {
	start time.Time
	row   map[string]string
}

func buildAgendaDataset(teacher *models.Teacher, window *models.AvailabilityWindow, lessons []models.Lesson, loc *time.Location) export.Dataset {
	rows := make([]agendaRow, 0, len(lessons)+len(window.Free))
	for _, l := range lessons {
		rows = append(rows, agendaRow{start: l.StartTime, row: agendaCells(l.StartTime, l.EndTime, loc, map[string]string{
			"Kind":     "lesson",
			"Status":   string(l.Status),
			"Title":    l.Title,
			"Lesson":   l.ID,
			"Students": strings.Join(l.StudentIDs(), " "),
		})})
	}
	for _, free := range window.Free {
		rows = append(rows, agendaRow{start: free.Start, row: agendaCells(free.Start, free.End, loc, map[string]string{
			"Kind": "free",
		})})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].start.Before(rows[j].start) })

	data := export.Dataset{
		Title:    "Agenda " + teacherName(teacher),
		Subtitle: fmt.Sprintf("%s to %s (%s)", window.Start.In(loc).Format(time.RFC3339), window.End.In(loc).Format(time.RFC3339), loc.String()),
		Headers:  agendaHeaders,
		Rows:     make([]map[string]string, 0, len(rows)),
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, r.row)
	}
	return data
}

func agendaCells(start, end time.Time, loc *time.Location, cells map[string]string) map[string]string {
	start, end = start.In(loc), end.In(loc)
	cells["Date"] = start.Format("2006-01-02")
	cells["Start"] = start.Format("15:04")
	cells["End"] = end.Format("15:04")
	if !sameDay(start, end) {
		cells["End"] = end.Format("2006-01-02 15:04")
	}
	return cells
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func teacherName(t *models.Teacher) string {
	if strings.TrimSpace(t.FullName) != "" {
		return t.FullName
	}
	return t.ID
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
