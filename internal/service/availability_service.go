package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/availability"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/pkg/cache"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/interval"
)

type availabilityRuleLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error)
}

type lessonRangeLister interface {
	ListInRange(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
}

// AvailabilityConfig tunes free-time queries.
type AvailabilityConfig struct {
	MaxRangeDays    int
	DefaultTimezone string
	SlotDuration    time.Duration
	SlotStep        time.Duration
	CacheTTL        time.Duration
}

// AvailabilityCalendar is a free-time window plus its calendar projection.
type AvailabilityCalendar struct {
	models.AvailabilityWindow
	Events []availability.BackgroundEvent `json:"events"`
}

// AvailabilityServiceParams groups constructor dependencies.
type AvailabilityServiceParams struct {
	Rules    availabilityRuleLister
	Lessons  lessonRangeLister
	Teachers teacherReader
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   AvailabilityConfig
}

// AvailabilityService resolves a teacher's free time from rules and lessons.
type AvailabilityService struct {
	rules    availabilityRuleLister
	lessons  lessonRangeLister
	teachers teacherReader
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      AvailabilityConfig
	fallback *time.Location
	now      func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(params AvailabilityServiceParams) *AvailabilityService {
	cfg := params.Config
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 62
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = time.Hour
	}
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = 30 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := time.UTC
	if cfg.DefaultTimezone != "" {
		if loc, err := time.LoadLocation(cfg.DefaultTimezone); err == nil {
			fallback = loc
		} else {
			logger.Warn("invalid default timezone, using UTC", zap.String("timezone", cfg.DefaultTimezone), zap.Error(err))
		}
	}
	return &AvailabilityService{
		rules:    params.Rules,
		lessons:  params.Lessons,
		teachers: params.Teachers,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		cfg:      cfg,
		fallback: fallback,
		now:      time.Now,
	}
}

// Window returns the merged free ranges of a teacher inside [start, end). The
// second return value reports whether the answer came from cache.
func (s *AvailabilityService) Window(ctx context.Context, teacherID string, start, end time.Time) (*models.AvailabilityWindow, bool, error) {
	if err := s.validateRange(start, end); err != nil {
		return nil, false, err
	}
	start, end = start.UTC(), end.UTC()

	key := cache.AvailabilityKey(teacherID, start, end)
	var cached models.AvailabilityWindow
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	loc := s.Location(teacher)

	stored, err := s.rules.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability rules")
	}
	lessons, err := s.lessons.ListInRange(ctx, models.LessonFilter{TeacherID: teacherID, From: start, To: end})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	computeStart := time.Now()
	rules, skipped := availability.FromModels(stored)
	for _, skipErr := range skipped {
		s.logger.Warn("skipping availability rule", zap.String("teacher_id", teacherID), zap.Error(skipErr))
	}
	s.metrics.AddSkippedRules(len(skipped))
	free := availability.Free(rules, lessons, start, end, loc)
	s.metrics.ObserveAvailabilityCompute(time.Since(computeStart))

	window := &models.AvailabilityWindow{
		TeacherID: teacherID,
		Timezone:  loc.String(),
		Start:     start,
		End:       end,
		Free:      free,
	}
	if window.Free == nil {
		window.Free = []interval.Interval{}
	}
	_ = s.cache.Set(ctx, key, window, s.cfg.CacheTTL)
	return window, false, nil
}

// Calendar returns free ranges together with background events for a calendar view.
func (s *AvailabilityService) Calendar(ctx context.Context, teacherID string, start, end time.Time) (*AvailabilityCalendar, bool, error) {
	window, hit, err := s.Window(ctx, teacherID, start, end)
	if err != nil {
		return nil, false, err
	}
	return &AvailabilityCalendar{AvailabilityWindow: *window, Events: availability.BackgroundEvents(window.Free)}, hit, nil
}

// Slots carves bookable slots of the given duration (zero means the configured
// default) out of the free ranges. Slots in the past are not offered.
func (s *AvailabilityService) Slots(ctx context.Context, teacherID string, start, end time.Time, duration time.Duration) ([]models.BookableSlot, error) {
	if duration == 0 {
		duration = s.cfg.SlotDuration
	}
	if duration != 30*time.Minute && duration != time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot duration must be 30 or 60 minutes")
	}
	window, _, err := s.Window(ctx, teacherID, start, end)
	if err != nil {
		return nil, err
	}
	step := s.cfg.SlotStep
	if step > duration {
		step = duration
	}
	carved := availability.Slots(window.Free, duration, step, s.now())
	slots := make([]models.BookableSlot, 0, len(carved))
	for _, c := range carved {
		slots = append(slots, models.BookableSlot{StartTime: c.Start, EndTime: c.End})
	}
	return slots, nil
}

// Location returns the teacher's timezone, falling back to the configured
// default when it is unset or unknown.
func (s *AvailabilityService) Location(teacher *models.Teacher) *time.Location {
	if teacher == nil || strings.TrimSpace(teacher.Timezone) == "" {
		return s.fallback
	}
	loc, err := time.LoadLocation(teacher.Timezone)
	if err != nil {
		s.logger.Warn("unknown teacher timezone, using default",
			zap.String("teacher_id", teacher.ID),
			zap.String("timezone", teacher.Timezone),
			zap.Error(err))
		return s.fallback
	}
	return loc
}

// Invalidate drops cached windows of a teacher.
func (s *AvailabilityService) Invalidate(ctx context.Context, teacherID string) {
	s.cache.InvalidateTeacher(ctx, teacherID)
}

func (s *AvailabilityService) validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "start and end are required")
	}
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	if limit := time.Duration(s.cfg.MaxRangeDays) * 24 * time.Hour; end.Sub(start) > limit {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range must not exceed %d days", s.cfg.MaxRangeDays))
	}
	return nil
}
