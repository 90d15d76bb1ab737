package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/availability"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type availabilityRuleStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Update(ctx context.Context, rule *models.AvailabilityRule) error
	Delete(ctx context.Context, id string) error
}

type teacherSettingsStore interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	UpdateTimezone(ctx context.Context, id, timezone string) error
}

// AvailabilityRuleRequest is the payload for creating or replacing a rule.
// Recurring rules set DayOfWeek; dated rules set SpecificDate (YYYY-MM-DD).
type AvailabilityRuleRequest struct {
	IsRecurring  bool   `json:"is_recurring"`
	DayOfWeek    *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	SpecificDate string `json:"specific_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required,hhmm"`
	EndTime      string `json:"end_time" validate:"required,hhmm"`
}

// UpdateTimezoneRequest sets the zone a teacher's rules are read in.
type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone" validate:"required,max=64"`
}

// AvailabilityRuleService manages the rules a teacher's free time is built from.
type AvailabilityRuleService struct {
	rules     availabilityRuleStore
	teachers  teacherSettingsStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	// clockTagErr is set when the hhmm tag could not be registered; rule
	// payloads are refused instead of reaching the validator.
	clockTagErr error
}

const clockTag = "hhmm"

func registerClockValidation(validate *validator.Validate, tag string) error {
	return validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, err := availability.ParseClock(fl.Field().String())
		return err == nil
	})
}

// NewAvailabilityRuleService constructs the service and registers the hhmm
// validation tag on validate.
func NewAvailabilityRuleService(rules availabilityRuleStore, teachers teacherSettingsStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AvailabilityRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AvailabilityRuleService{rules: rules, teachers: teachers, cache: cache, validator: validate, logger: logger}
	if err := registerClockValidation(validate, clockTag); err != nil {
		logger.Error("register clock validation failed", zap.String("tag", clockTag), zap.Error(err))
		svc.clockTagErr = err
	}
	return svc
}

// List returns a teacher's rules.
func (s *AvailabilityRuleService) List(ctx context.Context, actor models.Actor, teacherID string) ([]models.AvailabilityRule, error) {
	if _, err := s.ownedTeacher(ctx, actor, teacherID); err != nil {
		return nil, err
	}
	rules, err := s.rules.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability rules")
	}
	if rules == nil {
		rules = []models.AvailabilityRule{}
	}
	return rules, nil
}

// Create adds a rule for a teacher.
func (s *AvailabilityRuleService) Create(ctx context.Context, actor models.Actor, teacherID string, req AvailabilityRuleRequest) (*models.AvailabilityRule, error) {
	if _, err := s.ownedTeacher(ctx, actor, teacherID); err != nil {
		return nil, err
	}
	rule := &models.AvailabilityRule{TeacherID: teacherID}
	if err := s.apply(rule, req); err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability rule")
	}
	s.cache.InvalidateTeacher(ctx, teacherID)
	s.logger.Info("availability rule created", zap.String("rule_id", rule.ID), zap.String("teacher_id", teacherID))
	return rule, nil
}

// Update replaces the schedule fields of a rule.
func (s *AvailabilityRuleService) Update(ctx context.Context, actor models.Actor, ruleID string, req AvailabilityRuleRequest) (*models.AvailabilityRule, error) {
	rule, err := s.ownedRule(ctx, actor, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(rule, req); err != nil {
		return nil, err
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability rule")
	}
	s.cache.InvalidateTeacher(ctx, rule.TeacherID)
	return rule, nil
}

// Delete removes a rule. Existing lessons are not touched.
func (s *AvailabilityRuleService) Delete(ctx context.Context, actor models.Actor, ruleID string) error {
	rule, err := s.ownedRule(ctx, actor, ruleID)
	if err != nil {
		return err
	}
	if err := s.rules.Delete(ctx, ruleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability rule")
	}
	s.cache.InvalidateTeacher(ctx, rule.TeacherID)
	s.logger.Info("availability rule deleted", zap.String("rule_id", ruleID), zap.String("teacher_id", rule.TeacherID))
	return nil
}

// SetTimezone changes the IANA zone a teacher's rules are interpreted in.
func (s *AvailabilityRuleService) SetTimezone(ctx context.Context, actor models.Actor, teacherID string, req UpdateTimezoneRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timezone payload")
	}
	zone := strings.TrimSpace(req.Timezone)
	if _, err := time.LoadLocation(zone); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown timezone "+zone)
	}
	teacher, err := s.ownedTeacher(ctx, actor, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.teachers.UpdateTimezone(ctx, teacherID, zone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timezone")
	}
	teacher.Timezone = zone
	s.cache.InvalidateTeacher(ctx, teacherID)
	return teacher, nil
}

// apply validates req and copies it onto rule, keeping exactly one of
// DayOfWeek and SpecificDate set.
func (s *AvailabilityRuleService) apply(rule *models.AvailabilityRule, req AvailabilityRuleRequest) error {
	if s.clockTagErr != nil {
		return appErrors.Wrap(s.clockTagErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "availability rule validation is unavailable")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability rule payload")
	}
	start, _ := availability.ParseClock(req.StartTime)
	end, _ := availability.ParseClock(req.EndTime)
	if end <= start {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	rule.IsRecurring = req.IsRecurring
	rule.StartTime = start.String()
	rule.EndTime = end.String()
	if req.IsRecurring {
		if req.DayOfWeek == nil || req.SpecificDate != "" {
			return appErrors.Clone(appErrors.ErrValidation, "recurring rules require day_of_week and no specific_date")
		}
		day := *req.DayOfWeek
		rule.DayOfWeek = &day
		rule.SpecificDate = nil
		return nil
	}
	if req.SpecificDate == "" || req.DayOfWeek != nil {
		return appErrors.Clone(appErrors.ErrValidation, "dated rules require specific_date and no day_of_week")
	}
	date, err := time.Parse("2006-01-02", req.SpecificDate)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "specific_date must be YYYY-MM-DD")
	}
	rule.SpecificDate = &date
	rule.DayOfWeek = nil
	return nil
}

func (s *AvailabilityRuleService) ownedTeacher(ctx context.Context, actor models.Actor, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if actor.IsAdmin() || (actor.Role == models.RoleTeacher && teacher.UserID == actor.UserID) {
		return teacher, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "only the teacher can manage availability")
}

func (s *AvailabilityRuleService) ownedRule(ctx context.Context, actor models.Actor, ruleID string) (*models.AvailabilityRule, error) {
	rule, err := s.rules.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability rule")
	}
	if _, err := s.ownedTeacher(ctx, actor, rule.TeacherID); err != nil {
		return nil, err
	}
	return rule, nil
}
