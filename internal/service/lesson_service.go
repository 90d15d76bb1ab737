package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/pkg/database"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type lessonStore interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Lesson, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson) error
	UpdateScheduleWithTx(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson) error
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type studentReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type lessonNotifier interface {
	Notify(ctx context.Context, event LessonEvent)
}

// CreateLessonRequest books a new lesson.
type CreateLessonRequest struct {
	TeacherID      string    `json:"teacher_id" validate:"required"`
	StudentID      string    `json:"student_id" validate:"required"`
	ParticipantIDs []string  `json:"participant_ids" validate:"omitempty,dive,required"`
	Title          string    `json:"title" validate:"max=200"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Confirmed      bool      `json:"confirmed"`
}

// RescheduleLessonRequest moves a lesson to a new time.
type RescheduleLessonRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

// CancelLessonRequest cancels a lesson.
type CancelLessonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// UpdateLessonStatusRequest moves a lesson along its lifecycle.
type UpdateLessonStatusRequest struct {
	Status models.LessonStatus `json:"status" validate:"required,oneof=confirmed completed cancelled"`
	Reason string              `json:"reason" validate:"max=500"`
}

// LessonServiceParams groups constructor dependencies.
type LessonServiceParams struct {
	Lessons   lessonStore
	Tx        database.TxBeginner
	Checker   *ConflictChecker
	Teachers  teacherReader
	Students  studentReader
	Notifier  lessonNotifier
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// LessonService owns every lesson mutation. Overlap checks and writes run in
// one serializable transaction so two overlapping lessons cannot both commit.
type LessonService struct {
	lessons   lessonStore
	tx        database.TxBeginner
	checker   *ConflictChecker
	teachers  teacherReader
	students  studentReader
	notifier  lessonNotifier
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLessonService constructs a LessonService.
func NewLessonService(params LessonServiceParams) *LessonService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	checker := params.Checker
	if checker == nil {
		if finder, ok := params.Lessons.(overlapFinder); ok {
			checker = NewConflictChecker(finder, validate, params.Metrics, logger)
		}
	}
	return &LessonService{
		lessons:   params.Lessons,
		tx:        params.Tx,
		checker:   checker,
		teachers:  params.Teachers,
		students:  params.Students,
		notifier:  params.Notifier,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns a lesson the actor is a party to.
func (s *LessonService) Get(ctx context.Context, actor models.Actor, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, lessonLookupError(err)
	}
	if _, err := s.authorize(ctx, actor, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Create books a lesson. Lessons start pending unless a teacher or admin asks
// for them to be confirmed straight away.
func (s *LessonService) Create(ctx context.Context, actor models.Actor, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	now := s.now()
	if !req.StartTime.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson must start in the future")
	}

	lesson := &models.Lesson{
		TeacherID:      strings.TrimSpace(req.TeacherID),
		StudentID:      strings.TrimSpace(req.StudentID),
		ParticipantIDs: participantIDs(req.StudentID, req.ParticipantIDs),
		Title:          strings.TrimSpace(req.Title),
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Status:         models.LessonPending,
		CreatedBy:      actor.UserID,
	}

	teacher, students, err := s.loadParties(ctx, lesson.TeacherID, lesson.StudentIDs())
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		if st.TeacherID != teacher.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student "+st.ID+" is not a student of this teacher")
		}
		if !st.Active {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student "+st.ID+" is inactive")
		}
	}
	if err := authorizeParties(actor, teacher, students); err != nil {
		return nil, err
	}
	if req.Confirmed && actor.Role != models.RoleStudent {
		lesson.Status = models.LessonConfirmed
	}

	err = database.WithSerializableTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.ensureFree(ctx, tx, "create", models.OverlapQuery{
			TeacherID:  lesson.TeacherID,
			StudentIDs: lesson.StudentIDs(),
			Start:      lesson.StartTime,
			End:        lesson.EndTime,
		}, conflictView{actor: actor, teacher: teacher, students: students}); err != nil {
			return err
		}
		return s.lessons.CreateWithTx(ctx, tx, lesson)
	})
	if err != nil {
		return nil, s.txError("create", err, "failed to create lesson")
	}

	s.logger.Info("lesson created",
		zap.String("lesson_id", lesson.ID),
		zap.String("teacher_id", lesson.TeacherID),
		zap.String("status", string(lesson.Status)))
	s.afterCommit(ctx, LessonEvent{Type: models.NotificationLessonCreated, Lesson: *lesson, ActorID: actor.UserID})
	return lesson, nil
}

// Reschedule moves a pending or confirmed lesson to a new future time. A
// confirmed lesson drops back to pending.
func (s *LessonService) Reschedule(ctx context.Context, actor models.Actor, id string, req RescheduleLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	now := s.now()

	var (
		updated  *models.Lesson
		previous models.Lesson
	)
	err := database.WithSerializableTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		lesson, err := s.lessons.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return lessonLookupError(err)
		}
		view, err := s.authorize(ctx, actor, lesson)
		if err != nil {
			return err
		}
		if err := ensureReschedulable(lesson); err != nil {
			return err
		}
		if !req.StartTime.After(now) {
			return appErrors.Clone(appErrors.ErrValidation, "new start time must be in the future")
		}
		previous = *lesson

		if err := s.ensureFree(ctx, tx, "reschedule", models.OverlapQuery{
			TeacherID:       lesson.TeacherID,
			StudentIDs:      lesson.StudentIDs(),
			Start:           req.StartTime,
			End:             req.EndTime,
			ExcludeLessonID: lesson.ID,
		}, view); err != nil {
			return err
		}

		lesson.StartTime = req.StartTime.UTC()
		lesson.EndTime = req.EndTime.UTC()
		lesson.Status = rescheduledStatus(lesson.Status)
		if err := s.lessons.UpdateScheduleWithTx(ctx, tx, lesson); err != nil {
			return err
		}
		updated = lesson
		return nil
	})
	if err != nil {
		return nil, s.txError("reschedule", err, "failed to reschedule lesson")
	}

	if previous.Status != updated.Status {
		s.metrics.RecordLessonTransition(string(previous.Status), string(updated.Status))
	}
	s.logger.Info("lesson rescheduled",
		zap.String("lesson_id", updated.ID),
		zap.Time("previous_start", previous.StartTime),
		zap.Time("start", updated.StartTime),
		zap.String("status", string(updated.Status)))
	s.afterCommit(ctx, LessonEvent{
		Type:           models.NotificationLessonRescheduled,
		Lesson:         *updated,
		PreviousStart:  &previous.StartTime,
		PreviousEnd:    &previous.EndTime,
		PreviousStatus: previous.Status,
		ActorID:        actor.UserID,
	})
	return updated, nil
}

// Cancel cancels a pending or confirmed lesson that has not started yet.
func (s *LessonService) Cancel(ctx context.Context, actor models.Actor, id string, req CancelLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}
	now := s.now()

	var (
		updated    *models.Lesson
		prevStatus models.LessonStatus
	)
	err := database.WithSerializableTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		lesson, err := s.lessons.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return lessonLookupError(err)
		}
		if _, err := s.authorize(ctx, actor, lesson); err != nil {
			return err
		}
		if err := ensureCancellable(lesson, now); err != nil {
			return err
		}
		prevStatus = lesson.Status

		cancelledAt := now.UTC()
		lesson.Status = models.LessonCancelled
		lesson.CancelledAt = &cancelledAt
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			lesson.CancelReason = &reason
		}
		if err := s.lessons.UpdateScheduleWithTx(ctx, tx, lesson); err != nil {
			return err
		}
		updated = lesson
		return nil
	})
	if err != nil {
		return nil, s.txError("cancel", err, "failed to cancel lesson")
	}

	s.metrics.RecordLessonTransition(string(prevStatus), string(updated.Status))
	s.logger.Info("lesson cancelled", zap.String("lesson_id", updated.ID), zap.String("actor_id", actor.UserID))
	s.afterCommit(ctx, LessonEvent{
		Type:           models.NotificationLessonCancelled,
		Lesson:         *updated,
		PreviousStatus: prevStatus,
		Reason:         strings.TrimSpace(req.Reason),
		ActorID:        actor.UserID,
	})
	return updated, nil
}

// TransitionStatus confirms or completes a lesson. Cancelling through this
// path applies the same rules as Cancel.
func (s *LessonService) TransitionStatus(ctx context.Context, actor models.Actor, id string, req UpdateLessonStatusRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if req.Status == models.LessonCancelled {
		return s.Cancel(ctx, actor, id, CancelLessonRequest{Reason: req.Reason})
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the teacher can "+verbFor(req.Status)+" a lesson")
	}
	now := s.now()

	var (
		updated    *models.Lesson
		prevStatus models.LessonStatus
	)
	err := database.WithSerializableTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		lesson, err := s.lessons.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return lessonLookupError(err)
		}
		if _, err := s.authorize(ctx, actor, lesson); err != nil {
			return err
		}
		if err := ensureTransition(lesson, req.Status, now); err != nil {
			return err
		}
		prevStatus = lesson.Status
		lesson.Status = req.Status
		if err := s.lessons.UpdateScheduleWithTx(ctx, tx, lesson); err != nil {
			return err
		}
		updated = lesson
		return nil
	})
	if err != nil {
		return nil, s.txError("status", err, "failed to update lesson status")
	}

	s.metrics.RecordLessonTransition(string(prevStatus), string(updated.Status))
	s.logger.Info("lesson status changed",
		zap.String("lesson_id", updated.ID),
		zap.String("from", string(prevStatus)),
		zap.String("to", string(updated.Status)))
	s.afterCommit(ctx, LessonEvent{
		Type:           models.NotificationLessonStatus,
		Lesson:         *updated,
		PreviousStatus: prevStatus,
		ActorID:        actor.UserID,
	})
	return updated, nil
}

// CheckOverlap answers an overlap query for actor. The teacher, every student
// and the excluded lesson must exist, and actor must be a party to them.
func (s *LessonService) CheckOverlap(ctx context.Context, actor models.Actor, q models.OverlapQuery) (*models.OverlapResult, error) {
	q = normalizeOverlapQuery(q)
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid overlap query")
	}
	teacher, students, err := s.loadParties(ctx, q.TeacherID, q.StudentIDs)
	if err != nil {
		return nil, err
	}
	if err := authorizeParties(actor, teacher, students); err != nil {
		return nil, err
	}
	if q.ExcludeLessonID != "" {
		excluded, err := s.lessons.FindByID(ctx, q.ExcludeLessonID)
		if err != nil {
			return nil, lessonLookupError(err)
		}
		if excluded.TeacherID != teacher.ID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
	}

	result, err := s.checker.CheckLessonOverlap(ctx, q)
	if err != nil {
		return nil, err
	}
	result.Conflicts = conflictView{actor: actor, teacher: teacher, students: students}.filter(result.Conflicts)
	return result, nil
}

func (s *LessonService) ensureFree(ctx context.Context, tx *sqlx.Tx, operation string, q models.OverlapQuery, view conflictView) error {
	result, err := s.checker.checkWithin(ctx, tx, q)
	if err != nil {
		return err
	}
	if result.HasConflict {
		s.metrics.RecordLessonConflict(operation, "check")
		return lessonConflictError(view.filter(result.Conflicts))
	}
	return nil
}

// txError maps a failed transaction onto the public error taxonomy. A
// constraint or serialization failure means a concurrent booking won.
func (s *LessonService) txError(operation string, err error, message string) error {
	if database.IsOverlapViolation(err) || database.IsSerializationFailure(err) {
		s.metrics.RecordLessonConflict(operation, "database")
		s.logger.Warn("lesson write lost a concurrent race", zap.String("operation", operation), zap.Error(err))
		return lessonConflictError(nil)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("lesson transaction failed", zap.String("operation", operation), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *LessonService) afterCommit(ctx context.Context, event LessonEvent) {
	s.cache.InvalidateTeacher(ctx, event.Lesson.TeacherID)
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
}

func (s *LessonService) loadParties(ctx context.Context, teacherID string, studentIDs []string) (*models.Teacher, []models.Student, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	students, err := s.students.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	found := make(map[string]struct{}, len(students))
	for _, st := range students {
		found[st.ID] = struct{}{}
	}
	for _, id := range studentIDs {
		if _, ok := found[id]; !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student "+id+" not found")
		}
	}
	return teacher, students, nil
}

// authorize checks that actor is the lesson's teacher, one of its students,
// or an admin.
func (s *LessonService) authorize(ctx context.Context, actor models.Actor, lesson *models.Lesson) (conflictView, error) {
	view := conflictView{actor: actor}
	if actor.IsAdmin() {
		return view, nil
	}
	teacher, students, err := s.loadParties(ctx, lesson.TeacherID, lesson.StudentIDs())
	if err != nil {
		return view, err
	}
	view.teacher, view.students = teacher, students
	return view, authorizeParties(actor, teacher, students)
}

func authorizeParties(actor models.Actor, teacher *models.Teacher, students []models.Student) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		if teacher != nil && teacher.UserID == actor.UserID {
			return nil
		}
	case models.RoleStudent:
		for _, st := range students {
			if st.UserID != nil && *st.UserID == actor.UserID {
				return nil
			}
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not a party to this lesson")
}

// conflictView decides how much of a conflicting lesson an actor may see.
// Admins see everything, teachers their own lessons, students lessons booked
// under their own student records. Anything else is reduced to its times.
type conflictView struct {
	actor    models.Actor
	teacher  *models.Teacher
	students []models.Student
}

func (v conflictView) filter(conflicts []models.LessonConflict) []models.LessonConflict {
	if v.actor.IsAdmin() {
		return conflicts
	}
	own := make(map[string]struct{}, len(v.students))
	for _, st := range v.students {
		if st.UserID != nil && *st.UserID == v.actor.UserID {
			own[st.ID] = struct{}{}
		}
	}
	out := make([]models.LessonConflict, 0, len(conflicts))
	for _, c := range conflicts {
		visible := false
		switch v.actor.Role {
		case models.RoleTeacher:
			visible = v.teacher != nil && v.teacher.UserID == v.actor.UserID && c.TeacherID == v.teacher.ID
		case models.RoleStudent:
			_, visible = own[c.StudentID]
		}
		if !visible {
			c = c.TimesOnly()
		}
		out = append(out, c)
	}
	return out
}

func lessonLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
}

// participantIDs trims, dedupes, and drops the primary student from extra participants.
func participantIDs(primary string, ids []string) []string {
	primary = strings.TrimSpace(primary)
	seen := map[string]struct{}{primary: {}}
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func verbFor(status models.LessonStatus) string {
	switch status {
	case models.LessonConfirmed:
		return "confirm"
	case models.LessonCompleted:
		return "complete"
	default:
		return "update"
	}
}
