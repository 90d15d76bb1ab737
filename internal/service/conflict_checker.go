package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type overlapFinder interface {
	FindOverlapping(ctx context.Context, exec sqlx.QueryerContext, q models.OverlapQuery) ([]models.LessonConflict, error)
}

// ConflictChecker answers whether a proposed lesson time collides with any
// non-cancelled lesson of the teacher or of the students involved.
type ConflictChecker struct {
	lessons   overlapFinder
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewConflictChecker constructs a ConflictChecker.
func NewConflictChecker(lessons overlapFinder, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ConflictChecker {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictChecker{lessons: lessons, validator: validate, metrics: metrics, logger: logger}
}

// CheckLessonOverlap runs the overlap query outside of any transaction.
func (c *ConflictChecker) CheckLessonOverlap(ctx context.Context, q models.OverlapQuery) (*models.OverlapResult, error) {
	return c.check(ctx, nil, q)
}

// checkWithin runs the overlap query on exec so the answer is part of the
// caller's transaction snapshot.
func (c *ConflictChecker) checkWithin(ctx context.Context, exec sqlx.QueryerContext, q models.OverlapQuery) (*models.OverlapResult, error) {
	return c.check(ctx, exec, q)
}

func (c *ConflictChecker) check(ctx context.Context, exec sqlx.QueryerContext, q models.OverlapQuery) (*models.OverlapResult, error) {
	q = normalizeOverlapQuery(q)
	if err := c.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid overlap query")
	}

	start := time.Now()
	conflicts, err := c.lessons.FindOverlapping(ctx, exec, q)
	c.metrics.ObserveDBQuery("lesson_overlap", time.Since(start))
	if err != nil {
		c.logger.Error("overlap query failed",
			zap.String("teacher_id", q.TeacherID),
			zap.Strings("student_ids", q.StudentIDs),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnverifiable.Code, appErrors.ErrUnverifiable.Status, appErrors.ErrUnverifiable.Message)
	}
	if conflicts == nil {
		conflicts = []models.LessonConflict{}
	}
	return &models.OverlapResult{HasConflict: len(conflicts) > 0, Conflicts: conflicts}, nil
}

func normalizeOverlapQuery(q models.OverlapQuery) models.OverlapQuery {
	q.TeacherID = strings.TrimSpace(q.TeacherID)
	q.ExcludeLessonID = strings.TrimSpace(q.ExcludeLessonID)
	seen := make(map[string]struct{}, len(q.StudentIDs))
	ids := make([]string, 0, len(q.StudentIDs))
	for _, id := range q.StudentIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	q.StudentIDs = ids
	return q
}

func lessonConflictError(conflicts []models.LessonConflict) error {
	domainErr := &models.LessonConflictError{Message: appErrors.ErrLessonConflict.Message, Conflicts: conflicts}
	wrapped := appErrors.Wrap(domainErr, appErrors.ErrLessonConflict.Code, appErrors.ErrLessonConflict.Status, appErrors.ErrLessonConflict.Message)
	if len(conflicts) > 0 {
		wrapped.Details = map[string]interface{}{"conflicts": conflicts}
	}
	return wrapped
}
