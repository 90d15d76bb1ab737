package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
)

// bookedLessons is a read-only lesson store; overlap matching follows the SQL.
type bookedLessons map[string]models.Lesson

func (b bookedLessons) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	l, ok := b[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (b bookedLessons) FindByIDForUpdate(ctx context.Context, _ *sqlx.Tx, id string) (*models.Lesson, error) {
	return b.FindByID(ctx, id)
}

func (b bookedLessons) CreateWithTx(context.Context, *sqlx.Tx, *models.Lesson) error {
	return errors.New("read only")
}

func (b bookedLessons) UpdateScheduleWithTx(context.Context, *sqlx.Tx, *models.Lesson) error {
	return errors.New("read only")
}

func (b bookedLessons) FindOverlapping(_ context.Context, _ sqlx.QueryerContext, q models.OverlapQuery) ([]models.LessonConflict, error) {
	var out []models.LessonConflict
	for _, l := range b {
		if l.Status == models.LessonCancelled || l.ID == q.ExcludeLessonID {
			continue
		}
		if !l.StartTime.Before(q.End) || !q.Start.Before(l.EndTime) {
			continue
		}
		involved := l.TeacherID == q.TeacherID
		for _, id := range q.StudentIDs {
			if id == l.StudentID {
				involved = true
			}
		}
		if involved {
			out = append(out, models.LessonConflict{LessonID: l.ID, TeacherID: l.TeacherID, StudentID: l.StudentID, StartTime: l.StartTime, EndTime: l.EndTime, Status: l.Status})
		}
	}
	return out, nil
}

type teacherDirectory map[string]models.Teacher

func (d teacherDirectory) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	t, ok := d[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

type studentDirectory map[string]models.Student

func (d studentDirectory) FindByIDs(_ context.Context, ids []string) ([]models.Student, error) {
	var out []models.Student
	for _, id := range ids {
		if st, ok := d[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func newOverlapHandler() *LessonHandler {
	userID := func(s string) *string { return &s }
	svc := service.NewLessonService(service.LessonServiceParams{
		Lessons: bookedLessons{
			"l-private": {
				ID:        "l-private",
				TeacherID: "t2",
				StudentID: "s-other",
				StartTime: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
				EndTime:   time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
				Status:    models.LessonConfirmed,
			},
		},
		Teachers: teacherDirectory{
			"t1": {ID: "t1", UserID: "u-teacher"},
			"t2": {ID: "t2", UserID: "u-teacher-2"},
		},
		Students: studentDirectory{
			"s-mine":  {ID: "s-mine", TeacherID: "t1", UserID: userID("u-student"), Active: true},
			"s-other": {ID: "s-other", TeacherID: "t2", UserID: userID("u-other"), Active: true},
		},
	})
	return NewLessonHandler(svc)
}

func TestLessonHandlerCheckOverlapScopesToParties(t *testing.T) {
	studentClaims := &models.JWTClaims{UserID: "u-student", Role: models.RoleStudent}
	const window = `"start_time":"2024-03-04T10:30:00Z","end_time":"2024-03-04T11:30:00Z"`

	cases := []struct {
		name   string
		claims *models.JWTClaims
		body   string
		status int
		code   string
	}{
		{"student outside the lesson", studentClaims, `{"teacher_id":"t2","student_ids":["s-other"],` + window + `}`, http.StatusForbidden, "FORBIDDEN"},
		{"unknown teacher", studentClaims, `{"teacher_id":"t-missing","student_ids":["s-missing"],` + window + `}`, http.StatusNotFound, "NOT_FOUND"},
		{"unknown student", teacherClaims, `{"teacher_id":"t1","student_ids":["s-mine","s-missing"],` + window + `}`, http.StatusNotFound, "NOT_FOUND"},
		{"exclude lesson of another teacher", teacherClaims, `{"teacher_id":"t1","student_ids":["s-mine"],"exclude_lesson_id":"l-private",` + window + `}`, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := testRouter(tc.claims, lessonRoutes(newOverlapHandler()))

			w := doJSON(r, http.MethodPost, "/lessons/check-overlap", tc.body)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.code)
			assert.NotContains(t, w.Body.String(), "has_conflict")
		})
	}
}

func TestLessonHandlerCheckOverlapHidesOtherLessons(t *testing.T) {
	studentClaims := &models.JWTClaims{UserID: "u-student", Role: models.RoleStudent}
	r := testRouter(studentClaims, lessonRoutes(newOverlapHandler()))

	w := doJSON(r, http.MethodPost, "/lessons/check-overlap", `{"teacher_id":"t1","student_ids":["s-mine","s-other"],"start_time":"2024-03-04T10:30:00Z","end_time":"2024-03-04T11:30:00Z"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"has_conflict":true`)
	assert.Contains(t, body, `"start_time":"2024-03-04T10:00:00Z"`)
	assert.NotContains(t, body, "l-private")
	assert.NotContains(t, body, "s-other")
	assert.NotContains(t, body, `"teacher_id"`)
}
