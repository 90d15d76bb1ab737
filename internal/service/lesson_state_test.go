package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

func TestLessonTransitions(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	past := &models.Lesson{StartTime: now.Add(-time.Hour)}
	future := &models.Lesson{StartTime: now.Add(time.Hour)}

	cases := []struct {
		name   string
		lesson *models.Lesson
		from   models.LessonStatus
		to     models.LessonStatus
		ok     bool
	}{
		{"confirm pending", future, models.LessonPending, models.LessonConfirmed, true},
		{"complete confirmed", past, models.LessonConfirmed, models.LessonCompleted, true},
		{"complete before start", future, models.LessonConfirmed, models.LessonCompleted, false},
		{"complete pending", past, models.LessonPending, models.LessonCompleted, false},
		{"revive cancelled", future, models.LessonCancelled, models.LessonPending, false},
		{"reopen completed", past, models.LessonCompleted, models.LessonConfirmed, false},
		{"same status", future, models.LessonConfirmed, models.LessonConfirmed, false},
		{"back to pending", future, models.LessonConfirmed, models.LessonPending, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := *tc.lesson
			l.Status = tc.from
			err := ensureTransition(&l, tc.to, now)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
		})
	}
}

func TestEnsureCancellable(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, ensureCancellable(&models.Lesson{Status: models.LessonPending, StartTime: now.Add(time.Minute)}, now))
	assert.NoError(t, ensureCancellable(&models.Lesson{Status: models.LessonConfirmed, StartTime: now.Add(time.Minute)}, now))

	for _, l := range []*models.Lesson{
		{Status: models.LessonConfirmed, StartTime: now},
		{Status: models.LessonPending, StartTime: now.Add(-time.Hour)},
		{Status: models.LessonCompleted, StartTime: now.Add(time.Hour)},
		{Status: models.LessonCancelled, StartTime: now.Add(time.Hour)},
	} {
		err := ensureCancellable(l, now)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState), "status %s", l.Status)
	}
}

func TestEnsureReschedulable(t *testing.T) {
	assert.NoError(t, ensureReschedulable(&models.Lesson{Status: models.LessonPending}))
	assert.NoError(t, ensureReschedulable(&models.Lesson{Status: models.LessonConfirmed}))
	assert.Error(t, ensureReschedulable(&models.Lesson{Status: models.LessonCompleted}))
	assert.Error(t, ensureReschedulable(&models.Lesson{Status: models.LessonCancelled}))

	assert.Equal(t, models.LessonPending, rescheduledStatus(models.LessonConfirmed))
	assert.Equal(t, models.LessonPending, rescheduledStatus(models.LessonPending))
}
