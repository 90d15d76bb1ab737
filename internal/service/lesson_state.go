package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

// lessonTransitions lists the status changes each state allows.
var lessonTransitions = map[models.LessonStatus][]models.LessonStatus{
	models.LessonPending:   {models.LessonConfirmed, models.LessonCancelled},
	models.LessonConfirmed: {models.LessonCompleted, models.LessonCancelled},
}

func canTransition(from, to models.LessonStatus) bool {
	for _, next := range lessonTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func invalidState(message string) error {
	return appErrors.Clone(appErrors.ErrInvalidState, message)
}

// ensureReschedulable rejects time changes on finished lessons. It does not
// look at the proposed time.
func ensureReschedulable(l *models.Lesson) error {
	switch l.Status {
	case models.LessonCompleted:
		return invalidState("completed lessons cannot be rescheduled")
	case models.LessonCancelled:
		return invalidState("cancelled lessons cannot be rescheduled")
	case models.LessonPending, models.LessonConfirmed:
		return nil
	default:
		return invalidState(fmt.Sprintf("lesson has unknown status %q", l.Status))
	}
}

func ensureCancellable(l *models.Lesson, now time.Time) error {
	switch l.Status {
	case models.LessonCompleted:
		return invalidState("completed lessons cannot be cancelled")
	case models.LessonCancelled:
		return invalidState("lesson is already cancelled")
	case models.LessonPending, models.LessonConfirmed:
	default:
		return invalidState(fmt.Sprintf("lesson has unknown status %q", l.Status))
	}
	if !l.StartTime.After(now) {
		return invalidState("lessons that have already started cannot be cancelled")
	}
	return nil
}

func ensureTransition(l *models.Lesson, to models.LessonStatus, now time.Time) error {
	if l.Status == to {
		return invalidState(fmt.Sprintf("lesson is already %s", to))
	}
	if l.Status.Terminal() {
		return invalidState(fmt.Sprintf("%s lessons cannot change status", l.Status))
	}
	if !canTransition(l.Status, to) {
		return invalidState(fmt.Sprintf("cannot move lesson from %s to %s", l.Status, to))
	}
	if to == models.LessonCompleted && now.Before(l.StartTime) {
		return invalidState("lessons cannot be completed before they start")
	}
	return nil
}

// rescheduledStatus is the status a lesson takes after its time changes. A
// confirmed lesson needs confirming again.
func rescheduledStatus(from models.LessonStatus) models.LessonStatus {
	if from == models.LessonConfirmed {
		return models.LessonPending
	}
	return from
}
