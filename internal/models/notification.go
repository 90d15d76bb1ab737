package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// NotificationType names the lesson change a notification describes.
type NotificationType string

const (
	NotificationLessonCreated     NotificationType = "lesson.created"
	NotificationLessonRescheduled NotificationType = "lesson.rescheduled"
	NotificationLessonCancelled   NotificationType = "lesson.cancelled"
	NotificationLessonStatus      NotificationType = "lesson.status_changed"
)

// NotificationStatus tracks delivery of a notification.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification is a queued message for one party of a lesson.
type Notification struct {
	ID            string             `db:"id" json:"id"`
	LessonID      string             `db:"lesson_id" json:"lesson_id"`
	RecipientID   string             `db:"recipient_id" json:"recipient_id"`
	RecipientRole UserRole           `db:"recipient_role" json:"recipient_role"`
	Type          NotificationType   `db:"type" json:"type"`
	Payload       types.JSONText     `db:"payload" json:"payload"`
	Status        NotificationStatus `db:"status" json:"status"`
	Attempts      int                `db:"attempts" json:"attempts"`
	LastError     *string            `db:"last_error" json:"last_error,omitempty"`
	SentAt        *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}
