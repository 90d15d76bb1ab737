package models

import "time"

// LessonStatus is the lifecycle state of a lesson.
type LessonStatus string

const (
	LessonPending   LessonStatus = "pending"
	LessonConfirmed LessonStatus = "confirmed"
	LessonCompleted LessonStatus = "completed"
	LessonCancelled LessonStatus = "cancelled"
)

// Occupies reports whether a lesson in this status holds its time slot.
func (s LessonStatus) Occupies() bool {
	return s != LessonCancelled
}

// Terminal reports whether no further transition is allowed.
func (s LessonStatus) Terminal() bool {
	return s == LessonCompleted || s == LessonCancelled
}

// Valid reports whether s is a known status.
func (s LessonStatus) Valid() bool {
	switch s {
	case LessonPending, LessonConfirmed, LessonCompleted, LessonCancelled:
		return true
	}
	return false
}

// Lesson is a scheduled session between a teacher and one or more students.
type Lesson struct {
	ID           string       `db:"id" json:"id"`
	TeacherID    string       `db:"teacher_id" json:"teacher_id"`
	StudentID    string       `db:"student_id" json:"student_id"`
	Title        string       `db:"title" json:"title"`
	StartTime    time.Time    `db:"start_time" json:"start_time"`
	EndTime      time.Time    `db:"end_time" json:"end_time"`
	Status       LessonStatus `db:"status" json:"status"`
	CancelReason *string      `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time   `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`

	ParticipantIDs []string `db:"-" json:"participant_ids,omitempty"`
}

// StudentIDs returns the primary student followed by additional participants.
func (l Lesson) StudentIDs() []string {
	ids := make([]string, 0, 1+len(l.ParticipantIDs))
	ids = append(ids, l.StudentID)
	return append(ids, l.ParticipantIDs...)
}

// LessonFilter narrows lesson queries to a teacher and time window.
type LessonFilter struct {
	TeacherID        string
	From             time.Time
	To               time.Time
	IncludeCancelled bool
}

// LessonConflict describes an existing lesson colliding with a proposed time.
// Callers outside the lesson only see its times.
type LessonConflict struct {
	LessonID  string       `db:"id" json:"lesson_id,omitempty"`
	TeacherID string       `db:"teacher_id" json:"teacher_id,omitempty"`
	StudentID string       `db:"student_id" json:"student_id,omitempty"`
	StartTime time.Time    `db:"start_time" json:"start_time"`
	EndTime   time.Time    `db:"end_time" json:"end_time"`
	Status    LessonStatus `db:"status" json:"status,omitempty"`
}

// TimesOnly strips everything but the interval.
func (c LessonConflict) TimesOnly() LessonConflict {
	return LessonConflict{StartTime: c.StartTime, EndTime: c.EndTime}
}

// LessonConflictError is returned when a proposed time overlaps other lessons.
type LessonConflictError struct {
	Message   string           `json:"message"`
	Conflicts []LessonConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *LessonConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// OverlapQuery describes a proposed lesson time to check against existing lessons.
type OverlapQuery struct {
	TeacherID       string    `json:"teacher_id" validate:"required"`
	StudentIDs      []string  `json:"student_ids" validate:"required,min=1,dive,required"`
	Start           time.Time `json:"start_time" validate:"required"`
	End             time.Time `json:"end_time" validate:"required,gtfield=Start"`
	ExcludeLessonID string    `json:"exclude_lesson_id,omitempty"`
}

// OverlapResult reports whether a proposed time collides with other lessons.
type OverlapResult struct {
	HasConflict bool             `json:"has_conflict"`
	Conflicts   []LessonConflict `json:"conflicts"`
}
