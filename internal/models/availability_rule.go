package models

import "time"

// AvailabilityRule is one configured block of time a teacher is available.
// Recurring rules set DayOfWeek (0 = Sunday); dated rules set SpecificDate.
// StartTime and EndTime are HH:MM wall-clock values in the teacher's timezone.
type AvailabilityRule struct {
	ID           string     `db:"id" json:"id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	IsRecurring  bool       `db:"is_recurring" json:"is_recurring"`
	DayOfWeek    *int       `db:"day_of_week" json:"day_of_week"`
	SpecificDate *time.Time `db:"specific_date" json:"specific_date"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
