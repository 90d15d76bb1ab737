package models

import (
	"time"

	"github.com/noah-isme/tutor-booking-api/pkg/interval"
)

// AvailabilityWindow is the free time of a teacher over a requested window.
type AvailabilityWindow struct {
	TeacherID string              `json:"teacher_id"`
	Timezone  string              `json:"timezone"`
	Start     time.Time           `json:"start"`
	End       time.Time           `json:"end"`
	Free      []interval.Interval `json:"free"`
}

// BookableSlot is a fixed-length slot carved out of free time.
type BookableSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
