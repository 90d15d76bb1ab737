package cache

import (
	"fmt"
	"time"
)

const keyPrefix = "tutor"

// AvailabilityKey identifies a computed free-time window for a teacher.
func AvailabilityKey(teacherID string, start, end time.Time) string {
	return fmt.Sprintf("%s:availability:%s:%d:%d", keyPrefix, teacherID, start.Unix(), end.Unix())
}

// TeacherAvailabilityPattern matches every cached window of a teacher.
func TeacherAvailabilityPattern(teacherID string) string {
	return fmt.Sprintf("%s:availability:%s:*", keyPrefix, teacherID)
}
