package availability

import (
	"time"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/pkg/interval"
)

type expander func(r Rule, day Date, loc *time.Location) (interval.Interval, bool)

var expanders = map[Kind]expander{
	KindRecurring: expandRecurring,
	KindDated:     expandDated,
}

func expandRecurring(r Rule, day Date, loc *time.Location) (interval.Interval, bool) {
	if day.Weekday() != r.Weekday {
		return interval.Interval{}, false
	}
	return window(r, day, loc)
}

func expandDated(r Rule, day Date, loc *time.Location) (interval.Interval, bool) {
	if day != r.Date {
		return interval.Interval{}, false
	}
	return window(r, day, loc)
}

func window(r Rule, day Date, loc *time.Location) (interval.Interval, bool) {
	w := interval.New(day.At(r.Start, loc), day.At(r.End, loc))
	if w.Empty() {
		return interval.Interval{}, false
	}
	return w, true
}

// Ranges expands rules over [rangeStart, rangeEnd) in loc and returns the
// merged, ascending availability ranges clipped to that window. Recurring and
// dated rules on the same day are additive. Invalid rules are ignored.
func Ranges(rules []Rule, rangeStart, rangeEnd time.Time, loc *time.Location) []interval.Interval {
	if len(rules) == 0 || !rangeEnd.After(rangeStart) {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	valid, _ := Partition(rules)
	first := DateOf(rangeStart.In(loc))
	last := DateOf(rangeEnd.In(loc))

	var windows []interval.Interval
	for day := first; !last.Before(day); day = day.AddDays(1) {
		for _, r := range valid {
			expand, ok := expanders[r.Kind]
			if !ok {
				continue
			}
			w, ok := expand(r, day, loc)
			if !ok {
				continue
			}
			if clipped, ok := interval.Clamp(w, rangeStart, rangeEnd); ok {
				windows = append(windows, clipped)
			}
		}
	}
	return interval.Merge(windows)
}

// Busy projects lessons into busy intervals. Only cancelled lessons are left
// out; completed lessons still occupy their slot.
func Busy(lessons []models.Lesson) []interval.Interval {
	busy := make([]interval.Interval, 0, len(lessons))
	for _, l := range lessons {
		if !l.Status.Occupies() {
			continue
		}
		busy = append(busy, interval.New(l.StartTime, l.EndTime))
	}
	return busy
}

// SubtractBusy removes busy intervals from availability ranges.
func SubtractBusy(ranges, busy []interval.Interval) []interval.Interval {
	return interval.Subtract(ranges, busy)
}

// Free is the composed flow: expand rules, then remove time held by lessons.
func Free(rules []Rule, lessons []models.Lesson, rangeStart, rangeEnd time.Time, loc *time.Location) []interval.Interval {
	return SubtractBusy(Ranges(rules, rangeStart, rangeEnd, loc), Busy(lessons))
}
