// Package availability turns a teacher's availability rules and booked lessons
// into free time ranges. Everything here is a pure function of its inputs.
package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates how a rule selects the days it applies to.
type Kind string

const (
	// KindRecurring rules apply every week on Weekday.
	KindRecurring Kind = "recurring"
	// KindDated rules apply on one calendar Date only.
	KindDated Kind = "dated"
)

// Clock is a wall-clock time of day, counted in minutes since midnight.
// 24:00 is allowed and denotes the end of the day.
type Clock int

// ParseClock parses "HH:MM" (an optional ":SS" suffix is tolerated when zero).
func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("invalid time of day %q: seconds not supported", raw)
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return Clock(h*60 + m), nil
}

// Hour returns the hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Date is a calendar date without a time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Weekday returns the day of the week for d.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// At combines d with a wall-clock time in loc. Wall times that do not exist
// because of a DST gap are normalised forward by the time package.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Rule is one configured availability window.
type Rule struct {
	ID      string
	Kind    Kind
	Weekday time.Weekday
	Date    Date
	Start   Clock
	End     Clock
}

// Valid reports whether the rule can produce a non-empty window.
func (r Rule) Valid() bool {
	if r.Start < 0 || r.End > 24*60 || r.Start >= r.End {
		return false
	}
	switch r.Kind {
	case KindRecurring:
		return r.Weekday >= time.Sunday && r.Weekday <= time.Saturday
	case KindDated:
		return r.Date.Year != 0
	default:
		return false
	}
}

// Partition splits rules into usable ones and ones that would invert or
// otherwise produce nothing.
func Partition(rules []Rule) (valid, skipped []Rule) {
	for _, r := range rules {
		if r.Valid() {
			valid = append(valid, r)
		} else {
			skipped = append(skipped, r)
		}
	}
	return valid, skipped
}
