package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/tutor-booking-api/pkg/interval"
)

// BackgroundEvent is the calendar projection of a free range.
type BackgroundEvent struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Display  string    `json:"display"`
	Editable bool      `json:"editable"`
	Kind     string    `json:"kind"`
}

const (
	displayBackground = "background"
	kindAvailability  = "availability"
)

var eventNamespace = uuid.MustParse("6f1d8a52-3c0e-4b7a-9e61-0d3f4c2b8a17")

// BackgroundEvents maps each free range to one non-interactive event. Event
// ids are derived from the range so repeated renders keep stable keys.
func BackgroundEvents(free []interval.Interval) []BackgroundEvent {
	events := make([]BackgroundEvent, 0, len(free))
	for _, r := range free {
		key := r.Start.UTC().Format(time.RFC3339) + "/" + r.End.UTC().Format(time.RFC3339)
		events = append(events, BackgroundEvent{
			ID:      uuid.NewSHA1(eventNamespace, []byte(key)).String(),
			Start:   r.Start,
			End:     r.End,
			Display: displayBackground,
			Kind:    kindAvailability,
		})
	}
	return events
}

// Slots carves fixed-length bookable slots out of free ranges. Slot starts
// step from the beginning of each range; a slot must fit inside its range and
// must not start before now.
func Slots(free []interval.Interval, duration, step time.Duration, now time.Time) []interval.Interval {
	if duration <= 0 || step <= 0 {
		return nil
	}
	var slots []interval.Interval
	for _, r := range free {
		for t := r.Start; !t.Add(duration).After(r.End); t = t.Add(step) {
			if t.Before(now) {
				continue
			}
			slots = append(slots, interval.New(t, t.Add(duration)))
		}
	}
	return slots
}
