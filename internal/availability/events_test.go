package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/pkg/interval"
)

func TestBackgroundEvents(t *testing.T) {
	free := []interval.Interval{
		interval.New(at(monday, 9, 0), at(monday, 10, 0)),
		interval.New(at(monday, 11, 0), at(monday, 17, 0)),
	}

	events := BackgroundEvents(free)
	require.Len(t, events, 2)
	for i, ev := range events {
		assert.Equal(t, "background", ev.Display)
		assert.Equal(t, "availability", ev.Kind)
		assert.False(t, ev.Editable)
		assert.Equal(t, free[i].Start, ev.Start)
		assert.Equal(t, free[i].End, ev.End)
	}
	assert.NotEqual(t, events[0].ID, events[1].ID)

	again := BackgroundEvents(free)
	assert.Equal(t, events[0].ID, again[0].ID)
	assert.Empty(t, BackgroundEvents(nil))
}

func TestSlots(t *testing.T) {
	free := []interval.Interval{
		interval.New(at(monday, 9, 0), at(monday, 11, 0)),
		interval.New(at(monday, 13, 0), at(monday, 13, 45)),
	}

	slots := Slots(free, time.Hour, 30*time.Minute, monday)
	assert.Equal(t, []interval.Interval{
		interval.New(at(monday, 9, 0), at(monday, 10, 0)),
		interval.New(at(monday, 9, 30), at(monday, 10, 30)),
		interval.New(at(monday, 10, 0), at(monday, 11, 0)),
	}, slots)
}

func TestSlotsSkipsPast(t *testing.T) {
	free := []interval.Interval{interval.New(at(monday, 9, 0), at(monday, 12, 0))}

	slots := Slots(free, time.Hour, time.Hour, at(monday, 9, 30))
	assert.Equal(t, []interval.Interval{
		interval.New(at(monday, 10, 0), at(monday, 11, 0)),
		interval.New(at(monday, 11, 0), at(monday, 12, 0)),
	}, slots)
	assert.Nil(t, Slots(free, 0, time.Hour, monday))
}
