package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		raw     string
		want    Clock
		wantErr bool
	}{
		{raw: "09:00", want: 540},
		{raw: "17:30:00", want: 1050},
		{raw: "00:00", want: 0},
		{raw: "24:00", want: 1440},
		{raw: "24:01", wantErr: true},
		{raw: "9:00", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "12:00:30", wantErr: true},
		{raw: "noon", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseClock(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
	assert.Equal(t, "09:05", Clock(545).String())
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
}

func TestFromModel(t *testing.T) {
	monday := 1
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	r, err := FromModel(models.AvailabilityRule{ID: "r1", IsRecurring: true, DayOfWeek: &monday, StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, KindRecurring, r.Kind)
	assert.Equal(t, time.Monday, r.Weekday)

	r, err = FromModel(models.AvailabilityRule{ID: "r2", SpecificDate: &date, StartTime: "13:00", EndTime: "15:00"})
	require.NoError(t, err)
	assert.Equal(t, KindDated, r.Kind)
	assert.Equal(t, "2024-03-04", r.Date.String())

	_, err = FromModel(models.AvailabilityRule{ID: "r3", IsRecurring: true, StartTime: "09:00", EndTime: "12:00"})
	assert.Error(t, err)
	_, err = FromModel(models.AvailabilityRule{ID: "r4", DayOfWeek: &monday, SpecificDate: &date, StartTime: "09:00", EndTime: "12:00"})
	assert.Error(t, err)
	bad := 7
	_, err = FromModel(models.AvailabilityRule{ID: "r5", IsRecurring: true, DayOfWeek: &bad, StartTime: "09:00", EndTime: "12:00"})
	assert.Error(t, err)
}

func TestFromModelsSkipsUnusableRows(t *testing.T) {
	monday := 1
	rules, errs := FromModels([]models.AvailabilityRule{
		{ID: "ok", IsRecurring: true, DayOfWeek: &monday, StartTime: "09:00", EndTime: "12:00"},
		{ID: "inverted", IsRecurring: true, DayOfWeek: &monday, StartTime: "12:00", EndTime: "09:00"},
		{ID: "garbled", IsRecurring: true, DayOfWeek: &monday, StartTime: "x", EndTime: "09:00"},
	})
	require.Len(t, rules, 1)
	assert.Equal(t, "ok", rules[0].ID)
	assert.Len(t, errs, 2)
}
