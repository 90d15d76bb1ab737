package availability

import (
	"fmt"
	"time"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

// FromModel converts a stored rule into its resolver form. Stored rules that
// mix the recurring and dated shapes are reported as errors.
func FromModel(m models.AvailabilityRule) (Rule, error) {
	start, err := ParseClock(m.StartTime)
	if err != nil {
		return Rule{}, err
	}
	end, err := ParseClock(m.EndTime)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{ID: m.ID, Start: start, End: end}
	if m.IsRecurring {
		if m.DayOfWeek == nil || m.SpecificDate != nil {
			return Rule{}, fmt.Errorf("recurring rule %s must set only day_of_week", m.ID)
		}
		if *m.DayOfWeek < 0 || *m.DayOfWeek > 6 {
			return Rule{}, fmt.Errorf("rule %s day_of_week %d out of range", m.ID, *m.DayOfWeek)
		}
		r.Kind = KindRecurring
		r.Weekday = time.Weekday(*m.DayOfWeek)
		return r, nil
	}
	if m.SpecificDate == nil || m.DayOfWeek != nil {
		return Rule{}, fmt.Errorf("dated rule %s must set only specific_date", m.ID)
	}
	r.Kind = KindDated
	r.Date = DateOf(*m.SpecificDate)
	return r, nil
}

// FromModels converts stored rules, collecting the ones that cannot be used
// so a single bad row does not blank out the whole calendar.
func FromModels(ms []models.AvailabilityRule) ([]Rule, []error) {
	rules := make([]Rule, 0, len(ms))
	var errs []error
	for _, m := range ms {
		r, err := FromModel(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !r.Valid() {
			errs = append(errs, fmt.Errorf("rule %s has start %s not before end %s", m.ID, r.Start, r.End))
			continue
		}
		rules = append(rules, r)
	}
	return rules, errs
}
