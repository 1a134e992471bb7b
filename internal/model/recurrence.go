package model

import "time"

// OccursOn reports whether the schedule produces doses on the given calendar
// date. Comparison is by calendar day in the date's location; EndDate is
// inclusive. An EndDate before StartDate means the schedule never occurs.
// as_needed schedules never occur automatically.
func (s Schedule) OccursOn(date time.Time) bool {
	day := DateOnly(date)
	start := DateOnly(s.StartDate.In(date.Location()))
	if day.Before(start) {
		return false
	}
	if s.EndDate != nil {
		end := DateOnly(s.EndDate.In(date.Location()))
		if end.Before(start) {
			return false
		}
		if day.After(end) {
			return false
		}
	}

	switch s.Frequency {
	case FrequencyDaily, FrequencyMultipleDaily:
		return true
	case FrequencySpecificDays:
		for _, wd := range s.SpecificDays {
			if day.Weekday() == wd {
				return true
			}
		}
		return false
	case FrequencyEveryXDays:
		if s.EveryXDays <= 0 {
			return false
		}
		return wholeDaysBetween(start, day)%s.EveryXDays == 0
	case FrequencyAsNeeded:
		return false
	default:
		return false
	}
}

// TimesOn resolves the schedule's times of day into absolute instants on the
// given date, ascending, seconds zeroed. Empty when the schedule does not
// occur on that date.
func (s Schedule) TimesOn(date time.Time) []time.Time {
	if !s.OccursOn(date) {
		return nil
	}
	y, m, d := date.Date()
	loc := date.Location()
	out := make([]time.Time, 0, len(s.Times))
	for _, raw := range s.SortedTimes() {
		hour, minute, err := ParseTimeOfDay(raw)
		if err != nil {
			continue
		}
		out = append(out, time.Date(y, m, d, hour, minute, 0, 0, loc))
	}
	return out
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// wholeDaysBetween counts calendar days from a to b, both at midnight.
// Stepping with AddDate instead of dividing durations keeps DST shifts from
// skewing the count.
func wholeDaysBetween(a, b time.Time) int {
	days := 0
	probe := a
	for probe.Before(b) {
		probe = probe.AddDate(0, 0, 1)
		days++
	}
	return days
}
