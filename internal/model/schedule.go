package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyDaily         Frequency = "daily"
	FrequencyMultipleDaily Frequency = "multiple_daily"
	FrequencySpecificDays  Frequency = "specific_days"
	FrequencyEveryXDays    Frequency = "every_x_days"
	FrequencyAsNeeded      Frequency = "as_needed"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyMultipleDaily, FrequencySpecificDays, FrequencyEveryXDays, FrequencyAsNeeded:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidFrequency = errors.New("model: invalid schedule frequency")
	ErrInvalidTimeOfDay = errors.New("model: invalid time of day")
	ErrInvalidInterval  = errors.New("model: invalid every_x_days interval")
	ErrNoSpecificDays   = errors.New("model: specific_days requires at least one weekday")
)

// Schedule is a recurrence rule attached to a medication. Times are wall-clock
// "HH:MM" strings interpreted in local time; StartDate/EndDate bound the rule,
// EndDate inclusive and nil meaning open-ended.
type Schedule struct {
	ID           string
	MedicationID string
	Frequency    Frequency
	Times        []string
	SpecificDays []time.Weekday
	EveryXDays   int
	StartDate    time.Time
	EndDate      *time.Time
	Active       bool
	CreatedAt    time.Time
}

func (s Schedule) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("model: schedule id is required")
	}
	if strings.TrimSpace(s.MedicationID) == "" {
		return errors.New("model: schedule medication_id is required")
	}
	if !s.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, s.Frequency)
	}
	if s.StartDate.IsZero() {
		return errors.New("model: schedule start_date is required")
	}
	if s.Frequency != FrequencyAsNeeded {
		if len(s.Times) == 0 {
			return fmt.Errorf("%w: at least one time required", ErrInvalidTimeOfDay)
		}
		for _, raw := range s.Times {
			if _, _, err := ParseTimeOfDay(raw); err != nil {
				return err
			}
		}
	}
	switch s.Frequency {
	case FrequencyMultipleDaily:
		if len(s.Times) < 2 {
			return fmt.Errorf("%w: multiple_daily requires at least two times", ErrInvalidTimeOfDay)
		}
	case FrequencySpecificDays:
		if len(s.SpecificDays) == 0 {
			return ErrNoSpecificDays
		}
		seen := make(map[time.Weekday]bool, len(s.SpecificDays))
		for _, d := range s.SpecificDays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrNoSpecificDays, int(d))
			}
			if seen[d] {
				return errors.New("model: duplicate weekday in specific_days")
			}
			seen[d] = true
		}
	case FrequencyEveryXDays:
		if s.EveryXDays <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidInterval, s.EveryXDays)
		}
	}
	return nil
}

// ParseTimeOfDay parses an "HH:MM" wall-clock string.
func ParseTimeOfDay(raw string) (hour, minute int, err error) {
	parsed, perr := time.Parse("15:04", strings.TrimSpace(raw))
	if perr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// SortedTimes returns the schedule's times of day in ascending order without
// mutating the schedule.
func (s Schedule) SortedTimes() []string {
	out := make([]string, len(s.Times))
	copy(out, s.Times)
	sort.Strings(out)
	return out
}
