package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDoseStatus = errors.New("model: invalid dose status")

type DoseStatus string

const (
	DoseStatusPending DoseStatus = "pending"
	DoseStatusTaken   DoseStatus = "taken"
	DoseStatusMissed  DoseStatus = "missed"
	DoseStatusSnoozed DoseStatus = "snoozed"
)

func (s DoseStatus) IsValid() bool {
	switch s {
	case DoseStatusPending, DoseStatusTaken, DoseStatusMissed, DoseStatusSnoozed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s DoseStatus) IsTerminal() bool {
	return s == DoseStatusTaken || s == DoseStatusMissed
}

// Dose is a single scheduled instance of taking a medication. ScheduledAt is
// the absolute instant the dose is due, not a time-of-day string.
type Dose struct {
	ID           string
	MedicationID string
	ScheduleID   string
	Status       DoseStatus
	ScheduledAt  time.Time
	ActualAt     *time.Time
	SnoozeCount  int
	CreatedAt    time.Time
}

func (d Dose) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("model: dose id is required")
	}
	if strings.TrimSpace(d.MedicationID) == "" {
		return errors.New("model: dose medication_id is required")
	}
	if strings.TrimSpace(d.ScheduleID) == "" {
		return errors.New("model: dose schedule_id is required")
	}
	if !d.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDoseStatus, d.Status)
	}
	if d.ScheduledAt.IsZero() {
		return errors.New("model: dose scheduled_at is required")
	}
	if d.SnoozeCount < 0 {
		return errors.New("model: dose snooze_count cannot be negative")
	}
	if d.Status == DoseStatusTaken && d.ActualAt == nil {
		return errors.New("model: actual_at is required when dose is taken")
	}
	if d.Status != DoseStatusTaken && d.ActualAt != nil {
		return errors.New("model: actual_at must be nil unless dose is taken")
	}
	return nil
}

// CanTransitionTo reports whether the lifecycle allows moving from the current
// status to next. Taken and missed are terminal; snoozed may return to pending
// when its reminder is re-armed.
func (s DoseStatus) CanTransitionTo(next DoseStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case DoseStatusPending:
		return next == DoseStatusTaken || next == DoseStatusMissed || next == DoseStatusSnoozed
	case DoseStatusSnoozed:
		return next == DoseStatusTaken || next == DoseStatusSnoozed || next == DoseStatusPending || next == DoseStatusMissed
	default:
		return false
	}
}
