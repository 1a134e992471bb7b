package storage

import (
	"time"

	"github.com/medminder-app/medminder/internal/model"
)

// Conversions between persistence rows and domain types. The storage structs
// stay DB-shaped; the recurrence evaluator and lifecycle rules only see the
// model package.

func (m Medication) ToModel() model.Medication {
	return model.Medication{
		ID:           m.ID,
		Name:         m.Name,
		Dosage:       m.Dosage,
		Instructions: m.Instructions,
		ImageURL:     m.ImageURL,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func MedicationFromModel(m model.Medication) Medication {
	return Medication{
		ID:           m.ID,
		Name:         m.Name,
		Dosage:       m.Dosage,
		Instructions: m.Instructions,
		ImageURL:     m.ImageURL,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (s Schedule) ToModel() model.Schedule {
	days := make([]time.Weekday, 0, len(s.SpecificDays))
	for _, d := range s.SpecificDays {
		days = append(days, time.Weekday(d))
	}
	return model.Schedule{
		ID:           s.ID,
		MedicationID: s.MedicationID,
		Frequency:    model.Frequency(s.Frequency),
		Times:        s.Times,
		SpecificDays: days,
		EveryXDays:   s.EveryXDays,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		Active:       s.Active,
		CreatedAt:    s.CreatedAt,
	}
}

func ScheduleFromModel(s model.Schedule) Schedule {
	days := make([]int, 0, len(s.SpecificDays))
	for _, d := range s.SpecificDays {
		days = append(days, int(d))
	}
	return Schedule{
		ID:           s.ID,
		MedicationID: s.MedicationID,
		Frequency:    string(s.Frequency),
		Times:        s.Times,
		SpecificDays: days,
		EveryXDays:   s.EveryXDays,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		Active:       s.Active,
		CreatedAt:    s.CreatedAt,
	}
}

func (d Dose) ToModel() model.Dose {
	return model.Dose{
		ID:           d.ID,
		MedicationID: d.MedicationID,
		ScheduleID:   d.ScheduleID,
		Status:       model.DoseStatus(d.Status),
		ScheduledAt:  d.ScheduledAt,
		ActualAt:     d.ActualAt,
		SnoozeCount:  d.SnoozeCount,
		CreatedAt:    d.CreatedAt,
	}
}

func DoseFromModel(d model.Dose) Dose {
	return Dose{
		ID:           d.ID,
		MedicationID: d.MedicationID,
		ScheduleID:   d.ScheduleID,
		Status:       string(d.Status),
		ScheduledAt:  d.ScheduledAt,
		ActualAt:     d.ActualAt,
		SnoozeCount:  d.SnoozeCount,
		CreatedAt:    d.CreatedAt,
	}
}
