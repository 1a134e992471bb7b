package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("storage: not found")

	// ErrDuplicateDose means a dose with the same (schedule_id, scheduled_at)
	// already exists. Re-running generation for an overlapping window hits
	// this; callers treat it as "already there", never as data loss.
	ErrDuplicateDose = errors.New("storage: duplicate dose for schedule and time")
)

type Repository interface {
	CreateMedication(ctx context.Context, in Medication) error
	GetMedication(ctx context.Context, id string) (Medication, error)
	UpdateMedication(ctx context.Context, in Medication) error
	// DeleteMedication cascades to the medication's schedules and doses.
	DeleteMedication(ctx context.Context, id string) error
	ListMedications(ctx context.Context) ([]Medication, error)

	CreateSchedule(ctx context.Context, in Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	UpdateSchedule(ctx context.Context, in Schedule) error
	// DeleteSchedule cascades to the schedule's doses.
	DeleteSchedule(ctx context.Context, id string) error
	ListSchedules(ctx context.Context, filter ScheduleListFilter) ([]Schedule, error)

	CreateDose(ctx context.Context, in Dose) error
	GetDose(ctx context.Context, id string) (Dose, error)
	UpdateDose(ctx context.Context, in Dose) error
	DeleteDose(ctx context.Context, id string) error
	ListDoses(ctx context.Context, filter DoseListFilter) ([]Dose, error)
	// ListActiveDoses returns pending and snoozed doses, ascending by
	// scheduled time. The reminder scheduler re-derives its timer set from
	// this on every start.
	ListActiveDoses(ctx context.Context) ([]Dose, error)
	ListDosesForDay(ctx context.Context, day time.Time) ([]DoseDetail, error)
	GetDoseDetail(ctx context.Context, id string) (DoseDetail, error)
	// ClearDoseHistory removes terminal (taken/missed) doses only.
	ClearDoseHistory(ctx context.Context) error

	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, in Settings) error
}
