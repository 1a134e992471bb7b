package storage

import "time"

type Medication struct {
	ID           string
	Name         string
	Dosage       string
	Instructions string
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Schedule struct {
	ID           string
	MedicationID string
	Frequency    string
	Times        []string
	SpecificDays []int
	EveryXDays   int
	StartDate    time.Time
	EndDate      *time.Time
	Active       bool
	CreatedAt    time.Time
}

type Dose struct {
	ID           string
	MedicationID string
	ScheduleID   string
	Status       string
	ScheduledAt  time.Time
	ActualAt     *time.Time
	SnoozeCount  int
	CreatedAt    time.Time
}

// DoseDetail is the read-side enriched view of a dose joined with its
// medication. The core Dose entity stays free of these denormalized fields.
type DoseDetail struct {
	Dose
	MedicationName   string
	MedicationDosage string
	Instructions     string
}

// Settings is the single-row application settings record.
type Settings struct {
	UserName             string
	DesktopNotifications bool
	ReminderSound        string
	CaregiverEnabled     bool
	CaregiverEmail       string
	UpdatedAt            time.Time
}

type ScheduleListFilter struct {
	MedicationID string
	ActiveOnly   bool
	Limit        int
	Offset       int
}

type DoseListFilter struct {
	MedicationID string
	ScheduleID   string
	Statuses     []string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}
