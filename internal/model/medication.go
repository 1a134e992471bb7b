package model

import (
	"errors"
	"strings"
	"time"
)

type Medication struct {
	ID           string
	Name         string
	Dosage       string
	Instructions string
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (m Medication) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("model: medication id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("model: medication name is required")
	}
	if strings.TrimSpace(m.Dosage) == "" {
		return errors.New("model: medication dosage is required")
	}
	if m.CreatedAt.IsZero() {
		return errors.New("model: medication created_at is required")
	}
	return nil
}
