package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medminder-app/medminder/internal/clock"
	"github.com/medminder-app/medminder/internal/model"
	"github.com/medminder-app/medminder/internal/storage"
)

// DefaultHorizonDays is how far ahead doses are materialized.
const DefaultHorizonDays = 30

// DoseCreator is the slice of the repository the generator needs.
type DoseCreator interface {
	CreateDose(ctx context.Context, in storage.Dose) error
}

type Generator struct {
	repo  DoseCreator
	clock clock.Clock
	log   *zap.Logger
}

func New(repo DoseCreator, clk clock.Clock, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{repo: repo, clock: clk, log: log}
}

// Generate materializes pending doses for the schedule from now through the
// horizon. See GenerateAsOf for the window rules.
func (g *Generator) Generate(ctx context.Context, sch storage.Schedule, horizonDays int) ([]storage.Dose, error) {
	return g.GenerateAsOf(ctx, sch, g.clock.Now(), horizonDays)
}

// GenerateAsOf walks the window [max(startDate, asOf), min(endDate,
// asOf+horizon)] one calendar day at a time, creating a pending dose for every
// occurrence instant strictly after asOf. Doses already in the past are never
// created. Each dose is persisted individually: one failed insert is logged
// and skipped, the rest of the window still generates, and a retry of the same
// window is safe because the store suppresses (schedule, time) duplicates.
func (g *Generator) GenerateAsOf(ctx context.Context, sch storage.Schedule, asOf time.Time, horizonDays int) ([]storage.Dose, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if !sch.Active {
		return nil, nil
	}

	rule := sch.ToModel()
	if rule.Frequency == model.FrequencyAsNeeded {
		return nil, nil
	}

	windowStart := model.DateOnly(asOf)
	if start := model.DateOnly(sch.StartDate.In(asOf.Location())); start.After(windowStart) {
		windowStart = start
	}
	// horizonDays calendar days counting today; endDate stays inclusive.
	windowEnd := model.DateOnly(asOf).AddDate(0, 0, horizonDays)
	if sch.EndDate != nil {
		end := model.DateOnly(sch.EndDate.In(asOf.Location()))
		if end.Before(model.DateOnly(asOf)) {
			return nil, nil
		}
		if afterEnd := end.AddDate(0, 0, 1); afterEnd.Before(windowEnd) {
			windowEnd = afterEnd
		}
	}
	if !windowStart.Before(windowEnd) {
		return nil, nil
	}

	created := make([]storage.Dose, 0)
	var failed int
	var lastErr error
	for day := windowStart; day.Before(windowEnd); day = day.AddDate(0, 0, 1) {
		for _, at := range rule.TimesOn(day) {
			if !at.After(asOf) {
				continue
			}
			dose := storage.Dose{
				ID:           uuid.NewString(),
				MedicationID: sch.MedicationID,
				ScheduleID:   sch.ID,
				Status:       string(model.DoseStatusPending),
				ScheduledAt:  at,
				SnoozeCount:  0,
				CreatedAt:    g.clock.Now(),
			}
			err := g.repo.CreateDose(ctx, dose)
			if errors.Is(err, storage.ErrDuplicateDose) {
				continue
			}
			if err != nil {
				failed++
				lastErr = err
				g.log.Warn("dose create failed",
					zap.String("schedule_id", sch.ID),
					zap.Time("scheduled_at", at),
					zap.Error(err))
				continue
			}
			created = append(created, dose)
		}
	}

	if failed > 0 {
		return created, fmt.Errorf("generator: %d dose(s) failed to persist: %w", failed, lastErr)
	}
	return created, nil
}
