package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/medminder-app/medminder/internal/storage"
)

// DoseSource is the slice of the repository resync needs.
type DoseSource interface {
	ListActiveDoses(ctx context.Context) ([]storage.Dose, error)
	GetDoseDetail(ctx context.Context, id string) (storage.DoseDetail, error)
}

// Resync re-derives the engine's timer set from persisted pending and snoozed
// doses. Runs on startup and after a clock jump. Doses already due are armed
// at their original time so the loop fires them immediately; nothing is
// silently dropped.
func Resync(ctx context.Context, e *Engine, src DoseSource, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	doses, err := src.ListActiveDoses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active doses: %w", err)
	}

	armed := 0
	for _, dose := range doses {
		ev := eventFor(ctx, src, dose)
		if err := e.Schedule(ev); err != nil {
			log.Warn("resync skipped dose", zap.String("dose_id", dose.ID), zap.Error(err))
			continue
		}
		armed++
	}
	log.Info("reminder timers resynced", zap.Int("armed", armed))
	return armed, nil
}

// eventFor enriches a dose into a renderable event. A failed detail lookup
// still produces a firable event with just the id and time.
func eventFor(ctx context.Context, src DoseSource, dose storage.Dose) ReminderEvent {
	ev := ReminderEvent{DoseID: dose.ID, TriggerAt: dose.ScheduledAt}
	detail, err := src.GetDoseDetail(ctx, dose.ID)
	if err != nil {
		return ev
	}
	ev.MedicationName = detail.MedicationName
	ev.Dosage = detail.MedicationDosage
	ev.Instructions = detail.Instructions
	return ev
}

// EngineRearmer adapts the engine to the dose lifecycle's rearm hook: a
// snoozed dose follows its new trigger time, a closed dose is disarmed.
type EngineRearmer struct {
	Engine *Engine
	Source DoseSource
	Log    *zap.Logger
}

func (r *EngineRearmer) RearmDose(dose storage.Dose) {
	ev := eventFor(context.Background(), r.Source, dose)
	if err := r.Engine.Rearm(ev); err != nil && r.Log != nil {
		r.Log.Warn("rearm failed", zap.String("dose_id", dose.ID), zap.Error(err))
	}
}

func (r *EngineRearmer) CancelDose(doseID string) {
	r.Engine.Cancel(doseID)
}
