package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/medminder-app/medminder/internal/clock"
	"github.com/medminder-app/medminder/internal/model"
	"github.com/medminder-app/medminder/internal/storage"
)

const (
	// SnoozeDelay is the fixed deferral applied by a snooze action.
	SnoozeDelay = 10 * time.Minute

	// DefaultSnoozeLimit caps how often a single dose may be snoozed.
	DefaultSnoozeLimit = 3
)

var ErrSnoozeLimitExceeded = errors.New("lifecycle: snooze limit exceeded")

// Outcome reports what a lifecycle operation did. Operating on an unknown
// dose id is a NotFound outcome, not an error; repeating a transition that
// already happened is a Noop.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNoop     Outcome = "noop"
	OutcomeNotFound Outcome = "not_found"
)

type Result struct {
	Outcome Outcome
	Dose    storage.Dose
}

// DoseStore is the slice of the repository the manager needs.
type DoseStore interface {
	GetDose(ctx context.Context, id string) (storage.Dose, error)
	UpdateDose(ctx context.Context, in storage.Dose) error
	GetDoseDetail(ctx context.Context, id string) (storage.DoseDetail, error)
	ListDoses(ctx context.Context, filter storage.DoseListFilter) ([]storage.Dose, error)
}

// CaregiverNotifier receives best-effort dose events. Implementations must
// never surface failures to the user; log and move on.
type CaregiverNotifier interface {
	DoseEvent(ctx context.Context, action string, detail storage.DoseDetail)
}

// Rearmer is how the manager asks the reminder scheduler to follow a snoozed
// dose to its new trigger time.
type Rearmer interface {
	RearmDose(dose storage.Dose)
	CancelDose(doseID string)
}

// Manager owns dose state transitions. Operations on the same dose id are
// serialized through an in-memory keyed lock so a confirm and a concurrent
// snooze cannot interleave their read-modify-write cycles.
type Manager struct {
	repo        DoseStore
	clock       clock.Clock
	log         *zap.Logger
	caregiver   CaregiverNotifier
	rearmer     Rearmer
	snoozeLimit int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*Manager)

func WithCaregiver(n CaregiverNotifier) Option {
	return func(m *Manager) { m.caregiver = n }
}

func WithRearmer(r Rearmer) Option {
	return func(m *Manager) { m.rearmer = r }
}

func WithSnoozeLimit(limit int) Option {
	return func(m *Manager) {
		if limit > 0 {
			m.snoozeLimit = limit
		}
	}
}

func NewManager(repo DoseStore, clk clock.Clock, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		repo:        repo,
		clock:       clk,
		log:         log,
		snoozeLimit: DefaultSnoozeLimit,
		locks:       make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ConfirmTaken moves a pending or snoozed dose to taken and records the
// actual time. Confirming an already-taken dose is an idempotent no-op;
// an unknown id is a NotFound result, not an error.
func (m *Manager) ConfirmTaken(ctx context.Context, doseID string) (Result, error) {
	unlock := m.lockDose(doseID)
	defer unlock()

	dose, err := m.repo.GetDose(ctx, doseID)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("load dose: %w", err)
	}

	status := model.DoseStatus(dose.Status)
	if status == model.DoseStatusTaken {
		return Result{Outcome: OutcomeNoop, Dose: dose}, nil
	}
	if !status.CanTransitionTo(model.DoseStatusTaken) {
		return Result{Outcome: OutcomeNoop, Dose: dose}, nil
	}

	now := m.clock.Now()
	dose.Status = string(model.DoseStatusTaken)
	dose.ActualAt = &now
	if err := m.repo.UpdateDose(ctx, dose); err != nil {
		return Result{}, fmt.Errorf("persist taken dose: %w", err)
	}

	if m.rearmer != nil {
		m.rearmer.CancelDose(dose.ID)
	}
	m.emitCaregiverEvent(ctx, "taken", dose.ID)
	m.log.Info("dose taken", zap.String("dose_id", dose.ID), zap.Time("actual_at", now))
	return Result{Outcome: OutcomeApplied, Dose: dose}, nil
}

// Snooze defers a pending or snoozed dose by ten minutes from now and re-arms
// its reminder. Once the snooze limit is reached the dose is left untouched
// and ErrSnoozeLimitExceeded is returned.
func (m *Manager) Snooze(ctx context.Context, doseID string) (Result, error) {
	unlock := m.lockDose(doseID)
	defer unlock()

	dose, err := m.repo.GetDose(ctx, doseID)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("load dose: %w", err)
	}

	status := model.DoseStatus(dose.Status)
	if !status.CanTransitionTo(model.DoseStatusSnoozed) {
		return Result{Outcome: OutcomeNoop, Dose: dose}, nil
	}
	if dose.SnoozeCount >= m.snoozeLimit {
		return Result{Outcome: OutcomeNoop, Dose: dose}, ErrSnoozeLimitExceeded
	}

	dose.Status = string(model.DoseStatusSnoozed)
	dose.ScheduledAt = m.clock.Now().Add(SnoozeDelay)
	dose.SnoozeCount++
	if err := m.repo.UpdateDose(ctx, dose); err != nil {
		return Result{}, fmt.Errorf("persist snoozed dose: %w", err)
	}

	if m.rearmer != nil {
		m.rearmer.RearmDose(dose)
	}
	m.emitCaregiverEvent(ctx, "snoozed", dose.ID)
	m.log.Info("dose snoozed",
		zap.String("dose_id", dose.ID),
		zap.Int("snooze_count", dose.SnoozeCount),
		zap.Time("next_at", dose.ScheduledAt))
	return Result{Outcome: OutcomeApplied, Dose: dose}, nil
}

// MarkOverdueMissed is the periodic sweep: pending doses whose scheduled time
// is more than grace past are closed out as missed. A failure on one dose is
// logged and does not stop the sweep. Returns how many doses were marked.
func (m *Manager) MarkOverdueMissed(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := m.clock.Now().Add(-grace)
	overdue, err := m.repo.ListDoses(ctx, storage.DoseListFilter{
		Statuses: []string{string(model.DoseStatusPending)},
		To:       &cutoff,
	})
	if err != nil {
		return 0, fmt.Errorf("list overdue doses: %w", err)
	}

	marked := 0
	for _, dose := range overdue {
		if err := m.markMissed(ctx, dose.ID); err != nil {
			m.log.Warn("missed sweep failed for dose", zap.String("dose_id", dose.ID), zap.Error(err))
			continue
		}
		marked++
	}
	return marked, nil
}

func (m *Manager) markMissed(ctx context.Context, doseID string) error {
	unlock := m.lockDose(doseID)
	defer unlock()

	dose, err := m.repo.GetDose(ctx, doseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	status := model.DoseStatus(dose.Status)
	if !status.CanTransitionTo(model.DoseStatusMissed) || status == model.DoseStatusSnoozed {
		return nil
	}
	dose.Status = string(model.DoseStatusMissed)
	if err := m.repo.UpdateDose(ctx, dose); err != nil {
		return err
	}
	if m.rearmer != nil {
		m.rearmer.CancelDose(dose.ID)
	}
	m.emitCaregiverEvent(ctx, "missed", dose.ID)
	m.log.Info("dose marked missed", zap.String("dose_id", dose.ID), zap.Time("scheduled_at", dose.ScheduledAt))
	return nil
}

// emitCaregiverEvent runs the caregiver notification off the hot path. The
// enriched lookup and the send are both best-effort.
func (m *Manager) emitCaregiverEvent(ctx context.Context, action, doseID string) {
	if m.caregiver == nil {
		return
	}
	detail, err := m.repo.GetDoseDetail(ctx, doseID)
	if err != nil {
		m.log.Warn("caregiver event lookup failed", zap.String("dose_id", doseID), zap.Error(err))
		return
	}
	go m.caregiver.DoseEvent(context.WithoutCancel(ctx), action, detail)
}

func (m *Manager) lockDose(doseID string) func() {
	m.mu.Lock()
	lock, ok := m.locks[doseID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[doseID] = lock
	}
	m.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}
