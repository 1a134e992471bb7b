package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/medminder-app/medminder/internal/storage"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type memStore struct {
	mu    sync.Mutex
	doses map[string]storage.Dose
}

func newMemStore(doses ...storage.Dose) *memStore {
	s := &memStore{doses: make(map[string]storage.Dose)}
	for _, d := range doses {
		s.doses[d.ID] = d
	}
	return s
}

func (s *memStore) GetDose(_ context.Context, id string) (storage.Dose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doses[id]
	if !ok {
		return storage.Dose{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *memStore) UpdateDose(_ context.Context, in storage.Dose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doses[in.ID]; !ok {
		return storage.ErrNotFound
	}
	s.doses[in.ID] = in
	return nil
}

func (s *memStore) GetDoseDetail(ctx context.Context, id string) (storage.DoseDetail, error) {
	d, err := s.GetDose(ctx, id)
	if err != nil {
		return storage.DoseDetail{}, err
	}
	return storage.DoseDetail{Dose: d, MedicationName: "Metformin", MedicationDosage: "500mg"}, nil
}

func (s *memStore) ListDoses(_ context.Context, filter storage.DoseListFilter) ([]storage.Dose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Dose, 0)
	for _, d := range s.doses {
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if d.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.To != nil && !d.ScheduledAt.Before(*filter.To) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

type recordingRearmer struct {
	mu        sync.Mutex
	rearmed   []storage.Dose
	cancelled []string
}

func (r *recordingRearmer) RearmDose(dose storage.Dose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rearmed = append(r.rearmed, dose)
}

func (r *recordingRearmer) CancelDose(doseID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, doseID)
}

func pendingDose(id string, at time.Time) storage.Dose {
	return storage.Dose{
		ID:           id,
		MedicationID: "med-1",
		ScheduleID:   "sch-1",
		Status:       "pending",
		ScheduledAt:  at,
		CreatedAt:    at.Add(-time.Hour),
	}
}

func TestConfirmTakenFromPending(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	store := newMemStore(pendingDose("dose-1", now.Add(-time.Minute)))
	mgr := NewManager(store, fixedClock{at: now}, nil)

	res, err := mgr.ConfirmTaken(context.Background(), "dose-1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %q", res.Outcome)
	}
	if res.Dose.Status != "taken" {
		t.Fatalf("expected taken, got %q", res.Dose.Status)
	}
	if res.Dose.ActualAt == nil || !res.Dose.ActualAt.Equal(now) {
		t.Fatalf("actual_at not set to now: %v", res.Dose.ActualAt)
	}
}

func TestConfirmTakenIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	store := newMemStore(pendingDose("dose-1", now))
	mgr := NewManager(store, fixedClock{at: now}, nil)

	first, err := mgr.ConfirmTaken(context.Background(), "dose-1")
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := mgr.ConfirmTaken(context.Background(), "dose-1")
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if second.Outcome != OutcomeNoop {
		t.Fatalf("expected noop on repeat confirm, got %q", second.Outcome)
	}
	if !second.Dose.ActualAt.Equal(*first.Dose.ActualAt) {
		t.Fatal("repeat confirm changed actual_at")
	}
}

func TestConfirmTakenNotFoundIsNonError(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	mgr := NewManager(newMemStore(), fixedClock{at: now}, nil)

	res, err := mgr.ConfirmTaken(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("not-found must not error: %v", err)
	}
	if res.Outcome != OutcomeNotFound {
		t.Fatalf("expected not_found, got %q", res.Outcome)
	}
}

func TestSnoozeReschedulesAndCounts(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	store := newMemStore(pendingDose("dose-1", now.Add(-time.Minute)))
	rearmer := &recordingRearmer{}
	mgr := NewManager(store, fixedClock{at: now}, nil, WithRearmer(rearmer))

	res, err := mgr.Snooze(context.Background(), "dose-1")
	if err != nil {
		t.Fatalf("snooze: %v", err)
	}
	if res.Dose.Status != "snoozed" {
		t.Fatalf("expected snoozed, got %q", res.Dose.Status)
	}
	if res.Dose.SnoozeCount != 1 {
		t.Fatalf("expected snooze_count 1, got %d", res.Dose.SnoozeCount)
	}
	want := now.Add(SnoozeDelay)
	if diff := res.Dose.ScheduledAt.Sub(want); diff > time.Second || diff < -time.Second {
		t.Fatalf("scheduled_at not now+10m: %s", res.Dose.ScheduledAt)
	}
	if len(rearmer.rearmed) != 1 || rearmer.rearmed[0].ID != "dose-1" {
		t.Fatalf("scheduler not re-armed: %#v", rearmer.rearmed)
	}
}

func TestSnoozeLimitEnforced(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	store := newMemStore(pendingDose("dose-1", now))
	mgr := NewManager(store, fixedClock{at: now}, nil)

	for i := 1; i <= 3; i++ {
		res, err := mgr.Snooze(context.Background(), "dose-1")
		if err != nil {
			t.Fatalf("snooze %d: %v", i, err)
		}
		if res.Dose.SnoozeCount != i {
			t.Fatalf("snooze %d: count=%d", i, res.Dose.SnoozeCount)
		}
	}

	res, err := mgr.Snooze(context.Background(), "dose-1")
	if !errors.Is(err, ErrSnoozeLimitExceeded) {
		t.Fatalf("expected ErrSnoozeLimitExceeded, got: %v", err)
	}
	if res.Dose.SnoozeCount != 3 {
		t.Fatalf("limit-hit snooze mutated count: %d", res.Dose.SnoozeCount)
	}
	stored, _ := store.GetDose(context.Background(), "dose-1")
	if stored.SnoozeCount != 3 {
		t.Fatalf("store mutated past the cap: %d", stored.SnoozeCount)
	}
}

func TestSnoozeThenConfirm(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	store := newMemStore(pendingDose("dose-1", now))
	mgr := NewManager(store, fixedClock{at: now}, nil)

	if _, err := mgr.Snooze(context.Background(), "dose-1"); err != nil {
		t.Fatalf("snooze: %v", err)
	}
	res, err := mgr.ConfirmTaken(context.Background(), "dose-1")
	if err != nil {
		t.Fatalf("confirm after snooze: %v", err)
	}
	if res.Outcome != OutcomeApplied || res.Dose.Status != "taken" {
		t.Fatalf("snoozed dose must be confirmable: %#v", res)
	}
}

func TestSnoozeOnTerminalDoseIsNoop(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	taken := now.Add(-time.Minute)
	d := pendingDose("dose-1", now)
	d.Status = "taken"
	d.ActualAt = &taken
	mgr := NewManager(newMemStore(d), fixedClock{at: now}, nil)

	res, err := mgr.Snooze(context.Background(), "dose-1")
	if err != nil {
		t.Fatalf("snooze on taken: %v", err)
	}
	if res.Outcome != OutcomeNoop || res.Dose.Status != "taken" {
		t.Fatalf("terminal dose mutated: %#v", res)
	}
}

func TestMarkOverdueMissedSweep(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newMemStore(
		pendingDose("d-old", now.Add(-2*time.Hour)),
		pendingDose("d-recent", now.Add(-10*time.Minute)),
		pendingDose("d-future", now.Add(time.Hour)),
	)
	mgr := NewManager(store, fixedClock{at: now}, nil)

	marked, err := mgr.MarkOverdueMissed(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected 1 dose marked missed, got %d", marked)
	}

	old, _ := store.GetDose(context.Background(), "d-old")
	if old.Status != "missed" {
		t.Fatalf("overdue dose not missed: %q", old.Status)
	}
	recent, _ := store.GetDose(context.Background(), "d-recent")
	if recent.Status != "pending" {
		t.Fatalf("dose inside grace window mutated: %q", recent.Status)
	}
	future, _ := store.GetDose(context.Background(), "d-future")
	if future.Status != "pending" {
		t.Fatalf("future dose mutated: %q", future.Status)
	}
}

func TestConcurrentConfirmAndSnoozeSerialize(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC)
	store := newMemStore(pendingDose("dose-1", now))
	mgr := NewManager(store, fixedClock{at: now}, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = mgr.ConfirmTaken(context.Background(), "dose-1")
	}()
	go func() {
		defer wg.Done()
		_, _ = mgr.Snooze(context.Background(), "dose-1")
	}()
	wg.Wait()

	final, _ := store.GetDose(context.Background(), "dose-1")
	switch final.Status {
	case "taken":
		if final.ActualAt == nil {
			t.Fatal("taken without actual_at")
		}
	case "snoozed":
		if final.SnoozeCount != 1 {
			t.Fatalf("snoozed with count %d", final.SnoozeCount)
		}
	default:
		t.Fatalf("unexpected final status %q", final.Status)
	}
}
