package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medminder-app/medminder/internal/storage"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type doseKey struct {
	scheduleID string
	at         time.Time
}

type memCreator struct {
	doses    []storage.Dose
	seen     map[doseKey]bool
	failNext int
}

func newMemCreator() *memCreator {
	return &memCreator{seen: make(map[doseKey]bool)}
}

func (m *memCreator) CreateDose(_ context.Context, in storage.Dose) error {
	if m.failNext > 0 {
		m.failNext--
		return errors.New("disk full")
	}
	key := doseKey{scheduleID: in.ScheduleID, at: in.ScheduledAt.UTC()}
	if m.seen[key] {
		return storage.ErrDuplicateDose
	}
	m.seen[key] = true
	m.doses = append(m.doses, in)
	return nil
}

func dailySchedule(times ...string) storage.Schedule {
	return storage.Schedule{
		ID:           "sch-1",
		MedicationID: "med-1",
		Frequency:    "daily",
		Times:        times,
		StartDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Active:       true,
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestGenerateDailyBeforeFirstTime(t *testing.T) {
	repo := newMemCreator()
	asOf := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), dailySchedule("08:00", "20:00"), asOf, 30)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 60 {
		t.Fatalf("expected 60 doses (2/day over 30 days), got %d", len(created))
	}
	for _, d := range created {
		if d.Status != "pending" {
			t.Fatalf("expected pending dose, got %q", d.Status)
		}
		if d.SnoozeCount != 0 {
			t.Fatalf("expected snooze_count 0, got %d", d.SnoozeCount)
		}
		if !d.ScheduledAt.After(asOf) {
			t.Fatalf("generated dose in the past: %s", d.ScheduledAt)
		}
	}
	first := created[0]
	if first.ScheduledAt.Format("2006-01-02 15:04") != "2026-03-02 08:00" {
		t.Fatalf("unexpected first dose: %s", first.ScheduledAt)
	}
}

func TestGenerateSkipsPastTimesToday(t *testing.T) {
	repo := newMemCreator()
	asOf := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), dailySchedule("08:00", "20:00"), asOf, 30)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 59 {
		t.Fatalf("expected 59 doses (today's 08:00 already past), got %d", len(created))
	}
	if created[0].ScheduledAt.Format("2006-01-02 15:04") != "2026-03-02 20:00" {
		t.Fatalf("unexpected first dose: %s", created[0].ScheduledAt)
	}
}

func TestGenerateWeekWindowCount(t *testing.T) {
	repo := newMemCreator()
	sch := dailySchedule("08:00")
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC) // start + 6, inclusive
	sch.EndDate = &end
	asOf := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), sch, asOf, 30)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 7 {
		t.Fatalf("expected 7 doses across [start, start+6], got %d", len(created))
	}
}

func TestGenerateEveryThreeDays(t *testing.T) {
	repo := newMemCreator()
	sch := dailySchedule("08:00")
	sch.Frequency = "every_x_days"
	sch.EveryXDays = 3
	asOf := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), sch, asOf, 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := []string{"2026-03-02", "2026-03-05", "2026-03-08", "2026-03-11"}
	if len(created) != len(want) {
		t.Fatalf("expected %d doses, got %d", len(want), len(created))
	}
	for i, d := range created {
		if got := d.ScheduledAt.Format("2006-01-02"); got != want[i] {
			t.Fatalf("dose[%d] on %s, want %s", i, got, want[i])
		}
	}
}

func TestGenerateInactiveScheduleProducesNothing(t *testing.T) {
	repo := newMemCreator()
	sch := dailySchedule("08:00")
	sch.Active = false
	asOf := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), sch, asOf, 30)
	if err != nil || len(created) != 0 {
		t.Fatalf("inactive schedule generated: %d doses, err=%v", len(created), err)
	}
}

func TestGenerateAsNeededProducesNothing(t *testing.T) {
	repo := newMemCreator()
	sch := dailySchedule("08:00")
	sch.Frequency = "as_needed"
	asOf := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), sch, asOf, 30)
	if err != nil || len(created) != 0 {
		t.Fatalf("as_needed schedule generated: %d doses, err=%v", len(created), err)
	}
}

func TestGenerateExpiredScheduleProducesNothing(t *testing.T) {
	repo := newMemCreator()
	sch := dailySchedule("08:00")
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sch.EndDate = &end
	asOf := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), sch, asOf, 30)
	if err != nil || len(created) != 0 {
		t.Fatalf("expired schedule generated: %d doses, err=%v", len(created), err)
	}
}

func TestGenerateEndBeforeStartProducesNothing(t *testing.T) {
	repo := newMemCreator()
	sch := dailySchedule("08:00")
	sch.StartDate = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sch.EndDate = &end
	asOf := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), sch, asOf, 60)
	if err != nil || len(created) != 0 {
		t.Fatalf("inverted window generated: %d doses, err=%v", len(created), err)
	}
}

func TestGenerateRerunIsIdempotent(t *testing.T) {
	repo := newMemCreator()
	asOf := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)
	sch := dailySchedule("08:00")

	first, err := gen.GenerateAsOf(context.Background(), sch, asOf, 7)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := gen.GenerateAsOf(context.Background(), sch, asOf, 7)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("rerun created %d new doses, want 0", len(second))
	}
	if len(repo.doses) != len(first) {
		t.Fatalf("store grew on rerun: %d vs %d", len(repo.doses), len(first))
	}
}

func TestGenerateIsolatesPerDoseFailures(t *testing.T) {
	repo := newMemCreator()
	repo.failNext = 2
	asOf := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	gen := New(repo, fixedClock{at: asOf}, nil)

	created, err := gen.GenerateAsOf(context.Background(), dailySchedule("08:00"), asOf, 7)
	if err == nil {
		t.Fatal("expected aggregate error for failed inserts")
	}
	if len(created) != 5 {
		t.Fatalf("expected 5 surviving doses after 2 failures, got %d", len(created))
	}
}
