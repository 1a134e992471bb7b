package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/medminder-app/medminder/internal/clock"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(clock.SystemClock{}, 8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(ReminderEvent{DoseID: "later", TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(ReminderEvent{DoseID: "sooner", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.DoseID != "sooner" || second.DoseID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.DoseID, second.DoseID)
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(clock.SystemClock{}, 1)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(ReminderEvent{
			DoseID:    fmt.Sprintf("dose-%d", i),
			TriggerAt: now,
		}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", engine.Dropped())
	}
}

func TestCancelDisarmsDose(t *testing.T) {
	engine := NewEngine(clock.SystemClock{}, 8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(ReminderEvent{DoseID: "cancelled", TriggerAt: now.Add(30 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := engine.Schedule(ReminderEvent{DoseID: "kept", TriggerAt: now.Add(60 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	engine.Cancel("cancelled")
	engine.Cancel("never-armed")

	ev := waitEvent(t, engine.C(), time.Second)
	if ev.DoseID != "kept" {
		t.Fatalf("cancelled dose fired: %s", ev.DoseID)
	}
	select {
	case extra := <-engine.C():
		t.Fatalf("unexpected extra event: %s", extra.DoseID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRearmReplacesTrigger(t *testing.T) {
	engine := NewEngine(clock.SystemClock{}, 8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(ReminderEvent{DoseID: "dose-1", TriggerAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := engine.Rearm(ReminderEvent{DoseID: "dose-1", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("rearm: %v", err)
	}

	ev := waitEvent(t, engine.C(), time.Second)
	if ev.DoseID != "dose-1" {
		t.Fatalf("unexpected event: %s", ev.DoseID)
	}
	select {
	case extra := <-engine.C():
		t.Fatalf("stale trigger fired: %s at %s", extra.DoseID, extra.TriggerAt)
	case <-time.After(100 * time.Millisecond):
	}
	if got := engine.Armed(); got != 0 {
		t.Fatalf("expected no armed doses after fire, got %d", got)
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	engine := NewEngine(clock.SystemClock{}, 1)
	if err := engine.Schedule(ReminderEvent{DoseID: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func waitEvent(t *testing.T, ch <-chan ReminderEvent, timeout time.Duration) ReminderEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return ReminderEvent{}
	}
}
