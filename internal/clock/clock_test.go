package clock

import (
	"testing"
	"time"
)

func TestSystemClockTracksRealTime(t *testing.T) {
	before := time.Now()
	got := SystemClock{}.Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Fatalf("system clock out of range: %s", got.Format(time.RFC3339Nano))
	}
}

func TestPinnedClockAdvancesFromOverride(t *testing.T) {
	override := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewPinned(override)

	first := c.Now()
	if first.Before(override) {
		t.Fatalf("pinned clock went backwards: %s", first.Format(time.RFC3339Nano))
	}
	if first.Sub(override) > time.Second {
		t.Fatalf("pinned clock drifted too far immediately: %s", first.Sub(override))
	}

	time.Sleep(20 * time.Millisecond)
	second := c.Now()
	if !second.After(first) {
		t.Fatalf("pinned clock did not advance: first=%s second=%s", first, second)
	}
}

func TestFromEnvDefaultsToSystem(t *testing.T) {
	t.Setenv("MEDMINDER_CLOCK_OVERRIDE", "")
	if _, ok := FromEnv().(SystemClock); !ok {
		t.Fatal("expected system clock without override")
	}
}

func TestFromEnvParsesOverride(t *testing.T) {
	t.Setenv("MEDMINDER_CLOCK_OVERRIDE", "2026-03-01T08:00:00Z")
	c, ok := FromEnv().(*PinnedClock)
	if !ok {
		t.Fatal("expected pinned clock with override set")
	}
	now := c.Now()
	want := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if now.Sub(want) > time.Second || now.Before(want) {
		t.Fatalf("unexpected pinned now: %s", now.Format(time.RFC3339Nano))
	}
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("MEDMINDER_CLOCK_OVERRIDE", "yesterday-ish")
	if _, ok := FromEnv().(SystemClock); !ok {
		t.Fatal("expected system clock for unparsable override")
	}
}
