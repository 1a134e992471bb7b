package clock

import (
	"os"
	"strings"
	"time"
)

// Clock supplies the current time. Every component that needs "now" takes one
// of these instead of calling time.Now directly, so tests and dev runs can
// shift time without touching the system clock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// PinnedClock pins a reference point: Now returns the override plus however
// much real time has elapsed since the pin was set. Time keeps advancing at
// real speed, it is not frozen.
type PinnedClock struct {
	override time.Time
	pinnedAt time.Time
}

func NewPinned(override time.Time) *PinnedClock {
	return &PinnedClock{override: override, pinnedAt: time.Now()}
}

func (c *PinnedClock) Now() time.Time {
	return c.override.Add(time.Since(c.pinnedAt))
}

// FromEnv returns a PinnedClock when MEDMINDER_CLOCK_OVERRIDE holds an RFC3339
// timestamp, otherwise the system clock. An unparsable value is ignored.
func FromEnv() Clock {
	raw := strings.TrimSpace(os.Getenv("MEDMINDER_CLOCK_OVERRIDE"))
	if raw == "" {
		return SystemClock{}
	}
	override, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return SystemClock{}
	}
	return NewPinned(override)
}
