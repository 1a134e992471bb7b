package update

import (
	"fmt"
	"time"
)

func levelFromError(isError bool) string {
	if isError {
		return "error"
	}
	return "info"
}

// formatDuration renders a coarse human duration for overlay countdowns and
// "due in" labels.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
}
