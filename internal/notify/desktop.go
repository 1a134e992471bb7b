package notify

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Notifier surfaces a reminder outside the terminal. Tag identifies the dose
// so repeated prompts for it coalesce where the platform supports that.
type Notifier interface {
	Show(title, body, tag string)
}

// NoopNotifier is used when no desktop notification tool is available or the
// user turned notifications off.
type NoopNotifier struct{}

func (NoopNotifier) Show(string, string, string) {}

const showTimeout = 5 * time.Second

// DesktopNotifier shells out to the platform notification tool. Failures are
// logged and swallowed; a reminder must never crash over a missing helper.
type DesktopNotifier struct {
	tool string
	log  *zap.Logger
}

// NewDesktop probes for a usable notification command. Returns a
// NoopNotifier when none exists so callers never branch on availability.
func NewDesktop(log *zap.Logger) Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	for _, tool := range candidateTools() {
		if _, err := exec.LookPath(tool); err == nil {
			return &DesktopNotifier{tool: tool, log: log}
		}
	}
	log.Info("no desktop notification tool found, notifications disabled")
	return NoopNotifier{}
}

func candidateTools() []string {
	if runtime.GOOS == "darwin" {
		return []string{"osascript"}
	}
	return []string{"notify-send"}
}

func (n *DesktopNotifier) Show(title, body, tag string) {
	ctx, cancel := context.WithTimeout(context.Background(), showTimeout)
	defer cancel()

	var cmd *exec.Cmd
	switch n.tool {
	case "osascript":
		script := "display notification " + appleQuote(body) + " with title " + appleQuote(title)
		cmd = exec.CommandContext(ctx, n.tool, "-e", script)
	default:
		args := []string{"--app-name=medminder", "--urgency=critical"}
		if tag != "" {
			args = append(args, "--hint=string:x-canonical-private-synchronous:"+tag)
		}
		args = append(args, title, body)
		cmd = exec.CommandContext(ctx, n.tool, args...)
	}

	if err := cmd.Run(); err != nil {
		n.log.Warn("desktop notification failed", zap.String("tool", n.tool), zap.Error(err))
	}
}

// appleQuote wraps s for AppleScript, escaping embedded double quotes.
func appleQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	out = append(out, '"')
	return string(out)
}
