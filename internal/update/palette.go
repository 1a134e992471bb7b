package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medminder-app/medminder/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Palette = CommandPaletteState{}
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case tea.KeyEnter:
		input := m.Palette.Input
		m.Palette = CommandPaletteState{}
		m.commandInput.Blur()
		return m.executePaletteCommand(input)
	case tea.KeyBackspace:
		if len(m.Palette.Input) > 0 {
			m.Palette.Input = m.Palette.Input[:len(m.Palette.Input)-1]
		}
		return m, nil
	case tea.KeySpace:
		m.Palette.Input += " "
		return m, nil
	case tea.KeyRunes:
		m.Palette.Input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// executePaletteCommand parses and dispatches a palette command. Handlers
// that need I/O stash a tea.Cmd and return immediately; the status line
// reports parse and argument errors inline.
func (m Model) executePaletteCommand(input string) (tea.Model, tea.Cmd) {
	cmd, err := commands.Parse(input)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var pending tea.Cmd
	handlers := commands.Handlers{
		Add: func(args commands.AddArgs) (commands.Result, error) {
			pending = m.addMedicationCmd(args.Text)
			return commands.Result{Message: "adding " + args.Text}, nil
		},
		Take: func(args commands.TakeArgs) (commands.Result, error) {
			doseID, name, rerr := m.resolveDoseTarget(args.Target)
			if rerr != nil {
				return commands.Result{}, rerr
			}
			pending = m.takeDoseCmd(doseID)
			return commands.Result{Message: "taking " + name}, nil
		},
		Snooze: func(args commands.SnoozeArgs) (commands.Result, error) {
			doseID, name, rerr := m.resolveDoseTarget(args.Target)
			if rerr != nil {
				return commands.Result{}, rerr
			}
			pending = m.snoozeDoseCmd(doseID)
			return commands.Result{Message: "snoozing " + name}, nil
		},
		Show: func(args commands.ShowArgs) (commands.Result, error) {
			view := ViewToday
			switch args.Subject {
			case "meds":
				view = ViewMeds
			case "history":
				view = ViewHistory
			}
			pending = func() tea.Msg { return SwitchViewMsg{View: view} }
			return commands.Result{Message: "showing " + args.Subject}, nil
		},
		Clear: func(commands.ClearArgs) (commands.Result, error) {
			pending = m.clearHistoryCmd()
			return commands.Result{Message: "clearing history"}, nil
		},
	}

	res, err := commands.Execute(cmd, handlers)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message, IsError: false}
	return m, pending
}

// resolveDoseTarget maps a palette target to a dose id. Empty targets mean
// the reminder prompt's dose, falling back to the dose under the Today
// cursor. Named targets match actionable doses by medication name.
func (m Model) resolveDoseTarget(target string) (doseID, name string, err error) {
	target = strings.TrimSpace(strings.ToLower(target))
	if target == "" {
		if m.Prompt.Active {
			return m.Prompt.DoseID, m.Prompt.Medication, nil
		}
		if item, ok := m.currentTodayItem(); ok {
			return item.DoseID, item.Medication, nil
		}
		return "", "", &commands.CommandError{
			Code:    commands.ErrCodeInvalidArgument,
			Message: "no dose selected and no reminder active",
		}
	}
	for _, item := range m.Today.Items {
		if item.Bucket == TodayBucketDone {
			continue
		}
		if strings.Contains(strings.ToLower(item.Medication), target) {
			return item.DoseID, item.Medication, nil
		}
	}
	return "", "", &commands.CommandError{
		Code:    commands.ErrCodeInvalidArgument,
		Message: fmt.Sprintf("no due dose matches %q", target),
	}
}
