package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medminder-app/medminder/internal/scheduler"
)

func promptTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return PromptTickMsg{}
	})
}

// onReminderDue opens the reminder overlay for a fired dose. The countdown
// auto-dismisses; a dismissed dose stays pending so the missed sweep can
// settle it later.
func (m Model) onReminderDue(ev scheduler.ReminderEvent) (tea.Model, tea.Cmd) {
	total := m.cfg.PromptTimeoutSec
	if total <= 0 {
		total = 60
	}
	m.Prompt = PromptState{
		Active:       true,
		DoseID:       ev.DoseID,
		Medication:   ev.MedicationName,
		Dosage:       ev.Dosage,
		Instructions: ev.Instructions,
		TriggerAt:    ev.TriggerAt,
		RemainingSec: total,
		TotalSec:     total,
	}
	m.Status = StatusBar{Text: fmt.Sprintf("time for %s", ev.MedicationName), IsError: false}
	m.notify("Medication Reminder", fmt.Sprintf("%s %s is due", ev.MedicationName, ev.Dosage), "info")

	if m.svc.Sound != nil {
		m.svc.Sound.Play(m.cfg.ReminderSound)
	}

	cmds := []tea.Cmd{promptTickCmd()}
	if m.svc.Engine != nil {
		cmds = append(cmds, waitForReminderCmd(m.svc.Engine.C()))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) onPromptTick() (tea.Model, tea.Cmd) {
	if !m.Prompt.Active {
		return m, nil
	}
	m.Prompt.RemainingSec--
	if m.Prompt.RemainingSec <= 0 {
		med := m.Prompt.Medication
		m.Prompt = PromptState{}
		m.Status = StatusBar{Text: fmt.Sprintf("reminder for %s dismissed, dose still due", med), IsError: false}
		return m, m.loadTodayCmd()
	}
	return m, promptTickCmd()
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "t", "enter":
		return m, m.takeDoseCmd(m.Prompt.DoseID)
	case "s":
		return m, m.snoozeDoseCmd(m.Prompt.DoseID)
	case "esc", "d":
		med := m.Prompt.Medication
		m.Prompt = PromptState{}
		m.Status = StatusBar{Text: fmt.Sprintf("reminder for %s dismissed, dose still due", med), IsError: false}
		return m, m.loadTodayCmd()
	}
	return m, nil
}
