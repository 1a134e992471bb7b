package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleMedsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Meds.CaptureMode {
		return m.handleMedsCaptureKey(msg)
	}

	switch msg.String() {
	case "j", "down":
		if m.Meds.Cursor < len(m.Meds.Items)-1 {
			m.Meds.Cursor++
		}
		return m, nil
	case "k", "up":
		if m.Meds.Cursor > 0 {
			m.Meds.Cursor--
		}
		return m, nil
	case "a":
		m.Meds.CaptureMode = true
		m.Meds.Input = ""
		m.quickAddInput.SetValue("")
		m.quickAddInput.Focus()
		m.Status = StatusBar{Text: "quick add: type medication, enter to save, esc to cancel", IsError: false}
		return m, nil
	case "R":
		med, ok := m.currentMedItem()
		if !ok {
			m.Status = StatusBar{Text: "no medication selected", IsError: true}
			return m, nil
		}
		m.openScheduleEditor(med)
		return m, nil
	case "p":
		med, ok := m.currentMedItem()
		if !ok {
			m.Status = StatusBar{Text: "no medication selected", IsError: true}
			return m, nil
		}
		return m, tea.Batch(m.toggleScheduleActiveCmd(med), m.loadMedsCmd())
	case "x":
		med, ok := m.currentMedItem()
		if !ok {
			m.Status = StatusBar{Text: "no medication selected", IsError: true}
			return m, nil
		}
		return m, tea.Batch(m.deleteMedicationCmd(med), m.loadMedsCmd(), m.loadTodayCmd())
	case "r":
		return m, m.loadMedsCmd()
	}
	return m, nil
}

// handleMedsCaptureKey edits the quick-add buffer. Runes and space append,
// backspace trims, enter submits the free text to the label parser.
func (m Model) handleMedsCaptureKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Meds.CaptureMode = false
		m.Meds.Input = ""
		m.quickAddInput.Blur()
		m.Status = StatusBar{Text: "quick add cancelled", IsError: false}
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.Meds.Input)
		m.Meds.CaptureMode = false
		m.Meds.Input = ""
		m.quickAddInput.Blur()
		if text == "" {
			m.Status = StatusBar{Text: "nothing to add", IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "adding " + text, IsError: false}
		return m, m.addMedicationCmd(text)
	case tea.KeyBackspace:
		if len(m.Meds.Input) > 0 {
			m.Meds.Input = m.Meds.Input[:len(m.Meds.Input)-1]
		}
		return m, nil
	case tea.KeySpace:
		m.Meds.Input += " "
		return m, nil
	case tea.KeyRunes:
		m.Meds.Input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m *Model) currentMedItem() (MedItem, bool) {
	if m.Meds.Cursor < 0 || m.Meds.Cursor >= len(m.Meds.Items) {
		return MedItem{}, false
	}
	return m.Meds.Items[m.Meds.Cursor], true
}
