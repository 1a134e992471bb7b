package update

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.History.Cursor < len(m.History.Rows)-1 {
			m.History.Cursor++
		}
		return m, nil
	case "k", "up":
		if m.History.Cursor > 0 {
			m.History.Cursor--
		}
		return m, nil
	case "g":
		m.History.Cursor = 0
		return m, nil
	case "G":
		if n := len(m.History.Rows); n > 0 {
			m.History.Cursor = n - 1
		}
		return m, nil
	case "C":
		return m, m.clearHistoryCmd()
	case "r":
		return m, m.loadHistoryCmd()
	}
	return m, nil
}
