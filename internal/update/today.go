package update

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleTodayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.Today.Cursor < len(m.Today.Items)-1 {
			m.Today.Cursor++
		}
		m.syncSelectedDoseToTodayCursor()
		return m, nil
	case "k", "up":
		if m.Today.Cursor > 0 {
			m.Today.Cursor--
		}
		m.syncSelectedDoseToTodayCursor()
		return m, nil
	case "g":
		m.Today.Cursor = 0
		m.syncSelectedDoseToTodayCursor()
		return m, nil
	case "G":
		if n := len(m.Today.Items); n > 0 {
			m.Today.Cursor = n - 1
		}
		m.syncSelectedDoseToTodayCursor()
		return m, nil
	case "t", "enter":
		item, ok := m.currentTodayItem()
		if !ok {
			m.Status = StatusBar{Text: "no dose selected", IsError: true}
			return m, nil
		}
		return m, m.takeDoseCmd(item.DoseID)
	case "s":
		item, ok := m.currentTodayItem()
		if !ok {
			m.Status = StatusBar{Text: "no dose selected", IsError: true}
			return m, nil
		}
		return m, m.snoozeDoseCmd(item.DoseID)
	case "r":
		return m, m.loadTodayCmd()
	}
	return m, nil
}

func (m *Model) currentTodayItem() (TodayItem, bool) {
	if m.Today.Cursor < 0 || m.Today.Cursor >= len(m.Today.Items) {
		return TodayItem{}, false
	}
	return m.Today.Items[m.Today.Cursor], true
}

func (m *Model) syncSelectedDoseToTodayCursor() {
	if item, ok := m.currentTodayItem(); ok {
		m.SelectedDoseID = item.DoseID
	} else {
		m.SelectedDoseID = ""
	}
}
