package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/medminder-app/medminder/internal/scheduler"
	"github.com/medminder-app/medminder/internal/views"
)

func (m *Model) initBubbleComponents() {
	m.todayList = list.New([]list.Item{}, list.NewDefaultDelegate(), 56, 12)
	m.todayList.Title = "Today's doses"
	m.todayList.SetShowHelp(false)
	m.todayList.SetFilteringEnabled(false)

	m.medsList = list.New([]list.Item{}, list.NewDefaultDelegate(), 56, 12)
	m.medsList.Title = "Medications"
	m.medsList.SetShowHelp(false)
	m.medsList.SetFilteringEnabled(false)

	cols := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Time", Width: 7},
		{Title: "Medication", Width: 20},
		{Title: "Status", Width: 9},
	}
	m.historyTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "add> "
	m.quickAddInput.Placeholder = "Metformin 500mg twice daily with food"
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 42

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.instructionsArea = textarea.New()
	m.instructionsArea.SetWidth(54)
	m.instructionsArea.SetHeight(8)
	m.instructionsArea.ShowLineNumbers = false
	m.instructionsArea.Placeholder = "Instructions (markdown)"

	m.promptProgress = progress.New(progress.WithDefaultGradient())

	m.refreshSpinner = spinner.New()
	m.refreshSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailViewport = viewport.New(54, 12)
}

func (m *Model) syncBubbleData() {
	listWidth, listHeight, tableHeight, notesHeight, viewportHeight := densityDimensions(m.uiDensity)
	m.todayList.SetSize(listWidth, listHeight)
	m.medsList.SetSize(listWidth, listHeight)
	m.historyTable.SetHeight(tableHeight)
	m.instructionsArea.SetHeight(notesHeight)
	m.detailViewport.Height = viewportHeight

	todayItems := make([]list.Item, 0, len(m.Today.Items))
	for _, item := range m.Today.Items {
		desc := fmt.Sprintf("%s | %s | %s", item.Bucket, item.TimeLabel, item.Status)
		todayItems = append(todayItems, listItem{title: item.Medication + " " + item.Dosage, description: desc})
	}
	m.todayList.SetItems(todayItems)
	if len(todayItems) > 0 {
		m.todayList.Select(m.Today.Cursor)
	}

	medItems := make([]list.Item, 0, len(m.Meds.Items))
	for _, med := range m.Meds.Items {
		state := "active"
		if !med.Active {
			state = "paused"
		}
		medItems = append(medItems, listItem{title: med.Name + " " + med.Dosage, description: med.Summary + " | " + state})
	}
	m.medsList.SetItems(medItems)
	if len(medItems) > 0 {
		m.medsList.Select(m.Meds.Cursor)
	}

	rows := make([]table.Row, 0, len(m.History.Rows))
	for _, row := range m.History.Rows {
		rows = append(rows, table.Row{row.Date, row.Time, row.Medication, strings.ToUpper(row.Status)})
	}
	m.historyTable.SetRows(rows)
	if len(rows) > 0 && m.History.Cursor < len(rows) {
		m.historyTable.SetCursor(m.History.Cursor)
	}

	m.quickAddInput.SetValue(m.Meds.Input)
	m.commandInput.SetValue(m.Palette.Input)
	if m.CurrentView == ViewMeds && m.Meds.CaptureMode {
		m.quickAddInput.Focus()
	}
	if m.Palette.Active {
		m.commandInput.Focus()
	}

	if med, ok := m.currentMedItem(); ok {
		md := med.Instructions
		if strings.TrimSpace(md) == "" {
			md = "_No instructions_"
		}
		m.instructionsArea.SetValue(md)
		m.detailViewport.SetContent(views.RenderMarkdown(md))
	}
}

func densityDimensions(level int) (listWidth int, listHeight int, tableHeight int, notesHeight int, viewportHeight int) {
	switch level {
	case 2:
		return 60, 14, 12, 10, 14
	case 3:
		return 64, 16, 14, 12, 16
	default:
		return 56, 12, 10, 8, 12
	}
}

func (m *Model) ensureTodayState() {
	if m.todayCollapsed == nil {
		m.todayCollapsed = map[TodayBucket]bool{
			TodayBucketDue:      false,
			TodayBucketUpcoming: false,
			TodayBucketDone:     false,
		}
	}
	if m.Today.Cursor < 0 {
		m.Today.Cursor = 0
	}
	if m.Today.Cursor >= len(m.Today.Items) && len(m.Today.Items) > 0 {
		m.Today.Cursor = len(m.Today.Items) - 1
	}
	if len(m.Today.Items) > 0 && m.SelectedDoseID == "" {
		m.syncSelectedDoseToTodayCursor()
	}
}

func (m *Model) ensureMedsState() {
	if m.Meds.Cursor < 0 {
		m.Meds.Cursor = 0
	}
	if m.Meds.Cursor >= len(m.Meds.Items) && len(m.Meds.Items) > 0 {
		m.Meds.Cursor = len(m.Meds.Items) - 1
	}
}

func (m *Model) ensureHistoryState() {
	if m.History.Cursor < 0 {
		m.History.Cursor = 0
	}
	if m.History.Cursor >= len(m.History.Rows) && len(m.History.Rows) > 0 {
		m.History.Cursor = len(m.History.Rows) - 1
	}
}

func (m *Model) toggleTodaySectionCollapse() {
	selected, ok := m.currentTodayItem()
	if !ok {
		return
	}
	bucket := selected.Bucket
	m.todayCollapsed[bucket] = !m.todayCollapsed[bucket]
	state := "expanded"
	if m.todayCollapsed[bucket] {
		state = "collapsed"
	}
	m.Status = StatusBar{
		Text:    fmt.Sprintf("%s section %s", strings.ToLower(string(bucket)), state),
		IsError: false,
	}
}

func (m *Model) cycleDensity() {
	m.uiDensity++
	if m.uiDensity > 3 {
		m.uiDensity = 1
	}
	m.Status = StatusBar{
		Text:    fmt.Sprintf("density level: %d", m.uiDensity),
		IsError: false,
	}
}

func waitForReminderCmd(ch <-chan scheduler.ReminderEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}
