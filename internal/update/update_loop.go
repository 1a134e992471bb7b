package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/medminder-app/medminder/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 4)
	if m.svc.Engine != nil {
		cmds = append(cmds, waitForReminderCmd(m.svc.Engine.C()))
	}
	if m.svc.Repo != nil {
		cmds = append(cmds, m.loadTodayCmd(), m.loadMedsCmd(), m.loadHistoryCmd())
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		m.ensureTodayState()
		m.ensureMedsState()
		m.ensureHistoryState()

		keyStr := typed.String()
		if keyStr == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}

		if m.Prompt.Active {
			return m.handlePromptKey(typed)
		}

		if m.Palette.Active {
			if keyStr == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}

		if m.ScheduleEditor.Active {
			return m.handleEditorKey(typed)
		}

		if m.CurrentView == ViewMeds && m.Meds.CaptureMode && keyStr != "ctrl+c" &&
			keyStr != m.Keys.Today && keyStr != m.Keys.Meds && keyStr != m.Keys.History &&
			keyStr != m.Keys.Help && keyStr != "/" && keyStr != m.Keys.Quit {
			return m.handleMedsKey(typed)
		}

		switch keyStr {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Today:
			m.CurrentView = ViewToday
			return m, m.loadTodayCmd()
		case m.Keys.Meds:
			m.CurrentView = ViewMeds
			return m, m.loadMedsCmd()
		case m.Keys.History:
			m.CurrentView = ViewHistory
			return m, m.loadHistoryCmd()
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case "S":
			if !m.spinnerActive && m.svc.Repo != nil {
				m.spinnerActive = true
				m.Status = StatusBar{Text: "refreshing", IsError: false}
				return m, tea.Batch(m.refreshSpinner.Tick, m.loadTodayCmd(), m.loadMedsCmd(), m.loadHistoryCmd())
			}
			return m, nil
		case "z":
			if m.CurrentView == ViewToday {
				m.toggleTodaySectionCollapse()
				return m, nil
			}
		case "D":
			m.cycleDensity()
			return m, nil
		case m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.CurrentView {
		case ViewToday:
			return m.handleTodayKey(typed)
		case ViewMeds:
			return m.handleMedsKey(typed)
		case ViewHistory:
			return m.handleHistoryKey(typed)
		}
	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.refreshSpinner, cmd = m.refreshSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
			switch typed.View {
			case ViewToday:
				return m, m.loadTodayCmd()
			case ViewMeds:
				return m, m.loadMedsCmd()
			case ViewHistory:
				return m, m.loadHistoryCmd()
			}
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case TodayLoadedMsg:
		m.spinnerActive = false
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Today.Items = typed.Items
		if m.Today.Cursor >= len(typed.Items) {
			m.Today.Cursor = 0
		}
		m.syncSelectedDoseToTodayCursor()
		return m, nil
	case MedsLoadedMsg:
		m.spinnerActive = false
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Meds.Items = typed.Items
		if m.Meds.Cursor >= len(typed.Items) {
			m.Meds.Cursor = 0
		}
		return m, nil
	case HistoryLoadedMsg:
		m.spinnerActive = false
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.History.Rows = typed.Rows
		m.History.Stats = typed.Stats
		if m.History.Cursor >= len(typed.Rows) {
			m.History.Cursor = 0
		}
		return m, nil
	case ReminderDueMsg:
		return m.onReminderDue(typed.Event)
	case PromptTickMsg:
		return m.onPromptTick()
	case DoseActionMsg:
		return m.onDoseAction(typed)
	case MedicationAddedMsg:
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Add Failed", typed.Err.Error(), "error")
			return m, nil
		}
		text := fmt.Sprintf("added %s", typed.Name)
		if typed.Doses > 0 {
			text = fmt.Sprintf("added %s (%d doses scheduled)", typed.Name, typed.Doses)
		}
		m.Status = StatusBar{Text: text, IsError: false}
		m.notify("Medication", text, "info")
		return m, tea.Batch(m.loadMedsCmd(), m.loadTodayCmd())
	case HistoryClearedMsg:
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "history cleared", IsError: false}
		return m, m.loadHistoryCmd()
	}

	return m, nil
}

func (m Model) View() string {
	m.syncBubbleData()

	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewToday:
		leftPane = m.renderTodayView()
		rightPane = m.renderDoseDetailPane() + m.renderHelpIfVisible()
	case ViewMeds:
		leftPane = m.renderMedsView()
		rightPane = m.renderMedDetailPane() + m.renderScheduleEditorIfVisible() + m.renderHelpIfVisible()
	case ViewHistory:
		leftPane = m.renderHistoryView()
		rightPane = m.renderHelpIfVisible()
	}
	if m.Prompt.Active {
		rightPane = m.renderReminderPrompt()
	}

	notificationView := ""
	if m.spinnerActive {
		notificationView = "refresh: " + m.refreshSpinner.View() + " running"
	}
	notificationView = strings.TrimSpace(strings.Join([]string{
		notificationView,
		strings.TrimSpace(m.renderNotificationsView()),
		strings.TrimSpace(m.renderCommandPalette()),
	}, "\n"))

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("medminder | view: %s | %s", m.CurrentView, m.svc.now().Format("Mon Jan 2 15:04")),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: notificationView,
		Footer:       fmt.Sprintf("keys: %s today | %s meds | %s history | / cmd | %s help | %s quit", m.Keys.Today, m.Keys.Meds, m.Keys.History, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewToday, ViewMeds, ViewHistory:
		return true
	default:
		return false
	}
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.svc.now(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.svc.Desktop != nil {
		m.svc.Desktop.Show(n.Title, n.Body, "")
	}
}
