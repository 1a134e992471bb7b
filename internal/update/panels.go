package update

import (
	"fmt"
	"strings"

	"github.com/medminder-app/medminder/internal/views"
)

func (m Model) renderTodayView() string {
	order := []TodayBucket{TodayBucketDue, TodayBucketUpcoming, TodayBucketDone}
	sections := make([]views.TodaySection, 0, len(order))
	for _, bucket := range order {
		section := views.TodaySection{
			Name:      string(bucket),
			Collapsed: m.todayCollapsed[bucket],
		}
		for _, item := range m.Today.Items {
			if item.Bucket != bucket {
				continue
			}
			section.Lines = append(section.Lines, views.DoseLine{
				Time:     item.TimeLabel,
				Title:    strings.TrimSpace(item.Medication + " " + item.Dosage),
				Status:   item.Status,
				Urgency:  urgencyForBucket(bucket),
				Selected: item.DoseID == m.SelectedDoseID,
				Snoozed:  item.SnoozeCount > 0,
			})
		}
		sections = append(sections, section)
	}
	return views.RenderTodayPanel(m.todayList.View(), sections)
}

func urgencyForBucket(bucket TodayBucket) string {
	switch bucket {
	case TodayBucketDue:
		return "high"
	case TodayBucketUpcoming:
		return "medium"
	default:
		return "low"
	}
}

func (m Model) renderMedsView() string {
	var b strings.Builder
	b.WriteString(m.medsList.View())
	if m.Meds.CaptureMode {
		b.WriteString("\n\n")
		b.WriteString(m.quickAddInput.View())
	}
	return b.String()
}

func (m Model) renderHistoryView() string {
	header := views.RenderAdherenceLine(m.History.Stats.Taken, m.History.Stats.Missed, m.History.Stats.Percentage)
	return header + "\n\n" + m.historyTable.View()
}

func (m Model) renderDoseDetailPane() string {
	item, ok := m.currentTodayItem()
	if !ok {
		return views.RenderEmptyPane("No doses today. Add a medication in the Meds view.")
	}
	return views.RenderDoseMetadataPane(views.DoseMetadata{
		Medication:   item.Medication,
		Dosage:       item.Dosage,
		Time:         item.TimeLabel,
		Status:       item.Status,
		SnoozeCount:  item.SnoozeCount,
		Instructions: item.Instructions,
	})
}

func (m Model) renderMedDetailPane() string {
	med, ok := m.currentMedItem()
	if !ok {
		return views.RenderEmptyPane("No medications yet. Press a to quick add.")
	}
	state := "active"
	if !med.Active {
		state = "paused"
	}
	if med.ScheduleID == "" {
		state = "unscheduled"
	}
	header := views.RenderMedMetadataPane(views.MedMetadata{
		Name:     med.Name,
		Dosage:   med.Dosage,
		Schedule: med.Summary,
		State:    state,
	})
	return header + "\n\ninstructions-editor:\n" + m.instructionsArea.View() +
		"\n\ninstructions-preview:\n" + m.detailViewport.View()
}

func (m Model) renderScheduleEditorIfVisible() string {
	ed := m.ScheduleEditor
	if !ed.Active {
		return ""
	}
	return "\n" + views.RenderScheduleEditor(views.ScheduleEditorData{
		Frequency: ed.Frequency,
		Times:     ed.TimesText,
		Interval:  ed.IntervalText,
		Days:      ed.DaysText,
		Field:     ed.Field,
		Preview:   ed.Preview,
		Err:       ed.Err,
	})
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	help := m.helpModel
	help.ShowAll = true
	return "\n" + views.RenderHelpPanel(help.View(newHelpKeyMap()))
}

func (m Model) renderReminderPrompt() string {
	frac := 0.0
	if m.Prompt.TotalSec > 0 {
		frac = float64(m.Prompt.RemainingSec) / float64(m.Prompt.TotalSec)
	}
	return views.RenderReminderPrompt(views.ReminderPromptData{
		Medication:   m.Prompt.Medication,
		Dosage:       m.Prompt.Dosage,
		Instructions: m.Prompt.Instructions,
		Countdown:    fmt.Sprintf("%ds", m.Prompt.RemainingSec),
		ProgressBar:  m.promptProgress.ViewAs(frac),
	})
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	shown := m.Notifications
	if len(shown) > 3 {
		shown = shown[len(shown)-3:]
	}
	lines := make([]string, 0, len(shown))
	for i := len(shown) - 1; i >= 0; i-- {
		n := shown[i]
		lines = append(lines, views.RenderNotification(n.At.Format("15:04"), n.Level, n.Title, n.Body))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCommandPalette() string {
	if !m.Palette.Active {
		return ""
	}
	return views.RenderCommandPalette(m.commandInput.View())
}
