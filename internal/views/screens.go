package views

import (
	"fmt"
	"strings"
)

type DoseLine struct {
	Time     string
	Title    string
	Status   string
	Urgency  string
	Selected bool
	Snoozed  bool
}

type TodaySection struct {
	Name      string
	Collapsed bool
	Lines     []DoseLine
}

type DoseMetadata struct {
	Medication   string
	Dosage       string
	Time         string
	Status       string
	SnoozeCount  int
	Instructions string
}

type MedMetadata struct {
	Name     string
	Dosage   string
	Schedule string
	State    string
}

type ScheduleEditorData struct {
	Frequency string
	Times     string
	Interval  string
	Days      string
	Field     int
	Preview   []string
	Err       string
}

type ReminderPromptData struct {
	Medication   string
	Dosage       string
	Instructions string
	Countdown    string
	ProgressBar  string
}

func RenderTodayPanel(listView string, sections []TodaySection) string {
	var b strings.Builder
	b.WriteString("today:\n")
	b.WriteString("actions: [j/k]move [t]take [s]snooze [z]fold [1]today [2]meds [3]history\n")
	b.WriteString(listView + "\n")
	for _, section := range sections {
		renderTodaySection(&b, section)
	}
	return strings.TrimSpace(b.String())
}

func renderTodaySection(b *strings.Builder, section TodaySection) {
	b.WriteString(fmt.Sprintf("\n%s:\n", section.Name))
	if section.Collapsed {
		b.WriteString(fmt.Sprintf("  (%d folded)\n", len(section.Lines)))
		return
	}
	if len(section.Lines) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, line := range section.Lines {
		cursor := " "
		if line.Selected {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s", cursor, urgencyBadge(line.Urgency), line.Time, line.Title))
		if line.Snoozed {
			b.WriteString(" (snoozed)")
		}
		if line.Status != "" && line.Status != "pending" {
			b.WriteString(fmt.Sprintf(" [%s]", strings.ToUpper(line.Status)))
		}
		b.WriteString("\n")
	}
}

func urgencyBadge(urgency string) string {
	switch urgency {
	case "high":
		return "[RED]"
	case "medium":
		return "[YELLOW]"
	default:
		return "[GREEN]"
	}
}

func RenderAdherenceLine(taken, missed, percentage int) string {
	if taken+missed == 0 {
		return "adherence: no settled doses in the last 30 days"
	}
	return fmt.Sprintf("adherence: %d%% (%d taken, %d missed, last 30 days)", percentage, taken, missed)
}

func RenderEmptyPane(hint string) string {
	return fmt.Sprintf("metadata:\n(no selection)\n%s", hint)
}

func RenderDoseMetadataPane(data DoseMetadata) string {
	var b strings.Builder
	b.WriteString("dose:\n")
	b.WriteString(fmt.Sprintf("medication: %s %s\n", data.Medication, data.Dosage))
	b.WriteString(fmt.Sprintf("time: %s\n", data.Time))
	b.WriteString(fmt.Sprintf("status: %s\n", strings.ToUpper(data.Status)))
	if data.SnoozeCount > 0 {
		b.WriteString(fmt.Sprintf("snoozed: %dx\n", data.SnoozeCount))
	}
	if strings.TrimSpace(data.Instructions) != "" {
		b.WriteString("\ninstructions:\n")
		b.WriteString(RenderMarkdown(data.Instructions))
	}
	return strings.TrimSpace(b.String())
}

func RenderMedMetadataPane(data MedMetadata) string {
	return fmt.Sprintf("medication:\nname: %s\ndosage: %s\nschedule: %s\nstate: %s",
		data.Name,
		data.Dosage,
		data.Schedule,
		strings.ToUpper(data.State),
	)
}

func RenderScheduleEditor(data ScheduleEditorData) string {
	fieldNames := []string{"frequency", "times", "interval", "days"}
	var b strings.Builder
	b.WriteString("schedule-editor:\n")
	b.WriteString("keys: [tab] field [left/right] frequency [p] preview [enter] save [esc] close\n")
	values := []string{data.Frequency, data.Times, data.Interval, data.Days}
	for i, name := range fieldNames {
		cursor := " "
		if data.Field == i {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s: %s\n", cursor, name, values[i]))
	}
	if data.Err != "" {
		b.WriteString("error: " + data.Err + "\n")
	}
	if len(data.Preview) > 0 {
		b.WriteString("preview:\n")
		for _, item := range data.Preview {
			b.WriteString("- " + item + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderReminderPrompt(data ReminderPromptData) string {
	var b strings.Builder
	b.WriteString("reminder:\n")
	b.WriteString(fmt.Sprintf("take %s %s now\n", data.Medication, data.Dosage))
	if strings.TrimSpace(data.Instructions) != "" {
		b.WriteString(data.Instructions + "\n")
	}
	b.WriteString(fmt.Sprintf("auto-dismiss in %s\n", data.Countdown))
	b.WriteString(data.ProgressBar + "\n")
	b.WriteString("actions: [t/enter]take [s]snooze [esc]dismiss")
	return b.String()
}

func RenderNotification(at, level, title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("%s [%s] %s: %s", at, strings.ToUpper(level), title, body)
}

func RenderCommandPalette(inputView string) string {
	return "command: " + inputView
}

func RenderHelpPanel(helpView string) string {
	return "help:\n" + helpView
}
