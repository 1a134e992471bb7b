package update

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medminder-app/medminder/internal/model"
	"github.com/medminder-app/medminder/internal/storage"
)

const editorFieldCount = 4

var editorFrequencies = []string{
	string(model.FrequencyDaily),
	string(model.FrequencyMultipleDaily),
	string(model.FrequencySpecificDays),
	string(model.FrequencyEveryXDays),
	string(model.FrequencyAsNeeded),
}

func (m *Model) openScheduleEditor(med MedItem) {
	m.ScheduleEditor = ScheduleEditorState{
		Active:       true,
		MedicationID: med.ID,
		Frequency:    string(model.FrequencyDaily),
		TimesText:    "08:00",
		IntervalText: "2",
		DaysText:     "mon,wed,fri",
	}
	m.Status = StatusBar{Text: "schedule editor: tab fields, left/right frequency, p preview, enter save, esc cancel", IsError: false}
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := &m.ScheduleEditor
	switch msg.String() {
	case "esc":
		m.ScheduleEditor = ScheduleEditorState{
			Frequency:    string(model.FrequencyDaily),
			TimesText:    "08:00",
			IntervalText: "2",
		}
		m.Status = StatusBar{Text: "schedule editor closed", IsError: false}
		return m, nil
	case "tab", "down":
		ed.Field = (ed.Field + 1) % editorFieldCount
		return m, nil
	case "shift+tab", "up":
		ed.Field = (ed.Field + editorFieldCount - 1) % editorFieldCount
		return m, nil
	case "left", "right":
		if ed.Field == 0 {
			cycleEditorFrequency(ed, msg.String() == "right")
			ed.Preview = nil
			ed.Err = ""
		}
		return m, nil
	case "p":
		sch, err := m.editorSchedule()
		if err != nil {
			ed.Err = err.Error()
			ed.Preview = nil
			return m, nil
		}
		ed.Err = ""
		ed.Preview = previewOccurrences(sch.ToModel(), m.svc.now(), 5)
		return m, nil
	case "enter":
		sch, err := m.editorSchedule()
		if err != nil {
			ed.Err = err.Error()
			return m, nil
		}
		medicationID := ed.MedicationID
		m.ScheduleEditor = ScheduleEditorState{
			Frequency:    string(model.FrequencyDaily),
			TimesText:    "08:00",
			IntervalText: "2",
		}
		return m, tea.Batch(m.saveScheduleCmd(medicationID, sch), m.loadMedsCmd())
	case "backspace":
		field := m.editorFieldText(ed.Field)
		if len(*field) > 0 {
			*field = (*field)[:len(*field)-1]
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		if ed.Field != 0 {
			field := m.editorFieldText(ed.Field)
			if msg.Type == tea.KeySpace {
				*field += " "
			} else {
				*field += string(msg.Runes)
			}
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) editorFieldText(field int) *string {
	switch field {
	case 1:
		return &m.ScheduleEditor.TimesText
	case 2:
		return &m.ScheduleEditor.IntervalText
	default:
		return &m.ScheduleEditor.DaysText
	}
}

func cycleEditorFrequency(ed *ScheduleEditorState, forward bool) {
	idx := 0
	for i, f := range editorFrequencies {
		if f == ed.Frequency {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(editorFrequencies)
	} else {
		idx = (idx + len(editorFrequencies) - 1) % len(editorFrequencies)
	}
	ed.Frequency = editorFrequencies[idx]
}

// editorSchedule converts the editor's text fields into a storage schedule.
// The ID and medication binding are filled in by the save command.
func (m *Model) editorSchedule() (storage.Schedule, error) {
	ed := m.ScheduleEditor
	sch := storage.Schedule{
		Frequency: ed.Frequency,
		StartDate: m.svc.now(),
		Active:    true,
	}
	if ed.Frequency != string(model.FrequencyAsNeeded) {
		for _, raw := range strings.Split(ed.TimesText, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			sch.Times = append(sch.Times, raw)
		}
	}
	if ed.Frequency == string(model.FrequencyEveryXDays) {
		n, err := strconv.Atoi(strings.TrimSpace(ed.IntervalText))
		if err != nil {
			return storage.Schedule{}, model.ErrInvalidInterval
		}
		sch.EveryXDays = n
	}
	if ed.Frequency == string(model.FrequencySpecificDays) {
		days, err := parseWeekdayList(ed.DaysText)
		if err != nil {
			return storage.Schedule{}, err
		}
		sch.SpecificDays = days
	}

	check := sch.ToModel()
	check.ID = "pending"
	check.MedicationID = ed.MedicationID
	if check.MedicationID == "" {
		check.MedicationID = "pending"
	}
	if err := check.Validate(); err != nil {
		return storage.Schedule{}, err
	}
	return sch, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekdayList(text string) ([]int, error) {
	var days []int
	seen := make(map[int]bool)
	for _, raw := range strings.Split(text, ",") {
		raw = strings.ToLower(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		wd, ok := weekdayNames[raw]
		if !ok {
			return nil, model.ErrNoSpecificDays
		}
		if !seen[int(wd)] {
			seen[int(wd)] = true
			days = append(days, int(wd))
		}
	}
	if len(days) == 0 {
		return nil, model.ErrNoSpecificDays
	}
	return days, nil
}

// previewOccurrences walks forward from now and formats the next few dose
// instants the rule would produce.
func previewOccurrences(sch model.Schedule, now time.Time, count int) []string {
	out := make([]string, 0, count)
	day := now
	for scanned := 0; scanned < 370 && len(out) < count; scanned++ {
		for _, at := range sch.TimesOn(day) {
			if at.Before(now) {
				continue
			}
			out = append(out, at.Format("Mon Jan 2 15:04"))
			if len(out) == count {
				break
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}
