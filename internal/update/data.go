package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/medminder-app/medminder/internal/label"
	"github.com/medminder-app/medminder/internal/lifecycle"
	"github.com/medminder-app/medminder/internal/model"
	"github.com/medminder-app/medminder/internal/scheduler"
	"github.com/medminder-app/medminder/internal/storage"
)

var errNoStore = errors.New("no storage configured")

func (m Model) loadTodayCmd() tea.Cmd {
	svc := m.svc
	if svc.Repo == nil {
		return nil
	}
	return func() tea.Msg {
		now := svc.now()
		details, err := svc.Repo.ListDosesForDay(context.Background(), now)
		if err != nil {
			return TodayLoadedMsg{Err: fmt.Errorf("load today: %w", err)}
		}
		return TodayLoadedMsg{Items: buildTodayItems(details, now)}
	}
}

// buildTodayItems buckets a day's doses: actionable first, then upcoming,
// then the ones already settled.
func buildTodayItems(details []storage.DoseDetail, now time.Time) []TodayItem {
	items := make([]TodayItem, 0, len(details))
	for _, d := range details {
		item := TodayItem{
			DoseID:       d.ID,
			Medication:   d.MedicationName,
			Dosage:       d.MedicationDosage,
			Instructions: d.Instructions,
			TimeLabel:    d.ScheduledAt.Local().Format("15:04"),
			Status:       d.Status,
			SnoozeCount:  d.SnoozeCount,
		}
		switch model.DoseStatus(d.Status) {
		case model.DoseStatusTaken, model.DoseStatusMissed:
			item.Bucket = TodayBucketDone
		default:
			if d.ScheduledAt.After(now) {
				item.Bucket = TodayBucketUpcoming
			} else {
				item.Bucket = TodayBucketDue
			}
		}
		items = append(items, item)
	}
	rank := map[TodayBucket]int{TodayBucketDue: 0, TodayBucketUpcoming: 1, TodayBucketDone: 2}
	sort.SliceStable(items, func(i, j int) bool {
		if rank[items[i].Bucket] != rank[items[j].Bucket] {
			return rank[items[i].Bucket] < rank[items[j].Bucket]
		}
		return items[i].TimeLabel < items[j].TimeLabel
	})
	return items
}

func (m Model) loadMedsCmd() tea.Cmd {
	svc := m.svc
	if svc.Repo == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		meds, err := svc.Repo.ListMedications(ctx)
		if err != nil {
			return MedsLoadedMsg{Err: fmt.Errorf("load medications: %w", err)}
		}
		items := make([]MedItem, 0, len(meds))
		for _, med := range meds {
			item := MedItem{
				ID:           med.ID,
				Name:         med.Name,
				Dosage:       med.Dosage,
				Instructions: med.Instructions,
				Summary:      "no schedule",
			}
			schedules, err := svc.Repo.ListSchedules(ctx, storage.ScheduleListFilter{MedicationID: med.ID})
			if err == nil && len(schedules) > 0 {
				sch := schedules[0]
				item.Summary = scheduleSummary(sch)
				item.ScheduleID = sch.ID
				item.Active = sch.Active
			}
			items = append(items, item)
		}
		return MedsLoadedMsg{Items: items}
	}
}

func scheduleSummary(sch storage.Schedule) string {
	times := strings.Join(sch.Times, ", ")
	switch model.Frequency(sch.Frequency) {
	case model.FrequencyDaily:
		return "daily at " + times
	case model.FrequencyMultipleDaily:
		return fmt.Sprintf("%dx daily at %s", len(sch.Times), times)
	case model.FrequencySpecificDays:
		names := make([]string, 0, len(sch.SpecificDays))
		for _, d := range sch.SpecificDays {
			names = append(names, time.Weekday(d).String()[:3])
		}
		return strings.Join(names, "/") + " at " + times
	case model.FrequencyEveryXDays:
		return fmt.Sprintf("every %d days at %s", sch.EveryXDays, times)
	case model.FrequencyAsNeeded:
		return "as needed"
	default:
		return sch.Frequency
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	svc := m.svc
	if svc.Repo == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		now := svc.now()
		from := now.AddDate(0, 0, -30)
		doses, err := svc.Repo.ListDoses(ctx, storage.DoseListFilter{
			Statuses: []string{string(model.DoseStatusTaken), string(model.DoseStatusMissed)},
			From:     &from,
			To:       &now,
		})
		if err != nil {
			return HistoryLoadedMsg{Err: fmt.Errorf("load history: %w", err)}
		}
		sort.Slice(doses, func(i, j int) bool { return doses[i].ScheduledAt.After(doses[j].ScheduledAt) })

		rows := make([]HistoryRow, 0, len(doses))
		stats := AdherenceStats{}
		for _, dose := range doses {
			detail, err := svc.Repo.GetDoseDetail(ctx, dose.ID)
			if err != nil {
				continue
			}
			at := dose.ScheduledAt.Local()
			rows = append(rows, HistoryRow{
				Date:       at.Format("2006-01-02"),
				Time:       at.Format("15:04"),
				Medication: detail.MedicationName,
				Dosage:     detail.MedicationDosage,
				Status:     dose.Status,
			})
			switch model.DoseStatus(dose.Status) {
			case model.DoseStatusTaken:
				stats.Taken++
			case model.DoseStatusMissed:
				stats.Missed++
			}
		}
		if total := stats.Taken + stats.Missed; total > 0 {
			stats.Percentage = stats.Taken * 100 / total
		}
		return HistoryLoadedMsg{Rows: rows, Stats: stats}
	}
}

func (m Model) takeDoseCmd(doseID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc.Lifecycle == nil {
			return DoseActionMsg{Action: "taken", DoseID: doseID, Err: errNoStore}
		}
		res, err := svc.Lifecycle.ConfirmTaken(context.Background(), doseID)
		return DoseActionMsg{Action: "taken", DoseID: doseID, Outcome: res.Outcome, Err: err}
	}
}

func (m Model) snoozeDoseCmd(doseID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc.Lifecycle == nil {
			return DoseActionMsg{Action: "snoozed", DoseID: doseID, Err: errNoStore}
		}
		res, err := svc.Lifecycle.Snooze(context.Background(), doseID)
		return DoseActionMsg{Action: "snoozed", DoseID: doseID, Outcome: res.Outcome, Err: err}
	}
}

// addMedicationCmd runs quick-add: the free text is parsed for name, dosage,
// and frequency, and when a frequency is recognized the schedule plus its
// dose window are created in the same pass. A path to a label photo routes
// through the vision service first and falls back to manual text on failure.
func (m Model) addMedicationCmd(text string) tea.Cmd {
	svc := m.svc
	horizon := m.cfg.HorizonDays
	return func() tea.Msg {
		if svc.Repo == nil {
			return MedicationAddedMsg{Err: errNoStore}
		}
		ex, err := extractMedication(svc, text)
		if err != nil {
			return MedicationAddedMsg{Err: err}
		}
		if ex.Name == "" {
			return MedicationAddedMsg{Err: fmt.Errorf("could not find a medication name in %q", text)}
		}

		ctx := context.Background()
		now := svc.now()
		med := storage.Medication{
			ID:           uuid.NewString(),
			Name:         ex.Name,
			Dosage:       ex.Dosage,
			Instructions: ex.Instructions,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := svc.Repo.CreateMedication(ctx, med); err != nil {
			return MedicationAddedMsg{Err: fmt.Errorf("save medication: %w", err)}
		}
		if ex.Frequency == "" {
			return MedicationAddedMsg{Name: med.Name}
		}

		sch := storage.Schedule{
			ID:           uuid.NewString(),
			MedicationID: med.ID,
			Frequency:    ex.Frequency,
			Times:        ex.Times,
			EveryXDays:   ex.EveryXDays,
			StartDate:    now,
			Active:       true,
			CreatedAt:    now,
		}
		for _, d := range ex.SpecificDays {
			sch.SpecificDays = append(sch.SpecificDays, int(d))
		}
		if err := sch.ToModel().Validate(); err != nil {
			return MedicationAddedMsg{Name: med.Name, Err: fmt.Errorf("parsed schedule invalid: %w", err)}
		}
		if err := svc.Repo.CreateSchedule(ctx, sch); err != nil {
			return MedicationAddedMsg{Name: med.Name, Err: fmt.Errorf("save schedule: %w", err)}
		}

		created := 0
		if svc.Generator != nil {
			doses, err := svc.Generator.Generate(ctx, sch, horizon)
			if err != nil {
				svc.logger().Warn("dose generation incomplete")
			}
			created = len(doses)
			armDoses(svc, med, doses)
		}
		return MedicationAddedMsg{Name: med.Name, Doses: created}
	}
}

// extractMedication turns quick-add input into an extraction. Input naming an
// existing image file is scanned through the vision service; anything else is
// parsed as label text directly.
func extractMedication(svc Services, text string) (label.Extraction, error) {
	path := strings.TrimSpace(text)
	if !isImagePath(path) {
		return label.Parse(text), nil
	}
	if svc.Vision == nil || !svc.Vision.Enabled() {
		return label.Extraction{}, errors.New("label photo given but no vision service configured")
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return label.Extraction{}, fmt.Errorf("read label photo: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ex, err := svc.Vision.ScanImage(ctx, image)
	if err != nil {
		return label.Extraction{}, fmt.Errorf("scan label photo: %w", err)
	}
	return ex, nil
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		_, err := os.Stat(path)
		return err == nil
	default:
		return false
	}
}

func armDoses(svc Services, med storage.Medication, doses []storage.Dose) {
	if svc.Engine == nil {
		return
	}
	for _, dose := range doses {
		_ = svc.Engine.Schedule(scheduler.ReminderEvent{
			DoseID:         dose.ID,
			MedicationName: med.Name,
			Dosage:         med.Dosage,
			Instructions:   med.Instructions,
			TriggerAt:      dose.ScheduledAt,
		})
	}
}

// saveScheduleCmd persists the editor's schedule for a medication, replacing
// any previous one, and regenerates the dose window.
func (m Model) saveScheduleCmd(medicationID string, sch storage.Schedule) tea.Cmd {
	svc := m.svc
	horizon := m.cfg.HorizonDays
	return func() tea.Msg {
		if svc.Repo == nil {
			return AppErrorMsg{Err: errNoStore}
		}
		ctx := context.Background()
		med, err := svc.Repo.GetMedication(ctx, medicationID)
		if err != nil {
			return AppErrorMsg{Err: fmt.Errorf("load medication: %w", err)}
		}

		existing, err := svc.Repo.ListSchedules(ctx, storage.ScheduleListFilter{MedicationID: medicationID})
		if err != nil {
			return AppErrorMsg{Err: fmt.Errorf("load schedules: %w", err)}
		}
		for _, old := range existing {
			if err := svc.Repo.DeleteSchedule(ctx, old.ID); err != nil {
				return AppErrorMsg{Err: fmt.Errorf("replace schedule: %w", err)}
			}
		}

		sch.ID = uuid.NewString()
		sch.MedicationID = medicationID
		sch.CreatedAt = svc.now()
		if sch.StartDate.IsZero() {
			sch.StartDate = svc.now()
		}
		sch.Active = true
		if err := svc.Repo.CreateSchedule(ctx, sch); err != nil {
			return AppErrorMsg{Err: fmt.Errorf("save schedule: %w", err)}
		}

		created := 0
		if svc.Generator != nil {
			doses, genErr := svc.Generator.Generate(ctx, sch, horizon)
			if genErr != nil {
				svc.logger().Warn("dose generation incomplete")
			}
			created = len(doses)
			armDoses(svc, med, doses)
		}
		return MedicationAddedMsg{Name: med.Name, Doses: created}
	}
}

func (m Model) toggleScheduleActiveCmd(med MedItem) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc.Repo == nil || med.ScheduleID == "" {
			return SetStatusMsg{Text: "no schedule to pause", IsError: true}
		}
		ctx := context.Background()
		sch, err := svc.Repo.GetSchedule(ctx, med.ScheduleID)
		if err != nil {
			return AppErrorMsg{Err: fmt.Errorf("load schedule: %w", err)}
		}
		sch.Active = !sch.Active
		if err := svc.Repo.UpdateSchedule(ctx, sch); err != nil {
			return AppErrorMsg{Err: fmt.Errorf("update schedule: %w", err)}
		}
		state := "paused"
		if sch.Active {
			state = "resumed"
		}
		return SetStatusMsg{Text: fmt.Sprintf("%s %s", med.Name, state)}
	}
}

func (m Model) deleteMedicationCmd(med MedItem) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc.Repo == nil {
			return AppErrorMsg{Err: errNoStore}
		}
		if err := svc.Repo.DeleteMedication(context.Background(), med.ID); err != nil {
			return AppErrorMsg{Err: fmt.Errorf("delete medication: %w", err)}
		}
		return SetStatusMsg{Text: fmt.Sprintf("deleted %s", med.Name)}
	}
}

func (m Model) clearHistoryCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc.Repo == nil {
			return HistoryClearedMsg{Err: errNoStore}
		}
		if err := svc.Repo.ClearDoseHistory(context.Background()); err != nil {
			return HistoryClearedMsg{Err: fmt.Errorf("clear history: %w", err)}
		}
		return HistoryClearedMsg{}
	}
}

func (m Model) onDoseAction(msg DoseActionMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.Err, lifecycle.ErrSnoozeLimitExceeded) {
		m.Status = StatusBar{Text: "snooze limit reached, dose stays due", IsError: true}
		m.notify("Snooze", m.Status.Text, "error")
		return m, nil
	}
	if msg.Err != nil {
		m.Status = StatusBar{Text: msg.Err.Error(), IsError: true}
		return m, nil
	}
	switch msg.Outcome {
	case lifecycle.OutcomeNotFound:
		m.Status = StatusBar{Text: "dose not found", IsError: true}
	case lifecycle.OutcomeNoop:
		m.Status = StatusBar{Text: "dose already settled, nothing to do", IsError: false}
	default:
		m.Status = StatusBar{Text: fmt.Sprintf("dose %s", msg.Action), IsError: false}
		m.notify("Dose", m.Status.Text, "info")
	}
	if m.Prompt.Active && m.Prompt.DoseID == msg.DoseID {
		m.Prompt = PromptState{}
	}
	return m, tea.Batch(m.loadTodayCmd(), m.loadHistoryCmd())
}
