package update

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/medminder-app/medminder/internal/clock"
	"github.com/medminder-app/medminder/internal/generator"
	"github.com/medminder-app/medminder/internal/label"
	"github.com/medminder-app/medminder/internal/lifecycle"
	"github.com/medminder-app/medminder/internal/notify"
	"github.com/medminder-app/medminder/internal/scheduler"
	"github.com/medminder-app/medminder/internal/storage"
)

type View string

const (
	ViewToday   View = "Today"
	ViewMeds    View = "Meds"
	ViewHistory View = "History"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today   string
	Meds    string
	History string
	Help    string
	Quit    string
}

// Services bundles everything the TUI calls out to. A zero value is valid
// for pure-UI tests; data commands degrade to status errors.
type Services struct {
	Repo      storage.Repository
	Lifecycle *lifecycle.Manager
	Generator *generator.Generator
	Engine    *scheduler.Engine
	Clock     clock.Clock
	Desktop   notify.Notifier
	Sound     *notify.SoundPlayer
	Vision    *label.Client
	Log       *zap.Logger
}

func (s Services) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

func (s Services) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

type Model struct {
	CurrentView    View
	SelectedDoseID string
	Today          TodayState
	Meds           MedsState
	History        HistoryState
	Prompt         PromptState
	Palette        CommandPaletteState
	ScheduleEditor ScheduleEditorState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error

	svc Services
	cfg RuntimeConfig

	// Bubble components used for rich TUI controls
	todayList        list.Model
	medsList         list.Model
	historyTable     table.Model
	quickAddInput    textinput.Model
	commandInput     textinput.Model
	instructionsArea textarea.Model
	promptProgress   progress.Model
	refreshSpinner   spinner.Model
	helpModel        help.Model
	detailViewport   viewport.Model
	spinnerActive    bool
	todayCollapsed   map[TodayBucket]bool
	uiDensity        int
}

type TodayBucket string

const (
	TodayBucketDue      TodayBucket = "Due"
	TodayBucketUpcoming TodayBucket = "Upcoming"
	TodayBucketDone     TodayBucket = "Done"
)

type TodayItem struct {
	DoseID       string
	Medication   string
	Dosage       string
	Instructions string
	Bucket       TodayBucket
	TimeLabel    string
	Status       string
	SnoozeCount  int
}

type TodayState struct {
	Items  []TodayItem
	Cursor int
}

type MedItem struct {
	ID           string
	Name         string
	Dosage       string
	Instructions string
	Summary      string
	ScheduleID   string
	Active       bool
}

type MedsState struct {
	Items       []MedItem
	Cursor      int
	CaptureMode bool
	Input       string
}

type HistoryRow struct {
	Date       string
	Time       string
	Medication string
	Dosage     string
	Status     string
}

type AdherenceStats struct {
	Taken      int
	Missed     int
	Percentage int
}

type HistoryState struct {
	Rows   []HistoryRow
	Cursor int
	Stats  AdherenceStats
}

// PromptState is the active reminder overlay. RemainingSec counts down to
// auto-dismissal; dismissing leaves the dose pending for the missed sweep.
type PromptState struct {
	Active       bool
	DoseID       string
	Medication   string
	Dosage       string
	Instructions string
	TriggerAt    time.Time
	RemainingSec int
	TotalSec     int
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type ScheduleEditorState struct {
	Active       bool
	MedicationID string
	Field        int
	Frequency    string
	TimesText    string
	IntervalText string
	DaysText     string
	Preview      []string
	Err          string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type listItem struct {
	title       string
	description string
}

func (i listItem) FilterValue() string { return i.title + " " + i.description }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.description }

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type TodayLoadedMsg struct {
	Items []TodayItem
	Err   error
}

type MedsLoadedMsg struct {
	Items []MedItem
	Err   error
}

type HistoryLoadedMsg struct {
	Rows  []HistoryRow
	Stats AdherenceStats
	Err   error
}

type ReminderDueMsg struct {
	Event scheduler.ReminderEvent
}

type PromptTickMsg struct{}

type DoseActionMsg struct {
	Action  string
	DoseID  string
	Outcome lifecycle.Outcome
	Err     error
}

type MedicationAddedMsg struct {
	Name  string
	Doses int
	Err   error
}

type HistoryClearedMsg struct {
	Err error
}

func NewModel() Model {
	return NewModelWithServices(Services{}, DefaultRuntimeConfig())
}

func NewModelWithServices(svc Services, cfg RuntimeConfig) Model {
	m := Model{
		CurrentView:    ViewToday,
		svc:            svc,
		cfg:            cfg,
		DesktopEnabled: cfg.DesktopNotifications,
		Keys: GlobalKeyMap{
			Today:   "1",
			Meds:    "2",
			History: "3",
			Help:    "?",
			Quit:    "q",
		},
		ScheduleEditor: ScheduleEditorState{
			Frequency:    "daily",
			TimesText:    "08:00",
			IntervalText: "2",
		},
		todayCollapsed: map[TodayBucket]bool{
			TodayBucketDue:      false,
			TodayBucketUpcoming: false,
			TodayBucketDone:     false,
		},
		uiDensity: 1,
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}
