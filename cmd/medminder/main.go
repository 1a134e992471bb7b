package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/medminder-app/medminder/internal/clock"
	"github.com/medminder-app/medminder/internal/generator"
	"github.com/medminder-app/medminder/internal/label"
	"github.com/medminder-app/medminder/internal/lifecycle"
	"github.com/medminder-app/medminder/internal/logs"
	"github.com/medminder-app/medminder/internal/notify"
	"github.com/medminder-app/medminder/internal/scheduler"
	"github.com/medminder-app/medminder/internal/storage"
	"github.com/medminder-app/medminder/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "medminder failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	log, err := logs.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync()

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	if err := storage.MigrateUp(repo.DB()); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	clk := clock.FromEnv()
	gen := generator.New(repo, clk, log)

	engine := scheduler.NewEngine(clk, cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	rearmer := &scheduler.EngineRearmer{Engine: engine, Source: repo, Log: log}

	opts := []lifecycle.Option{
		lifecycle.WithSnoozeLimit(cfg.SnoozeLimit),
		lifecycle.WithRearmer(rearmer),
	}
	if smtp := notify.SMTPFromEnv(); smtp.Enabled() {
		opts = append(opts, lifecycle.WithCaregiver(notify.NewCaregiver(repo, notify.NewMailer(smtp), log)))
		log.Info("caregiver email notifications configured")
	}
	manager := lifecycle.NewManager(repo, clk, log, opts...)

	ctx := context.Background()
	if _, err := scheduler.Resync(ctx, engine, repo, log); err != nil {
		return fmt.Errorf("resync reminders: %w", err)
	}

	jobs := cron.New()
	grace := time.Duration(cfg.MissedGraceMinutes) * time.Minute
	if _, err := jobs.AddFunc("@every 1m", func() {
		if n, err := manager.MarkOverdueMissed(ctx, grace); err != nil {
			log.Warn("missed sweep failed", zap.Error(err))
		} else if n > 0 {
			log.Info("missed sweep settled doses", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("schedule missed sweep: %w", err)
	}
	if _, err := jobs.AddFunc("@daily", func() {
		topUpDoseWindows(ctx, repo, gen, engine, cfg.HorizonDays, log)
	}); err != nil {
		return fmt.Errorf("schedule dose top-up: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	var desktop notify.Notifier = notify.NoopNotifier{}
	if cfg.DesktopNotifications {
		desktop = notify.NewDesktop(log)
	}

	model := update.NewModelWithServices(update.Services{
		Repo:      repo,
		Lifecycle: manager,
		Generator: gen,
		Engine:    engine,
		Clock:     clk,
		Desktop:   desktop,
		Sound:     notify.NewSoundPlayer(cfg.SoundDir, log),
		Vision:    label.NewClient(cfg.VisionURL, log),
		Log:       log,
	}, cfg)

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// topUpDoseWindows extends every active schedule's generated dose window so
// the horizon keeps rolling forward while the app stays open. Generation is
// idempotent; doses already present are skipped.
func topUpDoseWindows(ctx context.Context, repo storage.Repository, gen *generator.Generator, engine *scheduler.Engine, horizonDays int, log *zap.Logger) {
	schedules, err := repo.ListSchedules(ctx, storage.ScheduleListFilter{ActiveOnly: true})
	if err != nil {
		log.Warn("dose top-up failed to list schedules", zap.Error(err))
		return
	}
	for _, sch := range schedules {
		doses, err := gen.Generate(ctx, sch, horizonDays)
		if err != nil {
			log.Warn("dose top-up incomplete", zap.String("schedule_id", sch.ID), zap.Error(err))
			continue
		}
		if len(doses) == 0 {
			continue
		}
		med, err := repo.GetMedication(ctx, sch.MedicationID)
		if err != nil {
			log.Warn("dose top-up missing medication", zap.String("schedule_id", sch.ID), zap.Error(err))
			continue
		}
		for _, dose := range doses {
			if err := engine.Schedule(scheduler.ReminderEvent{
				DoseID:         dose.ID,
				MedicationName: med.Name,
				Dosage:         med.Dosage,
				Instructions:   med.Instructions,
				TriggerAt:      dose.ScheduledAt,
			}); err != nil {
				log.Warn("dose top-up arm failed", zap.String("dose_id", dose.ID), zap.Error(err))
			}
		}
		log.Info("dose window extended", zap.String("schedule_id", sch.ID), zap.Int("new_doses", len(doses)))
	}
}
