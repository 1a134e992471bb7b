package update

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type RuntimeConfig struct {
	DBPath               string
	LogFile              string
	LogLevel             string
	DesktopNotifications bool
	ReminderSound        string
	SoundDir             string
	SnoozeLimit          int
	MissedGraceMinutes   int
	HorizonDays          int
	SchedulerBuffer      int
	PromptTimeoutSec     int
	VisionURL            string
}

func DefaultRuntimeConfig() RuntimeConfig {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".medminder")
	return RuntimeConfig{
		DBPath:               filepath.Join(base, "medminder.db"),
		LogFile:              filepath.Join(base, "medminder.log"),
		LogLevel:             "info",
		DesktopNotifications: true,
		ReminderSound:        "default",
		SnoozeLimit:          3,
		MissedGraceMinutes:   60,
		HorizonDays:          30,
		SchedulerBuffer:      64,
		PromptTimeoutSec:     60,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("MEDMINDER_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDMINDER_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDMINDER_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := getEnvBool("MEDMINDER_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDMINDER_REMINDER_SOUND")); v != "" {
		cfg.ReminderSound = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDMINDER_SOUND_DIR")); v != "" {
		cfg.SoundDir = v
	}
	if v, ok := getEnvInt("MEDMINDER_SNOOZE_LIMIT"); ok && v > 0 {
		cfg.SnoozeLimit = v
	}
	if v, ok := getEnvInt("MEDMINDER_MISSED_GRACE_MINUTES"); ok && v > 0 {
		cfg.MissedGraceMinutes = v
	}
	if v, ok := getEnvInt("MEDMINDER_HORIZON_DAYS"); ok && v > 0 {
		cfg.HorizonDays = v
	}
	if v, ok := getEnvInt("MEDMINDER_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvInt("MEDMINDER_PROMPT_TIMEOUT_SECONDS"); ok && v > 0 {
		cfg.PromptTimeoutSec = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDMINDER_VISION_URL")); v != "" {
		cfg.VisionURL = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
