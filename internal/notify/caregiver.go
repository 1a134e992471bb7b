package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medminder-app/medminder/internal/storage"
)

// SettingsSource is the slice of the repository the caregiver notifier needs.
type SettingsSource interface {
	GetSettings(ctx context.Context) (storage.Settings, error)
}

// MailSender is satisfied by Mailer; tests swap in a recorder.
type MailSender interface {
	Send(ctx context.Context, msg Message) error
}

const caregiverSendTimeout = 45 * time.Second

// Caregiver mails dose events to the configured caregiver address. Every
// failure path logs and returns; a mail problem never reaches the user flow.
type Caregiver struct {
	settings SettingsSource
	mailer   MailSender
	log      *zap.Logger
}

func NewCaregiver(settings SettingsSource, mailer MailSender, log *zap.Logger) *Caregiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Caregiver{settings: settings, mailer: mailer, log: log}
}

// DoseEvent sends one mail describing what happened to the dose. The
// caregiver toggle and address are re-read per event so settings changes
// apply without a restart.
func (c *Caregiver) DoseEvent(ctx context.Context, action string, detail storage.DoseDetail) {
	settings, err := c.settings.GetSettings(ctx)
	if err != nil {
		c.log.Warn("caregiver settings lookup failed", zap.Error(err))
		return
	}
	if !settings.CaregiverEnabled || settings.CaregiverEmail == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, caregiverSendTimeout)
	defer cancel()

	msg := Message{
		To:      settings.CaregiverEmail,
		Subject: caregiverSubject(action, detail),
		Body:    caregiverBody(action, detail, settings.UserName),
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		c.log.Warn("caregiver mail failed",
			zap.String("action", action),
			zap.String("dose_id", detail.ID),
			zap.Error(err))
		return
	}
	c.log.Info("caregiver notified",
		zap.String("action", action),
		zap.String("dose_id", detail.ID))
}

func caregiverSubject(action string, detail storage.DoseDetail) string {
	switch action {
	case "missed":
		return fmt.Sprintf("Missed dose: %s", detail.MedicationName)
	case "taken":
		return fmt.Sprintf("Dose taken: %s", detail.MedicationName)
	case "snoozed":
		return fmt.Sprintf("Dose snoozed: %s", detail.MedicationName)
	default:
		return fmt.Sprintf("Medication update: %s", detail.MedicationName)
	}
}

func caregiverBody(action string, detail storage.DoseDetail, userName string) string {
	who := userName
	if who == "" {
		who = "The patient"
	}
	when := detail.ScheduledAt.Local().Format("Mon Jan 2 15:04")
	body := fmt.Sprintf("%s %s %s (%s) scheduled for %s.\n",
		who, actionVerb(action), detail.MedicationName, detail.MedicationDosage, when)
	if detail.ActualAt != nil {
		body += fmt.Sprintf("Recorded at %s.\n", detail.ActualAt.Local().Format("Mon Jan 2 15:04"))
	}
	if detail.Instructions != "" {
		body += "Instructions: " + detail.Instructions + "\n"
	}
	return body
}

func actionVerb(action string) string {
	switch action {
	case "taken":
		return "took"
	case "missed":
		return "missed"
	case "snoozed":
		return "snoozed"
	default:
		return "updated"
	}
}
