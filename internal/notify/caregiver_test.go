package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medminder-app/medminder/internal/storage"
)

type stubSettings struct {
	settings storage.Settings
	err      error
}

func (s stubSettings) GetSettings(context.Context) (storage.Settings, error) {
	return s.settings, s.err
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func sampleDetail() storage.DoseDetail {
	return storage.DoseDetail{
		Dose: storage.Dose{
			ID:          "dose-1",
			Status:      "missed",
			ScheduledAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		},
		MedicationName:   "Metformin",
		MedicationDosage: "500mg",
		Instructions:     "Take with food",
	}
}

func TestCaregiverSendsWhenEnabled(t *testing.T) {
	mailer := &recordingMailer{}
	c := NewCaregiver(stubSettings{settings: storage.Settings{
		UserName:         "Margaret",
		CaregiverEnabled: true,
		CaregiverEmail:   "daughter@example.com",
	}}, mailer, nil)

	c.DoseEvent(context.Background(), "missed", sampleDetail())

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "daughter@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "Missed dose") || !strings.Contains(msg.Subject, "Metformin") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Margaret") || !strings.Contains(msg.Body, "500mg") {
		t.Fatalf("body missing patient or dosage: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "Take with food") {
		t.Fatalf("body missing instructions: %q", msg.Body)
	}
}

func TestCaregiverSkipsWhenDisabled(t *testing.T) {
	mailer := &recordingMailer{}
	c := NewCaregiver(stubSettings{settings: storage.Settings{
		CaregiverEnabled: false,
		CaregiverEmail:   "daughter@example.com",
	}}, mailer, nil)

	c.DoseEvent(context.Background(), "missed", sampleDetail())
	if len(mailer.sent) != 0 {
		t.Fatalf("disabled caregiver still mailed: %d", len(mailer.sent))
	}
}

func TestCaregiverSkipsWithoutAddress(t *testing.T) {
	mailer := &recordingMailer{}
	c := NewCaregiver(stubSettings{settings: storage.Settings{CaregiverEnabled: true}}, mailer, nil)

	c.DoseEvent(context.Background(), "taken", sampleDetail())
	if len(mailer.sent) != 0 {
		t.Fatalf("caregiver without address still mailed: %d", len(mailer.sent))
	}
}

func TestCaregiverSwallowsSendFailure(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	c := NewCaregiver(stubSettings{settings: storage.Settings{
		CaregiverEnabled: true,
		CaregiverEmail:   "daughter@example.com",
	}}, mailer, nil)

	// Must not panic or propagate anything.
	c.DoseEvent(context.Background(), "snoozed", sampleDetail())
}

func TestMailerRequiresConfiguration(t *testing.T) {
	m := NewMailer(SMTPConfig{})
	err := m.Send(context.Background(), Message{To: "someone@example.com", Subject: "x", Body: "y"})
	if !errors.Is(err, ErrMailDisabled) {
		t.Fatalf("expected ErrMailDisabled, got %v", err)
	}
}

func TestSMTPConfigEnabled(t *testing.T) {
	if (SMTPConfig{Host: "smtp.example.com"}).Enabled() {
		t.Fatal("host without from reported enabled")
	}
	if !(SMTPConfig{Host: "smtp.example.com", From: "medminder@example.com"}).Enabled() {
		t.Fatal("complete config reported disabled")
	}
}
