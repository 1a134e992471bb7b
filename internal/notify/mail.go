package notify

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrMailDisabled = errors.New("notify: smtp not configured")

// SMTPConfig is read from the environment; an empty host disables mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func SMTPFromEnv() SMTPConfig {
	cfg := SMTPConfig{
		Host:     strings.TrimSpace(os.Getenv("MEDMINDER_SMTP_HOST")),
		Port:     587,
		Username: os.Getenv("MEDMINDER_SMTP_USERNAME"),
		Password: os.Getenv("MEDMINDER_SMTP_PASSWORD"),
		From:     strings.TrimSpace(os.Getenv("MEDMINDER_SMTP_FROM")),
		Timeout:  30 * time.Second,
	}
	if raw := os.Getenv("MEDMINDER_SMTP_PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	return cfg
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends plain-text mail over SMTP. The dial-and-send runs in a
// goroutine so the context deadline is honored even while dialing.
type Mailer struct {
	cfg SMTPConfig
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled() {
		return ErrMailDisabled
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("notify: message without recipient")
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.cfg.From)
	mail.SetHeader("To", strings.TrimSpace(msg.To))
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/plain", msg.Body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(mail)
	}()

	wait := m.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until > 0 && until < wait {
			wait = until
		}
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}
