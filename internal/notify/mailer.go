package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"retreat/internal/registration"
)

// Defaults for the organiser notification.
const (
	DefaultFrom    = "ELOHIM'S Retreat <onboarding@resend.dev>"
	DefaultTo      = "oraclesofgod.e@gmail.com"
	DefaultSubject = "🕊️ New Registration — ELOHIM'S BIBLE STUDY RETREAT: Renewing of Minds"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, e Email) (string, error)
}

// Mailer renders a submission and sends it to a fixed recipient list.
type Mailer struct {
	renderer *Renderer
	sender   Sender
	from     string
	to       []string
	subject  string
	log      zerolog.Logger
}

// MailerConfig holds the envelope fields.
type MailerConfig struct {
	From    string
	To      []string
	Subject string
}

// NewMailer creates a registration.Notifier backed by sender.
func NewMailer(r *Renderer, s Sender, cfg MailerConfig, log zerolog.Logger) *Mailer {
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if len(cfg.To) == 0 {
		cfg.To = []string{DefaultTo}
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	return &Mailer{
		renderer: r,
		sender:   s,
		from:     cfg.From,
		to:       cfg.To,
		subject:  cfg.Subject,
		log:      log.With().Str("component", "mailer").Logger(),
	}
}

// Notify renders and sends the notification for sub.
func (m *Mailer) Notify(ctx context.Context, sub registration.Submission, photoURL string, at time.Time) error {
	html, err := m.renderer.Render(sub, photoURL, at)
	if err != nil {
		return err
	}
	id, err := m.sender.Send(ctx, Email{From: m.from, To: m.to, Subject: m.subject, HTML: html})
	if err != nil {
		return err
	}
	m.log.Info().Str("message_id", id).Int("recipients", len(m.to)).Msg("notification sent")
	return nil
}
