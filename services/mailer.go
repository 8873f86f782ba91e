package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/prevozkop/backend/config"
	"github.com/rs/zerolog/log"
)

// Message is a plain-text email.
type Message struct {
	To       []string
	From     string
	FromName string
	ReplyTo  string
	Subject  string
	Text     string
}

// Mailer delivers a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer picks the transport named by MAIL_DRIVER.
func NewMailer(cfg config.Mail) (Mailer, error) {
	switch cfg.Driver {
	case "", "smtp":
		return NewSMTPMailer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required for MAIL_DRIVER=resend")
		}
		return NewResendMailer(cfg.ResendAPIKey), nil
	case "log":
		return LogMailer{}, nil
	}
	return nil, fmt.Errorf("unknown MAIL_DRIVER %q", cfg.Driver)
}

// LogMailer writes messages to the log instead of sending them. Useful locally.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().
		Strs("to", msg.To).
		Str("replyTo", msg.ReplyTo).
		Str("subject", msg.Subject).
		Msg(msg.Text)
	return nil
}

// headerValue strips line breaks so user input cannot inject headers.
func headerValue(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", "", "\n", "").Replace(s))
}
