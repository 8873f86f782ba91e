package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/models"
	"github.com/rs/zerolog/log"
)

const (
	subjectPrefix    = "Nova poruka sa kontakt forme: "
	noConcreteChosen = "Nije izabrano"
)

// Notifier emails the site owner about a new lead.
type Notifier struct {
	mailer   Mailer
	to       []string
	from     string
	fromName string
	validate *validator.Validate
	now      func() time.Time
}

func NewNotifier(mailer Mailer, cfg config.Mail) *Notifier {
	var to []string
	for _, addr := range strings.Split(cfg.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &Notifier{
		mailer:   mailer,
		to:       to,
		from:     cfg.From,
		fromName: cfg.FromName,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Notify sends the lead to MAIL_TO. It reports whether the message was handed
// to the transport; failures are logged and never surface to the caller.
func (n *Notifier) Notify(ctx context.Context, order *models.Order) bool {
	if len(n.to) == 0 {
		log.Debug().Uint("orderId", order.ID).Msg("MAIL_TO not configured, skipping order notification")
		return false
	}

	msg := Message{
		To:       n.to,
		From:     n.from,
		FromName: n.fromName,
		Subject:  n.subject(order),
		Text:     n.body(order),
	}
	if err := n.validate.Var(order.Email, "required,email"); err == nil {
		msg.ReplyTo = headerValue(order.Email)
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		log.Error().Err(err).Uint("orderId", order.ID).Msg("Failed to send order notification")
		return false
	}
	return true
}

func (n *Notifier) subject(order *models.Order) string {
	topic := deref(order.Subject)
	if topic == "" {
		topic = order.Name
	}
	return headerValue(subjectPrefix + topic)
}

func (n *Notifier) body(order *models.Order) string {
	concrete := deref(order.ConcreteType)
	if concrete == "" {
		concrete = noConcreteChosen
	}

	var b strings.Builder
	b.WriteString("Primili ste novu poruku sa vaše kontakt forme na sajtu\n")
	b.WriteString(strings.Repeat("=", 45) + "\n\n")
	b.WriteString("Vreme: " + n.now().Format("2006-01-02 15:04:05") + "\n")
	b.WriteString("Ime i prezime: " + order.Name + "\n")
	b.WriteString("Email: " + order.Email + "\n")
	b.WriteString("Telefon: " + orDash(deref(order.Phone)) + "\n")
	b.WriteString("Naslov: " + orDash(deref(order.Subject)) + "\n")
	b.WriteString("Vrsta betona: " + concrete + "\n")
	b.WriteString("Poruka:\n" + order.Message + "\n")
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
