package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hala u Beogradu  ", "hala-u-beogradu"},
		{"Čačak, Šabac 2024!", "cacak-sabac-2024"},
		{"already-a-slug", "already-a-slug"},
		{"--Beton__MB 30--", "beton-mb-30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyFallbackAndLength(t *testing.T) {
	s := Slugify("!!!")
	assert.True(t, strings.HasPrefix(s, "item-"), s)
	assert.NotEqual(t, s, Slugify("!!!"))

	long := Slugify(strings.Repeat("a", 300))
	assert.Len(t, long, MaxSlugLen)
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func strPtr(s string) *string { return &s }

func newTestNotifier(m Mailer, to string) *Notifier {
	n := NewNotifier(m, config.Mail{To: to, From: "sajt@prevozkop.rs", FromName: "Prevozkop sajt"})
	n.now = func() time.Time { return time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC) }
	return n
}

func TestNotifyBuildsMessage(t *testing.T) {
	mailer := &fakeMailer{}
	n := newTestNotifier(mailer, "office@prevozkop.rs, prodaja@prevozkop.rs")

	ok := n.Notify(context.Background(), &models.Order{
		ID:           12,
		Name:         "Marko Marković",
		Email:        "marko@example.com",
		Subject:      strPtr("Ponuda\r\nBcc: evil@example.com"),
		ConcreteType: strPtr("MB30"),
		Message:      "Treba mi 10 kubika.",
	})
	require.True(t, ok)
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, []string{"office@prevozkop.rs", "prodaja@prevozkop.rs"}, msg.To)
	assert.Equal(t, "sajt@prevozkop.rs", msg.From)
	assert.Equal(t, "marko@example.com", msg.ReplyTo)
	assert.Equal(t, "Nova poruka sa kontakt forme: PonudaBcc: evil@example.com", msg.Subject)
	assert.NotContains(t, msg.Subject, "\n")

	assert.Contains(t, msg.Text, "Primili ste novu poruku")
	assert.Contains(t, msg.Text, "Vreme: 2025-05-10 09:30:00\n")
	assert.Contains(t, msg.Text, "Ime i prezime: Marko Marković\n")
	assert.Contains(t, msg.Text, "Telefon: -\n")
	assert.Contains(t, msg.Text, "Vrsta betona: MB30\n")
	assert.True(t, strings.HasSuffix(msg.Text, "Poruka:\nTreba mi 10 kubika.\n"))
}

func TestNotifyDefaults(t *testing.T) {
	mailer := &fakeMailer{}
	n := newTestNotifier(mailer, "office@prevozkop.rs")

	require.True(t, n.Notify(context.Background(), &models.Order{
		Name:    "Jovana",
		Email:   "not-an-email",
		Message: "Zdravo",
	}))
	msg := mailer.sent[0]
	assert.Equal(t, "Nova poruka sa kontakt forme: Jovana", msg.Subject)
	assert.Empty(t, msg.ReplyTo)
	assert.Contains(t, msg.Text, "Vrsta betona: Nije izabrano\n")
	assert.Contains(t, msg.Text, "Naslov: -\n")
}

func TestNotifyWithoutRecipientOrOnFailure(t *testing.T) {
	mailer := &fakeMailer{}
	order := &models.Order{Name: "A", Email: "a@example.com", Message: "m"}

	assert.False(t, newTestNotifier(mailer, "").Notify(context.Background(), order))
	assert.Empty(t, mailer.sent)

	failing := &fakeMailer{err: errors.New("connection refused")}
	assert.False(t, newTestNotifier(failing, "office@prevozkop.rs").Notify(context.Background(), order))
}

func TestResendMailer(t *testing.T) {
	var got ResendEmailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test")
	m.endpoint = srv.URL

	err := m.Send(context.Background(), Message{
		To:       []string{"office@prevozkop.rs"},
		From:     "sajt@prevozkop.rs",
		FromName: "Prevozkop",
		ReplyTo:  "kupac@example.com",
		Subject:  "Nova poruka",
		Text:     "telo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, `"Prevozkop" <sajt@prevozkop.rs>`, got.From)
	assert.Equal(t, "kupac@example.com", got.ReplyTo)
	assert.Equal(t, "telo", got.Text)
}

func TestResendMailerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test")
	m.endpoint = srv.URL

	err := m.Send(context.Background(), Message{To: []string{"a@example.com"}, From: "b@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from")
}

func TestSMTPBuildRaw(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 587, "", "")
	m.now = func() time.Time { return time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC) }

	raw := string(m.buildRaw(Message{
		To:       []string{"office@prevozkop.rs"},
		From:     "sajt@prevozkop.rs",
		FromName: "Prevozkop sajt",
		ReplyTo:  "kupac@example.com\r\nBcc: x@example.com",
		Subject:  "Nova poruka: Čačak",
		Text:     "red 1\nred 2\n",
	}))

	head, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, head, `From: "Prevozkop sajt" <sajt@prevozkop.rs>`)
	assert.Contains(t, head, "Reply-To: kupac@example.comBcc: x@example.com\r\n")
	assert.Contains(t, head, "Subject: =?utf-8?q?")
	assert.NotContains(t, head, "\r\nBcc:")
	assert.Equal(t, "red 1\r\nred 2\r\n", body)
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(config.Mail{Driver: "log"})
	require.NoError(t, err)
	assert.IsType(t, LogMailer{}, m)

	m, err = NewMailer(config.Mail{Driver: "smtp", Host: "localhost", Port: 25})
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = NewMailer(config.Mail{Driver: "resend"})
	assert.Error(t, err)

	_, err = NewMailer(config.Mail{Driver: "pigeon"})
	assert.Error(t, err)
}
