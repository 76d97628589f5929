package mailer

import (
	"context"
	"errors"
	"time"

	"gopkg.in/gomail.v2"

	"wanstay/internal/adapters/observability"
	"wanstay/internal/domain"
)

// sender is the part of gomail.Dialer the mailer needs.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTP struct {
	from   string
	dialer sender
}

// NewSMTP returns a mailer for the given relay. An empty host means mail is
// not configured and is reported as domain.ErrMailNotConfigured.
func NewSMTP(host string, port int, user, pass, from string) (*SMTP, error) {
	if host == "" || from == "" {
		return nil, domain.ErrMailNotConfigured
	}
	return &SMTP{from: from, dialer: gomail.NewDialer(host, port, user, pass)}, nil
}

func (s *SMTP) message(m domain.Mail) *gomail.Message {
	msg := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)
	return msg
}

func (s *SMTP) Send(ctx context.Context, m domain.Mail) error {
	if m.To == "" {
		return errors.New("mailer: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := s.dialer.DialAndSend(s.message(m))
	status := 250
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("smtp", "send", status, time.Since(start))
	return err
}
