// Package mailer delivers confirmation codes out-of-band. Delivery is
// best-effort: callers log failures and never surface them to the client.
package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/kratovich/reviewdb/internal/config"
	"github.com/kratovich/reviewdb/pkg/logger"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(to, subject, body string) error
}

// New selects an implementation from config: SMTP when a host is configured,
// otherwise a log-only mailer for development.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
	}
}

type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body,
	)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg))
}

// LogMailer writes messages to the application log instead of sending them.
type LogMailer struct{}

func (m *LogMailer) Send(to, subject, body string) error {
	logger.Log.Info("Mail delivery (log only)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
