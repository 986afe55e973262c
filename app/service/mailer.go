package service

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/vibast-solutions/authsvc/config"
)

// Mailer delivers a single message. Callers in this package always dispatch
// through the async runner and log failures, so a broken mail transport can
// never fail an auth flow.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}

// LogMailer logs messages instead of sending them. Used when no SMTP host
// is configured, so links still show up in development logs.
type LogMailer struct{}

func (LogMailer) Send(to, subject, htmlBody string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}).Info("mail (dev mode, not sent)")
	return nil
}

// NewMailer picks the SMTP transport when one is configured and falls back
// to the log sink otherwise.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if cfg.Configured() {
		return NewSMTPMailer(cfg)
	}
	return LogMailer{}
}
