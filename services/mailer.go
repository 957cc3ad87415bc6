package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"cleaning-service-server/config"
)

// Mailer sends customer-facing emails. Sends are always best-effort: callers
// log failures and move on, they never fail a request over a missed email.
type Mailer interface {
	Send(to, subject, body string) error
}

// NewMailer returns an SMTP mailer when SMTP_HOST is configured, otherwise a
// log-only mailer so local/dev environments work without a mail relay.
func NewMailer() Mailer {
	if config.AppConfig.Mail.SMTPHost == "" {
		log.Println("⚠️  SMTP not configured, emails will be logged only")
		return &logMailer{}
	}
	return &smtpMailer{
		host: config.AppConfig.Mail.SMTPHost,
		port: config.AppConfig.Mail.SMTPPort,
		from: config.AppConfig.Mail.FromAddress,
	}
}

type smtpMailer struct {
	host string
	port string
	from string
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := smtp.SendMail(addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

type logMailer struct{}

func (m *logMailer) Send(to, subject, body string) error {
	log.Printf("📧 [mail] to=%s subject=%q", to, subject)
	return nil
}
