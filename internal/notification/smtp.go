package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"statusping/internal/config"
)

// SMTPSender delivers alerts as multipart/alternative email over SMTP.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender creates a new SMTPSender
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send builds and sends one dual-format email.
func (s *SMTPSender) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	const boundary = "statusping-alternative"

	msg := fmt.Sprintf("From: %s\r\n", s.cfg.FromEmail)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += fmt.Sprintf("Content-Type: multipart/alternative; boundary=%s\r\n", boundary)
	msg += "\r\n"
	msg += fmt.Sprintf("--%s\r\n", boundary)
	msg += "Content-Type: text/plain; charset=UTF-8\r\n\r\n"
	msg += textBody + "\r\n"
	msg += fmt.Sprintf("--%s\r\n", boundary)
	msg += "Content-Type: text/html; charset=UTF-8\r\n\r\n"
	msg += htmlBody + "\r\n"
	msg += fmt.Sprintf("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
