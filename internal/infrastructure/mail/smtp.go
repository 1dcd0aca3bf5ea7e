// Package mail delivers one-time passcodes over a plain SMTP relay.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Config captures the settings for the outbound SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer implements ports.Mailer. One message per code, no templating.
type SMTPMailer struct {
	addr string
	host string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	m := &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host: cfg.Host,
		from: cfg.From,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m
}

// SendOTP delivers the code to email. net/smtp has no context support, so
// the send runs in a goroutine and the call returns early on cancellation;
// an abandoned send finishes in the background.
func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	msg := m.message(email, code)

	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(m.addr, m.auth, m.from, []string{email}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send otp mail: %w", err)
		}
		return nil
	}
}

func (m *SMTPMailer) message(email, code string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	b.WriteString("Subject: Your verification code\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "Your one-time passcode is %s. It expires in 2 minutes.\r\n", code)
	return []byte(b.String())
}
