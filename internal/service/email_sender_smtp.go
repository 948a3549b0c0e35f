package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(messages ...*gomail.Message) error
}

// SMTPCodeSender delivers verification codes over plain SMTP.
type SMTPCodeSender struct {
	dialer mailDialer
	from   string
}

func NewSMTPCodeSender(host string, port int, username string, password string, from string) *SMTPCodeSender {
	return &SMTPCodeSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPCodeSender) SendVerificationCode(ctx context.Context, email string, code string) error {
	if s.dialer == nil || s.from == "" {
		return ErrSenderNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, html, text := verificationMessage(code)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
