package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

var ErrSenderNotConfigured = errors.New("email sender not configured")

// ResendCodeSender delivers verification codes through the Resend API.
type ResendCodeSender struct {
	From string
	send func(request *resend.SendEmailRequest) error
}

func NewResendCodeSender(apiKey string, from string) *ResendCodeSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendCodeSender{}
	}
	client := resend.NewClient(apiKey)
	return &ResendCodeSender{
		From: from,
		send: func(request *resend.SendEmailRequest) error {
			_, err := client.Emails.Send(request)
			return err
		},
	}
}

func (s *ResendCodeSender) SendVerificationCode(ctx context.Context, email string, code string) error {
	if s.send == nil {
		return ErrSenderNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, html, text := verificationMessage(code)
	err := s.send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{email},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("resend verification email: %w", err)
	}
	return nil
}

func verificationMessage(code string) (subject string, html string, text string) {
	subject = "Your Coffee Shop verification code"
	html = fmt.Sprintf("<p>Use this code to verify your email:</p><p><strong>%s</strong></p>", code)
	text = fmt.Sprintf("Your verification code: %s", code)
	return subject, html, text
}
