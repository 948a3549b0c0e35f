package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogCodeSender writes codes to the application log. Meant for local runs.
type LogCodeSender struct {
	Logger logrus.FieldLogger
}

func (s LogCodeSender) SendVerificationCode(_ context.Context, email string, code string) error {
	loggerOrDefault(s.Logger).WithFields(logrus.Fields{
		"email": email,
		"code":  code,
	}).Info("verification code issued")
	return nil
}
