package service

import (
	"context"
	"encoding/json"

	"coffeeshop/internal/entity"
	"coffeeshop/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// securityRecorder writes audit entries. A failed write is logged and never
// fails the request that triggered it.
type securityRecorder struct {
	logs   repository.SecurityLogRepository
	logger logrus.FieldLogger
}

func (r securityRecorder) record(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) {
	if r.logs == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			r.logger.WithError(err).WithField("action", action).Warn("security log metadata dropped")
		} else {
			payload = datatypes.JSON(bytes)
		}
	}

	entry := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := r.logs.Log(ctx, entry); err != nil {
		r.logger.WithError(err).WithField("action", action).Warn("security log write failed")
	}
}

func loggerOrDefault(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
