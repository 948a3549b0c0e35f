package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SecurityAction string

const (
	Signup         SecurityAction = "signup"
	EmailVerified  SecurityAction = "email_verified"
	CodeResent     SecurityAction = "code_resent"
	LoginSuccess   SecurityAction = "login_success"
	LoginFailed    SecurityAction = "login_failed"
	TokenRefreshed SecurityAction = "token_refreshed"
	UserUpdated    SecurityAction = "user_updated"
	UserDeleted    SecurityAction = "user_deleted"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
