package entity

import (
	"time"

	"github.com/google/uuid"
)

// VerificationCode holds the single outstanding email code of a user. Issuing
// a new code overwrites the row, so at most one code per user can validate.
type VerificationCode struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CodeHash       string    `gorm:"type:text;not null"`
	IssuedAt       time.Time `gorm:"not null"`
	ConsumedAt     *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
}

func (c *VerificationCode) Consumed() bool {
	return c.ConsumedAt != nil
}

func (c *VerificationCode) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return !now.Before(c.IssuedAt.Add(ttl))
}
