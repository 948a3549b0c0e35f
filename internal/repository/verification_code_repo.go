package repository

import (
	"context"
	"errors"
	"time"

	"coffeeshop/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationCodeRepository interface {
	Upsert(ctx context.Context, code *entity.VerificationCode) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.VerificationCode, error)
	Consume(ctx context.Context, code *entity.VerificationCode, at time.Time) (bool, error)
	RecordFailure(ctx context.Context, code *entity.VerificationCode) error
}

type verificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

// Upsert replaces the user's code and clears its consumed mark and failure count.
func (r *verificationCodeRepository) Upsert(ctx context.Context, code *entity.VerificationCode) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code_hash", "issued_at", "consumed_at", "failed_attempts"}),
		}).
		Create(code).Error
}

func (r *verificationCodeRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.VerificationCode, error) {
	var code entity.VerificationCode
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&code).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// Consume marks the code consumed only if it is still the same unconsumed
// issuance. It reports false when another caller got there first or the code
// was re-issued in between.
func (r *verificationCodeRepository) Consume(ctx context.Context, code *entity.VerificationCode, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.VerificationCode{}).
		Where("user_id = ? AND code_hash = ? AND issued_at = ? AND consumed_at IS NULL",
			code.UserID, code.CodeHash, code.IssuedAt).
		Update("consumed_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RecordFailure counts a wrong submission against the given issuance. A code
// re-issued in between is left alone.
func (r *verificationCodeRepository) RecordFailure(ctx context.Context, code *entity.VerificationCode) error {
	return r.db.WithContext(ctx).
		Model(&entity.VerificationCode{}).
		Where("user_id = ? AND code_hash = ? AND issued_at = ?", code.UserID, code.CodeHash, code.IssuedAt).
		UpdateColumn("failed_attempts", gorm.Expr("failed_attempts + 1")).
		Error
}
