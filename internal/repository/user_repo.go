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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, userID uuid.UUID, fields map[string]any) error
	SetVerified(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, offset, limit int) ([]entity.User, error)
	Count(ctx context.Context) (int64, error)

	FindUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	DeleteUnverified(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update writes only the given columns, so concurrent changes to other
// columns such as is_verified are kept.
func (r *userRepository) Update(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(fields).
		Error)
}

func (r *userRepository) SetVerified(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("is_verified", true).
		Error
}

// Delete removes the user's verification code and then the user in one
// transaction. Missing rows are not an error.
func (r *userRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.VerificationCode{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&entity.User{}).Error
	})
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]entity.User, error) {
	var users []entity.User
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *userRepository) FindUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("is_verified = ? AND created_at < ?", false, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// deleteBatchSize bounds the bind parameters of one cleanup statement well
// below the 65535 the Postgres wire protocol allows.
var deleteBatchSize = 1000

// DeleteUnverified deletes the given users together with their verification
// codes in a single transaction. The predicate is re-checked under a row lock,
// so users verified after the scan are kept. ids are processed in batches of
// deleteBatchSize.
func (r *userRepository) DeleteUnverified(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += deleteBatchSize {
			end := min(start+deleteBatchSize, len(ids))
			n, err := deleteUnverifiedBatch(tx, ids[start:end], cutoff)
			if err != nil {
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func deleteUnverifiedBatch(tx *gorm.DB, ids []uuid.UUID, cutoff time.Time) (int64, error) {
	var locked []uuid.UUID
	err := tx.Model(&entity.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND is_verified = ? AND created_at < ?", ids, false, cutoff).
		Pluck("id", &locked).Error
	if err != nil {
		return 0, err
	}
	if len(locked) == 0 {
		return 0, nil
	}

	if err := tx.Where("user_id IN ?", locked).Delete(&entity.VerificationCode{}).Error; err != nil {
		return 0, err
	}

	result := tx.Where("id IN ?", locked).Delete(&entity.User{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
