package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"coffeeshop/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationCodeRepository_ConsumeWins(t *testing.T) {
	db, mock, sqlDB := newGormWithMock(t)
	defer sqlDB.Close()
	repo := NewVerificationCodeRepository(db)

	mock.ExpectExec(`UPDATE "verification_codes" SET "consumed_at"=\$1 WHERE .*consumed_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	code := &entity.VerificationCode{UserID: uuid.New(), CodeHash: "h", IssuedAt: time.Now()}
	ok, err := repo.Consume(context.Background(), code, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerificationCodeRepository_ConsumeLoses(t *testing.T) {
	db, mock, sqlDB := newGormWithMock(t)
	defer sqlDB.Close()
	repo := NewVerificationCodeRepository(db)

	mock.ExpectExec(`UPDATE "verification_codes"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	code := &entity.VerificationCode{UserID: uuid.New(), CodeHash: "h", IssuedAt: time.Now()}
	ok, err := repo.Consume(context.Background(), code, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerificationCodeRepository_ConsumeError(t *testing.T) {
	db, mock, sqlDB := newGormWithMock(t)
	defer sqlDB.Close()
	repo := NewVerificationCodeRepository(db)

	mock.ExpectExec(`UPDATE "verification_codes"`).
		WillReturnError(errors.New("db down"))

	code := &entity.VerificationCode{UserID: uuid.New(), CodeHash: "h", IssuedAt: time.Now()}
	_, err := repo.Consume(context.Background(), code, time.Now())
	assert.ErrorContains(t, err, "db down")
}

func TestVerificationCodeRepository_FindByUserID(t *testing.T) {
	db, mock, sqlDB := newGormWithMock(t)
	defer sqlDB.Close()
	repo := NewVerificationCodeRepository(db)

	userID := uuid.New()
	issued := time.Now().UTC().Truncate(time.Microsecond)
	mock.ExpectQuery(`SELECT \* FROM "verification_codes" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "code_hash", "issued_at", "consumed_at"}).
			AddRow(userID.String(), "h", issued, nil))

	code, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, code)
	assert.Equal(t, "h", code.CodeHash)
	assert.False(t, code.Consumed())

	mock.ExpectQuery(`SELECT \* FROM "verification_codes"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	missing, err := repo.FindByUserID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestVerificationCodeRepository_RecordFailureIncrements(t *testing.T) {
	db, mock, sqlDB := newGormWithMock(t)
	defer sqlDB.Close()
	repo := NewVerificationCodeRepository(db)

	mock.ExpectExec(`UPDATE "verification_codes" SET "failed_attempts"=failed_attempts \+ 1 WHERE \(?user_id = \$1 AND code_hash = \$2 AND issued_at = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	code := &entity.VerificationCode{UserID: uuid.New(), CodeHash: "h", IssuedAt: time.Now()}
	require.NoError(t, repo.RecordFailure(context.Background(), code))
	require.NoError(t, mock.ExpectationsWereMet())
}
