package service

import (
	"context"
	"time"

	"coffeeshop/internal/entity"
	"coffeeshop/internal/repository"
	"coffeeshop/internal/utils"

	"github.com/google/uuid"
)

const (
	DefaultVerificationCodeTTL = 24 * time.Hour

	// MaxCodeAttempts wrong submissions invalidate a code until a new one is issued.
	MaxCodeAttempts = 5
)

// VerificationService issues and checks single-use email verification codes.
// Only the hash of a code is stored.
type VerificationService struct {
	codes     repository.VerificationCodeRepository
	generator CodeGenerator
	clock     Clock
	ttl       time.Duration
}

func NewVerificationService(
	codes repository.VerificationCodeRepository,
	generator CodeGenerator,
	clock Clock,
	ttl time.Duration,
) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultVerificationCodeTTL
	}
	return &VerificationService{
		codes:     codes,
		generator: generator,
		clock:     clock,
		ttl:       ttl,
	}
}

// Issue creates a new code for the user, replacing any outstanding one.
func (s *VerificationService) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := s.generator.Generate()
	if err != nil {
		return "", err
	}

	record := &entity.VerificationCode{
		UserID:   userID,
		CodeHash: utils.HashToken(code),
		IssuedAt: s.now(),
	}
	if err := s.codes.Upsert(ctx, record); err != nil {
		return "", storageError(err)
	}
	return code, nil
}

// Validate consumes the user's code if submitted matches it. The caller marks
// the user verified afterwards.
func (s *VerificationService) Validate(ctx context.Context, userID uuid.UUID, submitted string) error {
	record, err := s.codes.FindByUserID(ctx, userID)
	if err != nil {
		return storageError(err)
	}
	if record == nil || record.FailedAttempts >= MaxCodeAttempts {
		return ErrInvalidCode
	}
	if !utils.HashesEqual(record.CodeHash, utils.HashToken(submitted)) {
		if !record.Consumed() {
			if err := s.codes.RecordFailure(ctx, record); err != nil {
				return storageError(err)
			}
		}
		return ErrInvalidCode
	}
	if record.Consumed() {
		return ErrAlreadyUsedCode
	}

	now := s.now()
	if record.ExpiredAt(now, s.ttl) {
		return ErrExpiredCode
	}

	consumed, err := s.codes.Consume(ctx, record, now)
	if err != nil {
		return storageError(err)
	}
	if !consumed {
		return ErrAlreadyUsedCode
	}
	return nil
}

func (s *VerificationService) TTL() time.Duration {
	return s.ttl
}

// now is truncated to what Postgres timestamptz keeps, so the issued_at read
// back equals the one written.
func (s *VerificationService) now() time.Time {
	var now time.Time
	if s.clock == nil {
		now = time.Now()
	} else {
		now = s.clock.Now()
	}
	return now.UTC().Truncate(time.Microsecond)
}
