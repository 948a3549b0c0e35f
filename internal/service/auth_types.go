package service

import (
	"context"
	"time"

	"coffeeshop/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

// CodeSender delivers a verification code to the owner of an email address.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email string, code string) error
}

// CodeGenerator produces the plaintext of a new verification code.
type CodeGenerator interface {
	Generate() (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type TokenIssuer interface {
	IssueAccessToken(userID string, role string) (string, time.Duration, error)
	IssueRefreshToken(userID string) (string, time.Duration, error)
	Validate(token string, expected utils.TokenType) (*utils.Claims, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
