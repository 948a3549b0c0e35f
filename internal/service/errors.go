package service

import (
	"errors"
	"fmt"

	"coffeeshop/internal/utils"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrExpiredCode        = errors.New("verification code expired")
	ErrAlreadyUsedCode    = errors.New("verification code already used")
	ErrUnauthorized       = errors.New("not allowed")
	ErrCannotDeleteSelf   = errors.New("cannot delete your own account")
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrInvalidToken   = utils.ErrInvalidToken
	ErrTokenExpired   = utils.ErrTokenExpired
	ErrWrongTokenType = utils.ErrWrongTokenType
)

// storageError tags a repository failure so callers can match both the
// category and the driver error.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
