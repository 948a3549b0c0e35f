package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrDuplicate = errors.New("duplicate record")

// translate maps driver level errors that callers branch on. The connection
// must be opened with gorm.Config{TranslateError: true}.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
