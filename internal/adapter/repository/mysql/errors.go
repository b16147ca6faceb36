package mysql

import (
	"errors"
	"strings"

	"credit-ledger/internal/domain/apperr"

	"gorm.io/gorm"
)

// translate maps gorm failures onto the domain error taxonomy; what names the record.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFoundf("%s", what)
	case isDuplicate(err):
		return apperr.Conflictf("%s already exists", what)
	}
	return err
}

// isDuplicate also matches raw driver messages for connections opened without TranslateError.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
