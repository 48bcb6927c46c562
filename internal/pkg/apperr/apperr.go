// Package apperr holds the error kinds shared by every feature package.
// Feature errors wrap one of these so handlers can dispatch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidState    = errors.New("invalid_state")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExtended = errors.New("already_extended")
	ErrNotRefunded     = errors.New("not_refunded")
	ErrAlreadyRefunded = errors.New("already_refunded")
	ErrExhausted       = errors.New("exhausted")
	ErrValidation      = errors.New("validation error")
)

// IsUniqueViolation reports whether err comes from a unique index on either store.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicated key")
}

// Translate maps a store error to a kind. Unique violations become ErrConflict,
// gorm.ErrRecordNotFound becomes ErrNotFound, anything else is returned as is.
func Translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	default:
		return err
	}
}
