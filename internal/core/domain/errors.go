package domain

import (
	"errors"
	"fmt"
)

// Root error classes. Every error returned by the core wraps exactly one of them.
var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrIllegalTransition      = errors.New("illegal state transition")
	ErrIllegalState           = errors.New("illegal state")
	ErrForbidden              = errors.New("access forbidden")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrConflict               = errors.New("conflict")
)

var (
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrOfferingNotFound = fmt.Errorf("service offering %w", ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("service request %w", ErrNotFound)

	ErrAccountExists       = fmt.Errorf("account already exists: %w", ErrConflict)
	ErrIdempotencyInFlight = fmt.Errorf("idempotency key is still in use: %w", ErrConflict)
	ErrAlreadyRated        = fmt.Errorf("request already rated: %w", ErrIllegalState)

	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	ErrTokenExpired       = fmt.Errorf("token expired: %w", ErrUnauthenticated)
	ErrTokenInvalid       = fmt.Errorf("token invalid: %w", ErrUnauthenticated)
)

// Validationf builds an ErrValidation carrying a field-level message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
