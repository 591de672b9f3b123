// Package apperror defines the error kinds every governance operation
// reports. Kinds are matched with errors.Is; entity packages wrap them
// with their own sentinels.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not_found")
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrValidation           = errors.New("validation_error")
	ErrIneligibleBookings   = errors.New("ineligible_bookings")
	ErrConfirmationRequired = errors.New("confirmation_required")
	ErrConflict             = errors.New("conflict")
	ErrPreconditionFailed   = errors.New("precondition_failed")
)

// ValidationError carries a field and a message fit for display.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Wrap attaches detail to a kind while keeping it matchable.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Code returns the wire code of the kind err belongs to, or "internal_error".
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrInvalidTransition):
		return ErrInvalidTransition.Error()
	case errors.Is(err, ErrValidation):
		return ErrValidation.Error()
	case errors.Is(err, ErrIneligibleBookings):
		return ErrIneligibleBookings.Error()
	case errors.Is(err, ErrConfirmationRequired):
		return ErrConfirmationRequired.Error()
	case errors.Is(err, ErrConflict):
		return ErrConflict.Error()
	case errors.Is(err, ErrPreconditionFailed):
		return ErrPreconditionFailed.Error()
	default:
		return "internal_error"
	}
}
