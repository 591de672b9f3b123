package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesKind(t *testing.T) {
	err := NewValidation("fixed_price", "price cannot be negative")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "price cannot be negative", err.Error())

	var vErr *ValidationError
	wrapped := fmt.Errorf("update price config: %w", err)
	if assert.True(t, errors.As(wrapped, &vErr)) {
		assert.Equal(t, "fixed_price", vErr.Field)
	}
}

func TestCode(t *testing.T) {
	cases := map[string]error{
		"ok":                    nil,
		"not_found":             Wrap(ErrNotFound, "booking %s", "B1"),
		"invalid_transition":    Wrap(ErrInvalidTransition, "scheduled -> pending"),
		"validation_error":      NewValidation("x", "bad"),
		"ineligible_bookings":   ErrIneligibleBookings,
		"confirmation_required": ErrConfirmationRequired,
		"conflict":              fmt.Errorf("save: %w", ErrConflict),
		"precondition_failed":   ErrPreconditionFailed,
		"internal_error":        errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Code(err))
	}
}
