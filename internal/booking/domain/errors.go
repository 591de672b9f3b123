package domain

import (
	"fmt"

	"github.com/smallbiznis/rendezvous/internal/apperror"
)

var (
	ErrNotFound          = fmt.Errorf("%w: booking", apperror.ErrNotFound)
	ErrInvalidTransition = fmt.Errorf("%w: booking", apperror.ErrInvalidTransition)
	ErrVersionConflict   = fmt.Errorf("%w: booking was modified concurrently", apperror.ErrConflict)

	ErrInvalidStatus      = apperror.NewValidation("status", "unknown booking status")
	ErrInvalidCustomer    = apperror.NewValidation("customer_id", "customer is required")
	ErrInvalidProvider    = apperror.NewValidation("provider_id", "provider is required")
	ErrInvalidAmount      = apperror.NewValidation("amount_minor", "amount must be positive")
	ErrInvalidScheduledAt = apperror.NewValidation("scheduled_at", "scheduled time is required")
	ErrInvalidSortKey     = apperror.NewValidation("sort", "unsupported sort key")
)
