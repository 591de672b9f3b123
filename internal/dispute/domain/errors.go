package domain

import (
	"fmt"

	"github.com/smallbiznis/rendezvous/internal/apperror"
)

var (
	ErrNotFound          = fmt.Errorf("%w: dispute case", apperror.ErrNotFound)
	ErrInvalidTransition = fmt.Errorf("%w: dispute case", apperror.ErrInvalidTransition)
	ErrVersionConflict   = fmt.Errorf("%w: dispute case was modified concurrently", apperror.ErrConflict)

	// ErrBookingNotServiced blocks resolution while the booking has not happened yet.
	ErrBookingNotServiced = fmt.Errorf("%w: booking has not been serviced", apperror.ErrPreconditionFailed)

	ErrInvalidStatus     = apperror.NewValidation("status", "unknown dispute status")
	ErrInvalidSeverity   = apperror.NewValidation("severity", "unknown dispute severity")
	ErrResolutionMissing = apperror.NewValidation("resolution", "resolution text is required")
	ErrPartiesRequired   = apperror.NewValidation("party_a", "both parties are required")
	ErrPartiesIdentical  = apperror.NewValidation("party_b", "parties must differ")
	ErrCategoryRequired  = apperror.NewValidation("category", "category is required")
	ErrAssigneeRequired  = apperror.NewValidation("assigned_to", "assignee is required")
	ErrInvalidSortKey    = apperror.NewValidation("sort", "unsupported sort key")
)
