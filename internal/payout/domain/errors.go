package domain

import (
	"fmt"

	"github.com/smallbiznis/rendezvous/internal/apperror"
)

var (
	ErrNotFound           = fmt.Errorf("%w: payout request", apperror.ErrNotFound)
	ErrInvalidTransition  = fmt.Errorf("%w: payout request", apperror.ErrInvalidTransition)
	ErrVersionConflict    = fmt.Errorf("%w: payout request was modified concurrently", apperror.ErrConflict)
	ErrDecisionInProgress = fmt.Errorf("%w: another decision on this payout is in progress", apperror.ErrConflict)
	ErrIneligibleBookings = fmt.Errorf("%w: every related booking must be completed", apperror.ErrIneligibleBookings)
	ErrTransferSettled    = fmt.Errorf("%w: payout transfer already settled", apperror.ErrConflict)

	ErrInvalidStatus       = apperror.NewValidation("status", "unknown payout status")
	ErrInvalidDecision     = apperror.NewValidation("decision", "unknown payout decision")
	ErrPayeeRequired       = apperror.NewValidation("payee_id", "payee is required")
	ErrBookingsRequired    = apperror.NewValidation("related_booking_ids", "at least one booking is required")
	ErrDuplicateBooking    = apperror.NewValidation("related_booking_ids", "booking listed more than once")
	ErrBookingNotOwned     = apperror.NewValidation("related_booking_ids", "booking does not belong to the payee")
	ErrBookingModule       = apperror.NewValidation("related_booking_ids", "bookings must belong to the payout module")
	ErrMixedCurrency       = apperror.NewValidation("related_booking_ids", "bookings must share one currency")
	ErrBookingClaimed      = apperror.NewValidation("related_booking_ids", "booking is already claimed by another payout")
	ErrBankAccountRequired = apperror.NewValidation("bank_account_ref", "bank account is required")
	ErrInvalidSortKey      = apperror.NewValidation("sort", "unsupported sort key")
)
