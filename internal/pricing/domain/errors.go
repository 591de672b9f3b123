package domain

import (
	"fmt"

	"github.com/smallbiznis/rendezvous/internal/apperror"
)

var (
	ErrNotFound           = fmt.Errorf("%w: price config", apperror.ErrNotFound)
	ErrVersionConflict    = fmt.Errorf("%w: price config was modified concurrently", apperror.ErrConflict)
	ErrAlreadyProvisioned = fmt.Errorf("%w: price config already exists for module", apperror.ErrConflict)
	ErrCounterpartyAck    = fmt.Errorf("%w: enabling counterparty pricing must be acknowledged", apperror.ErrConfirmationRequired)

	ErrPriceEmpty      = apperror.NewValidation("fixed_price", "price cannot be empty or zero")
	ErrPriceNegative   = apperror.NewValidation("fixed_price", "price cannot be negative")
	ErrPriceNotFinite  = apperror.NewValidation("fixed_price", "price must be a finite number")
	ErrCommissionRange = apperror.NewValidation("platform_commission_percent", "commission must be between 0% and 100%")
	ErrInvalidCurrency = apperror.NewValidation("currency", "currency must be a 3-letter ISO code")
)
