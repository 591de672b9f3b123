package domain

import (
	"time"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusOnHold   Status = "on_hold"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusApproved, StatusRejected, StatusOnHold:
		return s, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionHold    Decision = "hold"
	DecisionRelease Decision = "release"
)

func ParseDecision(raw string) (Decision, error) {
	switch d := Decision(raw); d {
	case DecisionApprove, DecisionReject, DecisionHold, DecisionRelease:
		return d, nil
	}
	return "", ErrInvalidDecision
}

// Target is the status a successful decision lands in.
func (d Decision) Target() Status {
	switch d {
	case DecisionApprove:
		return StatusApproved
	case DecisionReject:
		return StatusRejected
	case DecisionHold:
		return StatusOnHold
	default:
		return StatusPending
	}
}

// AllowedFrom reports whether d may be applied to a request in s.
func (d Decision) AllowedFrom(s Status) bool {
	switch d {
	case DecisionApprove, DecisionReject:
		return s == StatusPending || s == StatusOnHold
	case DecisionHold:
		return s == StatusPending
	case DecisionRelease:
		return s == StatusOnHold
	}
	return false
}

// Irreversible decisions need an acknowledged impact preview.
func (d Decision) Irreversible() bool {
	return d == DecisionApprove || d == DecisionReject
}

// LeavesPending decisions require every related booking to be completed.
func (d Decision) LeavesPending() bool {
	return d != DecisionRelease
}

// TransferStatus tracks the funds movement of an approved payout. The
// transfer runs after the approval commits, so an approved payout can sit
// in TransferPending until the provider answers.
type TransferStatus string

const (
	TransferNone      TransferStatus = ""
	TransferPending   TransferStatus = "pending"
	TransferInitiated TransferStatus = "initiated"
	TransferFailed    TransferStatus = "failed"
)

// PayoutRequest is a payee's claim on the earnings of completed bookings.
type PayoutRequest struct {
	ID                string                      `json:"id" gorm:"primaryKey;size:64"`
	PayeeID           string                      `json:"payee_id" gorm:"size:64;not null;index"`
	ServiceModule     servicemodule.Module        `json:"service_module" gorm:"size:64;not null;index"`
	AmountMinor       int64                       `json:"amount_minor" gorm:"not null"`
	Currency          string                      `json:"currency" gorm:"size:3;not null"`
	RelatedBookingIDs datatypes.JSONSlice[string] `json:"related_booking_ids" gorm:"not null"`
	Status            Status                      `json:"status" gorm:"size:32;not null;index"`
	BankAccountRef    string                      `json:"bank_account_ref" gorm:"size:64;not null"`
	RequestedAt       time.Time                   `json:"requested_at" gorm:"not null"`
	DecidedAt         *time.Time                  `json:"decided_at,omitempty"`
	DecidedBy         *string                     `json:"decided_by,omitempty" gorm:"size:128"`
	DecisionNote      *string                     `json:"decision_note,omitempty" gorm:"type:text"`
	TransferRef       *string                     `json:"transfer_ref,omitempty" gorm:"size:64"`
	TransferStatus    TransferStatus              `json:"transfer_status,omitempty" gorm:"size:32;not null;default:'';index"`
	Version           int64                       `json:"version" gorm:"not null;default:1"`
	CreatedAt         time.Time                   `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time                   `json:"updated_at" gorm:"not null"`
}

func (PayoutRequest) TableName() string { return "payout_requests" }

// Claims reports whether bookingID is part of this request.
func (p *PayoutRequest) Claims(bookingID string) bool {
	for _, id := range p.RelatedBookingIDs {
		if id == bookingID {
			return true
		}
	}
	return false
}
