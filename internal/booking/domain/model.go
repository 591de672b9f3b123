package domain

import (
	"time"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusScheduled, StatusCancelled},
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether next is directly reachable from s.
func (s Status) CanTransition(next Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Booking is a scheduled engagement between a customer and a provider.
type Booking struct {
	ID              string               `json:"id" gorm:"primaryKey;size:64"`
	ServiceModule   servicemodule.Module `json:"service_module" gorm:"size:64;not null;index"`
	CustomerID      string               `json:"customer_id" gorm:"size:64;not null;index"`
	ProviderID      *string              `json:"provider_id,omitempty" gorm:"size:64;index"`
	ScheduledAt     time.Time            `json:"scheduled_at" gorm:"not null"`
	AmountMinor     int64                `json:"amount_minor" gorm:"not null"`
	Currency        string               `json:"currency" gorm:"size:3;not null"`
	Status          Status               `json:"status" gorm:"size:32;not null;index"`
	Attributes      datatypes.JSONMap    `json:"attributes,omitempty"`
	RefundPercent   *int                 `json:"refund_percent,omitempty"`
	StatusChangedAt time.Time            `json:"status_changed_at" gorm:"not null"`
	ConfirmedAt     *time.Time           `json:"confirmed_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	Version         int64                `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time            `json:"updated_at" gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

// ApplyStatus moves the booking to next and stamps the change at.
// Callers check CanTransition first.
func (b *Booking) ApplyStatus(next Status, at time.Time) {
	b.Status = next
	b.StatusChangedAt = at
	b.UpdatedAt = at
	switch next {
	case StatusConfirmed:
		b.ConfirmedAt = &at
	case StatusCompleted:
		b.CompletedAt = &at
	case StatusCancelled:
		b.CancelledAt = &at
	}
}

// PayoutEligible reports whether the booking's earnings may be paid out.
func (b *Booking) PayoutEligible() bool {
	return b.Status == StatusCompleted
}

// RefundAmountMinor applies percent to the booking amount, rounding down.
func (b *Booking) RefundAmountMinor(percent int) int64 {
	return b.AmountMinor * int64(percent) / 100
}

func (b *Booking) IsProvidedBy(payeeID string) bool {
	return b.ProviderID != nil && *b.ProviderID == payeeID
}
