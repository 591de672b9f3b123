package domain

import (
	"time"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
)

type Status string

const (
	StatusOpen         Status = "open"
	StatusUnderReview  Status = "under_review"
	StatusAwaitingInfo Status = "awaiting_info"
	StatusResolved     Status = "resolved"
	StatusEscalated    Status = "escalated"
	StatusClosed       Status = "closed"
)

var transitions = map[Status][]Status{
	StatusOpen:         {StatusUnderReview, StatusAwaitingInfo, StatusEscalated, StatusResolved, StatusClosed},
	StatusUnderReview:  {StatusAwaitingInfo, StatusEscalated, StatusResolved, StatusClosed},
	StatusAwaitingInfo: {StatusUnderReview, StatusEscalated, StatusResolved, StatusClosed},
	StatusEscalated:    {StatusUnderReview, StatusEscalated, StatusResolved, StatusClosed},
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusOpen, StatusUnderReview, StatusAwaitingInfo, StatusResolved, StatusEscalated, StatusClosed:
		return s, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) CanTransition(next Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

func ParseSeverity(raw string) (Severity, error) {
	s := Severity(raw)
	if _, ok := severityRank[s]; !ok {
		return "", ErrInvalidSeverity
	}
	return s, nil
}

// AtLeast returns the higher of s and floor.
func (s Severity) AtLeast(floor Severity) Severity {
	if severityRank[s] < severityRank[floor] {
		return floor
	}
	return s
}

// DisputeCase is a conflict between two parties over one booking.
type DisputeCase struct {
	ID            string               `json:"id" gorm:"primaryKey;size:64"`
	BookingID     string               `json:"booking_id" gorm:"size:64;not null;index"`
	ServiceModule servicemodule.Module `json:"service_module" gorm:"size:64;not null;index"`
	PartyA        string               `json:"party_a" gorm:"size:64;not null"`
	PartyB        string               `json:"party_b" gorm:"size:64;not null"`
	Category      string               `json:"category" gorm:"size:64;not null"`
	Severity      Severity             `json:"severity" gorm:"size:16;not null"`
	Status        Status               `json:"status" gorm:"size:32;not null;index"`
	AssignedTo    *string              `json:"assigned_to,omitempty" gorm:"size:128"`
	Resolution    *string              `json:"resolution,omitempty" gorm:"type:text"`
	ResolvedBy    *string              `json:"resolved_by,omitempty" gorm:"size:128"`
	ResolvedAt    *time.Time           `json:"resolved_at,omitempty"`
	EscalatedAt   *time.Time           `json:"escalated_at,omitempty"`
	ClosedAt      *time.Time           `json:"closed_at,omitempty"`
	Version       int64                `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time            `json:"updated_at" gorm:"not null"`
}

func (DisputeCase) TableName() string { return "dispute_cases" }

// ApplyStatus moves the case to next and stamps the change at.
func (d *DisputeCase) ApplyStatus(next Status, at time.Time) {
	d.Status = next
	d.UpdatedAt = at
	switch next {
	case StatusEscalated:
		d.EscalatedAt = &at
	case StatusResolved:
		d.ResolvedAt = &at
	case StatusClosed:
		d.ClosedAt = &at
	}
}

// Parties returns both participants, useful as notification recipients.
func (d *DisputeCase) Parties() []string {
	return []string{d.PartyA, d.PartyB}
}
