package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionBookingCreated          ActionType = "BookingCreated"
	ActionBookingProviderAssigned ActionType = "BookingProviderAssigned"
	ActionBookingStatusChanged    ActionType = "BookingStatusChanged"
	ActionDisputeOpened           ActionType = "DisputeOpened"
	ActionDisputeAssigned         ActionType = "DisputeAssigned"
	ActionDisputeStatusChanged    ActionType = "DisputeStatusChanged"
	ActionDisputeResolved         ActionType = "DisputeResolved"
	ActionDisputeEscalated        ActionType = "DisputeEscalated"
	ActionPayoutRequested         ActionType = "PayoutRequested"
	ActionPayoutDecision          ActionType = "PayoutDecision"
	ActionPriceConfigProvisioned  ActionType = "PriceConfigProvisioned"
	ActionPriceConfigUpdated      ActionType = "PriceConfigUpdated"
)

const (
	EntityBooking     = "booking"
	EntityDispute     = "dispute_case"
	EntityPayout      = "payout_request"
	EntityPriceConfig = "price_config"
)

var ErrImmutable = errors.New("audit_entry_immutable")

// AuditEntry is one append-only record of an administrative action.
type AuditEntry struct {
	ID               string            `json:"id" gorm:"primaryKey;size:32"`
	Timestamp        time.Time         `json:"timestamp" gorm:"not null;index"`
	ActorType        string            `json:"actor_type" gorm:"size:32;not null"`
	ActorID          string            `json:"actor_id" gorm:"size:128;not null"`
	ActionType       ActionType        `json:"action_type" gorm:"size:64;not null;index"`
	ModuleName       string            `json:"module_name,omitempty" gorm:"size:64;index"`
	EntityType       string            `json:"entity_type" gorm:"size:64;not null"`
	AffectedEntityID string            `json:"affected_entity_id" gorm:"size:64;not null;index"`
	OutcomeSummary   string            `json:"outcome_summary" gorm:"type:text;not null"`
	IPAddress        *string           `json:"ip_address,omitempty" gorm:"size:64"`
	RequestID        *string           `json:"request_id,omitempty" gorm:"size:64"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
}

func (AuditEntry) TableName() string { return "audit_entries" }

func (e *AuditEntry) BeforeUpdate(*gorm.DB) error { return ErrImmutable }

func (e *AuditEntry) BeforeDelete(*gorm.DB) error { return ErrImmutable }
