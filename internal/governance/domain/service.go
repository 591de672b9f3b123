package domain

import (
	"context"
	"time"

	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	disputedomain "github.com/smallbiznis/rendezvous/internal/dispute/domain"
	payoutdomain "github.com/smallbiznis/rendezvous/internal/payout/domain"
	pricingdomain "github.com/smallbiznis/rendezvous/internal/pricing/domain"
)

// Service is the single entry point for administrative commands. Every
// mutation commits the entity change and exactly one audit entry together.
type Service interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*bookingdomain.Booking, error)
	AssignProvider(ctx context.Context, req AssignProviderRequest) (*bookingdomain.Booking, error)
	AdvanceBooking(ctx context.Context, req AdvanceBookingRequest) (*bookingdomain.Booking, error)
	GetBooking(ctx context.Context, id string) (*bookingdomain.Booking, error)
	ListBookings(ctx context.Context, req ListBookingsRequest) ([]bookingdomain.Booking, error)

	OpenDispute(ctx context.Context, req OpenDisputeRequest) (*disputedomain.DisputeCase, error)
	AssignDispute(ctx context.Context, req AssignDisputeRequest) (*disputedomain.DisputeCase, error)
	TransitionDispute(ctx context.Context, req TransitionDisputeRequest) (*disputedomain.DisputeCase, error)
	ResolveDispute(ctx context.Context, req ResolveDisputeRequest) (*disputedomain.DisputeCase, error)
	EscalateDispute(ctx context.Context, req EscalateDisputeRequest) (*disputedomain.DisputeCase, error)
	GetDispute(ctx context.Context, id string) (*disputedomain.DisputeCase, error)
	ListDisputes(ctx context.Context, req ListDisputesRequest) ([]disputedomain.DisputeCase, error)

	RequestPayout(ctx context.Context, req RequestPayoutRequest) (*payoutdomain.PayoutRequest, error)
	PreviewPayoutDecision(ctx context.Context, req PreviewPayoutDecisionRequest) (ImpactSummary, error)
	DecidePayout(ctx context.Context, req DecidePayoutRequest) (*payoutdomain.PayoutRequest, error)
	GetPayout(ctx context.Context, id string) (*payoutdomain.PayoutRequest, error)
	ListPayouts(ctx context.Context, req ListPayoutsRequest) ([]payoutdomain.PayoutRequest, error)

	ProvisionPriceConfig(ctx context.Context, req ProvisionPriceConfigRequest) (*pricingdomain.PriceConfig, error)
	PreviewPriceConfigUpdate(ctx context.Context, req UpdatePriceConfigRequest) (PriceConfigPreview, error)
	UpdatePriceConfig(ctx context.Context, req UpdatePriceConfigRequest) (*pricingdomain.PriceConfig, error)
	GetPriceConfig(ctx context.Context, module string) (*pricingdomain.PriceConfig, error)
	ListPriceConfigs(ctx context.Context) ([]pricingdomain.PriceConfig, error)
	PreviewBreakdown(ctx context.Context, req PreviewBreakdownRequest) (BreakdownPreview, error)

	ListAuditEntries(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error)
}

// CreateBookingRequest and the other commands below fall back to the
// context actor when ActorID is empty. ActorID is never bound from a
// request body or query; only in-process callers set it.
type CreateBookingRequest struct {
	ServiceModule string         `json:"service_module"`
	CustomerID    string         `json:"customer_id"`
	ProviderID    string         `json:"provider_id,omitempty"`
	ScheduledAt   time.Time      `json:"scheduled_at"`
	AmountMinor   int64          `json:"amount_minor"`
	Currency      string         `json:"currency"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	ActorID       string         `json:"-" form:"-"`
}

type AssignProviderRequest struct {
	BookingID  string `json:"-"`
	ProviderID string `json:"provider_id"`
	ActorID    string `json:"-" form:"-"`
}

type AdvanceBookingRequest struct {
	BookingID  string `json:"-"`
	NextStatus string `json:"next_status"`
	ActorID    string `json:"-" form:"-"`
}

type ListBookingsRequest struct {
	ServiceModule string `form:"service_module"`
	Status        string `form:"status"`
	CustomerID    string `form:"customer_id"`
	ProviderID    string `form:"provider_id"`
	SortBy        string `form:"sort_by"`
	Descending    bool   `form:"desc"`
	Limit         int    `form:"limit"`
}

type OpenDisputeRequest struct {
	BookingID string `json:"booking_id"`
	PartyA    string `json:"party_a"`
	PartyB    string `json:"party_b"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	ActorID   string `json:"-" form:"-"`
}

type AssignDisputeRequest struct {
	DisputeID string `json:"-"`
	Assignee  string `json:"assigned_to"`
	ActorID   string `json:"-" form:"-"`
}

// TransitionDisputeRequest moves a case along the investigation graph.
// Resolution and escalation have their own commands.
type TransitionDisputeRequest struct {
	DisputeID  string `json:"-"`
	NextStatus string `json:"next_status"`
	Note       string `json:"note,omitempty"`
	ActorID    string `json:"-" form:"-"`
}

type ResolveDisputeRequest struct {
	DisputeID  string `json:"-"`
	Resolution string `json:"resolution"`
	ActorID    string `json:"-" form:"-"`
}

type EscalateDisputeRequest struct {
	DisputeID string `json:"-"`
	Reason    string `json:"reason,omitempty"`
	ActorID   string `json:"-" form:"-"`
}

type ListDisputesRequest struct {
	ServiceModule string `form:"service_module"`
	Status        string `form:"status"`
	BookingID     string `form:"booking_id"`
	SortBy        string `form:"sort_by"`
	Descending    bool   `form:"desc"`
	Limit         int    `form:"limit"`
}

type RequestPayoutRequest struct {
	PayeeID       string   `json:"payee_id"`
	ServiceModule string   `json:"service_module"`
	BookingIDs    []string `json:"related_booking_ids"`
	BankAccount   string   `json:"bank_account"`
	ActorID       string   `json:"-" form:"-"`
}

type PreviewPayoutDecisionRequest struct {
	PayoutID string `json:"-"`
	Decision string `json:"decision"`
	ActorID  string `json:"-" form:"-"`
}

type DecidePayoutRequest struct {
	PayoutID          string `json:"-"`
	Decision          string `json:"decision"`
	Note              string `json:"note,omitempty"`
	ConfirmationToken string `json:"confirmation_token,omitempty"`
	ActorID           string `json:"-" form:"-"`
}

type ListPayoutsRequest struct {
	ServiceModule string `form:"service_module"`
	Status        string `form:"status"`
	PayeeID       string `form:"payee_id"`
	SortBy        string `form:"sort_by"`
	Descending    bool   `form:"desc"`
	Limit         int    `form:"limit"`
}

type ProvisionPriceConfigRequest struct {
	ServiceModule      string  `json:"service_module"`
	FixedPrice         float64 `json:"fixed_price"`
	Currency           string  `json:"currency"`
	CommissionPercent  float64 `json:"platform_commission_percent"`
	ShowPriceToUsers   bool    `json:"show_price_to_users"`
	ShowPriceBreakdown bool    `json:"show_price_breakdown"`
	ActorID            string  `json:"-" form:"-"`
}

type UpdatePriceConfigRequest struct {
	ServiceModule string              `json:"-"`
	Patch         pricingdomain.Patch `json:"patch"`
	// AcknowledgeCounterpartyPricing confirms the admin accepts that
	// counterparties may negotiate prices once the flag is enabled.
	AcknowledgeCounterpartyPricing bool   `json:"acknowledge_counterparty_pricing"`
	ActorID                        string `json:"-" form:"-"`
}

type PreviewBreakdownRequest struct {
	ServiceModule string   `form:"service_module"`
	BasePrice     *float64 `form:"base_price"`
}

// ImpactSummary describes what a high-risk command is about to do. For
// irreversible actions it carries the token the command must echo back.
type ImpactSummary struct {
	Action                  string         `json:"action"`
	EntityType              string         `json:"entity_type"`
	EntityID                string         `json:"entity_id"`
	Summary                 string         `json:"summary"`
	Irreversible            bool           `json:"irreversible"`
	RequiresAcknowledgement bool           `json:"requires_acknowledgement"`
	Version                 int64          `json:"version"`
	Details                 map[string]any `json:"details,omitempty"`
	ConfirmationToken       string         `json:"confirmation_token,omitempty"`
	ExpiresAt               *time.Time     `json:"expires_at,omitempty"`
}

type PriceConfigPreview struct {
	Impact   ImpactSummary             `json:"impact"`
	Current  pricingdomain.PriceConfig `json:"current"`
	Proposed pricingdomain.PriceConfig `json:"proposed"`
}

type BreakdownPreview struct {
	ServiceModule string                  `json:"service_module"`
	Currency      string                  `json:"currency"`
	TaxRate       float64                 `json:"tax_rate"`
	Visible       bool                    `json:"visible"`
	Breakdown     pricingdomain.Breakdown `json:"breakdown"`
}
