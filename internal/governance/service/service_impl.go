package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rendezvous/internal/apperror"
	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	"github.com/smallbiznis/rendezvous/internal/auditcontext"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	"github.com/smallbiznis/rendezvous/internal/clock"
	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/confirmation"
	disputedomain "github.com/smallbiznis/rendezvous/internal/dispute/domain"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"github.com/smallbiznis/rendezvous/internal/lock"
	"github.com/smallbiznis/rendezvous/internal/notification"
	"github.com/smallbiznis/rendezvous/internal/observability/metrics"
	payoutdomain "github.com/smallbiznis/rendezvous/internal/payout/domain"
	pricingdomain "github.com/smallbiznis/rendezvous/internal/pricing/domain"
	"github.com/smallbiznis/rendezvous/internal/providers/transfer"
	"github.com/smallbiznis/rendezvous/internal/refund"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	notifyTimeout      = 5 * time.Second
	transferTimeout    = 15 * time.Second
	decisionLockTTL    = 30 * time.Second
	decisionLockPrefix = "governance:payout:decision:"
	maxListLimit       = 250
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Policy        *config.GovernancePolicyHolder
	Audit         auditdomain.Service
	Bookings      bookingdomain.Repository
	Disputes      disputedomain.Repository
	Payouts       payoutdomain.Repository
	Prices        pricingdomain.Repository
	Refunds       refund.Policy
	Transfers     transfer.Provider
	Confirmations *confirmation.Issuer
	Notifier      notification.Dispatcher `optional:"true"`
	Locker        lock.Locker             `optional:"true"`
	Metrics       *metrics.Metrics        `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	policy        *config.GovernancePolicyHolder
	audit         auditdomain.Service
	bookings      bookingdomain.Repository
	disputes      disputedomain.Repository
	payouts       payoutdomain.Repository
	prices        pricingdomain.Repository
	refunds       refund.Policy
	transfers     transfer.Provider
	confirmations *confirmation.Issuer
	notifier      notification.Dispatcher
	locker        lock.Locker
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

func NewService(p Params) domain.Service {
	notifier := p.Notifier
	if notifier == nil {
		notifier = notification.NoOp{}
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("governance.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		policy:        p.Policy,
		audit:         p.Audit,
		bookings:      p.Bookings,
		disputes:      p.Disputes,
		payouts:       p.Payouts,
		prices:        p.Prices,
		refunds:       p.Refunds,
		transfers:     p.Transfers,
		confirmations: p.Confirmations,
		notifier:      notifier,
		locker:        p.Locker,
		metrics:       p.Metrics,
		tracer:        otel.Tracer("rendezvous/governance"),
	}
}

type actor struct {
	Type string
	ID   string
}

// resolveActor prefers the explicit id and otherwise takes the actor the
// transport put on the context.
func resolveActor(ctx context.Context, explicit string) (actor, error) {
	ctxType, ctxID := auditcontext.ActorFromContext(ctx)
	if id := strings.TrimSpace(explicit); id != "" {
		return actor{Type: auditcontext.ActorTypeAdmin, ID: id}, nil
	}
	ctxID = strings.TrimSpace(ctxID)
	if ctxID == "" {
		return actor{}, domain.ErrActorRequired
	}
	if ctxType == "" {
		ctxType = auditcontext.ActorTypeAdmin
	}
	return actor{Type: ctxType, ID: ctxID}, nil
}

func (s *Service) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "governance."+op)
}

// finish closes the span and records the command outcome.
func (s *Service) finish(ctx context.Context, span trace.Span, op, module string, err error) {
	outcome := apperror.Code(err)
	span.SetAttributes(
		attribute.String("service_module", module),
		attribute.String("outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
	s.metrics.RecordCommand(ctx, op, module, outcome)

	if err != nil && outcome == "internal_error" {
		s.log.Error("governance command failed",
			zap.String("action", op),
			zap.String("service_module", module),
			zap.Error(err),
		)
	}
}

func (s *Service) appendAudit(ctx context.Context, tx *gorm.DB, who actor, rec auditdomain.Record) error {
	rec.ActorID = who.ID
	rec.ActorType = who.Type
	_, err := s.audit.Append(ctx, tx, rec)
	return err
}

// notify runs after commit. Delivery failures are logged and never
// surface to the caller.
func (s *Service) notify(ctx context.Context, n notification.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if n.OccurredAt.IsZero() {
		n.OccurredAt = s.clock.Now().UTC()
	}
	if err := s.notifier.Dispatch(ctx, n); err != nil {
		s.metrics.RecordNotification(ctx, "dispatcher", "error")
		s.log.Warn("notification dispatch failed",
			zap.String("kind", string(n.Kind)),
			zap.String("entity_id", n.EntityID),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordNotification(ctx, "dispatcher", "ok")
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// stringPtr trims value and maps blank to nil. Identifiers are trimmed in
// this layer only; the transport passes them through untouched.
func stringPtr(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
