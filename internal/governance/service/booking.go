package service

import (
	"context"
	"fmt"
	"strings"

	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	pricingdomain "github.com/smallbiznis/rendezvous/internal/pricing/domain"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Service) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (out *bookingdomain.Booking, err error) {
	ctx, span := s.start(ctx, "CreateBooking")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "create_booking", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	module, err = servicemodule.Parse(req.ServiceModule)
	if err != nil {
		return nil, err
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, bookingdomain.ErrInvalidCustomer
	}
	if req.AmountMinor <= 0 {
		return nil, bookingdomain.ErrInvalidAmount
	}
	currency, err := pricingdomain.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	if req.ScheduledAt.IsZero() {
		return nil, bookingdomain.ErrInvalidScheduledAt
	}

	now := s.now()
	booking := &bookingdomain.Booking{
		ID:              s.genID.Generate().String(),
		ServiceModule:   module,
		CustomerID:      customerID,
		ProviderID:      stringPtr(req.ProviderID),
		ScheduledAt:     req.ScheduledAt.UTC(),
		AmountMinor:     req.AmountMinor,
		Currency:        currency,
		Status:          bookingdomain.StatusPending,
		StatusChangedAt: now,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(req.Attributes) > 0 {
		booking.Attributes = datatypes.JSONMap(req.Attributes)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookings.Insert(ctx, tx, booking); err != nil {
			return err
		}
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionBookingCreated,
			ModuleName: string(module),
			EntityType: auditdomain.EntityBooking,
			EntityID:   booking.ID,
			Outcome:    "booking created",
			Metadata: map[string]any{
				"customer_id":  booking.CustomerID,
				"provider_id":  derefString(booking.ProviderID),
				"scheduled_at": booking.ScheduledAt,
				"amount_minor": booking.AmountMinor,
				"currency":     booking.Currency,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, auditdomain.EntityBooking, string(booking.Status))
	return booking, nil
}

func (s *Service) AssignProvider(ctx context.Context, req domain.AssignProviderRequest) (out *bookingdomain.Booking, err error) {
	ctx, span := s.start(ctx, "AssignProvider")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "assign_provider", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	providerID := strings.TrimSpace(req.ProviderID)
	if providerID == "" {
		return nil, bookingdomain.ErrInvalidProvider
	}

	var booking *bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBookingForUpdate(ctx, tx, req.BookingID)
		if err != nil {
			return err
		}
		module = b.ServiceModule
		if b.Status.Terminal() {
			return fmt.Errorf("%w: cannot assign a provider to a %s booking", bookingdomain.ErrInvalidTransition, b.Status)
		}

		previous := derefString(b.ProviderID)
		b.ProviderID = &providerID
		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, tx, b); err != nil {
			return err
		}
		booking = b
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionBookingProviderAssigned,
			ModuleName: string(module),
			EntityType: auditdomain.EntityBooking,
			EntityID:   b.ID,
			Outcome:    "provider assigned",
			Metadata: map[string]any{
				"from": previous,
				"to":   providerID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// AdvanceBooking moves a booking one step along its lifecycle. Cancelling
// consults the refund policy with the hours left before the scheduled time.
func (s *Service) AdvanceBooking(ctx context.Context, req domain.AdvanceBookingRequest) (out *bookingdomain.Booking, err error) {
	ctx, span := s.start(ctx, "AdvanceBooking")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "advance_booking", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	next, err := bookingdomain.ParseStatus(strings.TrimSpace(req.NextStatus))
	if err != nil {
		return nil, err
	}

	var booking *bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.loadBookingForUpdate(ctx, tx, req.BookingID)
		if err != nil {
			return err
		}
		module = b.ServiceModule

		from := b.Status
		if !from.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", bookingdomain.ErrInvalidTransition, from, next)
		}

		now := s.now()
		metadata := map[string]any{
			"from": string(from),
			"to":   string(next),
		}
		outcome := fmt.Sprintf("booking %s", next)
		if next == bookingdomain.StatusCancelled {
			hoursBefore := b.ScheduledAt.Sub(now).Hours()
			percent, err := s.refunds.RefundPercent(ctx, b.ServiceModule, hoursBefore)
			if err != nil {
				return fmt.Errorf("refund policy lookup: %w", err)
			}
			b.RefundPercent = &percent
			metadata["hours_before"] = hoursBefore
			metadata["refund_percent"] = percent
			metadata["refund_amount_minor"] = b.RefundAmountMinor(percent)
			outcome = fmt.Sprintf("booking cancelled with %d%% refund", percent)
		}

		b.ApplyStatus(next, now)
		if err := s.bookings.Update(ctx, tx, b); err != nil {
			return err
		}
		booking = b
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionBookingStatusChanged,
			ModuleName: string(module),
			EntityType: auditdomain.EntityBooking,
			EntityID:   b.ID,
			Outcome:    outcome,
			Metadata:   metadata,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, auditdomain.EntityBooking, string(booking.Status))
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*bookingdomain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, s.db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, bookingdomain.ErrNotFound
	}
	return b, nil
}

func (s *Service) ListBookings(ctx context.Context, req domain.ListBookingsRequest) ([]bookingdomain.Booking, error) {
	module, err := servicemodule.ParseOptional(req.ServiceModule)
	if err != nil {
		return nil, err
	}
	var status bookingdomain.Status
	if raw := strings.TrimSpace(req.Status); raw != "" {
		if status, err = bookingdomain.ParseStatus(raw); err != nil {
			return nil, err
		}
	}
	return s.bookings.List(ctx, s.db, bookingdomain.ListFilter{
		ServiceModule: module,
		Status:        status,
		CustomerID:    req.CustomerID,
		ProviderID:    req.ProviderID,
		SortBy:        req.SortBy,
		Descending:    req.Descending,
		Limit:         normalizeLimit(req.Limit),
	})
}

func (s *Service) loadBookingForUpdate(ctx context.Context, tx *gorm.DB, id string) (*bookingdomain.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, bookingdomain.ErrNotFound
	}
	b, err := s.bookings.FindForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, bookingdomain.ErrNotFound
	}
	return b, nil
}
