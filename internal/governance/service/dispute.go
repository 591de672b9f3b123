package service

import (
	"context"
	"fmt"
	"strings"

	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	disputedomain "github.com/smallbiznis/rendezvous/internal/dispute/domain"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"github.com/smallbiznis/rendezvous/internal/notification"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/gorm"
)

func (s *Service) OpenDispute(ctx context.Context, req domain.OpenDisputeRequest) (out *disputedomain.DisputeCase, err error) {
	ctx, span := s.start(ctx, "OpenDispute")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "open_dispute", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	partyA := strings.TrimSpace(req.PartyA)
	partyB := strings.TrimSpace(req.PartyB)
	if partyA == "" || partyB == "" {
		return nil, disputedomain.ErrPartiesRequired
	}
	if partyA == partyB {
		return nil, disputedomain.ErrPartiesIdentical
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, disputedomain.ErrCategoryRequired
	}
	severity := disputedomain.SeverityMedium
	if raw := strings.TrimSpace(req.Severity); raw != "" {
		if severity, err = disputedomain.ParseSeverity(raw); err != nil {
			return nil, err
		}
	}

	var dispute *disputedomain.DisputeCase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByID(ctx, tx, strings.TrimSpace(req.BookingID))
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrNotFound
		}
		module = booking.ServiceModule

		now := s.now()
		dispute = &disputedomain.DisputeCase{
			ID:            s.genID.Generate().String(),
			BookingID:     booking.ID,
			ServiceModule: booking.ServiceModule,
			PartyA:        partyA,
			PartyB:        partyB,
			Category:      category,
			Severity:      severity,
			Status:        disputedomain.StatusOpen,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.disputes.Insert(ctx, tx, dispute); err != nil {
			return err
		}
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionDisputeOpened,
			ModuleName: string(module),
			EntityType: auditdomain.EntityDispute,
			EntityID:   dispute.ID,
			Outcome:    "dispute opened",
			Metadata: map[string]any{
				"booking_id": dispute.BookingID,
				"party_a":    dispute.PartyA,
				"party_b":    dispute.PartyB,
				"category":   dispute.Category,
				"severity":   string(dispute.Severity),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, auditdomain.EntityDispute, string(dispute.Status))
	return dispute, nil
}

func (s *Service) AssignDispute(ctx context.Context, req domain.AssignDisputeRequest) (out *disputedomain.DisputeCase, err error) {
	ctx, span := s.start(ctx, "AssignDispute")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "assign_dispute", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	assignee := strings.TrimSpace(req.Assignee)
	if assignee == "" {
		return nil, disputedomain.ErrAssigneeRequired
	}

	var dispute *disputedomain.DisputeCase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.loadDisputeForUpdate(ctx, tx, req.DisputeID)
		if err != nil {
			return err
		}
		module = d.ServiceModule
		if d.Status.Terminal() {
			return fmt.Errorf("%w: cannot assign a %s case", disputedomain.ErrInvalidTransition, d.Status)
		}

		previous := derefString(d.AssignedTo)
		d.AssignedTo = &assignee
		d.UpdatedAt = s.now()
		if err := s.disputes.Update(ctx, tx, d); err != nil {
			return err
		}
		dispute = d
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionDisputeAssigned,
			ModuleName: string(module),
			EntityType: auditdomain.EntityDispute,
			EntityID:   d.ID,
			Outcome:    "dispute assigned to " + assignee,
			Metadata: map[string]any{
				"from": previous,
				"to":   assignee,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// TransitionDispute covers the investigation moves. Closing keeps the
// optional note as the case resolution.
func (s *Service) TransitionDispute(ctx context.Context, req domain.TransitionDisputeRequest) (out *disputedomain.DisputeCase, err error) {
	ctx, span := s.start(ctx, "TransitionDispute")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "transition_dispute", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	next, err := disputedomain.ParseStatus(strings.TrimSpace(req.NextStatus))
	if err != nil {
		return nil, err
	}
	switch next {
	case disputedomain.StatusResolved, disputedomain.StatusEscalated:
		return nil, domain.ErrUseDedicatedCommand
	}
	note := strings.TrimSpace(req.Note)

	var dispute *disputedomain.DisputeCase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.loadDisputeForUpdate(ctx, tx, req.DisputeID)
		if err != nil {
			return err
		}
		module = d.ServiceModule

		from := d.Status
		if !from.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", disputedomain.ErrInvalidTransition, from, next)
		}
		d.ApplyStatus(next, s.now())
		if next == disputedomain.StatusClosed && note != "" {
			d.Resolution = &note
			d.ResolvedBy = &who.ID
		}
		if err := s.disputes.Update(ctx, tx, d); err != nil {
			return err
		}
		dispute = d

		metadata := map[string]any{
			"from": string(from),
			"to":   string(next),
		}
		if note != "" {
			metadata["note"] = note
		}
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionDisputeStatusChanged,
			ModuleName: string(module),
			EntityType: auditdomain.EntityDispute,
			EntityID:   d.ID,
			Outcome:    fmt.Sprintf("dispute %s", next),
			Metadata:   metadata,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, auditdomain.EntityDispute, string(dispute.Status))
	return dispute, nil
}

// ResolveDispute closes a case with a resolution. The booking must have
// been serviced, so pending and scheduled bookings block it.
func (s *Service) ResolveDispute(ctx context.Context, req domain.ResolveDisputeRequest) (out *disputedomain.DisputeCase, err error) {
	ctx, span := s.start(ctx, "ResolveDispute")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "resolve_dispute", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	resolution := strings.TrimSpace(req.Resolution)
	if resolution == "" {
		return nil, disputedomain.ErrResolutionMissing
	}

	var dispute *disputedomain.DisputeCase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.loadDisputeForUpdate(ctx, tx, req.DisputeID)
		if err != nil {
			return err
		}
		module = d.ServiceModule
		if !d.Status.CanTransition(disputedomain.StatusResolved) {
			return fmt.Errorf("%w: case is already %s", disputedomain.ErrInvalidTransition, d.Status)
		}

		booking, err := s.bookings.FindByID(ctx, tx, d.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrNotFound
		}
		if booking.Status == bookingdomain.StatusPending || booking.Status == bookingdomain.StatusScheduled {
			return fmt.Errorf("%w: booking %s is %s", disputedomain.ErrBookingNotServiced, booking.ID, booking.Status)
		}

		from := d.Status
		d.ApplyStatus(disputedomain.StatusResolved, s.now())
		d.Resolution = &resolution
		d.ResolvedBy = &who.ID
		if err := s.disputes.Update(ctx, tx, d); err != nil {
			return err
		}
		dispute = d
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionDisputeResolved,
			ModuleName: string(module),
			EntityType: auditdomain.EntityDispute,
			EntityID:   d.ID,
			Outcome:    "dispute resolved",
			Metadata: map[string]any{
				"from":           string(from),
				"to":             string(disputedomain.StatusResolved),
				"resolution":     resolution,
				"booking_status": string(booking.Status),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(ctx, auditdomain.EntityDispute, string(dispute.Status))
	s.notify(ctx, notification.Notification{
		Kind:          notification.KindDisputeResolved,
		EntityType:    auditdomain.EntityDispute,
		EntityID:      dispute.ID,
		ServiceModule: string(dispute.ServiceModule),
		Recipients:    dispute.Parties(),
		Subject:       fmt.Sprintf("Dispute %s resolved", dispute.ID),
		Body:          resolution,
		Metadata:      map[string]any{"booking_id": dispute.BookingID},
	})
	return dispute, nil
}

// EscalateDispute raises the case to escalated with at least high severity.
// Escalating an escalated case again only re-stamps it.
func (s *Service) EscalateDispute(ctx context.Context, req domain.EscalateDisputeRequest) (out *disputedomain.DisputeCase, err error) {
	ctx, span := s.start(ctx, "EscalateDispute")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "escalate_dispute", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}

	var dispute *disputedomain.DisputeCase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.loadDisputeForUpdate(ctx, tx, req.DisputeID)
		if err != nil {
			return err
		}
		module = d.ServiceModule
		if !d.Status.CanTransition(disputedomain.StatusEscalated) {
			return fmt.Errorf("%w: case is already %s", disputedomain.ErrInvalidTransition, d.Status)
		}

		from, fromSeverity := d.Status, d.Severity
		d.ApplyStatus(disputedomain.StatusEscalated, s.now())
		d.Severity = d.Severity.AtLeast(disputedomain.SeverityHigh)
		if err := s.disputes.Update(ctx, tx, d); err != nil {
			return err
		}
		dispute = d

		metadata := map[string]any{
			"from":          string(from),
			"to":            string(disputedomain.StatusEscalated),
			"severity_from": string(fromSeverity),
			"severity_to":   string(d.Severity),
		}
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			metadata["reason"] = reason
		}
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionDisputeEscalated,
			ModuleName: string(module),
			EntityType: auditdomain.EntityDispute,
			EntityID:   d.ID,
			Outcome:    fmt.Sprintf("dispute escalated at %s severity", d.Severity),
			Metadata:   metadata,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, auditdomain.EntityDispute, string(dispute.Status))
	return dispute, nil
}

func (s *Service) GetDispute(ctx context.Context, id string) (*disputedomain.DisputeCase, error) {
	d, err := s.disputes.FindByID(ctx, s.db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, disputedomain.ErrNotFound
	}
	return d, nil
}

func (s *Service) ListDisputes(ctx context.Context, req domain.ListDisputesRequest) ([]disputedomain.DisputeCase, error) {
	module, err := servicemodule.ParseOptional(req.ServiceModule)
	if err != nil {
		return nil, err
	}
	var status disputedomain.Status
	if raw := strings.TrimSpace(req.Status); raw != "" {
		if status, err = disputedomain.ParseStatus(raw); err != nil {
			return nil, err
		}
	}
	return s.disputes.List(ctx, s.db, disputedomain.ListFilter{
		ServiceModule: module,
		Status:        status,
		BookingID:     strings.TrimSpace(req.BookingID),
		SortBy:        req.SortBy,
		Descending:    req.Descending,
		Limit:         normalizeLimit(req.Limit),
	})
}

func (s *Service) loadDisputeForUpdate(ctx context.Context, tx *gorm.DB, id string) (*disputedomain.DisputeCase, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, disputedomain.ErrNotFound
	}
	d, err := s.disputes.FindForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, disputedomain.ErrNotFound
	}
	return d, nil
}
