package service

import (
	"context"
	"fmt"
	"strings"

	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	"github.com/smallbiznis/rendezvous/internal/audit/masking"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"github.com/smallbiznis/rendezvous/internal/notification"
	payoutdomain "github.com/smallbiznis/rendezvous/internal/payout/domain"
	"github.com/smallbiznis/rendezvous/internal/providers/transfer"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestPayout files a withdrawal over bookings the payee provided. The
// bookings need not be completed yet; that is checked at decision time.
func (s *Service) RequestPayout(ctx context.Context, req domain.RequestPayoutRequest) (out *payoutdomain.PayoutRequest, err error) {
	ctx, span := s.start(ctx, "RequestPayout")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "request_payout", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	payeeID := strings.TrimSpace(req.PayeeID)
	if payeeID == "" {
		return nil, payoutdomain.ErrPayeeRequired
	}
	module, err = servicemodule.Parse(req.ServiceModule)
	if err != nil {
		return nil, err
	}
	bookingIDs, err := normalizeBookingIDs(req.BookingIDs)
	if err != nil {
		return nil, err
	}
	bankAccount := strings.TrimSpace(req.BankAccount)
	if bankAccount == "" {
		return nil, payoutdomain.ErrBankAccountRequired
	}

	var payout *payoutdomain.PayoutRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The booking locks serialize competing claims on the same bookings.
		bookings, err := s.bookings.FindByIDsForUpdate(ctx, tx, bookingIDs)
		if err != nil {
			return err
		}
		if missing := missingBookings(bookingIDs, bookings); len(missing) > 0 {
			return fmt.Errorf("%w: %s", bookingdomain.ErrNotFound, strings.Join(missing, ", "))
		}

		var total int64
		currency := bookings[0].Currency
		for i := range bookings {
			b := &bookings[i]
			if !b.IsProvidedBy(payeeID) {
				return payoutdomain.ErrBookingNotOwned
			}
			if b.ServiceModule != module {
				return payoutdomain.ErrBookingModule
			}
			if b.Currency != currency {
				return payoutdomain.ErrMixedCurrency
			}
			total += b.AmountMinor
		}

		existing, err := s.payouts.List(ctx, tx, payoutdomain.ListFilter{PayeeID: payeeID})
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].Status == payoutdomain.StatusRejected {
				continue
			}
			for _, id := range bookingIDs {
				if existing[i].Claims(id) {
					return payoutdomain.ErrBookingClaimed
				}
			}
		}

		now := s.now()
		payout = &payoutdomain.PayoutRequest{
			ID:                s.genID.Generate().String(),
			PayeeID:           payeeID,
			ServiceModule:     module,
			AmountMinor:       total,
			Currency:          currency,
			RelatedBookingIDs: datatypes.JSONSlice[string](bookingIDs),
			Status:            payoutdomain.StatusPending,
			BankAccountRef:    masking.MaskSecret(bankAccount),
			RequestedAt:       now,
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.payouts.Insert(ctx, tx, payout); err != nil {
			return err
		}
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionPayoutRequested,
			ModuleName: string(module),
			EntityType: auditdomain.EntityPayout,
			EntityID:   payout.ID,
			Outcome:    fmt.Sprintf("payout of %d %s requested", total, currency),
			Metadata: map[string]any{
				"payee_id":            payeeID,
				"amount_minor":        total,
				"currency":            currency,
				"related_booking_ids": bookingIDs,
				"bank_account_ref":    payout.BankAccountRef,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, auditdomain.EntityPayout, string(payout.Status))
	return payout, nil
}

// PreviewPayoutDecision runs every check DecidePayout would and, for
// irreversible decisions, issues the confirmation token bound to the
// current version.
func (s *Service) PreviewPayoutDecision(ctx context.Context, req domain.PreviewPayoutDecisionRequest) (out domain.ImpactSummary, err error) {
	ctx, span := s.start(ctx, "PreviewPayoutDecision")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "preview_payout_decision", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return domain.ImpactSummary{}, err
	}
	decision, err := payoutdomain.ParseDecision(strings.TrimSpace(req.Decision))
	if err != nil {
		return domain.ImpactSummary{}, err
	}

	payout, err := s.GetPayout(ctx, req.PayoutID)
	if err != nil {
		return domain.ImpactSummary{}, err
	}
	module = payout.ServiceModule
	if err := s.checkDecision(ctx, s.db, payout, decision); err != nil {
		return domain.ImpactSummary{}, err
	}

	summary := domain.ImpactSummary{
		Action:       string(decision),
		EntityType:   auditdomain.EntityPayout,
		EntityID:     payout.ID,
		Summary:      describeDecision(payout, decision),
		Irreversible: decision.Irreversible(),
		Version:      payout.Version,
		Details: map[string]any{
			"from":                string(payout.Status),
			"to":                  string(decision.Target()),
			"payee_id":            payout.PayeeID,
			"amount_minor":        payout.AmountMinor,
			"currency":            payout.Currency,
			"related_booking_ids": []string(payout.RelatedBookingIDs),
			"bank_account_ref":    payout.BankAccountRef,
		},
	}
	if decision.Irreversible() {
		token, expiresAt, err := s.confirmations.Issue(payout.ID, string(decision), payout.Version, who.ID)
		if err != nil {
			return domain.ImpactSummary{}, err
		}
		summary.RequiresAcknowledgement = true
		summary.ConfirmationToken = token
		summary.ExpiresAt = &expiresAt
	}
	return summary, nil
}

// DecidePayout applies an admin decision. Approve and reject need the token
// from PreviewPayoutDecision; a token minted for an older version is a
// conflict. Funds move only once the audited approval has committed.
func (s *Service) DecidePayout(ctx context.Context, req domain.DecidePayoutRequest) (out *payoutdomain.PayoutRequest, err error) {
	ctx, span := s.start(ctx, "DecidePayout")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "decide_payout", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	decision, err := payoutdomain.ParseDecision(strings.TrimSpace(req.Decision))
	if err != nil {
		return nil, err
	}
	payoutID := strings.TrimSpace(req.PayoutID)
	if payoutID == "" {
		return nil, payoutdomain.ErrNotFound
	}

	release, err := s.acquireDecisionLock(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	defer release()

	note := strings.TrimSpace(req.Note)
	var payout *payoutdomain.PayoutRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.payouts.FindForUpdate(ctx, tx, payoutID)
		if err != nil {
			return err
		}
		if p == nil {
			return payoutdomain.ErrNotFound
		}
		module = p.ServiceModule

		if err := s.checkDecision(ctx, tx, p, decision); err != nil {
			return err
		}
		if decision.Irreversible() {
			claims, err := s.confirmations.Verify(req.ConfirmationToken, p.ID, string(decision), who.ID)
			if err != nil {
				return err
			}
			if claims.Version != p.Version {
				return fmt.Errorf("%w: confirmed version %d, current version %d", payoutdomain.ErrVersionConflict, claims.Version, p.Version)
			}
		}

		from := p.Status
		now := s.now()
		p.Status = decision.Target()
		p.UpdatedAt = now
		if note != "" {
			p.DecisionNote = &note
		}
		if decision != payoutdomain.DecisionRelease {
			decidedAt := now
			p.DecidedAt = &decidedAt
			p.DecidedBy = &who.ID
		}

		metadata := map[string]any{
			"decision":     string(decision),
			"from":         string(from),
			"to":           string(p.Status),
			"amount_minor": p.AmountMinor,
			"currency":     p.Currency,
		}
		if note != "" {
			metadata["note"] = note
		}

		if decision == payoutdomain.DecisionApprove {
			p.TransferStatus = payoutdomain.TransferPending
			metadata["transfer_status"] = string(p.TransferStatus)
		}

		if err := s.payouts.Update(ctx, tx, p); err != nil {
			return err
		}
		payout = p
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionPayoutDecision,
			ModuleName: string(module),
			EntityType: auditdomain.EntityPayout,
			EntityID:   p.ID,
			Outcome:    fmt.Sprintf("payout %s", p.Status),
			Metadata:   metadata,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(ctx, auditdomain.EntityPayout, string(payout.Status))
	switch decision {
	case payoutdomain.DecisionApprove:
		s.settleTransfer(ctx, payout)
		s.notify(ctx, payoutNotification(notification.KindPayoutApproved, payout))
	case payoutdomain.DecisionReject:
		s.notify(ctx, payoutNotification(notification.KindPayoutRejected, payout))
	}
	return payout, nil
}

// settleTransfer moves the funds of a committed approval and records the
// provider outcome. The payout id is the idempotency key. A failed transfer
// leaves the payout approved with transfer_status failed.
func (s *Service) settleTransfer(ctx context.Context, p *payoutdomain.PayoutRequest) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), transferTimeout)
	defer cancel()

	status := payoutdomain.TransferInitiated
	var ref *string
	result, err := s.transfers.InitiateTransfer(ctx, transfer.Request{
		IdempotencyKey: p.ID,
		PayoutID:       p.ID,
		PayeeID:        p.PayeeID,
		AmountMinor:    p.AmountMinor,
		Currency:       p.Currency,
		BankAccountRef: p.BankAccountRef,
	})
	if err != nil {
		status = payoutdomain.TransferFailed
		s.log.Error("payout transfer failed",
			zap.String("payout_id", p.ID),
			zap.String("payee_id", p.PayeeID),
			zap.Error(err),
		)
	} else {
		ref = &result.Reference
	}

	now := s.now()
	if err := s.payouts.RecordTransfer(ctx, s.db, p.ID, status, ref, now); err != nil {
		s.log.Error("failed to record payout transfer",
			zap.String("payout_id", p.ID),
			zap.String("transfer_status", string(status)),
			zap.Error(err),
		)
		return
	}
	p.TransferStatus = status
	p.TransferRef = ref
	p.UpdatedAt = now
	s.metrics.RecordTransition(ctx, "payout_transfer", string(status))
}

func (s *Service) GetPayout(ctx context.Context, id string) (*payoutdomain.PayoutRequest, error) {
	p, err := s.payouts.FindByID(ctx, s.db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, payoutdomain.ErrNotFound
	}
	return p, nil
}

func (s *Service) ListPayouts(ctx context.Context, req domain.ListPayoutsRequest) ([]payoutdomain.PayoutRequest, error) {
	module, err := servicemodule.ParseOptional(req.ServiceModule)
	if err != nil {
		return nil, err
	}
	var status payoutdomain.Status
	if raw := strings.TrimSpace(req.Status); raw != "" {
		if status, err = payoutdomain.ParseStatus(raw); err != nil {
			return nil, err
		}
	}
	return s.payouts.List(ctx, s.db, payoutdomain.ListFilter{
		ServiceModule: module,
		Status:        status,
		PayeeID:       req.PayeeID,
		SortBy:        req.SortBy,
		Descending:    req.Descending,
		Limit:         normalizeLimit(req.Limit),
	})
}

// checkDecision enforces the status rule first and the booking eligibility
// rule second.
func (s *Service) checkDecision(ctx context.Context, conn *gorm.DB, p *payoutdomain.PayoutRequest, decision payoutdomain.Decision) error {
	if !decision.AllowedFrom(p.Status) {
		return fmt.Errorf("%w: cannot %s a %s payout", payoutdomain.ErrInvalidTransition, decision, p.Status)
	}
	if !decision.LeavesPending() {
		return nil
	}

	bookings, err := s.bookings.FindByIDs(ctx, conn, p.RelatedBookingIDs)
	if err != nil {
		return err
	}
	ineligible := missingBookings(p.RelatedBookingIDs, bookings)
	for i := range bookings {
		if !bookings[i].PayoutEligible() {
			ineligible = append(ineligible, bookings[i].ID)
		}
	}
	if len(ineligible) > 0 {
		return fmt.Errorf("%w: %s", payoutdomain.ErrIneligibleBookings, strings.Join(ineligible, ", "))
	}
	return nil
}

// acquireDecisionLock serializes decisions on one payout across replicas.
// Without a locker the row lock and version check still apply.
func (s *Service) acquireDecisionLock(ctx context.Context, payoutID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := decisionLockPrefix + payoutID
	token, ok, err := s.locker.TryLock(ctx, key, decisionLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, payoutdomain.ErrDecisionInProgress
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("failed to release payout decision lock", zap.String("payout_id", payoutID), zap.Error(err))
		}
	}, nil
}

func normalizeBookingIDs(raw []string) ([]string, error) {
	ids := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			return nil, payoutdomain.ErrDuplicateBooking
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, payoutdomain.ErrBookingsRequired
	}
	return ids, nil
}

func missingBookings(ids []string, found []bookingdomain.Booking) []string {
	present := make(map[string]struct{}, len(found))
	for i := range found {
		present[found[i].ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func describeDecision(p *payoutdomain.PayoutRequest, decision payoutdomain.Decision) string {
	switch decision {
	case payoutdomain.DecisionApprove:
		return fmt.Sprintf("Transfer %d %s (minor units) to payee %s at %s. This cannot be undone.",
			p.AmountMinor, p.Currency, p.PayeeID, p.BankAccountRef)
	case payoutdomain.DecisionReject:
		return fmt.Sprintf("Reject the %d %s payout to payee %s. This cannot be undone.",
			p.AmountMinor, p.Currency, p.PayeeID)
	case payoutdomain.DecisionHold:
		return fmt.Sprintf("Put the %d %s payout to payee %s on hold.", p.AmountMinor, p.Currency, p.PayeeID)
	default:
		return fmt.Sprintf("Return the %d %s payout to payee %s to the pending queue.", p.AmountMinor, p.Currency, p.PayeeID)
	}
}

func payoutNotification(kind notification.Kind, p *payoutdomain.PayoutRequest) notification.Notification {
	metadata := map[string]any{
		"amount_minor": p.AmountMinor,
		"currency":     p.Currency,
	}
	if p.TransferRef != nil {
		metadata["transfer_ref"] = *p.TransferRef
	}
	subject := fmt.Sprintf("Payout %s %s", p.ID, p.Status)
	return notification.Notification{
		Kind:          kind,
		EntityType:    auditdomain.EntityPayout,
		EntityID:      p.ID,
		ServiceModule: string(p.ServiceModule),
		Recipients:    []string{p.PayeeID},
		Subject:       subject,
		Body:          fmt.Sprintf("Your payout of %d %s was %s.", p.AmountMinor, p.Currency, p.Status),
		Metadata:      metadata,
	}
}
