package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/rendezvous/internal/apperror"
	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	"github.com/smallbiznis/rendezvous/internal/auditcontext"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"github.com/smallbiznis/rendezvous/internal/notification"
	payoutdomain "github.com/smallbiznis/rendezvous/internal/payout/domain"
	"github.com/smallbiznis/rendezvous/internal/providers/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (h *harness) requestPayout(t *testing.T, payeeID, module string, bookingIDs ...string) *payoutdomain.PayoutRequest {
	t.Helper()
	p, err := h.svc.RequestPayout(adminCtx(), domain.RequestPayoutRequest{
		PayeeID:       payeeID,
		ServiceModule: module,
		BookingIDs:    bookingIDs,
		BankAccount:   "acct_123456789",
	})
	require.NoError(t, err)
	return p
}

func (h *harness) preview(t *testing.T, payoutID string, decision payoutdomain.Decision) domain.ImpactSummary {
	t.Helper()
	summary, err := h.svc.PreviewPayoutDecision(adminCtx(), domain.PreviewPayoutDecisionRequest{PayoutID: payoutID, Decision: string(decision)})
	require.NoError(t, err)
	return summary
}

func TestApprovePayoutAfterPreview(t *testing.T) {
	h := newHarness(t)
	b1 := h.completedBooking(t, "companion-rental", "prov_1", 5000)
	p1 := h.requestPayout(t, "prov_1", "companion-rental", b1.ID)

	assert.Equal(t, payoutdomain.StatusPending, p1.Status)
	assert.Equal(t, int64(5000), p1.AmountMinor)
	assert.Equal(t, "INR", p1.Currency)
	assert.Equal(t, "acct_****6789", p1.BankAccountRef)

	summary := h.preview(t, p1.ID, payoutdomain.DecisionApprove)
	assert.True(t, summary.Irreversible)
	assert.True(t, summary.RequiresAcknowledgement)
	assert.NotEmpty(t, summary.ConfirmationToken)
	assert.Contains(t, summary.Summary, "5000 INR")
	assert.Equal(t, p1.Version, summary.Version)

	approved, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{
		PayoutID:          p1.ID,
		Decision:          "approve",
		Note:              "verified",
		ConfirmationToken: summary.ConfirmationToken,
	})
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusApproved, approved.Status)
	require.NotNil(t, approved.TransferRef)
	assert.True(t, strings.HasPrefix(*approved.TransferRef, "trf_"))
	assert.Equal(t, payoutdomain.TransferInitiated, approved.TransferStatus)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, "admin_1", *approved.DecidedBy)

	sent := h.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindPayoutApproved, sent[0].Kind)
	assert.Equal(t, []string{"prov_1"}, sent[0].Recipients)

	_, err = h.svc.PreviewPayoutDecision(adminCtx(), domain.PreviewPayoutDecisionRequest{PayoutID: p1.ID, Decision: "reject"})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p1.ID, Decision: "reject", ConfirmationToken: summary.ConfirmationToken})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	entries := h.auditEntries(t, p1.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, auditdomain.ActionPayoutDecision, entries[0].ActionType)
	assert.Equal(t, "approve", entries[0].Metadata["decision"])
	assert.Equal(t, "pending", entries[0].Metadata["transfer_status"])

	stored, err := h.svc.GetPayout(adminCtx(), p1.ID)
	require.NoError(t, err)
	assert.Equal(t, *approved.TransferRef, *stored.TransferRef)
	assert.Equal(t, payoutdomain.TransferInitiated, stored.TransferStatus)
	assert.Equal(t, approved.Version, stored.Version)

	err = h.params.Payouts.RecordTransfer(context.Background(), h.db, p1.ID, payoutdomain.TransferFailed, nil, h.clock.Now())
	assert.ErrorIs(t, err, payoutdomain.ErrTransferSettled)
	assert.Equal(t, "acct_****6789", entries[1].Metadata["bank_account_ref"])
}

// countingTransfers records every transfer it is asked to make.
type countingTransfers struct {
	err  error
	keys []string
}

func (c *countingTransfers) InitiateTransfer(_ context.Context, req transfer.Request) (transfer.Result, error) {
	c.keys = append(c.keys, req.IdempotencyKey)
	if c.err != nil {
		return transfer.Result{}, c.err
	}
	return transfer.Result{Reference: fmt.Sprintf("trf_test_%d", len(c.keys))}, nil
}

func TestRolledBackApprovalMovesNoFunds(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "companion-rental", "prov_1", 5000)
	p := h.requestPayout(t, "prov_1", "companion-rental", b.ID)
	summary := h.preview(t, p.ID, payoutdomain.DecisionApprove)

	transfers := &countingTransfers{}
	params := h.params
	params.Audit = failingAudit{Service: h.params.Audit}
	params.Transfers = transfers
	svc := NewService(params)

	_, err := svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve", ConfirmationToken: summary.ConfirmationToken})
	require.Error(t, err)
	assert.Empty(t, transfers.keys)
	assert.Empty(t, h.notifier.Sent())

	stored, err := h.svc.GetPayout(adminCtx(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusPending, stored.Status)
	assert.Equal(t, payoutdomain.TransferNone, stored.TransferStatus)
	assert.Nil(t, stored.TransferRef)
	assert.Equal(t, p.Version, stored.Version)
	assert.Len(t, h.auditEntries(t, p.ID), 1)
}

func TestFailedTransferKeepsAuditedApproval(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "investor-match", "prov_1", 10000)
	p := h.requestPayout(t, "prov_1", "investor-match", b.ID)
	summary := h.preview(t, p.ID, payoutdomain.DecisionApprove)

	transfers := &countingTransfers{err: errors.New("gateway timeout")}
	params := h.params
	params.Transfers = transfers
	svc := NewService(params)

	approved, err := svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve", ConfirmationToken: summary.ConfirmationToken})
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusApproved, approved.Status)
	assert.Equal(t, payoutdomain.TransferFailed, approved.TransferStatus)
	assert.Nil(t, approved.TransferRef)
	assert.Equal(t, []string{p.ID}, transfers.keys)

	stored, err := h.svc.GetPayout(adminCtx(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.TransferFailed, stored.TransferStatus)

	entries := h.auditEntries(t, p.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, auditdomain.ActionPayoutDecision, entries[0].ActionType)
}

// lockingBookings records which bookings were read under a row lock.
type lockingBookings struct {
	bookingdomain.Repository
	locked [][]string
}

func (l *lockingBookings) FindByIDsForUpdate(ctx context.Context, db *gorm.DB, ids []string) ([]bookingdomain.Booking, error) {
	l.locked = append(l.locked, append([]string(nil), ids...))
	return l.Repository.FindByIDsForUpdate(ctx, db, ids)
}

func TestRequestPayoutLocksClaimedBookings(t *testing.T) {
	h := newHarness(t)
	b1 := h.completedBooking(t, "blind-date", "prov_1", 1500)
	b2 := h.completedBooking(t, "blind-date", "prov_1", 1500)

	bookings := &lockingBookings{Repository: h.params.Bookings}
	params := h.params
	params.Bookings = bookings
	svc := NewService(params)

	_, err := svc.RequestPayout(adminCtx(), domain.RequestPayoutRequest{
		PayeeID:       "prov_1",
		ServiceModule: "blind-date",
		BookingIDs:    []string{b1.ID, b2.ID},
		BankAccount:   "acct_123456789",
	})
	require.NoError(t, err)
	require.Len(t, bookings.locked, 1)
	assert.ElementsMatch(t, []string{b1.ID, b2.ID}, bookings.locked[0])

	_, err = svc.RequestPayout(adminCtx(), domain.RequestPayoutRequest{
		PayeeID:       "prov_1",
		ServiceModule: "blind-date",
		BookingIDs:    []string{b2.ID},
		BankAccount:   "acct_123456789",
	})
	assert.ErrorIs(t, err, payoutdomain.ErrBookingClaimed)
	assert.Len(t, bookings.locked, 2)
}

func TestPayoutDecisionNeedsCompletedBookings(t *testing.T) {
	h := newHarness(t)
	done := h.completedBooking(t, "blind-date", "prov_1", 1500)
	pending := h.advanceTo(t, h.createBooking(t, "blind-date", "prov_1", 1500), bookingdomain.StatusConfirmed)
	p := h.requestPayout(t, "prov_1", "blind-date", done.ID, pending.ID)
	assert.Equal(t, int64(3000), p.AmountMinor)

	_, err := h.svc.PreviewPayoutDecision(adminCtx(), domain.PreviewPayoutDecisionRequest{PayoutID: p.ID, Decision: "approve"})
	assert.ErrorIs(t, err, apperror.ErrIneligibleBookings)
	assert.Contains(t, err.Error(), pending.ID)

	for _, decision := range []string{"approve", "reject", "hold"} {
		_, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: decision})
		assert.ErrorIs(t, err, apperror.ErrIneligibleBookings, decision)
	}

	h.advanceTo(t, pending, bookingdomain.StatusCompleted)
	summary := h.preview(t, p.ID, payoutdomain.DecisionReject)
	rejected, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "reject", ConfirmationToken: summary.ConfirmationToken})
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusRejected, rejected.Status)
	assert.Nil(t, rejected.TransferRef)

	sent := h.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindPayoutRejected, sent[0].Kind)
	assert.Len(t, h.auditEntries(t, p.ID), 2)
}

func TestDecidePayoutRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "investor-match", "prov_1", 900000)
	p := h.requestPayout(t, "prov_1", "investor-match", b.ID)

	_, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve"})
	assert.ErrorIs(t, err, apperror.ErrConfirmationRequired)

	rejectToken := h.preview(t, p.ID, payoutdomain.DecisionReject).ConfirmationToken
	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve", ConfirmationToken: rejectToken})
	assert.ErrorIs(t, err, apperror.ErrConfirmationRequired)

	approveToken := h.preview(t, p.ID, payoutdomain.DecisionApprove).ConfirmationToken
	otherAdmin := auditcontext.WithActor(context.Background(), auditcontext.ActorTypeAdmin, "admin_2")
	_, err = h.svc.DecidePayout(otherAdmin, domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve", ConfirmationToken: approveToken})
	assert.ErrorIs(t, err, apperror.ErrConfirmationRequired)

	h.clock.Advance(10 * time.Minute)
	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve", ConfirmationToken: approveToken})
	assert.ErrorIs(t, err, apperror.ErrConfirmationRequired)

	stored, err := h.svc.GetPayout(adminCtx(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusPending, stored.Status)
	assert.Len(t, h.auditEntries(t, p.ID), 1)
	assert.Empty(t, h.notifier.Sent())
}

func TestStaleConfirmationConflicts(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "expert-consultation", "prov_1", 400000)
	p := h.requestPayout(t, "prov_1", "expert-consultation", b.ID)

	stale := h.preview(t, p.ID, payoutdomain.DecisionApprove)

	held, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "hold", Note: "kyc pending"})
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusOnHold, held.Status)

	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "hold"})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	released, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "release"})
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusPending, released.Status)
	assert.Equal(t, int64(3), released.Version)

	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "release"})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve", ConfirmationToken: stale.ConfirmationToken})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	fresh := h.preview(t, p.ID, payoutdomain.DecisionApprove)
	approved, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "approve", ConfirmationToken: fresh.ConfirmationToken})
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusApproved, approved.Status)

	assert.Len(t, h.auditEntries(t, p.ID), 4)
}

func TestHeldDecisionLockConflicts(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "blind-date", "prov_1", 1500)
	p := h.requestPayout(t, "prov_1", "blind-date", b.ID)

	_, ok, err := h.locker.TryLock(context.Background(), decisionLockPrefix+p.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: p.ID, Decision: "hold"})
	assert.ErrorIs(t, err, payoutdomain.ErrDecisionInProgress)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRequestPayoutValidation(t *testing.T) {
	h := newHarness(t)
	own := h.completedBooking(t, "blind-date", "prov_1", 1500)
	foreign := h.completedBooking(t, "blind-date", "prov_2", 1500)
	otherModule := h.completedBooking(t, "business-meetup", "prov_1", 3000)

	cases := []struct {
		name string
		req  domain.RequestPayoutRequest
		want error
	}{
		{"no payee", domain.RequestPayoutRequest{ServiceModule: "blind-date", BookingIDs: []string{own.ID}, BankAccount: "acct_1"}, payoutdomain.ErrPayeeRequired},
		{"no bookings", domain.RequestPayoutRequest{PayeeID: "prov_1", ServiceModule: "blind-date", BankAccount: "acct_1"}, payoutdomain.ErrBookingsRequired},
		{"duplicate", domain.RequestPayoutRequest{PayeeID: "prov_1", ServiceModule: "blind-date", BookingIDs: []string{own.ID, own.ID}, BankAccount: "acct_1"}, payoutdomain.ErrDuplicateBooking},
		{"no bank", domain.RequestPayoutRequest{PayeeID: "prov_1", ServiceModule: "blind-date", BookingIDs: []string{own.ID}}, payoutdomain.ErrBankAccountRequired},
		{"not owned", domain.RequestPayoutRequest{PayeeID: "prov_1", ServiceModule: "blind-date", BookingIDs: []string{foreign.ID}, BankAccount: "acct_1"}, payoutdomain.ErrBookingNotOwned},
		{"other module", domain.RequestPayoutRequest{PayeeID: "prov_1", ServiceModule: "blind-date", BookingIDs: []string{otherModule.ID}, BankAccount: "acct_1"}, payoutdomain.ErrBookingModule},
		{"unknown booking", domain.RequestPayoutRequest{PayeeID: "prov_1", ServiceModule: "blind-date", BookingIDs: []string{"missing"}, BankAccount: "acct_1"}, bookingdomain.ErrNotFound},
	}
	for _, tc := range cases {
		_, err := h.svc.RequestPayout(adminCtx(), tc.req)
		assert.ErrorIs(t, err, tc.want, tc.name)
	}

	first := h.requestPayout(t, "prov_1", "blind-date", own.ID)
	_, err := h.svc.RequestPayout(adminCtx(), domain.RequestPayoutRequest{PayeeID: "prov_1", ServiceModule: "blind-date", BookingIDs: []string{own.ID}, BankAccount: "acct_1"})
	assert.ErrorIs(t, err, payoutdomain.ErrBookingClaimed)

	token := h.preview(t, first.ID, payoutdomain.DecisionReject).ConfirmationToken
	_, err = h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: first.ID, Decision: "reject", ConfirmationToken: token})
	require.NoError(t, err)

	second := h.requestPayout(t, "prov_1", "blind-date", own.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestListPayoutsByModule(t *testing.T) {
	h := newHarness(t)
	b1 := h.completedBooking(t, "blind-date", "prov_1", 1500)
	b2 := h.completedBooking(t, "business-meetup", "prov_1", 3000)
	b3 := h.completedBooking(t, "blind-date", "prov_2", 1500)

	p1 := h.requestPayout(t, "prov_1", "blind-date", b1.ID)
	h.requestPayout(t, "prov_1", "business-meetup", b2.ID)
	p3 := h.requestPayout(t, "prov_2", "blind-date", b3.ID)

	rows, err := h.svc.ListPayouts(adminCtx(), domain.ListPayoutsRequest{ServiceModule: "blind-date"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, p1.ID, rows[0].ID)
	assert.Equal(t, p3.ID, rows[1].ID)

	rows, err = h.svc.ListPayouts(adminCtx(), domain.ListPayoutsRequest{PayeeID: "prov_1", Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = h.svc.ListPayouts(adminCtx(), domain.ListPayoutsRequest{Status: "paid"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPaddedIDsResolve(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "blind-date", "prov_1", 1500)
	p := h.requestPayout(t, "prov_1", "blind-date", b.ID)

	got, err := h.svc.GetPayout(adminCtx(), " "+p.ID+" ")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	held, err := h.svc.DecidePayout(adminCtx(), domain.DecidePayoutRequest{PayoutID: "\t" + p.ID, Decision: "hold"})
	require.NoError(t, err)
	assert.Equal(t, payoutdomain.StatusOnHold, held.Status)

	booking, err := h.svc.GetBooking(adminCtx(), b.ID+" ")
	require.NoError(t, err)
	assert.Equal(t, b.ID, booking.ID)
}
