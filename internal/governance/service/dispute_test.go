package service

import (
	"testing"

	"github.com/smallbiznis/rendezvous/internal/apperror"
	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	disputedomain "github.com/smallbiznis/rendezvous/internal/dispute/domain"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"github.com/smallbiznis/rendezvous/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) openDispute(t *testing.T, bookingID, severity string) *disputedomain.DisputeCase {
	t.Helper()
	d, err := h.svc.OpenDispute(adminCtx(), domain.OpenDisputeRequest{
		BookingID: bookingID,
		PartyA:    "cust_1",
		PartyB:    "prov_1",
		Category:  "no_show",
		Severity:  severity,
	})
	require.NoError(t, err)
	return d
}

func TestOpenDispute(t *testing.T) {
	h := newHarness(t)
	b := h.createBooking(t, "blind-date", "prov_1", 1500)

	d := h.openDispute(t, b.ID, "")
	assert.Equal(t, disputedomain.StatusOpen, d.Status)
	assert.Equal(t, disputedomain.SeverityMedium, d.Severity)
	assert.Equal(t, b.ServiceModule, d.ServiceModule)

	entries := h.auditEntries(t, d.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, auditdomain.ActionDisputeOpened, entries[0].ActionType)
	assert.Equal(t, auditdomain.EntityDispute, entries[0].EntityType)

	_, err := h.svc.OpenDispute(adminCtx(), domain.OpenDisputeRequest{BookingID: "missing", PartyA: "a", PartyB: "b", Category: "fraud"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = h.svc.OpenDispute(adminCtx(), domain.OpenDisputeRequest{BookingID: b.ID, PartyA: "a", PartyB: "a", Category: "fraud"})
	assert.ErrorIs(t, err, disputedomain.ErrPartiesIdentical)

	_, err = h.svc.OpenDispute(adminCtx(), domain.OpenDisputeRequest{BookingID: b.ID, PartyA: "a", PartyB: "b", Category: "fraud", Severity: "urgent"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestResolveDisputeRequiresServicedBooking(t *testing.T) {
	h := newHarness(t)
	b := h.createBooking(t, "companion-rental", "prov_1", 250000)
	d := h.openDispute(t, b.ID, "low")

	req := domain.ResolveDisputeRequest{DisputeID: d.ID, Resolution: "partial refund issued"}
	_, err := h.svc.ResolveDispute(adminCtx(), req)
	assert.ErrorIs(t, err, apperror.ErrPreconditionFailed)

	b = h.advanceTo(t, b, bookingdomain.StatusScheduled)
	_, err = h.svc.ResolveDispute(adminCtx(), req)
	assert.ErrorIs(t, err, disputedomain.ErrBookingNotServiced)

	h.advanceTo(t, b, bookingdomain.StatusConfirmed)
	resolved, err := h.svc.ResolveDispute(adminCtx(), req)
	require.NoError(t, err)
	assert.Equal(t, disputedomain.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, "partial refund issued", *resolved.Resolution)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "admin_1", *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	sent := h.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindDisputeResolved, sent[0].Kind)
	assert.Equal(t, []string{"cust_1", "prov_1"}, sent[0].Recipients)
}

func TestResolveDisputeIsNotRepeatable(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "blind-date", "prov_1", 1500)
	d := h.openDispute(t, b.ID, "medium")

	_, err := h.svc.ResolveDispute(adminCtx(), domain.ResolveDisputeRequest{DisputeID: d.ID, Resolution: "   "})
	assert.ErrorIs(t, err, disputedomain.ErrResolutionMissing)

	_, err = h.svc.ResolveDispute(adminCtx(), domain.ResolveDisputeRequest{DisputeID: d.ID, Resolution: "warning issued"})
	require.NoError(t, err)

	_, err = h.svc.ResolveDispute(adminCtx(), domain.ResolveDisputeRequest{DisputeID: d.ID, Resolution: "again"})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = h.svc.EscalateDispute(adminCtx(), domain.EscalateDisputeRequest{DisputeID: d.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	entries := h.auditEntries(t, d.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, auditdomain.ActionDisputeResolved, entries[0].ActionType)
	assert.Len(t, h.notifier.Sent(), 1)
}

func TestEscalateDisputeRaisesSeverity(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "expert-consultation", "prov_1", 400000)

	low := h.openDispute(t, b.ID, "low")
	escalated, err := h.svc.EscalateDispute(adminCtx(), domain.EscalateDisputeRequest{DisputeID: low.ID, Reason: "repeat offender"})
	require.NoError(t, err)
	assert.Equal(t, disputedomain.StatusEscalated, escalated.Status)
	assert.Equal(t, disputedomain.SeverityHigh, escalated.Severity)
	assert.NotNil(t, escalated.EscalatedAt)

	again, err := h.svc.EscalateDispute(adminCtx(), domain.EscalateDisputeRequest{DisputeID: low.ID})
	require.NoError(t, err)
	assert.Equal(t, disputedomain.StatusEscalated, again.Status)

	critical := h.openDispute(t, b.ID, "critical")
	escalated, err = h.svc.EscalateDispute(adminCtx(), domain.EscalateDisputeRequest{DisputeID: critical.ID})
	require.NoError(t, err)
	assert.Equal(t, disputedomain.SeverityCritical, escalated.Severity)

	reviewed, err := h.svc.TransitionDispute(adminCtx(), domain.TransitionDisputeRequest{DisputeID: low.ID, NextStatus: "under_review"})
	require.NoError(t, err)
	assert.Equal(t, disputedomain.StatusUnderReview, reviewed.Status)

	entries := h.auditEntries(t, low.ID)
	require.Len(t, entries, 4)
	assert.Equal(t, "low", entries[2].Metadata["severity_from"])
	assert.Equal(t, "high", entries[2].Metadata["severity_to"])
}

func TestTransitionDisputeGraph(t *testing.T) {
	h := newHarness(t)
	b := h.completedBooking(t, "business-meetup", "prov_1", 300000)
	d := h.openDispute(t, b.ID, "medium")

	_, err := h.svc.TransitionDispute(adminCtx(), domain.TransitionDisputeRequest{DisputeID: d.ID, NextStatus: "resolved"})
	assert.ErrorIs(t, err, domain.ErrUseDedicatedCommand)

	_, err = h.svc.TransitionDispute(adminCtx(), domain.TransitionDisputeRequest{DisputeID: d.ID, NextStatus: "open"})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	for _, next := range []string{"awaiting_info", "under_review"} {
		_, err := h.svc.TransitionDispute(adminCtx(), domain.TransitionDisputeRequest{DisputeID: d.ID, NextStatus: next})
		require.NoError(t, err, next)
	}

	assigned, err := h.svc.AssignDispute(adminCtx(), domain.AssignDisputeRequest{DisputeID: d.ID, Assignee: "agent_7"})
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, "agent_7", *assigned.AssignedTo)

	closed, err := h.svc.TransitionDispute(adminCtx(), domain.TransitionDisputeRequest{DisputeID: d.ID, NextStatus: "closed", Note: "withdrawn by customer"})
	require.NoError(t, err)
	assert.Equal(t, disputedomain.StatusClosed, closed.Status)
	require.NotNil(t, closed.Resolution)
	assert.Equal(t, "withdrawn by customer", *closed.Resolution)
	assert.NotNil(t, closed.ClosedAt)

	_, err = h.svc.TransitionDispute(adminCtx(), domain.TransitionDisputeRequest{DisputeID: d.ID, NextStatus: "under_review"})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	_, err = h.svc.AssignDispute(adminCtx(), domain.AssignDisputeRequest{DisputeID: d.ID, Assignee: "agent_8"})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	assert.Len(t, h.auditEntries(t, d.ID), 5)
	assert.Empty(t, h.notifier.Sent())
}

func TestListDisputesByModule(t *testing.T) {
	h := newHarness(t)
	date := h.createBooking(t, "blind-date", "prov_1", 1500)
	meetup := h.createBooking(t, "business-meetup", "prov_2", 3000)

	first := h.openDispute(t, date.ID, "low")
	h.openDispute(t, meetup.ID, "low")
	second := h.openDispute(t, date.ID, "high")

	rows, err := h.svc.ListDisputes(adminCtx(), domain.ListDisputesRequest{ServiceModule: "blind-date"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)

	rows, err = h.svc.ListDisputes(adminCtx(), domain.ListDisputesRequest{Status: "open", BookingID: meetup.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = h.svc.GetDispute(adminCtx(), "missing")
	assert.ErrorIs(t, err, disputedomain.ErrNotFound)
}
