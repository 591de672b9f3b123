package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	auditrepository "github.com/smallbiznis/rendezvous/internal/audit/repository"
	auditservice "github.com/smallbiznis/rendezvous/internal/audit/service"
	"github.com/smallbiznis/rendezvous/internal/auditcontext"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	bookingrepository "github.com/smallbiznis/rendezvous/internal/booking/repository"
	"github.com/smallbiznis/rendezvous/internal/clock"
	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/confirmation"
	disputerepository "github.com/smallbiznis/rendezvous/internal/dispute/repository"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"github.com/smallbiznis/rendezvous/internal/lock"
	"github.com/smallbiznis/rendezvous/internal/migration"
	"github.com/smallbiznis/rendezvous/internal/notification"
	payoutrepository "github.com/smallbiznis/rendezvous/internal/payout/repository"
	pricingrepository "github.com/smallbiznis/rendezvous/internal/pricing/repository"
	"github.com/smallbiznis/rendezvous/internal/providers/transfer"
	"github.com/smallbiznis/rendezvous/internal/refund"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc      *Service
	params   Params
	db       *gorm.DB
	clock    *clock.FakeClock
	policy   *config.GovernancePolicyHolder
	notifier *notification.Recorder
	locker   *lock.MemoryLocker
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(testNow)
	log := zap.NewNop()
	policy := config.NewStaticGovernancePolicyHolder(config.DefaultGovernancePolicy())
	recorder := &notification.Recorder{}
	locker := lock.NewMemoryLocker()

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		Clock: clk,
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	params := Params{
		DB:            db,
		Log:           log,
		Clock:         clk,
		GenID:         node,
		Policy:        policy,
		Audit:         audit,
		Bookings:      bookingrepository.Provide(),
		Disputes:      disputerepository.Provide(),
		Payouts:       payoutrepository.Provide(),
		Prices:        pricingrepository.Provide(),
		Refunds:       refund.NewTieredPolicy(policy),
		Transfers:     transfer.NewSimulated(log),
		Confirmations: confirmation.NewIssuer([]byte("test-secret"), 5*time.Minute, clk),
		Notifier:      recorder,
		Locker:        locker,
	}

	return &harness{
		svc:      NewService(params).(*Service),
		params:   params,
		db:       db,
		clock:    clk,
		policy:   policy,
		notifier: recorder,
		locker:   locker,
	}
}

func adminCtx() context.Context {
	return auditcontext.WithActor(context.Background(), auditcontext.ActorTypeAdmin, "admin_1")
}

// failingAudit accepts reads but refuses every append.
type failingAudit struct {
	auditdomain.Service
}

func (failingAudit) Append(context.Context, *gorm.DB, auditdomain.Record) (*auditdomain.AuditEntry, error) {
	return nil, errors.New("audit store unavailable")
}

func (h *harness) withFailingAudit() *Service {
	p := h.params
	p.Audit = failingAudit{Service: h.params.Audit}
	return NewService(p).(*Service)
}

func (h *harness) auditEntries(t *testing.T, entityID string) []auditdomain.AuditEntry {
	t.Helper()
	resp, err := h.svc.ListAuditEntries(adminCtx(), auditdomain.ListRequest{EntityID: entityID})
	require.NoError(t, err)
	return resp.Entries
}

func (h *harness) createBooking(t *testing.T, module, providerID string, amountMinor int64) *bookingdomain.Booking {
	t.Helper()
	b, err := h.svc.CreateBooking(adminCtx(), domain.CreateBookingRequest{
		ServiceModule: module,
		CustomerID:    "cust_1",
		ProviderID:    providerID,
		ScheduledAt:   testNow.Add(72 * time.Hour),
		AmountMinor:   amountMinor,
		Currency:      "INR",
	})
	require.NoError(t, err)
	return b
}

var nextStep = map[bookingdomain.Status]bookingdomain.Status{
	bookingdomain.StatusPending:   bookingdomain.StatusScheduled,
	bookingdomain.StatusScheduled: bookingdomain.StatusConfirmed,
	bookingdomain.StatusConfirmed: bookingdomain.StatusCompleted,
}

// advanceTo walks a booking forward until it reaches target.
func (h *harness) advanceTo(t *testing.T, b *bookingdomain.Booking, target bookingdomain.Status) *bookingdomain.Booking {
	t.Helper()
	for b.Status != target {
		next, ok := nextStep[b.Status]
		require.True(t, ok, "cannot advance %s booking to %s", b.Status, target)
		var err error
		b, err = h.svc.AdvanceBooking(adminCtx(), domain.AdvanceBookingRequest{BookingID: b.ID, NextStatus: string(next)})
		require.NoError(t, err)
	}
	return b
}

func (h *harness) completedBooking(t *testing.T, module, providerID string, amountMinor int64) *bookingdomain.Booking {
	t.Helper()
	return h.advanceTo(t, h.createBooking(t, module, providerID, amountMinor), bookingdomain.StatusCompleted)
}
