// Package transfer initiates payouts to bank accounts. Only a simulated
// provider ships; real gateway integration is out of scope.
package transfer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.transfer",
	fx.Provide(func(log *zap.Logger) Provider { return NewSimulated(log) }),
)

var ErrIdempotencyKeyRequired = errors.New("transfer_idempotency_key_required")

// Request describes one transfer. Providers must treat IdempotencyKey as
// the identity of the transfer so a retried call never moves funds twice.
type Request struct {
	IdempotencyKey string
	PayoutID       string
	PayeeID        string
	AmountMinor    int64
	Currency       string
	BankAccountRef string
}

type Result struct {
	Reference string
}

type Provider interface {
	InitiateTransfer(ctx context.Context, req Request) (Result, error)
}

// Simulated accepts every transfer and hands back a synthetic reference.
// A repeated idempotency key returns the reference issued the first time.
type Simulated struct {
	log *zap.Logger

	mu   sync.Mutex
	refs map[string]string
}

func NewSimulated(log *zap.Logger) *Simulated {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulated{
		log:  log.Named("transfer.simulated"),
		refs: make(map[string]string),
	}
}

func (s *Simulated) InitiateTransfer(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return Result{}, ErrIdempotencyKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[key]; ok {
		return Result{Reference: ref}, nil
	}
	ref := "trf_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.refs[key] = ref
	s.log.Info("transfer initiated",
		zap.String("payout_id", req.PayoutID),
		zap.Int64("amount_minor", req.AmountMinor),
		zap.String("currency", req.Currency),
		zap.String("reference", ref),
	)
	return Result{Reference: ref}, nil
}
