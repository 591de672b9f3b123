// Package notification fans governance outcomes out to interested parties
// once the owning transaction has committed.
package notification

import (
	"context"
	"errors"
	"sync"
	"time"
)

type Kind string

const (
	KindDisputeResolved Kind = "dispute.resolved"
	KindPayoutApproved  Kind = "payout.approved"
	KindPayoutRejected  Kind = "payout.rejected"
)

type Notification struct {
	Kind          Kind           `json:"kind"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	ServiceModule string         `json:"service_module"`
	Recipients    []string       `json:"recipients"`
	Subject       string         `json:"subject"`
	Body          string         `json:"body"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

type NoOp struct{}

func (NoOp) Dispatch(context.Context, Notification) error { return nil }

// Fanout delivers to every dispatcher and joins their failures.
type Fanout []Dispatcher

func (f Fanout) Dispatch(ctx context.Context, n Notification) error {
	var errs []error
	for _, d := range f {
		if d == nil {
			continue
		}
		if err := d.Dispatch(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps dispatched notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

func (r *Recorder) Dispatch(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.Err
}

func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}
