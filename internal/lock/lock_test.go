package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.nowFn = func() time.Time { return now }

	token, ok, err := l.TryLock(ctx, "payout:P1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "payout:P1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "payout:P1", "someone-else"))
	_, ok, _ = l.TryLock(ctx, "payout:P1", time.Minute)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "payout:P1", token))
	_, ok, _ = l.TryLock(ctx, "payout:P1", time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = l.TryLock(ctx, "payout:P1", time.Minute)
	assert.True(t, ok)
}

func TestLockerRejectsBadArgs(t *testing.T) {
	l := NewMemoryLocker()
	_, _, err := l.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = l.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}
