package control

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwait_NoTimeoutPassesThrough(t *testing.T) {
	v, err := await(context.Background(), newGate(), 0, func(ctx context.Context) (int, error) {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestAwait_DeadlinePropagates(t *testing.T) {
	_, err := await(context.Background(), newGate(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwait_GateReleasedAfterReturn(t *testing.T) {
	g := newGate()
	for i := 0; i < 3; i++ {
		_, err := await(context.Background(), g, time.Second, func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}
	_, err := await(context.Background(), g, 0, func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Len(t, g, 0)
}

func TestAwait_AbandonedCallBlocksNext(t *testing.T) {
	g := newGate()
	release := make(chan struct{})
	var inFlight, maxInFlight atomic.Int32
	slow := func(context.Context) (int, error) {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		<-release
		inFlight.Add(-1)
		return 1, nil
	}

	_, err := await(context.Background(), g, 10*time.Millisecond, slow)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = await(context.Background(), g, 10*time.Millisecond, slow)
	assert.ErrorIs(t, err, ErrDriverBusy)

	close(release)
	v, err := await(context.Background(), g, time.Second, func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.EqualValues(t, 1, maxInFlight.Load())
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	assert.NoError(t, sleepCtx(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
