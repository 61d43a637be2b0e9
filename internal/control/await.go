package control

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDriverBusy is returned when a driver call abandoned after a timeout
// still has not returned by the time the next call wants the hardware.
var ErrDriverBusy = errors.New("driver busy with an abandoned call")

// gate admits one driver call at a time. A slot is held until the driver
// function really returns, including calls the loop stopped waiting for.
type gate chan struct{}

func newGate() gate { return make(gate, 1) }

// await runs fn bounded by timeout. A zero timeout waits for fn however
// long it takes. When the deadline passes first the result is abandoned
// and ctx's error returned; fn keeps the deadline-carrying ctx so a
// well-behaved driver returns soon after. The time spent waiting for g
// counts against the same deadline.
func await[T any](ctx context.Context, g gate, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if timeout <= 0 {
		select {
		case g <- struct{}{}:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		defer func() { <-g }()
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case g <- struct{}{}:
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrDriverBusy, ctx.Err())
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() { <-g }()
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
