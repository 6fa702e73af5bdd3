package server

import (
	"context"
	"time"
)

// TickFunc is called once per tick with the 1-based tick number.
type TickFunc func(n int, now time.Time) error

// Tick runs fn immediately and then once per interval until it has run
// ticks times, ctx is done, or fn returns an error. The ticker is always
// stopped before Tick returns.
//
// It returns nil when the budget is exhausted, ctx.Err() on cancellation
// and fn's error otherwise.
func Tick(ctx context.Context, interval time.Duration, ticks int, now func() time.Time, fn TickFunc) error {
	if now == nil {
		now = time.Now
	}
	if ticks <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(1, now()); err != nil {
		return err
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for n := 2; n <= ticks; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := fn(n, now()); err != nil {
				return err
			}
		}
	}
	return nil
}
