package studycompanion

import (
	"context"
	"sync"
	"time"
)

// CountdownInterval is the refresh cadence of a running countdown.
const CountdownInterval = time.Second

// CountdownTicker emits the countdown to an exam once immediately and then
// every CountdownInterval until its context is cancelled or Stop is called.
// C is closed when the ticker has shut down.
type CountdownTicker struct {
	C <-chan Countdown

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewCountdownTicker starts a ticker for exam.
func NewCountdownTicker(ctx context.Context, exam time.Time) *CountdownTicker {
	return newCountdownTicker(ctx, exam, CountdownInterval, time.Now)
}

func newCountdownTicker(ctx context.Context, exam time.Time, interval time.Duration, now func() time.Time) *CountdownTicker {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Countdown, 1)
	t := &CountdownTicker{
		C:      out,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case out <- ComputeCountdown(exam, now()):
			case <-ctx.Done():
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return t
}

// Stop shuts the ticker down and waits for it to exit. It is safe to call
// more than once.
func (t *CountdownTicker) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		<-t.done
	})
}
