package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/notiface/internal/channel"
)

// MinuteTicker posts a channel.Tick at every wall-clock minute boundary.
type MinuteTicker struct {
	poster channel.Poster
	logger *slog.Logger

	// now and unit are replaced in tests.
	now  func() time.Time
	unit time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMinuteTicker creates a ticker posting to poster.
func NewMinuteTicker(poster channel.Poster, logger *slog.Logger) *MinuteTicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MinuteTicker{
		poster: poster,
		logger: logger,
		now:    time.Now,
		unit:   time.Minute,
	}
}

// Start subscribes to minute ticks. Starting a running ticker is a no-op.
func (t *MinuteTicker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx, t.done)
}

// Stop unsubscribes and waits for the ticker goroutine to exit.
func (t *MinuteTicker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// untilNext returns the wait until the next unit boundary after now.
func untilNext(now time.Time, unit time.Duration) time.Duration {
	next := now.Truncate(unit).Add(unit)
	return next.Sub(now)
}

func (t *MinuteTicker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(untilNext(t.now(), t.unit))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			now := t.now()
			if !t.poster.Post(channel.Tick{Now: now}) {
				t.logger.Warn("event queue full, minute tick lost", "now", now)
			}
			timer.Reset(untilNext(now, t.unit))
		}
	}
}
