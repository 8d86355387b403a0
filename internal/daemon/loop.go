package daemon

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/notiface/internal/channel"
)

// DefaultQueueDepth is the number of events the loop buffers.
const DefaultQueueDepth = 32

// Loop is a bounded event queue drained by a single goroutine.
// It implements channel.Poster.
type Loop struct {
	events chan channel.Event
	logger *slog.Logger
}

// NewLoop creates a loop that buffers up to depth events.
func NewLoop(depth int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Loop{
		events: make(chan channel.Event, depth),
		logger: logger,
	}
}

// Post queues an event without blocking. It reports false when the queue is full.
func (l *Loop) Post(ev channel.Event) bool {
	select {
	case l.events <- ev:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued events.
func (l *Loop) Pending() int {
	return len(l.events)
}

// Run hands events to handle one at a time until ctx is done.
func (l *Loop) Run(ctx context.Context, handle func(channel.Event)) {
	l.logger.Debug("event loop started")
	defer l.logger.Debug("event loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.events:
			handle(ev)
		}
	}
}

// Flush hands every queued event to handle and returns how many there were.
// It never blocks waiting for new events.
func (l *Loop) Flush(handle func(channel.Event)) int {
	n := 0
	for {
		select {
		case ev := <-l.events:
			handle(ev)
			n++
		default:
			return n
		}
	}
}
