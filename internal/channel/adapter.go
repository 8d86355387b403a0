package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/notiface/internal/model"
)

// Default channel capacities in bytes.
const (
	DefaultInboxSize  = 64
	DefaultOutboxSize = 64
)

// Adapter errors.
var (
	ErrHandlersNotRegistered = errors.New("channel handlers must be registered before open")
	ErrIncompleteHandlers    = errors.New("all four channel handlers are required")
	ErrAlreadyOpen           = errors.New("channel already open")
	ErrInvalidCapacity       = errors.New("channel capacity must be positive")
)

// Poster accepts events for the agent's event loop.
// Post reports false when the event could not be queued.
type Poster interface {
	Post(ev Event) bool
}

// Transport moves payloads between the host and the watch.
// Open must return promptly; long-running receive loops run on their own
// goroutine and deliver through the inbox until ctx is done or Close is called.
type Transport interface {
	Name() string
	Open(ctx context.Context, inbox *Inbox) error
	Close() error
}

// Handlers holds one callback per channel event.
type Handlers struct {
	InboundReceived func(InboundReceived)
	InboundDropped  func(InboundDropped)
	OutboundSent    func(OutboundSent)
	OutboundFailed  func(OutboundFailed)
}

func (h Handlers) complete() bool {
	return h.InboundReceived != nil && h.InboundDropped != nil &&
		h.OutboundSent != nil && h.OutboundFailed != nil
}

// Adapter wraps a transport and routes its events to registered handlers.
type Adapter struct {
	transport Transport
	poster    Poster
	logger    *slog.Logger

	mu         sync.Mutex
	handlers   Handlers
	registered bool
	open       bool
	inbox      *Inbox
	outboxSize int
}

// NewAdapter creates an adapter for transport that posts events to poster.
func NewAdapter(transport Transport, poster Poster, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		transport: transport,
		poster:    poster,
		logger:    logger,
	}
}

// Register installs the four event handlers. It must precede Open.
func (a *Adapter) Register(h Handlers) error {
	if !h.complete() {
		return ErrIncompleteHandlers
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.open {
		return ErrAlreadyOpen
	}
	a.handlers = h
	a.registered = true
	return nil
}

// Open opens the transport with fixed inbox and outbox capacities.
func (a *Adapter) Open(ctx context.Context, inboxSize, outboxSize int) error {
	if inboxSize <= 0 || outboxSize <= 0 {
		return ErrInvalidCapacity
	}

	a.mu.Lock()
	if !a.registered {
		a.mu.Unlock()
		return ErrHandlersNotRegistered
	}
	if a.open {
		a.mu.Unlock()
		return ErrAlreadyOpen
	}
	a.inbox = NewInbox(inboxSize, a.poster, a.logger)
	a.outboxSize = outboxSize
	a.open = true
	inbox := a.inbox
	a.mu.Unlock()

	if err := a.transport.Open(ctx, inbox); err != nil {
		a.mu.Lock()
		a.open = false
		a.inbox = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to open %s transport: %w", a.transport.Name(), err)
	}

	a.logger.Info("message channel open",
		"transport", a.transport.Name(),
		"inbox_size", inboxSize,
		"outbox_size", outboxSize,
	)
	return nil
}

// Close closes the transport. Closing a channel that is not open is a no-op.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if !a.open {
		a.mu.Unlock()
		return nil
	}
	a.open = false
	a.mu.Unlock()

	if err := a.transport.Close(); err != nil {
		return fmt.Errorf("failed to close %s transport: %w", a.transport.Name(), err)
	}
	a.logger.Debug("message channel closed", "transport", a.transport.Name())
	return nil
}

// IsOpen reports whether the channel is open.
func (a *Adapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

// Inbox returns the inbox handed to the transport, or nil before Open.
func (a *Adapter) Inbox() *Inbox {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inbox
}

// OutboxSize returns the outbound capacity the channel was opened with.
func (a *Adapter) OutboxSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outboxSize
}

// Dispatch routes a channel event to its handler.
// It reports false for events that are not channel events (Tick) or when no
// handlers are registered.
func (a *Adapter) Dispatch(ev Event) bool {
	a.mu.Lock()
	h, ok := a.handlers, a.registered
	a.mu.Unlock()
	if !ok {
		return false
	}

	switch e := ev.(type) {
	case InboundReceived:
		h.InboundReceived(e)
	case InboundDropped:
		h.InboundDropped(e)
	case OutboundSent:
		h.OutboundSent(e)
	case OutboundFailed:
		h.OutboundFailed(e)
	default:
		return false
	}
	return true
}

// Inbox is the transport-facing side of the channel. It enforces the inbound
// capacity and forwards accepted payloads to the event loop.
type Inbox struct {
	capacity int
	poster   Poster
	logger   *slog.Logger
}

// NewInbox creates an inbox of the given capacity posting to poster.
// Adapter.Open creates one for its transport; a nil logger uses slog.Default.
func NewInbox(capacity int, poster Poster, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{capacity: capacity, poster: poster, logger: logger}
}

// Capacity returns the largest encoded payload the inbox accepts.
func (in *Inbox) Capacity() int {
	return in.capacity
}

// Deliver offers a payload to the agent. It returns ReasonOK when the payload
// was queued, or the reason it was dropped. Oversize payloads are reported to
// the agent as InboundDropped.
func (in *Inbox) Deliver(p model.Payload) Reason {
	if p.ID == "" {
		p = p.WithID(model.NewMessageID())
	}

	if size := p.EncodedSize(); size > in.capacity {
		in.logger.Debug("inbound payload exceeds inbox",
			"message_id", p.ID, "size", size, "capacity", in.capacity)
		in.Drop(p.ID, ReasonBufferOverflow)
		return ReasonBufferOverflow
	}

	if !in.poster.Post(InboundReceived{Payload: p}) {
		in.logger.Warn("event queue full, inbound payload lost", "message_id", p.ID)
		return ReasonBusy
	}
	return ReasonOK
}

// DeliverFrame decodes a wire frame and delivers it under messageID, which is
// generated when empty. Frames larger than the inbox are dropped before
// decoding.
func (in *Inbox) DeliverFrame(messageID string, frame []byte) Reason {
	id := messageID
	if id == "" {
		id = model.NewMessageID()
	}
	if len(frame) > in.capacity {
		in.logger.Debug("inbound frame exceeds inbox",
			"message_id", id, "size", len(frame), "capacity", in.capacity)
		in.Drop(id, ReasonBufferOverflow)
		return ReasonBufferOverflow
	}

	p, err := Decode(frame)
	if err != nil {
		in.logger.Debug("failed to decode inbound frame", "message_id", id, "error", err)
		in.Drop(id, ReasonInvalidArgs)
		return ReasonInvalidArgs
	}
	return in.Deliver(p.WithID(id))
}

// Drop reports a dropped inbound message to the agent.
func (in *Inbox) Drop(messageID string, reason Reason) {
	if !in.poster.Post(InboundDropped{MessageID: messageID, Reason: reason}) {
		in.logger.Warn("event queue full, drop notice lost",
			"message_id", messageID, "reason", reason.String())
	}
}
