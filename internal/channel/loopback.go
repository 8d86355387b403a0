package channel

import (
	"context"
	"sync"

	"github.com/jmylchreest/notiface/internal/model"
)

// Loopback is an in-process transport. Whatever is sent through it is
// delivered to the inbox as if it came from the host. The preview and
// snapshot commands use it.
type Loopback struct {
	mu    sync.Mutex
	inbox *Inbox
}

// NewLoopback creates a loopback transport.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Name implements Transport.
func (l *Loopback) Name() string {
	return "loopback"
}

// Open implements Transport.
func (l *Loopback) Open(_ context.Context, inbox *Inbox) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inbox != nil {
		return ErrAlreadyOpen
	}
	l.inbox = inbox
	return nil
}

// Close implements Transport.
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.inbox = nil
	l.mu.Unlock()
	return nil
}

// Send delivers p to the inbox. It returns ReasonNotConnected when the
// loopback is not open.
func (l *Loopback) Send(p model.Payload) Reason {
	l.mu.Lock()
	inbox := l.inbox
	l.mu.Unlock()
	if inbox == nil {
		return ReasonNotConnected
	}
	return inbox.Deliver(p)
}

// SendFrame delivers an encoded frame to the inbox.
func (l *Loopback) SendFrame(frame []byte) Reason {
	l.mu.Lock()
	inbox := l.inbox
	l.mu.Unlock()
	if inbox == nil {
		return ReasonNotConnected
	}
	return inbox.DeliverFrame("", frame)
}
