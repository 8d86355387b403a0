package channel

import (
	"time"

	"github.com/jmylchreest/notiface/internal/model"
)

// Event is one of InboundReceived, InboundDropped, OutboundSent,
// OutboundFailed or Tick. The set is closed.
type Event interface {
	isEvent()
}

// InboundReceived carries a payload accepted by the inbox.
type InboundReceived struct {
	Payload model.Payload
}

// InboundDropped reports a payload the inbox refused.
type InboundDropped struct {
	MessageID string
	Reason    Reason
}

// OutboundSent reports an outbound payload delivered to the host.
type OutboundSent struct {
	Payload model.Payload
}

// OutboundFailed reports an outbound payload the host did not receive.
type OutboundFailed struct {
	Payload model.Payload
	Reason  Reason
}

// Tick is posted by the minute ticker rather than by a transport.
type Tick struct {
	Now time.Time
}

func (InboundReceived) isEvent() {}
func (InboundDropped) isEvent()  {}
func (OutboundSent) isEvent()    {}
func (OutboundFailed) isEvent()  {}
func (Tick) isEvent()            {}

// Reason explains why a message was dropped or failed.
type Reason uint8

const (
	// ReasonOK means the message was accepted.
	ReasonOK Reason = iota
	// ReasonBusy means the event queue had no room.
	ReasonBusy
	// ReasonBufferOverflow means the payload exceeded the inbox capacity.
	ReasonBufferOverflow
	// ReasonInvalidArgs means the payload could not be decoded.
	ReasonInvalidArgs
	// ReasonNotConnected means the transport has no link to the host.
	ReasonNotConnected
	// ReasonClosed means the channel is not open.
	ReasonClosed
	// ReasonInternal is any other transport failure.
	ReasonInternal
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonBusy:
		return "busy"
	case ReasonBufferOverflow:
		return "buffer_overflow"
	case ReasonInvalidArgs:
		return "invalid_args"
	case ReasonNotConnected:
		return "not_connected"
	case ReasonClosed:
		return "closed"
	case ReasonInternal:
		return "internal"
	default:
		return "unknown"
	}
}
