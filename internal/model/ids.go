package model

import (
	"github.com/oklog/ulid/v2"
)

// NewMessageID returns a ULID used to correlate a payload across log lines.
func NewMessageID() string {
	return ulid.Make().String()
}

// WithID returns a copy of p carrying the given ID.
func (p Payload) WithID(id string) Payload {
	p.ID = id
	return p
}
