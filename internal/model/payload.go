package model

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

// NotificationKey is the payload key carrying the notification body.
const NotificationKey uint32 = 1

// TupleType identifies how a tuple value is encoded.
type TupleType uint8

const (
	// TupleBytes is an opaque byte array.
	TupleBytes TupleType = 0
	// TupleCString is a NUL-terminated string.
	TupleCString TupleType = 1
	// TupleUint is a little-endian unsigned integer of 1, 2 or 4 bytes.
	TupleUint TupleType = 2
	// TupleInt is a little-endian signed integer of 1, 2 or 4 bytes.
	TupleInt TupleType = 3
)

// String returns the string representation of the tuple type.
func (t TupleType) String() string {
	switch t {
	case TupleBytes:
		return "bytes"
	case TupleCString:
		return "cstring"
	case TupleUint:
		return "uint"
	case TupleInt:
		return "int"
	default:
		return "unknown"
	}
}

// TupleHeaderSize is the encoded size of a tuple before its value:
// key (4), type (1), length (2).
const TupleHeaderSize = 7

// DictHeaderSize is the encoded size of the tuple count.
const DictHeaderSize = 1

// MaxTuples is the most tuples a single payload can carry.
const MaxTuples = 255

// MaxValueLen is the largest encoded tuple value.
const MaxValueLen = 0xFFFF

// Payload errors.
var (
	ErrTooManyTuples = errors.New("payload has more than 255 tuples")
	ErrValueTooLarge = errors.New("tuple value exceeds 65535 bytes")
	ErrDuplicateKey  = errors.New("duplicate tuple key")
)

// Tuple is a single key/value entry of a payload.
type Tuple struct {
	Key   uint32
	Type  TupleType
	Value []byte // Encoded value; C strings include their terminator
}

// CStringTuple creates a C string tuple, appending the terminator.
func CStringTuple(key uint32, s string) Tuple {
	v := make([]byte, len(s)+1)
	copy(v, s)
	return Tuple{Key: key, Type: TupleCString, Value: v}
}

// BytesTuple creates a byte array tuple.
func BytesTuple(key uint32, b []byte) Tuple {
	return Tuple{Key: key, Type: TupleBytes, Value: bytes.Clone(b)}
}

// UintTuple creates a 4-byte unsigned integer tuple.
func UintTuple(key uint32, v uint32) Tuple {
	return Tuple{Key: key, Type: TupleUint, Value: binary.LittleEndian.AppendUint32(nil, v)}
}

// IntTuple creates a 4-byte signed integer tuple.
func IntTuple(key uint32, v int32) Tuple {
	return Tuple{Key: key, Type: TupleInt, Value: binary.LittleEndian.AppendUint32(nil, uint32(v))}
}

// Payload is an inbound or outbound message: a small dictionary of tuples
// keyed by integer.
type Payload struct {
	// ID correlates a payload across log lines. It is not transmitted.
	ID     string
	tuples []Tuple
}

// NewPayload builds a payload from tuples, sorted by key.
func NewPayload(tuples ...Tuple) (Payload, error) {
	if len(tuples) > MaxTuples {
		return Payload{}, ErrTooManyTuples
	}

	sorted := slices.Clone(tuples)
	slices.SortFunc(sorted, func(a, b Tuple) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		default:
			return 0
		}
	})
	for i, t := range sorted {
		if len(t.Value) > MaxValueLen {
			return Payload{}, fmt.Errorf("key %d: %w", t.Key, ErrValueTooLarge)
		}
		if i > 0 && sorted[i-1].Key == t.Key {
			return Payload{}, fmt.Errorf("key %d: %w", t.Key, ErrDuplicateKey)
		}
	}

	return Payload{tuples: sorted}, nil
}

// NotificationPayload builds the payload a host sends for a notification body.
// Text that cannot fit a single tuple is cut to MaxValueLen-1 bytes.
func NotificationPayload(text string) Payload {
	if len(text) >= MaxValueLen {
		text = text[:MaxValueLen-1]
	}
	return Payload{tuples: []Tuple{CStringTuple(NotificationKey, text)}}
}

// Len returns the number of tuples.
func (p Payload) Len() int {
	return len(p.tuples)
}

// Tuples returns the tuples in key order.
func (p Payload) Tuples() []Tuple {
	return slices.Clone(p.tuples)
}

// Find returns the tuple stored under key.
func (p Payload) Find(key uint32) (Tuple, bool) {
	for _, t := range p.tuples {
		if t.Key == key {
			return t, true
		}
	}
	return Tuple{}, false
}

// CString returns the string stored under key without its terminator.
// It reports false when the key is absent or holds another type.
func (p Payload) CString(key uint32) ([]byte, bool) {
	t, ok := p.Find(key)
	if !ok || t.Type != TupleCString {
		return nil, false
	}
	v := t.Value
	if i := bytes.IndexByte(v, 0); i >= 0 {
		v = v[:i]
	}
	return v, true
}

// EncodedSize returns the number of bytes the payload occupies on the wire.
func (p Payload) EncodedSize() int {
	size := DictHeaderSize
	for _, t := range p.tuples {
		size += TupleHeaderSize + len(t.Value)
	}
	return size
}
