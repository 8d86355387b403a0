package channel

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jmylchreest/notiface/internal/model"
)

// ErrMalformed is returned when a frame cannot be decoded as a payload.
var ErrMalformed = errors.New("malformed payload")

// Encode serializes a payload into its wire form:
//
//	count:u8 { key:u32le type:u8 length:u16le value[length] }*count
func Encode(p model.Payload) ([]byte, error) {
	tuples := p.Tuples()
	if len(tuples) > model.MaxTuples {
		return nil, model.ErrTooManyTuples
	}

	buf := make([]byte, 0, p.EncodedSize())
	buf = append(buf, byte(len(tuples)))
	for _, t := range tuples {
		if len(t.Value) > model.MaxValueLen {
			return nil, fmt.Errorf("key %d: %w", t.Key, model.ErrValueTooLarge)
		}
		buf = binary.LittleEndian.AppendUint32(buf, t.Key)
		buf = append(buf, byte(t.Type))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(t.Value)))
		buf = append(buf, t.Value...)
	}
	return buf, nil
}

// Decode parses a frame produced by Encode.
func Decode(frame []byte) (model.Payload, error) {
	if len(frame) < model.DictHeaderSize {
		return model.Payload{}, fmt.Errorf("%w: empty frame", ErrMalformed)
	}

	count := int(frame[0])
	rest := frame[model.DictHeaderSize:]
	tuples := make([]model.Tuple, 0, count)

	for i := 0; i < count; i++ {
		if len(rest) < model.TupleHeaderSize {
			return model.Payload{}, fmt.Errorf("%w: tuple %d header truncated", ErrMalformed, i)
		}
		key := binary.LittleEndian.Uint32(rest[0:4])
		typ := model.TupleType(rest[4])
		n := int(binary.LittleEndian.Uint16(rest[5:7]))
		rest = rest[model.TupleHeaderSize:]

		if len(rest) < n {
			return model.Payload{}, fmt.Errorf("%w: tuple %d value truncated", ErrMalformed, i)
		}
		if err := validateTuple(typ, n); err != nil {
			return model.Payload{}, fmt.Errorf("%w: key %d: %v", ErrMalformed, key, err)
		}

		value := make([]byte, n)
		copy(value, rest[:n])
		rest = rest[n:]

		tuples = append(tuples, model.Tuple{Key: key, Type: typ, Value: value})
	}

	if len(rest) != 0 {
		return model.Payload{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}

	p, err := model.NewPayload(tuples...)
	if err != nil {
		return model.Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

func validateTuple(typ model.TupleType, n int) error {
	switch typ {
	case model.TupleBytes, model.TupleCString:
		return nil
	case model.TupleUint, model.TupleInt:
		if n != 1 && n != 2 && n != 4 {
			return fmt.Errorf("integer width %d", n)
		}
		return nil
	default:
		return fmt.Errorf("unknown tuple type %d", typ)
	}
}
