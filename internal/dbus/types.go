package dbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/model"
)

// ErrUnsupportedVariant is returned for variant values with no tuple type.
var ErrUnsupportedVariant = errors.New("unsupported variant type")

// Error names returned to callers of Deliver.
const (
	ErrorBusy           = DBusInterface + ".Error.Busy"
	ErrorBufferOverflow = DBusInterface + ".Error.BufferOverflow"
	ErrorInvalidArgs    = DBusInterface + ".Error.InvalidArgs"
	ErrorNotConnected   = DBusInterface + ".Error.NotConnected"
	ErrorClosed         = DBusInterface + ".Error.Closed"
	ErrorInternal       = DBusInterface + ".Error.Internal"
)

// errorNames maps drop reasons to D-Bus error names.
var errorNames = map[channel.Reason]string{
	channel.ReasonBusy:           ErrorBusy,
	channel.ReasonBufferOverflow: ErrorBufferOverflow,
	channel.ReasonInvalidArgs:    ErrorInvalidArgs,
	channel.ReasonNotConnected:   ErrorNotConnected,
	channel.ReasonClosed:         ErrorClosed,
	channel.ReasonInternal:       ErrorInternal,
}

// ReasonError converts a drop reason into the error returned over the bus.
// ReasonOK yields nil.
func ReasonError(reason channel.Reason, messageID string) *dbus.Error {
	if reason == channel.ReasonOK {
		return nil
	}
	name, ok := errorNames[reason]
	if !ok {
		name = ErrorInternal
	}
	return dbus.NewError(name, []any{fmt.Sprintf("message %s dropped: %s", messageID, reason)})
}

// ReasonFromError recovers the drop reason from an error returned by Deliver.
func ReasonFromError(err error) (channel.Reason, bool) {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return reasonForName(dbusErr.Name)
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return reasonForName(dbusErrPtr.Name)
	}
	return channel.ReasonOK, false
}

func reasonForName(name string) (channel.Reason, bool) {
	for reason, n := range errorNames {
		if n == name {
			return reason, true
		}
	}
	return channel.ReasonOK, false
}

// TupleFromVariant converts one a{uv} entry into a tuple.
// Strings become C strings; byte arrays stay opaque; integers keep their width.
func TupleFromVariant(key uint32, v dbus.Variant) (model.Tuple, error) {
	switch val := v.Value().(type) {
	case string:
		return model.CStringTuple(key, val), nil
	case []byte:
		return model.BytesTuple(key, val), nil
	case byte:
		return model.Tuple{Key: key, Type: model.TupleUint, Value: []byte{val}}, nil
	case uint16:
		return model.Tuple{Key: key, Type: model.TupleUint, Value: binary.LittleEndian.AppendUint16(nil, val)}, nil
	case uint32:
		return model.UintTuple(key, val), nil
	case int16:
		return model.Tuple{Key: key, Type: model.TupleInt, Value: binary.LittleEndian.AppendUint16(nil, uint16(val))}, nil
	case int32:
		return model.IntTuple(key, val), nil
	default:
		return model.Tuple{}, fmt.Errorf("key %d has signature %s: %w", key, v.Signature(), ErrUnsupportedVariant)
	}
}

// PayloadFromVariants converts an a{uv} dictionary into a payload.
func PayloadFromVariants(dict map[uint32]dbus.Variant) (model.Payload, error) {
	tuples := make([]model.Tuple, 0, len(dict))
	keys := make([]uint32, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		t, err := TupleFromVariant(key, dict[key])
		if err != nil {
			return model.Payload{}, err
		}
		tuples = append(tuples, t)
	}
	return model.NewPayload(tuples...)
}

// VariantFromTuple converts a tuple into a variant. One-byte signed
// integers widen to int16, the narrowest signed D-Bus type.
func VariantFromTuple(t model.Tuple) (dbus.Variant, error) {
	switch t.Type {
	case model.TupleCString:
		s := t.Value
		if i := slices.Index(s, 0); i >= 0 {
			s = s[:i]
		}
		return dbus.MakeVariant(string(s)), nil
	case model.TupleBytes:
		return dbus.MakeVariant(slices.Clone(t.Value)), nil
	case model.TupleUint:
		switch len(t.Value) {
		case 1:
			return dbus.MakeVariant(t.Value[0]), nil
		case 2:
			return dbus.MakeVariant(binary.LittleEndian.Uint16(t.Value)), nil
		case 4:
			return dbus.MakeVariant(binary.LittleEndian.Uint32(t.Value)), nil
		}
	case model.TupleInt:
		switch len(t.Value) {
		case 1:
			return dbus.MakeVariant(int16(int8(t.Value[0]))), nil
		case 2:
			return dbus.MakeVariant(int16(binary.LittleEndian.Uint16(t.Value))), nil
		case 4:
			return dbus.MakeVariant(int32(binary.LittleEndian.Uint32(t.Value))), nil
		}
	}
	return dbus.Variant{}, fmt.Errorf("key %d: %s of %d bytes: %w", t.Key, t.Type, len(t.Value), ErrUnsupportedVariant)
}

// VariantsFromPayload converts a payload into an a{uv} dictionary.
func VariantsFromPayload(p model.Payload) (map[uint32]dbus.Variant, error) {
	dict := make(map[uint32]dbus.Variant, p.Len())
	for _, t := range p.Tuples() {
		v, err := VariantFromTuple(t)
		if err != nil {
			return nil, err
		}
		dict[t.Key] = v
	}
	return dict, nil
}
