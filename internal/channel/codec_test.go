package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/model"
)

func TestEncode_Layout(t *testing.T) {
	frame, err := Encode(model.NotificationPayload("hi"))
	require.NoError(t, err)

	want := []byte{
		1,          // count
		1, 0, 0, 0, // key 1
		byte(model.TupleCString),
		3, 0, // length 3
		'h', 'i', 0,
	}
	assert.Equal(t, want, frame)
}

func TestDecode_EncodedPayload(t *testing.T) {
	p, err := model.NewPayload(
		model.CStringTuple(model.NotificationKey, "Meeting at 3pm"),
		model.UintTuple(2, 300),
		model.IntTuple(3, -4),
		model.BytesTuple(4, []byte{0xde, 0xad}),
	)
	require.NoError(t, err)

	frame, err := Encode(p)
	require.NoError(t, err)
	assert.Len(t, frame, p.EncodedSize())

	got, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, p.Tuples(), got.Tuples())

	text, ok := got.CString(model.NotificationKey)
	require.True(t, ok)
	assert.Equal(t, "Meeting at 3pm", string(text))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"header truncated", []byte{1, 1, 0, 0}},
		{"value truncated", []byte{1, 1, 0, 0, 0, 1, 5, 0, 'a'}},
		{"trailing bytes", []byte{0, 0xff}},
		{"bad integer width", []byte{1, 1, 0, 0, 0, byte(model.TupleUint), 3, 0, 1, 2, 3}},
		{"unknown type", []byte{1, 1, 0, 0, 0, 9, 0, 0}},
		{"duplicate key", []byte{2, 1, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.frame)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_EmptyDictionary(t *testing.T) {
	p, err := Decode([]byte{0})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}
