package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/model"
)

func TestLoopback(t *testing.T) {
	lb := NewLoopback()
	assert.Equal(t, "loopback", lb.Name())
	assert.Equal(t, ReasonNotConnected, lb.Send(model.NotificationPayload("early")))

	q := &queuePoster{}
	inbox := NewInbox(DefaultInboxSize, q, discardLogger())
	require.NoError(t, lb.Open(context.Background(), inbox))
	assert.ErrorIs(t, lb.Open(context.Background(), inbox), ErrAlreadyOpen)

	assert.Equal(t, ReasonOK, lb.Send(model.NotificationPayload("hello")))

	frame, err := Encode(model.NotificationPayload("framed"))
	require.NoError(t, err)
	assert.Equal(t, ReasonOK, lb.SendFrame(frame))
	require.Len(t, q.events, 2)

	require.NoError(t, lb.Close())
	assert.Equal(t, ReasonNotConnected, lb.SendFrame(frame))
}
