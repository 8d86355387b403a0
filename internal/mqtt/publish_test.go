package mqtt

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/model"
	"github.com/jmylchreest/notiface/internal/mqtt/mqtttest"
)

func TestPublish(t *testing.T) {
	broker := mqtttest.NewBroker(t)

	frame, err := channel.Encode(model.NotificationPayload("hi"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Publish(ctx, Config{Broker: broker.Addr(), Topic: "face", ClientID: "wrist"}, frame))

	connect, packets, err := broker.Wait()
	require.NoError(t, err)
	assert.Equal(t, byte(0x10), connect[0], "CONNECT")
	assert.True(t, bytes.Contains(connect, []byte("wrist")), "client id sent")

	// QoS 0 PUBLISH: no packet identifier, frame follows the topic.
	want := []byte{0x30, byte(2 + len("face") + len(frame)), 0x00, 0x04}
	want = append(want, "face"...)
	want = append(want, frame...)

	require.Len(t, packets, 2)
	assert.Equal(t, want, packets[0])
	assert.Equal(t, []byte{0xe0, 0x00}, packets[1], "DISCONNECT")
}

func TestPublish_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = Publish(context.Background(), Config{Broker: addr, Topic: "face", DialTimeout: time.Second}, []byte{0})
	assert.ErrorContains(t, err, "failed to dial broker")
}
