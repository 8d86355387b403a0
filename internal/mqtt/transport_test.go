package mqtt

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/model"
)

type collectPoster struct {
	mu     sync.Mutex
	events []channel.Event
}

func (p *collectPoster) Post(ev channel.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return true
}

func (p *collectPoster) snapshot() []channel.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]channel.Event(nil), p.events...)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Broker: "localhost:1883", Topic: "t"}.withDefaults()
	assert.True(t, strings.HasPrefix(cfg.ClientID, "notiface-"))
	assert.Equal(t, DefaultDialTimeout, cfg.DialTimeout)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)

	cfg = Config{ClientID: "wrist", DialTimeout: time.Second}.withDefaults()
	assert.Equal(t, "wrist", cfg.ClientID)
	assert.Equal(t, time.Second, cfg.DialTimeout)
}

func TestTransport_OnPublish(t *testing.T) {
	poster := &collectPoster{}
	inbox := channel.NewInbox(channel.DefaultInboxSize, poster, nil)
	tr := NewTransport(Config{Broker: "localhost:1883", Topic: "notiface/notify"}, nil)

	frame, err := channel.Encode(model.NotificationPayload("Meeting at 3pm"))
	require.NoError(t, err)

	onPub := tr.onPublish(inbox)
	vp := mqtt.VariablesPublish{TopicName: []byte("notiface/notify")}
	require.NoError(t, onPub(mqtt.Header{}, vp, bytes.NewReader(frame)))
	require.NoError(t, onPub(mqtt.Header{}, vp, bytes.NewReader([]byte{2})))
	require.NoError(t, onPub(mqtt.Header{}, vp, bytes.NewReader(make([]byte, 200))))

	events := poster.snapshot()
	require.Len(t, events, 3)

	got, ok := events[0].(channel.InboundReceived)
	require.True(t, ok)
	text, ok := got.Payload.CString(model.NotificationKey)
	require.True(t, ok)
	assert.Equal(t, "Meeting at 3pm", string(text))

	assert.Equal(t, channel.ReasonInvalidArgs, events[1].(channel.InboundDropped).Reason)
	assert.Equal(t, channel.ReasonBufferOverflow, events[2].(channel.InboundDropped).Reason)
}

func TestTransport_RetriesUntilClosed(t *testing.T) {
	tr := NewTransport(Config{Broker: "localhost:1883", Topic: "t", RetryDelay: time.Millisecond}, nil)

	var dials atomic.Int32
	tr.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dials.Add(1)
		return nil, errors.New("connection refused")
	}

	inbox := channel.NewInbox(channel.DefaultInboxSize, &collectPoster{}, nil)
	require.NoError(t, tr.Open(context.Background(), inbox))
	assert.ErrorIs(t, tr.Open(context.Background(), inbox), channel.ErrAlreadyOpen)

	assert.Eventually(t, func() bool { return dials.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, tr.Close())
	assert.ErrorIs(t, tr.Close(), ErrNotOpen)
}

func TestTransport_ContextCancelStopsLoop(t *testing.T) {
	tr := NewTransport(Config{Broker: "localhost:1883", Topic: "t", RetryDelay: time.Hour}, nil)
	tr.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("unreachable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, tr.Open(ctx, channel.NewInbox(channel.DefaultInboxSize, &collectPoster{}, nil)))
	cancel()

	done := make(chan struct{})
	go func() {
		_ = tr.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after context cancel")
	}
}

func TestTransport_SessionClosesConnOnCancel(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	tr := NewTransport(Config{Broker: "pipe", Topic: "t", DialTimeout: time.Second}, nil)
	tr.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return client, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- tr.session(ctx, channel.NewInbox(channel.DefaultInboxSize, &collectPoster{}, nil))
	}()

	// Swallow the CONNECT packet, then cancel before any CONNACK.
	buf := make([]byte, 256)
	_, err := server.Read(buf)
	require.NoError(t, err)
	cancel()

	select {
	case err := <-errc:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not return after cancel")
	}
}

func TestTransport_Name(t *testing.T) {
	assert.Equal(t, "mqtt", NewTransport(Config{}, nil).Name())
}
