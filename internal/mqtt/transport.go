package mqtt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/model"
)

// Defaults for Config fields left zero.
const (
	DefaultDialTimeout = 5 * time.Second
	DefaultRetryDelay  = 2 * time.Second
	decoderBufferSize  = 4096
)

// ErrNotOpen is returned by Close on a transport that was never opened.
var ErrNotOpen = errors.New("mqtt transport not open")

// Config holds broker settings.
type Config struct {
	Broker      string // host:port
	Topic       string
	ClientID    string // Generated when empty
	Username    string
	Password    string
	DialTimeout time.Duration
	RetryDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = "notiface-" + model.NewMessageID()
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// dialFunc opens the broker connection.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Transport subscribes to the notification topic and feeds the inbox.
// It implements channel.Transport and reconnects until closed.
type Transport struct {
	cfg    Config
	logger *slog.Logger
	dial   dialFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTransport creates an MQTT transport.
func NewTransport(cfg Config, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	d := &net.Dialer{Timeout: cfg.DialTimeout}
	return &Transport{
		cfg:    cfg,
		logger: logger,
		dial:   d.DialContext,
	}
}

// Name implements channel.Transport.
func (t *Transport) Name() string {
	return "mqtt"
}

// Open starts the receive loop. Broker failures are retried in the
// background, so Open itself only fails when called twice.
func (t *Transport) Open(ctx context.Context, inbox *channel.Inbox) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return channel.ErrAlreadyOpen
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.run(ctx, inbox)

	t.logger.Info("mqtt transport started", "broker", t.cfg.Broker, "topic", t.cfg.Topic, "client_id", t.cfg.ClientID)
	return nil
}

// Close stops the receive loop and waits for it to exit.
func (t *Transport) Close() error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return ErrNotOpen
	}
	cancel()
	<-done

	t.logger.Info("mqtt transport stopped")
	return nil
}

func (t *Transport) run(ctx context.Context, inbox *channel.Inbox) {
	defer close(t.done)

	for {
		err := t.session(ctx, inbox)
		if ctx.Err() != nil {
			return
		}
		t.logger.Warn("mqtt session ended, reconnecting", "error", err, "retry_in", t.cfg.RetryDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(t.cfg.RetryDelay):
		}
	}
}

// session runs one broker connection until it fails or ctx is done.
func (t *Transport) session(ctx context.Context, inbox *channel.Inbox) error {
	conn, err := t.dial(ctx, "tcp", t.cfg.Broker)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock HandleNext when the transport is closed.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, decoderBufferSize)},
		OnPub:   t.onPublish(inbox),
	})

	if err := t.connect(ctx, client, conn); err != nil {
		return err
	}

	_ = conn.SetDeadline(time.Now().Add(t.cfg.DialTimeout))
	subCtx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	err = client.Subscribe(subCtx, mqtt.VariablesSubscribe{
		PacketIdentifier: 1,
		TopicFilters: []mqtt.SubscribeRequest{
			{TopicFilter: []byte(t.cfg.Topic), QoS: mqtt.QoS0},
		},
	})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", t.cfg.Topic, err)
	}
	_ = conn.SetDeadline(time.Time{})

	t.logger.Info("mqtt subscribed", "topic", t.cfg.Topic)

	for client.IsConnected() {
		if err := client.HandleNext(); err != nil {
			return err
		}
	}
	return client.Err()
}

func (t *Transport) connect(ctx context.Context, client *mqtt.Client, conn net.Conn) error {
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(t.cfg.ClientID))
	// Keepalive off; the receive loop never pings.
	varconn.KeepAlive = 0
	if t.cfg.Username != "" {
		varconn.Username = []byte(t.cfg.Username)
		if t.cfg.Password != "" {
			varconn.Password = []byte(t.cfg.Password)
		}
	}

	_ = conn.SetDeadline(time.Now().Add(t.cfg.DialTimeout))
	connCtx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	defer cancel()
	if err := client.Connect(connCtx, conn, &varconn); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	return nil
}

// onPublish hands each PUBLISH payload to the inbox as one frame.
func (t *Transport) onPublish(inbox *channel.Inbox) func(mqtt.Header, mqtt.VariablesPublish, io.Reader) error {
	return func(_ mqtt.Header, vp mqtt.VariablesPublish, r io.Reader) error {
		frame, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read publish payload: %w", err)
		}

		id := model.NewMessageID()
		reason := inbox.DeliverFrame(id, frame)
		t.logger.Debug("mqtt publish received",
			"topic", string(vp.TopicName),
			"message_id", id,
			"size", len(frame),
			"reason", reason.String(),
		)
		return nil
	}
}
