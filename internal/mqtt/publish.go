package mqtt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

var errPublished = errors.New("publish complete")

// Publish connects to the broker, publishes one frame to the configured
// topic at QoS 0 and disconnects.
func Publish(ctx context.Context, cfg Config, frame []byte) error {
	cfg = cfg.withDefaults()

	d := &net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Broker)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, decoderBufferSize)},
	})

	t := &Transport{cfg: cfg}
	if err := t.connect(ctx, client, conn); err != nil {
		return err
	}

	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return fmt.Errorf("failed to build publish flags: %w", err)
	}
	vp := mqtt.VariablesPublish{
		TopicName:        []byte(cfg.Topic),
		PacketIdentifier: uint16(time.Now().UnixNano()),
	}

	_ = conn.SetDeadline(time.Now().Add(cfg.DialTimeout))
	if err := client.PublishPayload(flags, vp, frame); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", cfg.Topic, err)
	}

	_ = client.Disconnect(errPublished)
	return nil
}
