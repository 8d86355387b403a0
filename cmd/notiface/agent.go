package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/config"
	notidbus "github.com/jmylchreest/notiface/internal/dbus"
	"github.com/jmylchreest/notiface/internal/haptics"
	"github.com/jmylchreest/notiface/internal/mqtt"
)

// newTransport creates the transport selected in the config.
func newTransport(c *config.Config) (channel.Transport, error) {
	switch c.Channel.Transport {
	case config.TransportDBus:
		server := notidbus.NewServer(nil, logger)
		server.SetOutboxSize(c.Channel.OutboxSize)
		return server, nil
	case config.TransportMQTT:
		return mqtt.NewTransport(mqttConfig(c), logger), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Channel.Transport)
	}
}

func mqttConfig(c *config.Config) mqtt.Config {
	return mqtt.Config{
		Broker:      c.MQTT.Broker,
		Topic:       c.MQTT.Topic,
		ClientID:    c.MQTT.ClientID,
		Username:    c.MQTT.Username,
		Password:    c.MQTT.Password,
		DialTimeout: c.MQTT.DialTimeout.Duration(),
	}
}

// newHaptics creates the haptics manager. The tone stands in for the
// vibration motor; the backlight is woken over the session bus when one
// is available.
func newHaptics(c *config.Config) (*haptics.Manager, func()) {
	tone := haptics.NewTone(logger)

	var waker haptics.Waker
	if conn, err := dbus.SessionBus(); err != nil {
		logger.Debug("no session bus, backlight wake disabled", "error", err)
	} else {
		waker = haptics.NewScreenSaver(conn)
	}

	return haptics.NewManager(c.Haptics, tone, waker, logger), tone.Close
}
