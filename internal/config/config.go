// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultTransport   = TransportDBus
	DefaultInboxSize   = 64
	DefaultOutboxSize  = 64
	DefaultQueueDepth  = 32
	DefaultBroker      = "127.0.0.1:1883"
	DefaultTopic       = "notiface/notify"
	DefaultBackend     = BackendTerminal
	DefaultWidth       = 144
	DefaultHeight      = 168
	DefaultPulse       = 100 * time.Millisecond
	DefaultFrequency   = 180
	DefaultVolume      = 60
	DefaultDialTimeout = 5 * time.Second
)

// Limits enforced by Validate.
const (
	MinBufferSize = 16
	MaxBufferSize = 8192
	MaxQueueDepth = 1024
)

// Transport selects how notifications reach the agent.
type Transport string

const (
	TransportDBus Transport = "dbus"
	TransportMQTT Transport = "mqtt"
)

// ValidTransports returns all valid transport values.
func ValidTransports() []Transport {
	return []Transport{TransportDBus, TransportMQTT}
}

// Backend selects the display surface.
type Backend string

const (
	BackendFramebuffer Backend = "framebuffer"
	BackendTerminal    Backend = "terminal"
)

// ValidBackends returns all valid backend values.
func ValidBackends() []Backend {
	return []Backend{BackendFramebuffer, BackendTerminal}
}

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "100ms", "5s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '100ms', '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for notiface.
// Loaded from ~/.config/notiface/notiface.toml
type Config struct {
	Channel ChannelConfig `toml:"channel"`
	MQTT    MQTTConfig    `toml:"mqtt"`
	Display DisplayConfig `toml:"display"`
	Clock   ClockConfig   `toml:"clock"`
	Haptics HapticsConfig `toml:"haptics"`
}

// ChannelConfig contains message channel settings.
type ChannelConfig struct {
	Transport  Transport `toml:"transport"`   // "dbus" or "mqtt"
	InboxSize  int       `toml:"inbox_size"`  // Largest accepted encoded payload, bytes
	OutboxSize int       `toml:"outbox_size"` // Largest outbound payload, bytes
	QueueDepth int       `toml:"queue_depth"` // Pending events before inbound drops as busy
}

// MQTTConfig contains broker settings for the mqtt transport.
type MQTTConfig struct {
	Broker      string   `toml:"broker"` // host:port
	Topic       string   `toml:"topic"`
	ClientID    string   `toml:"client_id"` // Generated when empty
	Username    string   `toml:"username"`
	Password    string   `toml:"password"`
	DialTimeout Duration `toml:"dial_timeout"`
}

// DisplayConfig contains display surface settings.
type DisplayConfig struct {
	Backend  Backend `toml:"backend"`  // "framebuffer" or "terminal"
	Width    int     `toml:"width"`    // Pixels
	Height   int     `toml:"height"`   // Pixels
	Snapshot string  `toml:"snapshot"` // PNG written on each framebuffer refresh, optional
}

// ClockConfig contains clock settings.
type ClockConfig struct {
	Timezone string `toml:"timezone"` // IANA name, empty for local time
}

// HapticsConfig contains vibration and backlight settings.
type HapticsConfig struct {
	Enabled   bool     `toml:"enabled"`
	Pulse     Duration `toml:"pulse"`     // Length of the short pulse
	Frequency int      `toml:"frequency"` // Tone frequency in Hz
	Volume    int      `toml:"volume"`    // 0-100
	Backlight bool     `toml:"backlight"` // Wake the screen on each message
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Channel: ChannelConfig{
			Transport:  DefaultTransport,
			InboxSize:  DefaultInboxSize,
			OutboxSize: DefaultOutboxSize,
			QueueDepth: DefaultQueueDepth,
		},
		MQTT: MQTTConfig{
			Broker:      DefaultBroker,
			Topic:       DefaultTopic,
			DialTimeout: Duration(DefaultDialTimeout),
		},
		Display: DisplayConfig{
			Backend: DefaultBackend,
			Width:   DefaultWidth,
			Height:  DefaultHeight,
		},
		Haptics: HapticsConfig{
			Enabled:   true,
			Pulse:     Duration(DefaultPulse),
			Frequency: DefaultFrequency,
			Volume:    DefaultVolume,
			Backlight: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "notiface", "notiface.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(ValidTransports(), c.Channel.Transport) {
		return fmt.Errorf("invalid transport %q, must be one of: %v", c.Channel.Transport, ValidTransports())
	}
	if c.Channel.InboxSize < MinBufferSize || c.Channel.InboxSize > MaxBufferSize {
		return fmt.Errorf("inbox_size must be between %d and %d, got %d", MinBufferSize, MaxBufferSize, c.Channel.InboxSize)
	}
	if c.Channel.OutboxSize < MinBufferSize || c.Channel.OutboxSize > MaxBufferSize {
		return fmt.Errorf("outbox_size must be between %d and %d, got %d", MinBufferSize, MaxBufferSize, c.Channel.OutboxSize)
	}
	if c.Channel.QueueDepth < 1 || c.Channel.QueueDepth > MaxQueueDepth {
		return fmt.Errorf("queue_depth must be between 1 and %d, got %d", MaxQueueDepth, c.Channel.QueueDepth)
	}

	if c.Channel.Transport == TransportMQTT {
		if c.MQTT.Broker == "" {
			return errors.New("mqtt broker must be set")
		}
		if c.MQTT.Topic == "" {
			return errors.New("mqtt topic must be set")
		}
	}

	if !slices.Contains(ValidBackends(), c.Display.Backend) {
		return fmt.Errorf("invalid backend %q, must be one of: %v", c.Display.Backend, ValidBackends())
	}
	if c.Display.Width < 20 || c.Display.Height < 168 {
		return fmt.Errorf("display must be at least 20x168, got %dx%d", c.Display.Width, c.Display.Height)
	}

	if c.Clock.Timezone != "" {
		if _, err := time.LoadLocation(c.Clock.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Clock.Timezone, err)
		}
	}

	return c.Haptics.Validate()
}

// Validate checks the haptics section on its own, for hot reload.
func (h HapticsConfig) Validate() error {
	if h.Volume < 0 || h.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", h.Volume)
	}
	if h.Pulse.Duration() < 0 || h.Pulse.Duration() > time.Second {
		return fmt.Errorf("pulse must be between 0 and 1s, got %s", h.Pulse.Duration())
	}
	if h.Frequency < 20 || h.Frequency > 20000 {
		return fmt.Errorf("frequency must be between 20 and 20000 Hz, got %d", h.Frequency)
	}
	return nil
}
