package haptics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/notiface/internal/config"
)

// Pulser produces the vibration pulse.
type Pulser interface {
	Pulse(d time.Duration, freq int, volume float64) error
}

// Waker turns the backlight on.
type Waker interface {
	Wake() error
}

// Manager fires pulses and backlight wakes according to the haptics config.
// Both are fire and forget: they run off the caller's goroutine and
// failures are only logged.
type Manager struct {
	mu     sync.RWMutex
	logger *slog.Logger
	config config.HapticsConfig

	pulser Pulser
	waker  Waker

	// run executes side effects; replaced in tests.
	run func(f func())
}

// NewManager creates a haptics manager. A nil pulser or waker disables
// that effect.
func NewManager(cfg config.HapticsConfig, pulser Pulser, waker Waker, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger: logger,
		config: cfg,
		pulser: pulser,
		waker:  waker,
		run:    func(f func()) { go f() },
	}
}

// ShortPulse starts a short vibration pulse.
func (m *Manager) ShortPulse() {
	cfg := m.Config()
	if !cfg.Enabled || m.pulser == nil {
		return
	}

	m.run(func() {
		volume := float64(cfg.Volume) / 100.0
		if err := m.pulser.Pulse(cfg.Pulse.Duration(), cfg.Frequency, volume); err != nil {
			m.logger.Debug("pulse failed", "error", err)
		}
	})
}

// WakeBacklight turns the backlight on.
func (m *Manager) WakeBacklight() {
	cfg := m.Config()
	if !cfg.Enabled || !cfg.Backlight || m.waker == nil {
		return
	}

	m.run(func() {
		if err := m.waker.Wake(); err != nil {
			m.logger.Debug("backlight wake failed", "error", err)
		}
	})
}

// Config returns the current haptics configuration.
func (m *Manager) Config() config.HapticsConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// UpdateConfig replaces the configuration.
// This is called when the config file is hot-reloaded.
func (m *Manager) UpdateConfig(cfg config.HapticsConfig) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.logger.Debug("haptics config updated",
		"enabled", cfg.Enabled,
		"pulse", cfg.Pulse.Duration(),
		"volume", cfg.Volume,
		"backlight", cfg.Backlight,
	)
}
