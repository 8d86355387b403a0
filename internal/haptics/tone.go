package haptics

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
)

// Tone renders the vibration pulse as a short sine tone on the speaker.
// Desktops have no vibration motor; a low tone is the closest stand-in.
type Tone struct {
	mu     sync.Mutex
	logger *slog.Logger

	sampleRate  beep.SampleRate
	initialized bool
}

// NewTone creates a tone player. The speaker is opened on first use.
func NewTone(logger *slog.Logger) *Tone {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tone{
		logger:     logger,
		sampleRate: beep.SampleRate(44100),
	}
}

// Pulse plays a tone of freq Hz for d at volume (0.0 to 1.0).
func (t *Tone) Pulse(d time.Duration, freq int, volume float64) error {
	if d <= 0 || volume <= 0 {
		return nil
	}
	if err := t.ensureInitialized(); err != nil {
		return err
	}

	streamer, err := toneStreamer(t.sampleRate, d, freq, volume)
	if err != nil {
		return err
	}
	speaker.Play(streamer)
	return nil
}

// toneStreamer builds a finite sine tone with volume applied.
func toneStreamer(sr beep.SampleRate, d time.Duration, freq int, volume float64) (beep.Streamer, error) {
	sine, err := generators.SineTone(sr, float64(freq))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tone: %w", err)
	}

	var streamer beep.Streamer = beep.Take(sr.N(d), sine)
	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   math.Log2(volume),
			Silent:   volume <= 0,
		}
	}
	return streamer, nil
}

// ensureInitialized initializes the speaker if not already done.
func (t *Tone) ensureInitialized() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	// Small buffer for low latency
	bufferSize := t.sampleRate.N(20 * time.Millisecond)
	if err := speaker.Init(t.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	t.initialized = true
	t.logger.Debug("speaker initialized", "sample_rate", t.sampleRate)
	return nil
}

// Close releases the speaker.
func (t *Tone) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		speaker.Close()
		t.initialized = false
	}
}
