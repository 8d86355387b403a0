package daemon

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/display/displaytest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// May 7 2025 was a Wednesday.
var testNow = time.Date(2025, time.May, 7, 14, 5, 30, 0, time.UTC)

type fakeHaptics struct {
	mu      sync.Mutex
	pulses  int
	wakes   int
	ordered []string
}

func (h *fakeHaptics) ShortPulse() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pulses++
	h.ordered = append(h.ordered, "pulse")
}

func (h *fakeHaptics) WakeBacklight() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.wakes++
	h.ordered = append(h.ordered, "wake")
}

func (h *fakeHaptics) counts() (pulses, wakes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pulses, h.wakes
}

type failingTransport struct {
	err error
}

func (f failingTransport) Name() string                               { return "failing" }
func (f failingTransport) Open(context.Context, *channel.Inbox) error { return f.err }
func (f failingTransport) Close() error                               { return nil }

type harness struct {
	app      *App
	rec      *displaytest.Recorder
	loopback *channel.Loopback
	haptics  *fakeHaptics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		rec:      displaytest.NewRecorder(144, 168),
		loopback: channel.NewLoopback(),
		haptics:  &fakeHaptics{},
	}
	app, err := New(Options{
		Surface:   h.rec,
		Transport: h.loopback,
		Haptics:   h.haptics,
		Location:  time.UTC,
		Now:       func() time.Time { return testNow },
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	h.app = app
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.app.Startup(context.Background()))
	t.Cleanup(h.app.Shutdown)
}

// texts returns the notification, date and clock regions in z-order.
func (h *harness) texts(t *testing.T) (notification, date, clk *displaytest.Object) {
	t.Helper()
	texts := h.rec.ObjectsOf(displaytest.KindText)
	require.Len(t, texts, 3)
	return texts[0], texts[1], texts[2]
}
