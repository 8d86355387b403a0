package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/clock"
	"github.com/jmylchreest/notiface/internal/display"
	"github.com/jmylchreest/notiface/internal/model"
)

// ErrAlreadyStarted is returned when Startup runs twice.
var ErrAlreadyStarted = errors.New("agent already started")

// Haptics is the vibration and backlight capability. Both calls are fire
// and forget.
type Haptics interface {
	ShortPulse()
	WakeBacklight()
}

type noHaptics struct{}

func (noHaptics) ShortPulse()    {}
func (noHaptics) WakeBacklight() {}

// Options configures an App.
type Options struct {
	Surface   display.Surface
	Transport channel.Transport
	Haptics   Haptics        // Optional
	Location  *time.Location // Nil means local time
	Now       func() time.Time

	InboxSize  int
	OutboxSize int
	QueueDepth int

	Logger *slog.Logger
}

// State is a copy of what the face currently shows.
type State struct {
	Notification string
	Clock        clock.ClockText
	Date         clock.DateText
	UpdatedAt    time.Time
	Started      bool
}

// App is the agent: it holds the notification text, the clock model and
// the face, and reacts to channel and tick events.
type App struct {
	logger  *slog.Logger
	surface display.Surface
	haptics Haptics
	now     func() time.Time

	inboxSize  int
	outboxSize int

	loop    *Loop
	adapter *channel.Adapter
	ticker  *MinuteTicker
	coord   *display.Coordinator

	mu      sync.RWMutex
	text    model.NotificationText
	clock   *clock.Model
	win     display.Window
	pushed  bool
	started bool
}

// New creates an App. Nothing is drawn or opened until Startup.
func New(opts Options) (*App, error) {
	if opts.Surface == nil {
		return nil, errors.New("display surface is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("transport is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	haptics := opts.Haptics
	if haptics == nil {
		haptics = noHaptics{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	inboxSize := opts.InboxSize
	if inboxSize == 0 {
		inboxSize = channel.DefaultInboxSize
	}
	outboxSize := opts.OutboxSize
	if outboxSize == 0 {
		outboxSize = channel.DefaultOutboxSize
	}

	loop := NewLoop(opts.QueueDepth, logger)
	ticker := NewMinuteTicker(loop, logger)
	ticker.now = now

	return &App{
		logger:     logger,
		surface:    opts.Surface,
		haptics:    haptics,
		now:        now,
		inboxSize:  inboxSize,
		outboxSize: outboxSize,
		loop:       loop,
		adapter:    channel.NewAdapter(opts.Transport, loop, logger),
		ticker:     ticker,
		coord:      display.NewCoordinator(opts.Surface, logger),
		clock:      clock.NewModel(opts.Location),
	}, nil
}

// Startup brings the agent up. The steps run in a fixed order: clear the
// notification text, compute the clock and date, create and push the
// window, register channel handlers, open the channel, build the face,
// then subscribe to minute ticks. On failure everything already set up is
// torn down again.
func (a *App) Startup(ctx context.Context) (err error) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.started = true
	a.mu.Unlock()

	defer func() {
		if err != nil {
			a.Shutdown()
		}
	}()

	a.mu.Lock()
	a.text.Reset()
	clockText, dateText := a.clock.Update(a.now())
	a.mu.Unlock()

	win, err := a.surface.NewWindow()
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	a.mu.Lock()
	a.win = win
	a.mu.Unlock()

	if err := a.surface.Push(win); err != nil {
		return fmt.Errorf("failed to push window: %w", err)
	}
	a.mu.Lock()
	a.pushed = true
	a.mu.Unlock()

	if err := a.adapter.Register(channel.Handlers{
		InboundReceived: a.onInboundReceived,
		InboundDropped:  a.onInboundDropped,
		OutboundSent:    a.onOutboundSent,
		OutboundFailed:  a.onOutboundFailed,
	}); err != nil {
		return fmt.Errorf("failed to register channel handlers: %w", err)
	}

	if err := a.adapter.Open(ctx, a.inboxSize, a.outboxSize); err != nil {
		return fmt.Errorf("failed to open message channel: %w", err)
	}

	if err := a.coord.Build(win.Root(), "", string(clockText), string(dateText)); err != nil {
		return fmt.Errorf("failed to build face: %w", err)
	}

	a.ticker.Start(ctx)

	a.logger.Info("agent started", "clock", clockText, "date", dateText)
	return nil
}

// Shutdown tears the agent down in reverse order: tick subscription,
// channel, face regions, root container, inversion overlay, then the
// window. It is safe to call more than once and after a failed Startup.
func (a *App) Shutdown() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	win, pushed := a.win, a.pushed
	a.win, a.pushed = nil, false
	a.mu.Unlock()

	a.ticker.Stop()
	if err := a.adapter.Close(); err != nil {
		a.logger.Warn("failed to close message channel", "error", err)
	}

	a.coord.DestroyRegions()
	if win != nil {
		win.Root().Destroy()
	}
	a.coord.DestroyOverlay()
	if win != nil {
		if pushed {
			a.surface.Pop(win)
		}
		win.Destroy()
	}

	a.logger.Info("agent stopped")
}

// Run processes events until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.loop.Run(ctx, a.HandleEvent)
}

// Flush processes every queued event and returns how many were handled.
func (a *App) Flush() int {
	return a.loop.Flush(a.HandleEvent)
}

// Post queues an event for the loop.
func (a *App) Post(ev channel.Event) bool {
	return a.loop.Post(ev)
}

// HandleEvent is the single entry point for every event the agent reacts to.
func (a *App) HandleEvent(ev channel.Event) {
	if tick, ok := ev.(channel.Tick); ok {
		a.onTick(tick)
		return
	}
	if !a.adapter.Dispatch(ev) {
		a.logger.Debug("event ignored", "event", fmt.Sprintf("%T", ev))
	}
}

// State returns what the face currently shows.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return State{
		Notification: a.text.String(),
		Clock:        a.clock.Clock(),
		Date:         a.clock.Date(),
		UpdatedAt:    a.clock.UpdatedAt(),
		Started:      a.started,
	}
}

// Capacity returns the inbox and outbox sizes the channel opens with.
func (a *App) Capacity() (inbox, outbox int) {
	return a.inboxSize, a.outboxSize
}

func (a *App) onInboundReceived(e channel.InboundReceived) {
	a.haptics.ShortPulse()
	a.haptics.WakeBacklight()

	text, ok := e.Payload.CString(model.NotificationKey)
	if !ok {
		a.logger.Debug("payload has no notification text", "message_id", e.Payload.ID, "tuples", e.Payload.Len())
		return
	}

	a.mu.Lock()
	a.text.Set(text)
	current := a.text.String()
	a.mu.Unlock()

	a.coord.UpdateNotification(current)
	a.logger.Debug("notification updated", "message_id", e.Payload.ID, "length", len(current))
}

func (a *App) onInboundDropped(e channel.InboundDropped) {
	a.logger.Debug("inbound message dropped", "message_id", e.MessageID, "reason", e.Reason.String())
}

func (a *App) onOutboundSent(e channel.OutboundSent) {
	a.logger.Debug("outbound message sent", "message_id", e.Payload.ID)
}

func (a *App) onOutboundFailed(e channel.OutboundFailed) {
	a.logger.Debug("outbound message failed", "message_id", e.Payload.ID, "reason", e.Reason.String())
}

func (a *App) onTick(e channel.Tick) {
	a.mu.Lock()
	clockText, dateText := a.clock.Update(e.Now)
	a.mu.Unlock()

	a.coord.UpdateTime(string(clockText), string(dateText))
}
