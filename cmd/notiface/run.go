package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notiface/internal/clock"
	"github.com/jmylchreest/notiface/internal/config"
	"github.com/jmylchreest/notiface/internal/daemon"
	"github.com/jmylchreest/notiface/internal/display"
	"github.com/jmylchreest/notiface/internal/surface"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the notification face",
	Long: `Run the agent: open the message channel, draw the face and refresh
the clock every minute until interrupted.

With the terminal backend the face is redrawn on stdout. With the
framebuffer backend the face is rasterized and, when display.snapshot is
set, written to that PNG file on every change.

Changes to the [haptics] section of the config file apply immediately.
Other sections need a restart.`,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := clock.LoadLocation(cfg.Clock.Timezone)
	if err != nil {
		return err
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}

	hm, closeHaptics := newHaptics(cfg)
	defer closeHaptics()

	face, redraw := newFace(cfg.Display, cmd.OutOrStdout())

	app, err := daemon.New(daemon.Options{
		Surface:    face,
		Transport:  transport,
		Haptics:    hm,
		Location:   loc,
		InboxSize:  cfg.Channel.InboxSize,
		OutboxSize: cfg.Channel.OutboxSize,
		QueueDepth: cfg.Channel.QueueDepth,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if err := app.Startup(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}
	defer app.Shutdown()

	if redraw != nil {
		go redraw(ctx)
	}

	watcher, err := config.NewWatcher(configPath(), logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
	} else {
		current := *cfg
		watcher.SetReloadCallback(func(newCfg *config.Config) {
			hm.UpdateConfig(newCfg.Haptics)
			if restartNeeded(&current, newCfg) {
				logger.Warn("config changed outside [haptics], restart to apply")
			}
			logger.Info("config reloaded")
		})
		watcher.SetErrorCallback(func(err error) {
			logger.Warn("config reload failed, keeping previous config", "error", err)
		})
		if err := watcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}
		defer watcher.Stop()
	}

	logger.Info("notiface ready",
		"transport", cfg.Channel.Transport,
		"backend", cfg.Display.Backend,
		"version", version,
	)

	app.Run(ctx)

	logger.Info("shutting down")
	return nil
}

// restartNeeded reports whether sections other than haptics changed.
func restartNeeded(old, updated *config.Config) bool {
	return old.Channel != updated.Channel ||
		old.MQTT != updated.MQTT ||
		old.Display != updated.Display ||
		old.Clock != updated.Clock
}

// newFace creates the configured display surface and a function that
// presents it whenever it changes.
func newFace(c config.DisplayConfig, out io.Writer) (display.Surface, func(context.Context)) {
	switch c.Backend {
	case config.BackendFramebuffer:
		fb := surface.NewFramebuffer(c.Width, c.Height)
		if c.Snapshot == "" {
			return fb, nil
		}
		return fb, func(ctx context.Context) {
			watchChanges(ctx, fb.Changes(), func() error { return fb.SavePNG(c.Snapshot) })
		}
	default:
		term := surface.NewTerminal(c.Width, c.Height)
		return term, func(ctx context.Context) {
			watchChanges(ctx, term.Changes(), func() error { return term.Flush(out) })
		}
	}
}

func watchChanges(ctx context.Context, changes <-chan struct{}, present func() error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			if err := present(); err != nil {
				logger.Warn("failed to present face", "error", err)
			}
		}
	}
}
