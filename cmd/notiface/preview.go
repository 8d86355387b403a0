package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notiface/internal/clock"
	"github.com/jmylchreest/notiface/internal/daemon"
	"github.com/jmylchreest/notiface/internal/tui"
)

var previewOpts struct {
	logFile string
	quiet   bool
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Interactive terminal preview of the face",
	Long: `Run the face in the terminal with an in-process channel, so
notifications can be typed in and the clock advanced by hand.

Key bindings:
  n           Compose a notification
  enter       Send it
  x           Send an empty notification
  t, →        Advance the clock a minute
  T           Back to the current time
  ?           Show help
  q           Quit`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewOpts.logFile, "log-file", "",
		"Write logs to this file while the preview is open")
	previewCmd.Flags().BoolVarP(&previewOpts.quiet, "quiet", "q", false,
		"Disable the pulse tone and backlight wake")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := clock.LoadLocation(cfg.Clock.Timezone)
	if err != nil {
		return err
	}

	// Logging to stderr would tear the alt screen.
	previewLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if previewOpts.logFile != "" {
		f, err := os.OpenFile(previewOpts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		level := slog.LevelInfo
		if globalOpts.verbose {
			level = slog.LevelDebug
		}
		previewLogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	logger = previewLogger
	slog.SetDefault(previewLogger)

	var h daemon.Haptics
	if !previewOpts.quiet {
		hm, closeHaptics := newHaptics(cfg)
		defer closeHaptics()
		h = hm
	}

	return tui.Run(ctx, tui.RunOptions{
		Width:      cfg.Display.Width,
		Height:     cfg.Display.Height,
		InboxSize:  cfg.Channel.InboxSize,
		OutboxSize: cfg.Channel.OutboxSize,
		QueueDepth: cfg.Channel.QueueDepth,
		Location:   loc,
		Haptics:    h,
		Logger:     previewLogger,
	})
}
