package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/clock"
	"github.com/jmylchreest/notiface/internal/daemon"
	"github.com/jmylchreest/notiface/internal/model"
	"github.com/jmylchreest/notiface/internal/surface"
)

var snapshotOpts struct {
	output string
	at     string
	width  int
	height int
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [text]",
	Short: "Render the face to a PNG",
	Long: `Start the face on an off-screen framebuffer, optionally deliver one
notification, and write the result as a PNG.

--at fixes the time shown, as RFC 3339 or "2006-01-02 15:04".
Use -o - to write the PNG to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVarP(&snapshotOpts.output, "output", "o", "",
		"PNG path (default: display.snapshot or notiface.png)")
	snapshotCmd.Flags().StringVar(&snapshotOpts.at, "at", "",
		"Time to show (default: now)")
	snapshotCmd.Flags().IntVar(&snapshotOpts.width, "width", 0,
		"Screen width in pixels (default from config)")
	snapshotCmd.Flags().IntVar(&snapshotOpts.height, "height", 0,
		"Screen height in pixels (default from config)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	loc, err := clock.LoadLocation(cfg.Clock.Timezone)
	if err != nil {
		return err
	}

	at, err := parseAt(snapshotOpts.at, loc)
	if err != nil {
		return err
	}

	width, height := cfg.Display.Width, cfg.Display.Height
	if snapshotOpts.width > 0 {
		width = snapshotOpts.width
	}
	if snapshotOpts.height > 0 {
		height = snapshotOpts.height
	}

	fb := surface.NewFramebuffer(width, height)
	loopback := channel.NewLoopback()

	app, err := daemon.New(daemon.Options{
		Surface:    fb,
		Transport:  loopback,
		Location:   loc,
		Now:        func() time.Time { return at },
		InboxSize:  cfg.Channel.InboxSize,
		OutboxSize: cfg.Channel.OutboxSize,
		QueueDepth: cfg.Channel.QueueDepth,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if err := app.Startup(context.Background()); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}
	defer app.Shutdown()

	if len(args) == 1 {
		if reason := loopback.Send(model.NotificationPayload(args[0])); reason != channel.ReasonOK {
			logger.Warn("notification dropped", "reason", reason.String())
		}
		app.Flush()
	}

	output := snapshotOpts.output
	if output == "" {
		output = cfg.Display.Snapshot
	}
	if output == "" {
		output = "notiface.png"
	}

	if output == "-" {
		return fb.WritePNG(cmd.OutOrStdout())
	}
	if err := fb.SavePNG(output); err != nil {
		return err
	}
	logger.Info("snapshot written", "path", output, "width", width, "height", height)
	return nil
}

// parseAt parses the --at flag. Empty means now.
func parseAt(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New(`invalid --at time, use RFC 3339 or "2006-01-02 15:04"`)
}
