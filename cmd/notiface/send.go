package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/config"
	notidbus "github.com/jmylchreest/notiface/internal/dbus"
	"github.com/jmylchreest/notiface/internal/model"
	"github.com/jmylchreest/notiface/internal/mqtt"
)

var sendOpts struct {
	file      string
	transport string
	timeout   time.Duration
}

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Push a notification to a running face",
	Long: `Push a notification to a running notiface, the way the paired host does.

The text becomes key 1 of the payload. Use --file to send an arbitrary
payload described in YAML:

  - key: 1
    cstring: Meeting at 3pm
  - key: 2
    uint: 42

Payloads larger than the face's inbox are dropped by the face.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.file, "file", "f", "",
		"YAML payload file (- for stdin)")
	sendCmd.Flags().StringVarP(&sendOpts.transport, "transport", "t", "",
		"Transport to use (dbus, mqtt; default from config)")
	sendCmd.Flags().DurationVar(&sendOpts.timeout, "timeout", 5*time.Second,
		"Time to wait for delivery")
}

func runSend(cmd *cobra.Command, args []string) error {
	p, err := sendPayload(args)
	if err != nil {
		return err
	}

	transport := cfg.Channel.Transport
	if sendOpts.transport != "" {
		transport = config.Transport(sendOpts.transport)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sendOpts.timeout)
	defer cancel()

	switch transport {
	case config.TransportDBus:
		return sendDBus(ctx, cmd, p)
	case config.TransportMQTT:
		return sendMQTT(ctx, cmd, p)
	default:
		return fmt.Errorf("invalid transport %q, must be one of: %v", transport, config.ValidTransports())
	}
}

func sendPayload(args []string) (model.Payload, error) {
	switch {
	case sendOpts.file != "" && len(args) > 0:
		return model.Payload{}, errors.New("give either text or --file, not both")
	case sendOpts.file == "-":
		return readPayload(os.Stdin)
	case sendOpts.file != "":
		f, err := os.Open(sendOpts.file)
		if err != nil {
			return model.Payload{}, fmt.Errorf("failed to open payload file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return readPayload(f)
	case len(args) == 1:
		return model.NotificationPayload(args[0]), nil
	default:
		return model.Payload{}, errors.New("nothing to send: give text or --file")
	}
}

func sendDBus(ctx context.Context, cmd *cobra.Command, p model.Payload) error {
	client, err := notidbus.NewClient(nil)
	if err != nil {
		return err
	}

	if inbox, _, err := client.Capacity(ctx); err != nil {
		logger.Debug("failed to query capacity", "error", err)
	} else if size := p.EncodedSize(); size > int(inbox) {
		logger.Warn("payload larger than the face inbox, it will be dropped",
			"size", size, "inbox_size", inbox)
	}

	id, err := client.Send(ctx, p)
	if err != nil {
		if reason, ok := notidbus.ReasonFromError(err); ok {
			return fmt.Errorf("notification dropped: %s", reason)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func sendMQTT(ctx context.Context, cmd *cobra.Command, p model.Payload) error {
	frame, err := channel.Encode(p)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	mc := mqttConfig(cfg)
	if err := mqtt.Publish(ctx, mc, frame); err != nil {
		return err
	}

	logger.Debug("published notification", "topic", mc.Topic, "size", len(frame))
	fmt.Fprintf(cmd.OutOrStdout(), "published %d bytes to %s\n", len(frame), mc.Topic)
	return nil
}
