package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/config"
	"github.com/jmylchreest/notiface/internal/model"
	"github.com/jmylchreest/notiface/internal/mqtt/mqtttest"
)

// newSendCmd resets the send globals and returns a command writing to out.
func newSendCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	cfg = config.DefaultConfig()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	sendOpts.file = ""
	sendOpts.transport = ""
	sendOpts.timeout = 5 * time.Second
	t.Cleanup(func() {
		sendOpts.file = ""
		sendOpts.transport = ""
	})

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	return cmd, &out
}

func writePayloadFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- key: 1\n  cstring: Lunch?\n- key: 2\n  uint: 42\n"), 0o600))
	return path
}

func TestRunSend_Errors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		file      string
		transport string
		wantErr   string
	}{
		{name: "text and file", args: []string{"hi"}, file: "payload.yaml", wantErr: "not both"},
		{name: "nothing to send", wantErr: "nothing to send"},
		{name: "missing file", file: "does-not-exist.yaml", wantErr: "failed to open payload file"},
		{name: "invalid transport", args: []string{"hi"}, transport: "pigeon", wantErr: `invalid transport "pigeon"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, out := newSendCmd(t)
			if tt.file != "" {
				sendOpts.file = filepath.Join(t.TempDir(), tt.file)
			}
			sendOpts.transport = tt.transport

			err := runSend(cmd, tt.args)
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Empty(t, out.String())
		})
	}
}

func TestSendPayload(t *testing.T) {
	newSendCmd(t)

	p, err := sendPayload([]string{"Meeting at 3pm"})
	require.NoError(t, err)
	text, ok := p.CString(model.NotificationKey)
	require.True(t, ok)
	assert.Equal(t, "Meeting at 3pm", string(text))

	sendOpts.file = writePayloadFile(t)
	p, err = sendPayload(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	text, ok = p.CString(model.NotificationKey)
	require.True(t, ok)
	assert.Equal(t, "Lunch?", string(text))
}

func TestRunSend_MQTT(t *testing.T) {
	broker := mqtttest.NewBroker(t)
	cmd, out := newSendCmd(t)
	cfg.MQTT.Broker = broker.Addr()
	cfg.MQTT.Topic = "notiface/notify"
	sendOpts.transport = string(config.TransportMQTT)

	require.NoError(t, runSend(cmd, []string{"Meeting at 3pm"}))
	assert.Equal(t, "published 23 bytes to notiface/notify\n", out.String())

	_, packets, err := broker.Wait()
	require.NoError(t, err)
	require.NotEmpty(t, packets)

	frame, err := channel.Encode(model.NotificationPayload("Meeting at 3pm"))
	require.NoError(t, err)
	assert.Equal(t, byte(0x30), packets[0][0], "PUBLISH")
	assert.True(t, bytes.HasSuffix(packets[0], frame), "frame is the publish payload")
}

func TestRunSend_MQTTFromConfig(t *testing.T) {
	broker := mqtttest.NewBroker(t)
	cmd, out := newSendCmd(t)
	cfg.Channel.Transport = config.TransportMQTT
	cfg.MQTT.Broker = broker.Addr()
	cfg.MQTT.Topic = "face"
	sendOpts.file = writePayloadFile(t)

	require.NoError(t, runSend(cmd, nil))
	assert.Contains(t, out.String(), "to face")

	_, packets, err := broker.Wait()
	require.NoError(t, err)
	require.NotEmpty(t, packets)
}
