package main

import (
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/config"
)

func TestRunSnapshot(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Clock.Timezone = "UTC"
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	out := filepath.Join(t.TempDir(), "face.png")
	snapshotOpts.output = out
	snapshotOpts.at = "2025-05-07 14:05"
	t.Cleanup(func() {
		snapshotOpts.output = ""
		snapshotOpts.at = ""
	})

	require.NoError(t, runSnapshot(snapshotCmd, []string{"Meeting at 3pm"}))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 144, img.Bounds().Dx())
	assert.Equal(t, 168, img.Bounds().Dy())
}
