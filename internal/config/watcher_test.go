package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notiface.toml")
	require.NoError(t, os.WriteFile(path, []byte("[haptics]\nvolume = 10\n"), 0644))

	initial, err := LoadConfig(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var reloaded *Config
	var failures int
	w.SetReloadCallback(func(cfg *Config) {
		mu.Lock()
		reloaded = cfg
		mu.Unlock()
	})
	w.SetErrorCallback(func(error) {
		mu.Lock()
		failures++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, initial))
	defer w.Stop()
	assert.Same(t, initial, w.Current())

	require.NoError(t, os.WriteFile(path, []byte("[haptics]\nvolume = 90\n"), 0644))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.Haptics.Volume == 90
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 90, w.Current().Haptics.Volume)

	// An invalid file never becomes current.
	require.NoError(t, os.WriteFile(path, []byte("[haptics]\nvolume = 900\n"), 0644))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failures > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, 900, w.Current().Haptics.Volume)
}

func TestWatcher_StopTwice(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "notiface.toml"), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), DefaultConfig()))

	w.Stop()
	w.Stop()
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "notiface.toml"), nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.Start(context.Background(), DefaultConfig()))
}
