package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the config file and reloads it when it changes.
// Only configurations that pass Validate are handed to the reload callback.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	path    string
	watcher *fsnotify.Watcher

	current *Config

	onReload func(cfg *Config)
	onError  func(err error)

	done    chan struct{}
	stopped chan struct{}
	running bool
}

// NewWatcher creates a watcher for the config file at path.
// If path is empty, uses the default config path.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = ConfigPath()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		path:    path,
		watcher: fsw,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *Watcher) SetReloadCallback(callback func(cfg *Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback to invoke when a reload fails.
func (w *Watcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// Start begins watching the config file.
func (w *Watcher) Start(ctx context.Context, initial *Config) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.current = initial
	w.mu.Unlock()

	// Watch the directory containing the file (more reliable for atomic saves)
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	go w.watch(ctx)

	w.logger.Debug("config watcher started", "path", w.path)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	close(w.done)
	w.mu.Unlock()

	<-w.stopped
	_ = w.watcher.Close()
	w.logger.Debug("config watcher stopped")
}

// Current returns the last valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stopped)
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	w.mu.RLock()
	onReload, onError := w.onReload, w.onError
	w.mu.RUnlock()

	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "path", w.path, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	if onReload != nil {
		onReload(cfg)
	}
}
