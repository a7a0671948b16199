package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/recist-io/recist/internal/logging"
)

// ReloadCallback is called when the config file is successfully reloaded.
// If the callback returns an error, it is logged but the watcher continues
// watching with the previous config.
type ReloadCallback func(cfg *AppConfig) error

// WatcherConfig holds configuration for the Watcher.
type WatcherConfig struct {
	// FilePath is the path to the config YAML file to watch.
	FilePath string

	// DebounceMillis coalesces multiple file change events within this
	// period into a single reload. Default: 500ms.
	DebounceMillis int
}

// Watcher watches the operator config file for changes and triggers reload
// callbacks with debouncing, so editor save sequences and atomic writes
// produce one reload rather than a storm. Invalid files are logged and
// ignored; the previous config stays active.
type Watcher struct {
	config   WatcherConfig
	callback ReloadCallback
	logger   *logging.Logger
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{}
	mu       sync.Mutex

	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the given config file. The callback is
// invoked once with the initial config during Start and again after every
// successful reload.
func NewWatcher(cfg WatcherConfig, callback ReloadCallback) (*Watcher, error) {
	if cfg.FilePath == "" {
		return nil, NewConfigError("watcher file path cannot be empty")
	}
	if callback == nil {
		return nil, NewConfigError("watcher callback cannot be nil")
	}
	if cfg.DebounceMillis == 0 {
		cfg.DebounceMillis = 500
	}

	return &Watcher{
		config:   cfg,
		callback: callback,
		logger:   logging.GetLogger("config-watcher"),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Name implements lifecycle.Component.
func (w *Watcher) Name() string {
	return "config-watcher"
}

// Start loads the initial config, calls the callback, and begins watching
// the file for changes. It returns once the file watch is established.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := Load(w.config.FilePath)
	if err != nil {
		return NewConfigError("failed to load initial config: %v", err)
	}

	if err := w.callback(initial); err != nil {
		return NewConfigError("initial config callback failed: %v", err)
	}

	w.logger.Info("Loaded initial config from %s", w.config.FilePath)

	watchCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	// Wait for the fsnotify watch to be registered so changes written
	// immediately after Start are not missed.
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return NewConfigError("timeout waiting for file watcher to initialize")
	}

	return nil
}

// signalReady closes the ready channel exactly once.
func (w *Watcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("Failed to watch file %s: %v", w.config.FilePath, err)
		return
	}

	w.logger.Info("Watching %s for changes (debounce: %dms)",
		w.config.FilePath, w.config.DebounceMillis)

	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Context cancelled, stopping config watcher")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Rename and Remove cover atomic writes where the old file is
			// unlinked before the new one is moved into place; the watch
			// must be re-added because the inode changed.
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename ||
				event.Op&fsnotify.Remove == fsnotify.Remove {
				if event.Op&fsnotify.Rename == fsnotify.Rename ||
					event.Op&fsnotify.Remove == fsnotify.Remove {
					time.Sleep(50 * time.Millisecond)
					if err := watcher.Add(w.config.FilePath); err != nil {
						w.logger.Warn("Failed to re-add watch after %s: %v", event.Op, err)
					}
				}
				w.handleFileChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error: %v", err)
		}
	}
}

// handleFileChange debounces change events by resetting a timer on each one.
func (w *Watcher) handleFileChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		w.reloadConfig,
	)
}

func (w *Watcher) reloadConfig() {
	w.logger.Info("Reloading config from %s", w.config.FilePath)

	newConfig, err := Load(w.config.FilePath)
	if err != nil {
		w.logger.Error("Failed to reload config (keeping previous): %v", err)
		return
	}

	if err := w.callback(newConfig); err != nil {
		w.logger.Error("Config reload callback error (continuing to watch): %v", err)
		return
	}

	w.logger.Info("Config reloaded successfully")
}

// Stop gracefully stops the file watcher.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	select {
	case <-w.stopped:
		w.logger.Info("Config watcher stopped")
		return nil
	case <-ctx.Done():
		return NewConfigError("timeout waiting for config watcher to stop")
	case <-time.After(5 * time.Second):
		return NewConfigError("timeout waiting for config watcher to stop")
	}
}
