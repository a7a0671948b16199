package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// writeConfigFile creates a temporary YAML config file with the given content.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "recist.yaml")

	if err := os.WriteFile(tmpFile, []byte(content), 0600); err != nil {
		t.Fatalf("failed to create temp config file: %v", err)
	}

	return tmpFile
}

func validWatcherConfig() string {
	return `namespace: watch-test
prometheus:
  url: http://prometheus:9090
`
}

// TestWatcherStartLoadsInitialConfig verifies that Start() loads the config
// and calls the callback immediately with the initial config.
func TestWatcherStartLoadsInitialConfig(t *testing.T) {
	tmpFile := writeConfigFile(t, validWatcherConfig())

	var callbackCalled atomic.Bool
	var mu sync.Mutex
	var received *AppConfig

	callback := func(cfg *AppConfig) error {
		mu.Lock()
		received = cfg
		mu.Unlock()
		callbackCalled.Store(true)
		return nil
	}

	watcher, err := NewWatcher(WatcherConfig{
		FilePath:       tmpFile,
		DebounceMillis: 100,
	}, callback)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop(context.Background())

	if !callbackCalled.Load() {
		t.Fatal("callback was not called on Start")
	}

	mu.Lock()
	defer mu.Unlock()
	if received == nil {
		t.Fatal("received config is nil")
	}
	if received.Namespace != "watch-test" {
		t.Errorf("expected namespace watch-test, got %s", received.Namespace)
	}
	if received.Loki.URL != "http://loki:3100" {
		t.Errorf("expected default loki url, got %s", received.Loki.URL)
	}
}

// TestWatcherDetectsFileChange verifies that a file modification triggers a
// reload with the new content.
func TestWatcherDetectsFileChange(t *testing.T) {
	tmpFile := writeConfigFile(t, validWatcherConfig())

	var callCount atomic.Int32
	var mu sync.Mutex
	var last *AppConfig

	callback := func(cfg *AppConfig) error {
		mu.Lock()
		last = cfg
		mu.Unlock()
		callCount.Add(1)
		return nil
	}

	watcher, err := NewWatcher(WatcherConfig{
		FilePath:       tmpFile,
		DebounceMillis: 100,
	}, callback)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop(context.Background())

	if callCount.Load() != 1 {
		t.Fatalf("expected 1 initial callback, got %d", callCount.Load())
	}

	time.Sleep(50 * time.Millisecond)

	updated := `namespace: watch-test-updated
logging:
  level: debug
`
	if err := os.WriteFile(tmpFile, []byte(updated), 0600); err != nil {
		t.Fatalf("failed to modify config file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for callCount.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	if callCount.Load() < 2 {
		t.Fatal("reload callback was not called after file change")
	}

	mu.Lock()
	defer mu.Unlock()
	if last.Namespace != "watch-test-updated" {
		t.Errorf("expected reloaded namespace, got %s", last.Namespace)
	}
	if last.Logging.Level != "debug" {
		t.Errorf("expected reloaded log level debug, got %s", last.Logging.Level)
	}
}

// TestWatcherIgnoresInvalidReload verifies that writing an invalid file does
// not invoke the callback and the watcher keeps running.
func TestWatcherIgnoresInvalidReload(t *testing.T) {
	tmpFile := writeConfigFile(t, validWatcherConfig())

	var callCount atomic.Int32
	callback := func(cfg *AppConfig) error {
		callCount.Add(1)
		return nil
	}

	watcher, err := NewWatcher(WatcherConfig{
		FilePath:       tmpFile,
		DebounceMillis: 100,
	}, callback)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop(context.Background())

	time.Sleep(50 * time.Millisecond)

	// Empty namespace fails validation, so the callback must not fire again.
	invalid := `namespace: ""
`
	if err := os.WriteFile(tmpFile, []byte(invalid), 0600); err != nil {
		t.Fatalf("failed to modify config file: %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("expected callback to stay at 1 after invalid reload, got %d", callCount.Load())
	}

	// A subsequent valid write still reloads.
	if err := os.WriteFile(tmpFile, []byte(validWatcherConfig()), 0600); err != nil {
		t.Fatalf("failed to restore config file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for callCount.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	if callCount.Load() < 2 {
		t.Error("watcher did not recover after invalid config")
	}
}

func TestNewWatcherValidation(t *testing.T) {
	if _, err := NewWatcher(WatcherConfig{FilePath: ""}, func(*AppConfig) error { return nil }); err == nil {
		t.Error("expected error for empty file path")
	}

	if _, err := NewWatcher(WatcherConfig{FilePath: "/tmp/x.yaml"}, nil); err == nil {
		t.Error("expected error for nil callback")
	}
}
