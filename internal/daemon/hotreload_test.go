package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-tools/scrawl/internal/config"
)

func TestStoreWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "annotations.jsonl")
	require.NoError(t, os.WriteFile(historyPath, []byte("{}\n"), 0600))

	var fired atomic.Int32
	w := NewStoreWatcher(historyPath, nil)
	w.SetChangeCallback(func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(historyPath, []byte("{}\n{}\n"), 0600))

	assert.Eventually(t, func() bool {
		return fired.Load() > 0
	}, 3*time.Second, 20*time.Millisecond, "watcher should report the write")
}

func TestStateWatcher_FiresOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(statePath, []byte(`{"capture_paused":false}`), 0600))

	var fired atomic.Int32
	w := NewStateWatcher(statePath, nil)
	w.SetChangeCallback(func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// The CLI saves state via tmp file + rename; the watcher must see
	// the replaced file even though the original inode is gone.
	tmpPath := statePath + ".tmp"
	require.NoError(t, os.WriteFile(tmpPath, []byte(`{"capture_paused":true}`), 0600))
	require.NoError(t, os.Rename(tmpPath, statePath))

	assert.Eventually(t, func() bool {
		return fired.Load() > 0
	}, 3*time.Second, 20*time.Millisecond, "watcher should survive an atomic replace")
}

func TestStoreWatcher_CreatesMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "scrawl", "annotations.jsonl")

	w := NewStoreWatcher(historyPath, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx), "starting on a not-yet-created data dir should work")
	defer w.Stop()

	_, err := os.Stat(filepath.Dir(historyPath))
	assert.NoError(t, err)
}

func TestStoreWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewStoreWatcher(filepath.Join(dir, "annotations.jsonl"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	w.Stop()
	w.Stop() // Second stop must not panic or block
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	configDir := filepath.Join(configHome, "scrawl")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	configPath := filepath.Join(configDir, "scrawld.toml")

	w, err := NewConfigWatcher(nil)
	require.NoError(t, err)

	reloaded := make(chan int, 4)
	w.SetReloadCallback(func(cfg *config.DaemonConfig) {
		reloaded <- cfg.Overlay.PopupWidth
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, nil))
	defer w.Stop()

	require.NoError(t, os.WriteFile(configPath,
		[]byte("[overlay]\npopup_width = 400\n"), 0600))

	select {
	case width := <-reloaded:
		assert.Equal(t, 400, width)
		assert.Equal(t, 400, w.GetCurrentConfig().Overlay.PopupWidth)
	case <-time.After(3 * time.Second):
		t.Fatal("config reload callback not invoked")
	}
}

func TestConfigWatcher_RejectsInvalidConfig(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	configDir := filepath.Join(configHome, "scrawl")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	configPath := filepath.Join(configDir, "scrawld.toml")

	w, err := NewConfigWatcher(nil)
	require.NoError(t, err)

	var reloads atomic.Int32
	w.SetReloadCallback(func(cfg *config.DaemonConfig) { reloads.Add(1) })
	errs := make(chan error, 4)
	w.SetErrorCallback(func(err error) { errs <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, nil))
	defer w.Stop()

	// popup_width below the validated minimum
	require.NoError(t, os.WriteFile(configPath,
		[]byte("[overlay]\npopup_width = 5\n"), 0600))

	select {
	case err := <-errs:
		assert.Error(t, err)
		assert.Equal(t, int32(0), reloads.Load(), "invalid config must not reach the reload callback")
	case <-time.After(3 * time.Second):
		t.Fatal("error callback not invoked for invalid config")
	}
}
