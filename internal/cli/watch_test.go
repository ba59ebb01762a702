package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_NotifiesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 10)
	w := &Watcher{Path: path, Debounce: 10 * time.Millisecond}
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changes <- struct{}{} })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`{"orbits":{}}`), 0o644))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification after change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := &Watcher{Path: filepath.Join(t.TempDir(), "nope", "state.json")}
	err := w.Run(context.Background(), func() {})
	assert.Error(t, err)
}
