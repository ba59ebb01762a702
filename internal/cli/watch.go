package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"orbit/pkg/logging"
)

// Watcher reports changes to the registry file.
type Watcher struct {
	// Path is the registry file. Its directory is watched because the file
	// is replaced by rename on every write.
	Path string
	// Debounce coalesces bursts of events into one notification.
	Debounce time.Duration
}

// Run calls onChange after every settled change to Path until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.Path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	pending := time.NewTimer(debounce)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.Path) {
				continue
			}
			logging.Debug("Watch", "%s: %s", event.Op, event.Name)
			pending.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Watch", "File watcher error: %v", err)
		case <-pending.C:
			onChange()
		}
	}
}
