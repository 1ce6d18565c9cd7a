// Package watch re-runs a callback when a file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/relorm/internal/debug"
)

// Debounce is the quiet period after the last write before the callback runs
var Debounce = 300 * time.Millisecond

// File calls fn once, then after every write to file, until ctx is done.
// Errors from fn are reported through onError and do not stop watching.
func File(ctx context.Context, file string, fn func() error, onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	// Editors replace files on save, so watch the directory
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	if err := fn(); err != nil {
		onError(err)
	}

	timer := time.NewTimer(Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if path, err := filepath.Abs(event.Name); err != nil || path != abs {
				continue
			}
			debug.Debug("file changed", "file", abs, "op", event.Op.String())
			timer.Reset(Debounce)

		case <-timer.C:
			if err := fn(); err != nil {
				onError(err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
