package policy

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/neuraform/neuraform/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// Watch reloads the store whenever the policy file changes on disk. It
// blocks until ctx is cancelled; callers run it in a goroutine. Editors
// often emit bursts of write events, so reloads are debounced.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: many editors replace the file on save, which
	// removes the original watch target.
	if err := watcher.Add(filepath.Dir(s.config.File)); err != nil {
		return err
	}

	var timer *time.Timer

	reload := func() {
		if err := s.Reload(ctx); err != nil {
			log.Error(ctx, "policy reload failed, keeping previous tables", log.Cause(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != filepath.Clean(s.config.File) {
				continue
			}

			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}

			timer = time.AfterFunc(reloadDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			log.Warn(ctx, "policy watcher error", log.Cause(err))
		}
	}
}
