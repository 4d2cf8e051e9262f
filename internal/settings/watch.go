package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	watchDebounce = 100 * time.Millisecond
	selfWriteSkip = 500 * time.Millisecond
)

// Watch reloads the document whenever it changes on disk and calls onChange
// with the new contents. Events caused by the store's own saves are skipped.
// Watch blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(Document)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: an atomic rename replaces the file's inode.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}
	name := filepath.Base(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			time.Sleep(watchDebounce)
		drain:
			for {
				select {
				case _, ok := <-watcher.Events:
					if !ok {
						break drain
					}
				default:
					break drain
				}
			}
			if s.recentlyWritten(selfWriteSkip) {
				continue
			}
			if doc, changed := s.Reload(); changed {
				slog.Info("settings reloaded", "path", s.path)
				onChange(doc)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("settings watcher", "err", err)
		}
	}
}
