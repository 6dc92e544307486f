package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/othala/internal/bus"
)

// Watch observes the database file for writes made by another process
// instance and publishes both invalidation signals after a short debounce,
// so every cached surface re-fetches. Writes from this process also land
// here; the extra invalidation is a redundant re-read, nothing more.
//
// The parent directory is watched rather than the file itself: SQLite's
// WAL sidecar files appear and disappear next to the database, and a watch
// on the bare file would be lost across those transitions.
func Watch(ctx context.Context, db *DB, b *bus.Bus, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(db.Path())
	base := filepath.Base(db.Path())
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("db", db.Path()))

	var debounce *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(200 * time.Millisecond)
			fire = debounce.C
		} else {
			debounce.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			logger.Debug("watcher: database changed, invalidating caches")
			b.Publish(bus.NotesChanged)
			b.Publish(bus.FoldersChanged)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Only the database and its WAL/journal sidecars matter.
			if !strings.HasPrefix(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
