package templates

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever path changes, until ctx is done. A file
// that fails to parse leaves the current catalog in place.
func (c *Catalog) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				list, err := readFile(path)
				if err != nil {
					slog.Warn("templates reload skipped", "path", path, "error", err)
					continue
				}
				c.Replace(list)
				slog.Info("templates reloaded", "path", path, "count", len(list))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("templates watcher error", "error", err)
			}
		}
	}()
	return nil
}
