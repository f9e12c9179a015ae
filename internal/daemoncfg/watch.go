package daemoncfg

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the spec file at path and calls onChange with the newly
// loaded Spec each time the file is written. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous spec remains active — Watch does not call onChange.
func Watch(ctx context.Context, path string, onChange func(*Spec)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("daemoncfg: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			spec, err := Load(path)
			if err != nil {
				slog.Error("daemoncfg: reload failed — keeping previous spec",
					"path", path, "err", err)
				continue
			}

			slog.Info("daemoncfg: spec changed", "path", path)
			onChange(spec)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("daemoncfg: watcher error", "err", err)
		}
	}
}
