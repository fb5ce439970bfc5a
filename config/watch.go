package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadDelay debounces bursts of file events into one reload.
var ReloadDelay = 200 * time.Millisecond

// Watch reloads the binding file at path whenever it changes and passes
// the result to fn, which receives either a validated file or the load
// error. The directory is watched so that editors replacing the file are
// seen. Watch returns once the watcher is running; it stops when ctx is
// done.
func Watch(ctx context.Context, path string, fn func(*File, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go processEvents(ctx, watcher, abs, ReloadDelay, fn)

	Logger().Info("watching config", zap.String("path", abs))
	return nil
}

func processEvents(ctx context.Context, watcher *fsnotify.Watcher, path string, delay time.Duration, fn func(*File, error)) {
	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			Logger().Debug("config file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(delay, func() {
				if ctx.Err() != nil {
					return
				}
				f, err := Load(path)
				if err != nil {
					Logger().Error("failed to reload config", zap.Error(err))
				}
				fn(f, err)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			Logger().Error("watcher error", zap.Error(err))
		}
	}
}
