// internal/script/watch.go
package script

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events one editor save produces
const watchDebounce = 100 * time.Millisecond

// Watch reloads path whenever it is written or replaced and passes the result
// to onChange. It runs until ctx is done.
func Watch(ctx context.Context, path string, onChange func(text string, err error)) error {
	absPath, err := ResolvePath(path)
	if err != nil {
		return err
	}
	if _, err := DetectFormat(absPath); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often save by writing a temp file and renaming it.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	slog.Info("watching script", "path", absPath)
	go watchLoop(ctx, watcher, absPath, onChange)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, absPath string, onChange func(string, error)) {
	defer watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			text, err := Load(absPath)
			if err != nil {
				slog.Warn("script reload failed", "path", absPath, "error", err)
			} else {
				slog.Debug("script reloaded", "path", absPath, "bytes", len(text))
			}
			onChange(text, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("script watcher error", "error", err)
		}
	}
}
