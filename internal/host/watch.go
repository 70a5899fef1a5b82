package host

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config whenever the config file changes, until ctx is
// done. Bursts of events within the debounce window trigger one reload.
// The parent directory is watched so editors that replace the file by
// rename are noticed.
func (h *Host) Watch(ctx context.Context) error {
	if h.configPath == "" {
		return errors.New("no config path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(h.configPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	h.log.Info().Str("path", target).Dur("debounce", h.debounce).Msg("watching config")

	timer := time.NewTimer(0)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(h.debounce)
			}
		case <-timer.C:
			if err := h.Reload(ctx); err != nil {
				h.log.Error().Err(err).Msg("config reload failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
