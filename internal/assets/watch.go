package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/libbuilder/internal/logfields"
)

// DefaultDebounce is the quiet period before changed assets are synced.
const DefaultDebounce = 200 * time.Millisecond

var ignoredDirs = map[string]bool{"node_modules": true, ".git": true}

// WatchAndProcessOnAssetChange watches every asset input directory and keeps
// the output directory in sync until the returned Unregister is called.
// Unregister blocks until the watch goroutine has exited; calling it more than
// once is harmless.
func (h *Handler) WatchAndProcessOnAssetChange(ctx context.Context, debounce time.Duration) (Unregister, error) {
	if err := h.prepare(); err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, a := range h.Assets {
		if err := addTree(watcher, h.inputDir(a)); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.watchLoop(ctx, watcher, debounce)
	}()

	slog.Info("Watching assets", logfields.Dir(h.ProjectDir), slog.Int("assets", len(h.Assets)))

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := watcher.Close(); err != nil {
				slog.Warn("Error closing asset watcher", logfields.Error(err))
			}
			<-done
			slog.Debug("Asset watch stopped", logfields.Dir(h.ProjectDir))
		})
	}, nil
}

func (h *Handler) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration) {
	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
					pending[event.Name] = struct{}{}
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Asset watcher error", logfields.Error(err))
		case <-timer.C:
			for name := range pending {
				h.syncPath(name)
			}
			clear(pending)
		}
	}
}

// syncPath syncs a changed file, or every file below a created directory.
func (h *Handler) syncPath(name string) {
	info, err := os.Stat(name)
	if err == nil && info.IsDir() {
		_ = filepath.WalkDir(name, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr == nil && !d.IsDir() {
				h.syncOne(p)
			}
			return nil
		})
		return
	}
	h.syncOne(name)
}

func (h *Handler) syncOne(name string) {
	if err := h.sync(name); err != nil {
		slog.Error("Failed to sync asset", logfields.Path(name), logfields.Error(err))
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	return nil
}
