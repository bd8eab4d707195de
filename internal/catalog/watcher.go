package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives a seed whose content differs from the last one seen.
type ReloadFunc func(ctx context.Context, seed *Seed) error

// Watcher reloads a seed file when it changes on disk.
//
// The parent directory is watched rather than the file so that editors
// which replace the file by rename are picked up. Bursts of writes are
// coalesced: a reload happens once the file has been quiet for SettleDelay.
type Watcher struct {
	path     string
	onReload ReloadFunc
	logger   *slog.Logger

	// SettleDelay is how long the file must be quiet before reloading.
	SettleDelay time.Duration

	mu       sync.Mutex
	lastHash uint64
	timer    *time.Timer
}

// NewWatcher creates a watcher for path. lastHash is the hash of the
// content already applied, so an unchanged file is not reloaded.
func NewWatcher(path string, lastHash uint64, onReload ReloadFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:        filepath.Clean(path),
		onReload:    onReload,
		logger:      logger,
		SettleDelay: 250 * time.Millisecond,
		lastHash:    lastHash,
	}
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching catalog seed", "path", w.path)

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.SettleDelay, func() { w.reload(ctx) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// reload loads the file and hands it on when its hash changed. A file that
// fails to parse is logged and the previous catalog stays in place.
func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	seed, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("catalog seed reload failed", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	unchanged := seed.Hash == w.lastHash
	w.mu.Unlock()
	if unchanged {
		w.logger.Debug("catalog seed unchanged, skipping reload", "path", w.path)
		return
	}

	if err := w.onReload(ctx, seed); err != nil {
		w.logger.Error("catalog reload rejected", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	w.lastHash = seed.Hash
	w.mu.Unlock()
	w.logger.Info("catalog reloaded", "path", w.path, "books", len(seed.Books))
}
