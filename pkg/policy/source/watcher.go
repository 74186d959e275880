package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig contains configuration for the rule file watcher.
type WatcherConfig struct {
	// Path is the rule file to watch.
	Path string

	// DebounceInterval is the time to wait after the last write event
	// before triggering a reload, absorbing editor save storms.
	// Default: 100ms.
	DebounceInterval time.Duration
}

// DefaultWatcherConfig returns the default watcher configuration for the
// given path.
func DefaultWatcherConfig(path string) *WatcherConfig {
	return &WatcherConfig{
		Path:             path,
		DebounceInterval: 100 * time.Millisecond,
	}
}

// Watcher watches a rule file and triggers debounced reloads.
type Watcher struct {
	watcher *fsnotify.Watcher
	config  *WatcherConfig
	logger  *slog.Logger
}

// NewWatcher creates a rule file watcher.
func NewWatcher(config *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("watcher path is required")
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		config:  config,
		logger:  logger.With("component", "policy.watcher"),
	}, nil
}

// Watch blocks until the context is cancelled, invoking onReload after each
// debounced change to the rule file. A reload error is logged and watching
// continues; the caller keeps its previous rule set.
//
// The parent directory is watched rather than the file itself so that
// rename-based atomic writes (the common editor save strategy) are seen.
func (w *Watcher) Watch(ctx context.Context, onReload func() error) error {
	dir := filepath.Dir(w.config.Path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	defer w.watcher.Close()

	w.logger.Info("rule file watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
	)

	var debounce *time.Timer
	var debounceCh <-chan time.Time
	target := filepath.Clean(w.config.Path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rule file watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// A fresh timer per burst: resetting a fired timer without
			// draining its channel would deliver a stale tick.
			if debounce != nil && !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce = time.NewTimer(w.config.DebounceInterval)
			debounceCh = debounce.C

		case <-debounceCh:
			debounceCh = nil
			w.logger.Info("rule file changed, reloading", "path", w.config.Path)
			if err := onReload(); err != nil {
				w.logger.Error("rule reload failed, keeping previous rule set",
					"path", w.config.Path,
					"error", err,
				)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}
