// Package watch re-runs work when deck sources or card assets change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a re-run.
const DefaultDebounce = 500 * time.Millisecond

// Func is called once per debounced batch of changes. changed holds the
// base names of the files that triggered it.
type Func func(ctx context.Context, changed []string)

// Watch watches dirs (non-recursively) and calls fn after every burst of
// file changes, until ctx is cancelled. Hidden files and editor backups
// are ignored. fn runs on the watch goroutine, so events that arrive while
// it runs are batched into the next call.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, logger *slog.Logger, fn Func) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	logger.Info("watcher: started", slog.Any("dirs", dirs), slog.Duration("debounce", debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := map[string]struct{}{}

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			timer, fire = nil, nil
			logger.Info("watcher: change detected", slog.Any("files", changed))
			fn(ctx, changed)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if ignored(name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
				continue
			}
			logger.Debug("watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			pending[name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}
