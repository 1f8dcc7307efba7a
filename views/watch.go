package views

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// Watcher calls a function whenever something changes below a directory.
// Bursts of changes (editors often write a file several times) result in a single call.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce func(f func())
	onChange func()
	logger   *slog.Logger
}

// NewWatcher starts watching root and all of its subdirectories.
// Changes are only reported once [Watcher.Run] is running.
func NewWatcher(root string, delay time.Duration, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create watcher: %w", err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("cannot add directory %q to watcher: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("cannot walk %q: %w", root, err)
	}

	return &Watcher{
		watcher:  watcher,
		debounce: debounce.New(delay),
		onChange: onChange,
		logger:   slog.Default(),
	}, nil
}

func (w *Watcher) WithLogger(logger *slog.Logger) *Watcher {
	w.logger = logger
	return w
}

// Run reports changes until ctx is done. The watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				w.watchNewDirectory(event.Name)
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("View changed", "path", event.Name, "op", event.Op.String())
				w.debounce(w.onChange)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("View watcher error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) watchNewDirectory(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Cannot watch new directory", "path", path, "error", err)
		return
	}
	w.logger.Debug("Watching new directory", "path", path)
}
