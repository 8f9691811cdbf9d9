// Package watch rebuilds the site whenever one of its inputs changes.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RebuildFunc regenerates the output. Errors are logged, never fatal.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers a rebuild on input changes. At most one rebuild runs at a
// time; changes that arrive while one is in flight are absorbed by it.
type Watcher struct {
	watcher *fsnotify.Watcher
	rebuild RebuildFunc
	logger  *zap.Logger

	// files are watched through their parent directory so editors that
	// replace a file on save keep being noticed.
	files map[string]bool
	trees []string

	rebuilding atomic.Bool
	wg         sync.WaitGroup
}

// New watches each of paths: directories recursively, files individually.
// Paths that do not exist are skipped.
func New(rebuild RebuildFunc, logger *zap.Logger, paths ...string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		rebuild: rebuild,
		logger:  logger,
		files:   make(map[string]bool),
	}

	for _, path := range paths {
		path = filepath.Clean(path)
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("Not watching missing path", zap.String("path", path))
			continue
		}
		if err != nil {
			fw.Close()
			return nil, err
		}

		if info.IsDir() {
			w.trees = append(w.trees, path)
			err = w.addTree(path)
		} else {
			w.files[path] = true
			err = fw.Add(filepath.Dir(path))
		}
		if err != nil {
			fw.Close()
			return nil, err
		}
		logger.Debug("Watching", zap.String("path", path))
	}
	return w, nil
}

// Run handles file system events until ctx is done, then waits for any
// in-flight rebuild and releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.wg.Wait()
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing watcher", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// Trigger starts a rebuild in the background unless one is already running.
// It reports whether a rebuild was started.
func (w *Watcher) Trigger(ctx context.Context) bool {
	if !w.rebuilding.CompareAndSwap(false, true) {
		return false
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.rebuilding.Store(false)
		if err := w.rebuild(ctx); err != nil {
			w.logger.Warn("Rebuild Failed!", zap.Error(err))
		}
	}()
	return true
}

// Rebuilding reports whether a rebuild is in flight.
func (w *Watcher) Rebuilding() bool {
	return w.rebuilding.Load()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.relevant(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Unable to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
		}
	}

	w.logger.Debug("Change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	if w.Trigger(ctx) {
		w.logger.Info("Rebuilding", zap.String("trigger", event.Name))
	}
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	for _, tree := range w.trees {
		if name == tree || strings.HasPrefix(name, tree+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}
