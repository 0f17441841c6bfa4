// Package watch calls back when files under a project tree change, after
// the tree has been quiet for a debounce period.
package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is used when no positive debounce is configured.
const DefaultDebounce = 500 * time.Millisecond

// Callback receives the changed paths of one quiet period, sorted.
type Callback func(ctx context.Context, changed []string)

// Watcher monitors a directory tree for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	exclude   map[string]bool
	ignore    []string
	logger    logrus.FieldLogger
	callback  Callback
	mu        sync.Mutex
	pending   map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the tree must be quiet before the callback runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExcludeDirs skips any directory with one of the given names.
func WithExcludeDirs(names ...string) Option {
	return func(w *Watcher) {
		for _, n := range names {
			w.exclude[n] = true
		}
	}
}

// WithIgnorePaths skips everything at or below the given absolute paths.
func WithIgnorePaths(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p != "" {
				w.ignore = append(w.ignore, filepath.Clean(p))
			}
		}
	}
}

// WithLogger sets the logger watch errors are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher creates a watcher for the tree rooted at root.
func NewWatcher(root string, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	w := &Watcher{
		fsWatcher: fsWatcher,
		root:      filepath.Clean(root),
		debounce:  DefaultDebounce,
		exclude:   make(map[string]bool),
		logger:    discard,
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SetCallback sets the function to call when the tree changes.
func (w *Watcher) SetCallback(cb Callback) {
	w.callback = cb
}

// Start watches until ctx is done. Callbacks run on the calling goroutine,
// one at a time.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch error")

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// addTree watches dir and every directory below it that is not skipped.
func (w *Watcher) addTree(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.skip(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// skip reports whether path is ignored or lies in an excluded directory.
func (w *Watcher) skip(path string) bool {
	path = filepath.Clean(path)
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.exclude[part] {
			return true
		}
	}
	return false
}

// handleEvent records a change. New directories are watched as they appear.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := event.Name
	if w.skip(path) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.logger.WithError(err).WithField("path", path).Warn("cannot watch new directory")
			}
		}
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processPending runs the callback once the most recent change is older
// than the debounce period.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	now := time.Now()
	for _, lastMod := range w.pending {
		if now.Sub(lastMod) < w.debounce {
			w.mu.Unlock()
			return
		}
	}

	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	slices.Sort(changed)
	if w.callback != nil {
		w.callback(ctx, changed)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
