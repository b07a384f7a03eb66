// Package watcher reports image files as they appear in a directory.
package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reported
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors one directory for new or rewritten images
type Watcher struct {
	dir      string
	ignore   string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	events   chan string
	done     chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithIgnoreDir skips events under dir, typically the output folder
func WithIgnoreDir(dir string) Option {
	return func(w *Watcher) {
		w.ignore = absPath(dir)
	}
}

// absPath resolves path against the working directory, falling back to a
// cleaned path when that fails
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// New creates a watcher for dir. Reported paths are absolute.
func New(dir string, opts ...Option) (*Watcher, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch folder: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		watcher:  fsWatcher,
		events:   make(chan string, 100),
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins monitoring the directory
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	log.Printf("Watching folder: %s", w.dir)

	go w.processEvents()
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.wanted(event.Name) {
				continue
			}
			w.schedule(absPath(event.Name))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// wanted reports whether path looks like an image we can decode
func (w *Watcher) wanted(path string) bool {
	path = absPath(path)
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if w.ignore != "" && (path == w.ignore || strings.HasPrefix(path, w.ignore+string(filepath.Separator))) {
		return false
	}
	_, err := imaging.FormatFromFilename(path)
	return err == nil
}

// schedule restarts the quiet period for path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}

		log.Printf("Image ready: %s", path)
		select {
		case w.events <- path:
		case <-w.done:
		}
	})
}

// Events returns the paths of images ready for conversion
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Stop stops the watcher. Events is not closed.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}
