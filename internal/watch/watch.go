// Package watch invalidates cached configs when config files change on
// disk. The server uses it when the client cannot watch files itself.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of events, e.g. editors writing a file
// through a temporary rename.
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls onChange, debounced, after a config file under root is
// created, written, removed or renamed.
type Watcher struct {
	root     string
	onChange func()
	debounce time.Duration

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	stopChan chan struct{}
	stopped  bool
	pending  chan struct{}
}

// New creates a watcher for root. Start begins watching.
func New(root string, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		root:     root,
		onChange: onChange,
		debounce: DefaultDebounce,
		watcher:  watcher,
		stopChan: make(chan struct{}),
		pending:  make(chan struct{}, 1),
	}, nil
}

// SetDebounce changes the debounce interval; call it before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start adds root and its searchable subdirectories and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	log.Info("Watching %s for config changes", w.root)

	go w.watchLoop(ctx)
	go w.notifyLoop(ctx)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	return w.watcher.Close()
}

// addTree watches dir and every subdirectory the config search visits.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDir(d.Name()) {
			return fs.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			log.Warn("Cannot watch %s: %v", path, err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return name == "node_modules" || name == "bower_components" || strings.HasPrefix(name, ".")
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error("Config watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		// New directories may later hold config files.
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() && !skipDir(filepath.Base(event.Name)) {
			if err := w.addTree(event.Name); err != nil {
				log.Warn("%v", err)
			}
			return
		}
	}
	if !config.IsConfigFile(event.Name) {
		return
	}
	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		log.Debug("Config file event: %s", event)
		select {
		case w.pending <- struct{}{}:
		default:
		}
	}
}

func (w *Watcher) notifyLoop(ctx context.Context) {
	var timer *time.Timer
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	for {
		select {
		case <-ctx.Done():
			stop()
			return
		case <-w.stopChan:
			stop()
			return
		case <-w.pending:
			stop()
			timer = time.AfterFunc(w.debounce, w.onChange)
		}
	}
}
