// Package watch signals when declaration files under a set of roots change.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/runorder/pkg/discovery"
)

// DefaultDebounce coalesces editor save bursts into one signal.
const DefaultDebounce = 300 * time.Millisecond

// Config holds watcher configuration options.
type Config struct {
	Roots      []string
	Convention discovery.Convention
	Debounce   time.Duration
	Logger     *log.Logger
}

// Watcher monitors the convention directories of every root and sends one
// debounced notification per burst of relevant changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	cfg       Config
	onChange  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a new declaration watcher.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Convention.Validate(); err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		cfg:       cfg,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. Roots that do not exist are skipped, matching
// discovery. Returns a channel that receives a signal after changes settle.
func (w *Watcher) Start() (<-chan struct{}, error) {
	for _, root := range w.cfg.Roots {
		if err := w.addRoot(root); err != nil {
			return nil, err
		}
	}
	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.fsWatcher.WatchList()
}

// addRoot watches root, each module directory directly below it, and the
// convention subdirectory of both layouts.
func (w *Watcher) addRoot(root string) error {
	if !isDir(root) {
		w.cfg.Logger.Debug("not watching missing root", "root", root)
		return nil
	}
	if err := w.add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading root %s: %w", root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := w.addModule(filepath.Join(root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// addModule watches dir and, when present, its convention subdirectory.
// For the direct layout dir is itself the convention subdirectory.
func (w *Watcher) addModule(dir string) error {
	if err := w.add(dir); err != nil {
		return err
	}
	sub := filepath.Join(dir, w.cfg.Convention.Subdir)
	if isDir(sub) {
		return w.add(sub)
	}
	return nil
}

func (w *Watcher) add(dir string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	return nil
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.handle(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			timerC = timer.C
			pending = true

		case <-timerC:
			if pending {
				// Non-blocking send - drop if a signal is already queued
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Warn("watch error", "err", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// handle reacts to one event and reports whether it should trigger a
// refresh. New directories are added to the watch set; a new module or
// convention directory may already contain declaration files, so it counts
// as a change.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
		if w.isWatchedParent(filepath.Dir(event.Name)) {
			if err := w.addModule(event.Name); err != nil {
				w.cfg.Logger.Warn("watch new directory failed", "dir", event.Name, "err", err)
			}
			return true
		}
		return false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.cfg.Convention.Matches(event.Name)
}

// isWatchedParent reports whether dir is a root or a module directory, the
// only places where new directories matter.
func (w *Watcher) isWatchedParent(dir string) bool {
	clean := filepath.Clean(dir)
	for _, root := range w.cfg.Roots {
		r := filepath.Clean(root)
		if clean == r || filepath.Dir(clean) == r {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
