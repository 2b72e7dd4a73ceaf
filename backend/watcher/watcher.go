package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"github.com/GoPlasmatic/Reframe-IDE/backend/scanner"
	"github.com/GoPlasmatic/Reframe-IDE/backend/session"
	"github.com/fsnotify/fsnotify"
)

// reloadTimeout bounds a single reload triggered by file changes
const reloadTimeout = time.Minute

// Reloader re-reads the open package
type Reloader interface {
	Reload(ctx context.Context) (*models.PackageData, error)
}

// Watcher monitors the open package directory and reloads it on changes
type Watcher struct {
	reloader Reloader
	filter   scanner.Filter
	debounce time.Duration
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	stopped  bool

	root    string
	watched []string

	// Debounce timer so a burst of writes triggers one reload
	timer      *time.Timer
	debounceMu sync.Mutex
}

// New creates a new package watcher
func New(reloader Reloader, filter scanner.Filter, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		reloader: reloader,
		filter:   filter,
		debounce: debounce,
		watcher:  fsWatcher,
		stopChan: make(chan struct{}),
	}, nil
}

// Start starts processing file system events
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.processEvents()
	log.Println("Package watcher started")
}

// Stop stops the watcher
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	log.Println("Stopping package watcher...")
	close(w.stopChan)

	w.debounceMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.debounceMu.Unlock()

	w.watcher.Close()
	w.wg.Wait()
	log.Println("Package watcher stopped")
}

// HandleEvent keeps the watch set in line with the session. It is registered as a
// session listener.
func (w *Watcher) HandleEvent(ev session.Event) {
	switch ev.Type {
	case session.EventPackageLoaded:
		if ev.RootDir == "" {
			w.Unwatch()
			return
		}
		if err := w.Watch(ev.RootDir); err != nil {
			log.Printf("Warning: Failed to watch package %s: %v", ev.RootDir, err)
		}
	case session.EventPackageClosed:
		w.Unwatch()
	}
}

// Watch replaces the watch set with root and all its non-skipped subdirectories
func (w *Watcher) Watch(root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}

	w.removeAll()
	w.root = absPath

	err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == absPath {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absPath && w.filter.Skip(d.Name()) {
			return filepath.SkipDir
		}
		w.add(path)
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Watching package %s (%d director(ies))", absPath, len(w.watched))
	return nil
}

// Unwatch removes all watches
func (w *Watcher) Unwatch() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.removeAll()
	w.root = ""
}

// Root returns the watched package directory
func (w *Watcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

func (w *Watcher) add(path string) {
	if err := w.watcher.Add(path); err != nil {
		log.Printf("Warning: Failed to watch directory %s: %v", path, err)
		return
	}
	w.watched = append(w.watched, path)
}

func (w *Watcher) removeAll() {
	for _, path := range w.watched {
		w.watcher.Remove(path)
	}
	w.watched = nil
}

// processEvents processes file system events
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	root := w.Root()
	if root == "" || !Relevant(w.filter, root, event.Name, event.Op) {
		return
	}

	// New subdirectories need their own watch
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if w.root == root {
				w.add(event.Name)
			}
			w.mu.Unlock()
		}
	}

	w.scheduleReload()
}

// scheduleReload (re)starts the debounce timer
func (w *Watcher) scheduleReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	log.Printf("Package files changed, reloading")
	if _, err := w.reloader.Reload(ctx); err != nil {
		log.Printf("Warning: Failed to reload package: %v", err)
	}
}

// Relevant reports whether a change to name under root can affect the package.
// Changes inside skipped directories and permission-only changes are ignored;
// removals and renames always count since they may drop whole folders.
func Relevant(filter scanner.Filter, root, name string, op fsnotify.Op) bool {
	if op == fsnotify.Chmod {
		return false
	}

	rel, err := filepath.Rel(root, name)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if filter.Skip(part) {
			return false
		}
	}

	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		return true
	}
	if filter.Accept(filepath.Base(name)) {
		return true
	}

	// Directory creation: its files arrive as separate events
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}
