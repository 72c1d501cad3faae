package hotreload

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileEvent represents a file system event
type FileEvent struct {
	Path      string
	Operation string // create, write, remove, rename, chmod
	Timestamp time.Time
}

// FileWatcher watches files and directory trees for changes
type FileWatcher struct {
	watcher      *fsnotify.Watcher
	logger       *zap.Logger
	debouncer    *Debouncer
	watchedPaths map[string]bool
	trees        map[string]bool
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(logger *zap.Logger, debounceDelay time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileWatcher{
		watcher:      watcher,
		logger:       logger,
		debouncer:    NewDebouncer(debounceDelay),
		watchedPaths: make(map[string]bool),
		trees:        make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// AddPath adds a file or directory to watch
func (fw *FileWatcher) AddPath(path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.add(path)
}

func (fw *FileWatcher) add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if fw.watchedPaths[absPath] {
		return nil
	}
	if err := fw.watcher.Add(absPath); err != nil {
		return err
	}

	fw.watchedPaths[absPath] = true
	fw.logger.Debug("Added path to watcher", zap.String("path", absPath))
	return nil
}

// AddTree watches root and every directory below it. Directories created
// later under root are picked up as they appear.
func (fw *FileWatcher) AddTree(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.trees[absRoot] = true
	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.add(path)
	})
}

// RemovePath removes a path from watching
func (fw *FileWatcher) RemovePath(path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !fw.watchedPaths[absPath] {
		return nil
	}
	if err := fw.watcher.Remove(absPath); err != nil {
		return err
	}

	delete(fw.watchedPaths, absPath)
	fw.logger.Debug("Removed path from watcher", zap.String("path", absPath))
	return nil
}

// WatchedPaths returns the number of watched files and directories
func (fw *FileWatcher) WatchedPaths() int {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return len(fw.watchedPaths)
}

// Start runs the event loop. Every event accepted by route is debounced
// under the key route returns, then passed to callback.
func (fw *FileWatcher) Start(route func(path string) (key string, ok bool), callback func(FileEvent)) {
	done := make(chan struct{})
	fw.done = done
	go func() {
		defer close(done)
		fw.watchLoop(route, callback)
	}()
	fw.logger.Info("File watcher started", zap.Int("watched_paths", fw.WatchedPaths()))
}

// Stop stops the file watcher and drops pending debounced events
func (fw *FileWatcher) Stop() error {
	fw.cancel()
	fw.debouncer.Stop()

	err := fw.watcher.Close()
	if fw.done != nil {
		<-fw.done
	}
	if err != nil {
		fw.logger.Error("Error closing file watcher", zap.Error(err))
		return err
	}

	fw.logger.Info("File watcher stopped")
	return nil
}

func (fw *FileWatcher) watchLoop(route func(string) (string, bool), callback func(FileEvent)) {
	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event, route, callback)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event, route func(string) (string, bool), callback func(FileEvent)) {
	if event.Has(fsnotify.Create) && fw.inTree(event.Name) {
		if err := fw.AddTree(event.Name); err == nil {
			fw.logger.Debug("Watching new directory", zap.String("path", event.Name))
		}
	}

	key, ok := route(event.Name)
	if !ok {
		return
	}

	fileEvent := FileEvent{
		Path:      event.Name,
		Operation: convertOperation(event.Op),
		Timestamp: time.Now(),
	}

	fw.logger.Debug("File event detected",
		zap.String("path", fileEvent.Path),
		zap.String("operation", fileEvent.Operation),
	)

	fw.debouncer.Debounce(key, func() {
		callback(fileEvent)
	})
}

// inTree reports whether path is a directory below a watched tree
func (fw *FileWatcher) inTree(path string) bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	for root := range fw.trees {
		if rel, err := filepath.Rel(root, path); err == nil && filepath.IsLocal(rel) {
			return isDir(path)
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func convertOperation(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "unknown"
	}
}

// Debouncer collapses bursts of calls sharing a key into the last one
type Debouncer struct {
	delay   time.Duration
	timers  map[string]*time.Timer
	mu      sync.Mutex
	stopped bool
}

// NewDebouncer creates a new debouncer
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Debounce schedules fn after the delay, replacing any call pending for key
func (d *Debouncer) Debounce(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if timer, exists := d.timers[key]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped || d.timers[key] != timer {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()

		fn()
	})
	d.timers[key] = timer
}

// Pending returns the number of scheduled calls
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending call. Later calls to Debounce are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
