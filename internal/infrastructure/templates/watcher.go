package templates

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/fsnotify/fsnotify"
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the directory must be quiet before a change is reported.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher invalidates a Store's prepend cache when template files change
// outside the API (editor saves, rsync, manual copies) and reports the change.
type Watcher struct {
	store    *Store
	logger   *logging.ChanneledLogger
	onChange func()
	debounce time.Duration

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	mu      sync.Mutex
	dir     string
	pending time.Time
}

// NewWatcher creates a watcher for store. onChange may be nil.
func NewWatcher(store *Store, logger *logging.ChanneledLogger, onChange func(), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:    store,
		logger:   logger,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching the template directory, creating it if needed.
// The watcher stops when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template watcher: create fsnotify: %w", err)
	}
	w.mu.Lock()
	w.fsWatcher = fsw
	w.mu.Unlock()

	if err := w.Retarget(); err != nil {
		w.mu.Lock()
		w.fsWatcher = nil
		w.mu.Unlock()
		_ = fsw.Close()
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Retarget follows the store to its current directory. It does nothing
// until the watcher has started.
func (w *Watcher) Retarget() error {
	dir := w.store.Dir()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsWatcher == nil {
		return nil
	}
	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		_ = w.fsWatcher.Remove(w.dir)
	}
	w.dir = ""
	if dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("template watcher: create %s: %w", dir, err)
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("template watcher: watch %s: %w", dir, err)
	}
	w.dir = dir
	w.logger.Storage().Info("Watching template directory", "path", dir)
	return nil
}

// Stop terminates the watcher and waits for the background goroutine to exit.
// It is safe to call Stop multiple times.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()

	w.mu.Lock()
	fsw := w.fsWatcher
	w.mu.Unlock()
	if fsw != nil {
		return fsw.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isTemplate(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Storage().Error("Template watcher error", "error", err.Error())

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	w.store.Invalidate()
	w.logger.Storage().Info("Template directory changed", "path", w.store.Dir())
	if w.onChange != nil {
		w.onChange()
	}
}
