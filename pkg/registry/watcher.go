package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/callisto/pkg/telemetry/logging"
)

const defaultDebounceInterval = 200 * time.Millisecond

// fileWatcher watches the registry file for changes and triggers
// reloads. It debounces bursts of events so one editor save produces
// one reload.
//
// The watch is placed on the file's directory rather than the file
// itself; editors and configuration tools typically replace files by
// rename, which silently drops a direct file watch.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	target   string
	debounce *debouncer

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// newFileWatcher creates a watcher for the file at path.
func newFileWatcher(path string, debounceInterval time.Duration, logger *logging.Logger) (*fileWatcher, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if debounceInterval <= 0 {
		debounceInterval = defaultDebounceInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &fileWatcher{
		watcher:  watcher,
		logger:   logger,
		target:   filepath.Clean(path),
		debounce: newDebouncer(debounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// watch processes file events until ctx is cancelled or stop is
// called. Each relevant event schedules a debounced onReload.
func (fw *fileWatcher) watch(ctx context.Context, onReload func() error) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	fw.running = true
	fw.mu.Unlock()

	defer func() {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		close(fw.doneCh)
	}()

	if err := fw.watcher.Add(filepath.Dir(fw.target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(fw.target), err)
	}

	fw.logger.Info("registry watcher started",
		"path", fw.target,
		"debounce_ms", fw.debounce.interval.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("registry watcher stopped")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("registry watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.logger.Debug("registry file event",
				"path", event.Name,
				"op", event.Op.String())

			fw.debounce.trigger(func() {
				fw.logger.Info("reloading user registry",
					"path", fw.target,
					"op", event.Op.String())

				if err := onReload(); err != nil {
					fw.logger.Error("user registry reload failed",
						"error", err)
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}

			fw.logger.Error("registry watcher error", "error", err)
			// Keep watching despite errors.
		}
	}
}

// stop ends the watch and cancels pending reloads. Idempotent, and
// safe to call when the watcher never ran.
func (fw *fileWatcher) stop() {
	fw.stopOnce.Do(func() {
		fw.mu.Lock()
		running := fw.running
		fw.mu.Unlock()

		close(fw.stopCh)
		if running {
			<-fw.doneCh
		}

		fw.debounce.stop()
		fw.watcher.Close()
	})
}

// shouldProcessEvent filters directory events down to the target file.
func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == fw.target
}

// debouncer collects rapid events and fires the callback only after a
// quiet period.
type debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopCh   chan struct{}
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// trigger schedules the callback after the debounce interval,
// replacing any pending callback.
func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
			d.mu.Lock()
			cb := d.callback
			d.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	})
}

// stop cancels any pending callback.
func (d *debouncer) stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
