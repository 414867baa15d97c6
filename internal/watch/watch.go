// Package watch triggers re-runs when files under a directory tree change.
// Filesystem events are debounced so a burst of writes (editor save, git
// checkout) produces a single trigger.
package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"leash/pkg/logger"
)

const defaultDebounce = 300 * time.Millisecond

var errNotDir = errors.New("not a directory")

// Watcher observes a directory tree recursively.
type Watcher struct {
	// Debounce is the quiet period required before a trigger fires.
	Debounce time.Duration

	root string
	fsw  *fsnotify.Watcher
}

// New watches root and all its non-hidden subdirectories. The root itself
// must be an existing directory; entries below it that cannot be read are
// skipped.
func New(root string, debounce time.Duration) (*Watcher, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, &fs.PathError{Op: "watch", Path: root, Err: errNotDir}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{Debounce: debounce, root: root, fsw: fsw}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Triggers starts the event loop and returns a channel that receives one
// value per debounced change burst. The channel closes when stop is closed
// or the watcher shuts down. Pending triggers collapse while the consumer
// is busy.
func (w *Watcher) Triggers(stop <-chan struct{}) <-chan struct{} {
	ticks := make(chan struct{}, 1)
	go func() {
		defer close(ticks)
		coalesce(w.fsw.Events, w.fsw.Errors, w.debounce(), w.trackNewDirs, ticks, stop)
	}()
	return ticks
}

func (w *Watcher) debounce() time.Duration {
	if w.Debounce > 0 {
		return w.Debounce
	}
	return defaultDebounce
}

// addRecursive registers root and every readable, non-hidden directory below it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Debugf("watch: cannot watch %s: %v", path, err)
		}
		return nil
	})
}

// trackNewDirs extends the watch to directories created after startup.
func (w *Watcher) trackNewDirs(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create == 0 {
		return
	}
	if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
		_ = w.addRecursive(ev.Name)
	}
}

// coalesce folds raw filesystem events into debounced triggers. It is split
// out from Watcher so the debounce behavior is testable with plain channels.
func coalesce(
	events <-chan fsnotify.Event,
	errs <-chan error,
	debounce time.Duration,
	onEvent func(fsnotify.Event),
	ticks chan<- struct{},
	stop <-chan struct{},
) {
	var quiet <-chan time.Time
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if onEvent != nil {
				onEvent(ev)
			}
			quiet = time.After(debounce)
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Debugf("watch: %v", err)
		case <-quiet:
			quiet = nil
			select {
			case ticks <- struct{}{}:
			default: // consumer busy; this burst collapses into the pending trigger
			}
		case <-stop:
			return
		}
	}
}
