package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceQuiet is the settle time after the last file system event before a
// batch is emitted. A change batch triggers a full archive rescan, so the
// window is generous enough that a bulk copy into the archive collapses into
// one rescan instead of dozens.
const debounceQuiet = 2 * time.Second

// IgnoreChecker answers which paths the scan would skip, so the watcher can
// skip them too.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Watcher watches the transcript archive recursively and hands debounced
// change batches to its consumer. fsnotify does not follow new directories on
// its own, so created directories are added to the watch set as they appear.
type Watcher struct {
	notify  *fsnotify.Watcher
	pending *Debouncer
	ignore  IgnoreChecker
	root    string
	log     *slog.Logger
}

// NewWatcher creates a watcher covering the archive root and every
// non-ignored directory below it.
func NewWatcher(rootDir string, ignore IgnoreChecker, logger *slog.Logger) (*Watcher, error) {
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		notify:  notify,
		pending: NewDebouncer(debounceQuiet),
		ignore:  ignore,
		root:    rootDir,
		log:     logger,
	}

	if err := w.watchTree(rootDir); err != nil {
		notify.Close()
		return nil, err
	}
	return w, nil
}

// watchTree registers dir and all non-ignored directories below it. A
// directory that cannot be registered is logged and skipped; the periodic
// freshness check covers whatever the watcher misses.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		if path != w.root && w.ignore.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if addErr := w.notify.Add(path); addErr != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", addErr)
		}
		return nil
	})
}

// Events returns the channel carrying debounced change batches.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.pending.Output()
}

// Start consumes raw fsnotify events until the watcher is closed. Run it in
// a goroutine.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.notify.Events:
			if !ok {
				return
			}
			w.observe(event)

		case err, ok := <-w.notify.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// observe funnels one raw event into the debouncer, growing the watch set
// when the event is a new directory.
func (w *Watcher) observe(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) && w.adoptNewDir(path) {
		// Directory creation itself is not an archive change; the files
		// copied into it arrive as their own events.
		return
	}

	if w.ignore.ShouldIgnore(path) {
		return
	}

	if op, relevant := translateOp(event); relevant {
		w.pending.Add(path, op)
	}
}

// adoptNewDir starts watching path if it is a directory, returning whether it
// was one.
func (w *Watcher) adoptNewDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if !w.ignore.ShouldIgnoreDir(path) {
		if err := w.notify.Add(path); err != nil {
			w.log.Warn("failed to watch new directory", "path", path, "error", err)
		}
	}
	return true
}

// translateOp maps an fsnotify event to the debouncer's operation. Chmod-only
// events are noise for a tally and report as not relevant.
func translateOp(event fsnotify.Event) (EventOp, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return OpCreate, true
	case event.Has(fsnotify.Write):
		return OpWrite, true
	case event.Has(fsnotify.Remove):
		return OpRemove, true
	case event.Has(fsnotify.Rename):
		return OpRename, true
	}
	return 0, false
}

// Close stops the watcher and releases resources. Pending debounced events
// are dropped rather than flushed; a rescan after shutdown has no consumer.
func (w *Watcher) Close() error {
	w.pending.Stop()
	return w.notify.Close()
}
