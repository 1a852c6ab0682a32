package watcher

import (
	"sync"
	"time"
)

// DebouncedEvent is one file system change that survived the quiet window.
type DebouncedEvent struct {
	Path string
	Op   EventOp
}

// EventOp classifies a file system change.
type EventOp int

const (
	OpCreate EventOp = iota
	OpWrite
	OpRemove
	OpRename
)

// String returns the operation name for log output.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Debouncer buffers file system events until a quiet interval passes with no
// new ones, then emits the buffer as one batch. Repeated events for the same
// path collapse into the latest operation, so a save-save-save burst on one
// transcript costs a single rescan.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	byPath   map[string]DebouncedEvent
	quiet    *time.Timer
	stopped  bool
	batches  chan []DebouncedEvent
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		byPath:   make(map[string]DebouncedEvent),
		batches:  make(chan []DebouncedEvent, 16),
	}
}

// Output returns the channel that receives event batches.
func (d *Debouncer) Output() <-chan []DebouncedEvent {
	return d.batches
}

// Add buffers an event and restarts the quiet window. An event for an
// already-buffered path replaces the earlier operation.
func (d *Debouncer) Add(path string, op EventOp) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.byPath[path] = DebouncedEvent{Path: path, Op: op}

	if d.quiet != nil {
		d.quiet.Stop()
	}
	d.quiet = time.AfterFunc(d.interval, d.emit)
}

// Stop cancels the pending emit and drops buffered events. Add becomes a
// no-op afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.quiet != nil {
		d.quiet.Stop()
		d.quiet = nil
	}
	d.byPath = make(map[string]DebouncedEvent)
}

// emit flushes the buffer to the output channel.
func (d *Debouncer) emit() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.byPath) == 0 {
		return
	}

	batch := make([]DebouncedEvent, 0, len(d.byPath))
	for _, event := range d.byPath {
		batch = append(batch, event)
	}
	d.byPath = make(map[string]DebouncedEvent)

	d.batches <- batch
}
