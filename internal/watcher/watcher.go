// Package watcher observes application directories for launcher file
// changes and emits debounced batches of events.
//
// Application directories are flat and few, so each configured directory
// gets one non-recursive fsnotify watch. Package installs touch many
// files in a burst; the debouncer coalesces the burst so each launcher
// path is revalidated once.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pkdesk/launcherd/internal/desktop"
)

// Operation is the kind of filesystem change observed for a launcher file.
type Operation int

const (
	// OpCreate indicates a new launcher file appeared.
	OpCreate Operation = iota
	// OpModify indicates an existing launcher file changed.
	OpModify
	// OpDelete indicates a launcher file was removed or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change to a launcher file.
type FileEvent struct {
	// Path is the absolute launcher file path.
	Path string

	// Operation is the kind of change.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced
	// events. Default: 200ms.
	DebounceWindow time.Duration
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow == 0 {
		o.DebounceWindow = 200 * time.Millisecond
	}
	return o
}

// Watcher emits debounced launcher file events for a set of application
// directories.
type Watcher struct {
	opts      Options
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
}

// New creates a watcher over the given application directories.
// Directories that do not exist are skipped with a log line; at least
// one must be watchable.
func New(dirs []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	opts = opts.WithDefaults()
	watched := 0
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			slog.Info("skipping unwatchable application directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		if err := fsw.Add(dir); err != nil {
			slog.Warn("failed to watch application directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("no watchable application directory among %v", dirs)
	}

	return &Watcher{
		opts:      opts,
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
	}, nil
}

// Events returns the channel of debounced event batches. Nothing is
// sent after Run returns; consumers should select on their own context.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Run pumps filesystem events into the debouncer until ctx is cancelled
// or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debouncer.Stop()
	defer func() { _ = w.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch event channel closed")
			}
			if fe, ok := translate(ev); ok {
				w.debouncer.Add(fe)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch error channel closed")
			}
			slog.Warn("filesystem watch error", slog.String("error", err.Error()))
		}
	}
}

// translate maps an fsnotify event onto a launcher file event. Events
// for non-launcher paths are dropped.
func translate(ev fsnotify.Event) (FileEvent, bool) {
	if !strings.HasSuffix(ev.Name, desktop.Suffix) {
		return FileEvent{}, false
	}

	var op Operation
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpModify
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		// A rename away from a watched flat directory means the path is
		// gone; the new name arrives as its own CREATE if still watched.
		op = OpDelete
	default:
		// Chmod and friends do not change content.
		return FileEvent{}, false
	}

	return FileEvent{Path: ev.Name, Operation: op, Timestamp: time.Now()}, true
}
