// Package watch implements the filesystem watch driver (§4.6): recursive
// directory watching, event-kind classification, filtering, single-flight
// or queued re-plan concurrency, and reserved re-plan arg injection.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// EventKind is a canonical taxonomy string §4.6 reserves for filter regex
// matching. Every leaf of the full taxonomy is defined here so a filter can
// reference any of them; the fsnotify-backed driver only ever emits the
// subset reachable from fsnotify.Op (see classify, and DESIGN.md).
type EventKind string

const (
	KindCreatedAny    EventKind = "created/any"
	KindCreatedFile   EventKind = "created/file"
	KindCreatedFolder EventKind = "created/folder"
	KindCreatedOther  EventKind = "created/other"

	KindModifiedAny   EventKind = "modified/any"
	KindModifiedOther EventKind = "modified/other"

	KindModifiedDataAny     EventKind = "modified/data/any"
	KindModifiedDataSize    EventKind = "modified/data/size"
	KindModifiedDataContent EventKind = "modified/data/content"
	KindModifiedDataOther   EventKind = "modified/data/other"

	KindModifiedMetadataAny         EventKind = "modified/metadata/any"
	KindModifiedMetadataAccessTime  EventKind = "modified/metadata/accesstime"
	KindModifiedMetadataWriteTime   EventKind = "modified/metadata/writetime"
	KindModifiedMetadataPermissions EventKind = "modified/metadata/permissions"
	KindModifiedMetadataOwnership   EventKind = "modified/metadata/ownership"
	KindModifiedMetadataExtended    EventKind = "modified/metadata/extended"
	KindModifiedMetadataOther       EventKind = "modified/metadata/other"

	KindModifiedNameAny   EventKind = "modified/name/any"
	KindModifiedNameTo    EventKind = "modified/name/to"
	KindModifiedNameFrom  EventKind = "modified/name/from"
	KindModifiedNameBoth  EventKind = "modified/name/both"
	KindModifiedNameOther EventKind = "modified/name/other"

	KindRemovedAny    EventKind = "removed/any"
	KindRemovedFile   EventKind = "removed/file"
	KindRemovedFolder EventKind = "removed/folder"
	KindRemovedOther  EventKind = "removed/other"

	KindAccessAny   EventKind = "access/any"
	KindAccessRead  EventKind = "access/read"
	KindAccessOther EventKind = "access/other"

	KindAccessOpenAny     EventKind = "access/open/any"
	KindAccessOpenExecute EventKind = "access/open/execute"
	KindAccessOpenRead    EventKind = "access/open/read"
	KindAccessOpenWrite   EventKind = "access/open/write"
	KindAccessOpenOther   EventKind = "access/open/other"

	KindAccessCloseAny     EventKind = "access/close/any"
	KindAccessCloseExecute EventKind = "access/close/execute"
	KindAccessCloseRead    EventKind = "access/close/read"
	KindAccessCloseWrite   EventKind = "access/close/write"
	KindAccessCloseOther   EventKind = "access/close/other"

	KindAny   EventKind = "any"
	KindOther EventKind = "other"
)

// Event describes one filtered, classified filesystem change.
type Event struct {
	Kind EventKind
	// Path is relative to the watch root, forward-slash separated.
	Path string
}

// Taxonomy renders the canonical "<kind>|<relative-path>" string that the
// filter regex is matched against and that the EVENT re-plan arg carries.
func (e Event) Taxonomy() string {
	return string(e.Kind) + "|" + e.Path
}

// Queue selects how concurrently-arriving events are handled while a
// re-plan/execute cycle is already running.
type Queue string

const (
	// QueueSingleFlight drops events that arrive while a cycle is running;
	// at most one cycle runs at a time (§4.6 default).
	QueueSingleFlight Queue = "single_flight"
	// QueueBuffered queues every matched event behind the one in flight on
	// an unbounded buffer (§4.6 step 4, §9) — nothing is ever dropped for
	// being queued, only for failing the filter.
	QueueBuffered Queue = "buffered"
)

// newUnboundedEventQueue returns a send side and a receive side backed by a
// slice that grows as needed, so a producer never blocks on a fixed
// capacity and a queued event is never dropped for arriving too fast (§9:
// "the queued variant switches to an unbounded channel"). Both sides close
// when ctx is cancelled.
func newUnboundedEventQueue(ctx context.Context) (chan<- Event, <-chan Event) {
	in := make(chan Event)
	out := make(chan Event)
	go func() {
		defer close(out)
		var queue []Event
		for {
			if len(queue) == 0 {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-in:
					if !ok {
						return
					}
					queue = append(queue, v)
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				queue = append(queue, v)
			case out <- queue[0]:
				queue = queue[1:]
			}
		}
	}()
	return in, out
}

// Handler runs one watch-triggered cycle (typically replan+execute) for the
// given event, with the reserved args already injected by Driver.
type Handler func(ctx context.Context, ev Event, args map[string]string) error

// Driver watches a root directory and invokes Handler for every filtered
// event, honoring the chosen Queue policy.
type Driver struct {
	Root    string
	Filter  *regexp.Regexp
	Queue   Queue
	Handler Handler
	Logger  *logrus.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	busy    bool
	pending chan<- Event
}

// New constructs a Driver. filter may be nil to match every event.
func New(root string, filter *regexp.Regexp, queue Queue, handler Handler, logger *logrus.Logger) *Driver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Driver{Root: root, Filter: filter, Queue: queue, Handler: handler, Logger: logger}
}

// Run watches d.Root until ctx is cancelled. fsnotify does not recurse on
// Linux, so every existing subdirectory is registered up front and newly
// created directories are registered as their create events arrive.
func (d *Driver) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	d.watcher = w
	defer w.Close()

	if err := filepath.WalkDir(d.Root, func(path string, de os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return w.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}

	if d.Queue == QueueBuffered {
		in, out := newUnboundedEventQueue(ctx)
		d.pending = in
		go d.drain(ctx, out)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-w.Events:
			if !ok {
				return nil
			}
			d.handleRaw(ctx, raw)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.Logger.WithError(err).Error("watch error")
		}
	}
}

func (d *Driver) handleRaw(ctx context.Context, raw fsnotify.Event) {
	if raw.Has(fsnotify.Create) {
		if info, err := os.Stat(raw.Name); err == nil && info.IsDir() {
			if err := d.watcher.Add(raw.Name); err != nil {
				d.Logger.WithError(err).Warn("failed to register new directory")
			}
		}
	}

	rel, err := filepath.Rel(d.Root, raw.Name)
	if err != nil {
		rel = raw.Name
	}
	rel = filepath.ToSlash(rel)

	ev := Event{Kind: d.classify(raw), Path: rel}
	if d.Filter != nil && !d.Filter.MatchString(ev.Taxonomy()) {
		return
	}

	switch d.Queue {
	case QueueBuffered:
		select {
		case d.pending <- ev:
		case <-ctx.Done():
		}
	default:
		d.dispatchSingleFlight(ctx, ev)
	}
}

func (d *Driver) dispatchSingleFlight(ctx context.Context, ev Event) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		d.Logger.WithField("event", ev.Taxonomy()).Debug("cycle in flight, dropping event")
		return
	}
	d.busy = true
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			d.busy = false
			d.mu.Unlock()
		}()
		d.invoke(ctx, ev)
	}()
}

func (d *Driver) drain(ctx context.Context, out <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-out:
			if !ok {
				return
			}
			d.invoke(ctx, ev)
		}
	}
}

func (d *Driver) invoke(ctx context.Context, ev Event) {
	args := map[string]string{
		"EVENT":      ev.Taxonomy(),
		"EVENT_KIND": string(ev.Kind),
		"EVENT_PATH": ev.Path,
	}
	if err := d.Handler(ctx, ev, args); err != nil {
		// §7: a handler failure is logged, not fatal — the driver keeps
		// watching rather than tearing down the whole process.
		d.Logger.WithError(err).WithField("event", ev.Taxonomy()).Error("watch cycle failed")
	}
}

// classify maps an fsnotify.Op onto the closest taxonomy leaf it can
// support (§4.6, DESIGN.md "Event-kind taxonomy vs. fsnotify capability").
// Create is refined to file/folder via a stat; a removed path can no longer
// be stat'd, so every Remove classifies as removed/file.
func (d *Driver) classify(raw fsnotify.Event) EventKind {
	switch {
	case raw.Has(fsnotify.Create):
		if info, err := os.Stat(raw.Name); err == nil && info.IsDir() {
			return KindCreatedFolder
		}
		return KindCreatedFile
	case raw.Has(fsnotify.Remove):
		return KindRemovedFile
	case raw.Has(fsnotify.Rename):
		return KindModifiedNameAny
	case raw.Has(fsnotify.Chmod):
		return KindModifiedMetadataPermissions
	default:
		return KindModifiedDataContent
	}
}
