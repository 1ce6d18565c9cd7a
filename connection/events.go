package connection

import (
	"context"
	"sync"

	"github.com/satishbabariya/relorm/record"
	"github.com/satishbabariya/relorm/schema"
)

// EventKind identifies a before-write event.
type EventKind string

const (
	// BeforeInsert is dispatched before an insert is compiled.
	BeforeInsert EventKind = "beforeInsert"
	// BeforeUpdate is dispatched before an update is compiled.
	BeforeUpdate EventKind = "beforeUpdate"
	// BeforeDelete is dispatched before a delete is compiled.
	BeforeDelete EventKind = "beforeDelete"
)

// Verdict is a listener's decision about a pending write.
type Verdict int

const (
	// Continue lets the write and the remaining listeners run.
	Continue Verdict = iota
	// Cancel skips the write. The write still reports success.
	Cancel
)

// WriteEvent describes a pending write.
type WriteEvent struct {
	Kind       EventKind
	Layout     *schema.Layout
	Record     *record.Record
	Connection *Connection
	// Err is set by a listener whose replacement work failed. It is returned
	// from the write when the listener cancels.
	Err error
}

// Listener observes a pending write.
type Listener func(ctx context.Context, ev *WriteEvent) Verdict

// Events holds ordered listeners per layout name and event kind.
type Events struct {
	listeners map[string]map[EventKind][]Listener
	mu        sync.RWMutex
}

// NewEvents creates an empty listener set.
func NewEvents() *Events {
	return &Events{
		listeners: make(map[string]map[EventKind][]Listener),
	}
}

// On registers fn for writes of kind against layout. Listeners run in
// registration order.
func (e *Events) On(layout string, kind EventKind, fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners[layout] == nil {
		e.listeners[layout] = make(map[EventKind][]Listener)
	}
	e.listeners[layout][kind] = append(e.listeners[layout][kind], fn)
}

// Clear removes the listeners of layout, or every listener when layout is empty.
func (e *Events) Clear(layout string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if layout == "" {
		e.listeners = make(map[string]map[EventKind][]Listener)
		return
	}
	delete(e.listeners, layout)
}

// Dispatch runs the listeners for ev until one cancels.
func (e *Events) Dispatch(ctx context.Context, ev *WriteEvent) Verdict {
	e.mu.RLock()
	fns := append([]Listener(nil), e.listeners[ev.Layout.Name()][ev.Kind]...)
	e.mu.RUnlock()

	for _, fn := range fns {
		if fn(ctx, ev) == Cancel {
			return Cancel
		}
	}
	return Continue
}
