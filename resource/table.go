package resource

import (
	"sync"
)

// Handle is an opaque reference to an entry in a Table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies a lifecycle event.
type EventType uint8

const (
	EventOpened EventType = iota
	EventClosed
)

// Event describes one lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives lifecycle event notifications.
type Observer interface {
	OnHandleEvent(Event)
}

// Dropper is optionally implemented by values that release a native resource
// when evicted from the table.
type Dropper interface {
	Drop()
}

// Table is a slot-based registry of live native sessions. Handles are
// recycled through a free list; a handle is never valid after Remove.
type Table struct {
	entries   []entry
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	closed    bool
}

type entry struct {
	value any
	valid bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 8),
		freeList: make([]Handle, 0, 4),
	}
}

// Insert registers a value and returns its handle. It returns 0 when the
// table has been closed.
func (t *Table) Insert(value any) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}

	e := entry{value: value, valid: true}
	var h Handle
	if n := len(t.freeList); n > 0 {
		h = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
	} else {
		t.entries = append(t.entries, e)
		h = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventOpened, Handle: h, Value: value})
	return h
}

// Get retrieves a value by handle.
func (t *Table) Get(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return nil, false
	}
	return t.entries[idx].value, true
}

// Remove evicts a handle, calling Drop on the value if it implements
// Dropper. It reports whether the handle was live.
func (t *Table) Remove(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.Lock()
	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		t.mu.Unlock()
		return nil, false
	}
	value := t.entries[idx].value
	t.entries[idx] = entry{}
	t.freeList = append(t.freeList, h)
	t.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventClosed, Handle: h, Value: value})
	return value, true
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, e := range t.entries {
		if e.valid {
			n++
		}
	}
	return n
}

// Each calls fn for every live handle until fn returns false.
func (t *Table) Each(fn func(Handle, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(Handle(i+1), e.value) {
				return
			}
		}
	}
}

// Subscribe adds a lifecycle observer.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Close evicts every live handle and stops accepting inserts. Safe to call
// more than once.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	var leftover []Handle
	for i, e := range t.entries {
		if e.valid {
			leftover = append(leftover, Handle(i+1))
		}
	}
	t.mu.Unlock()

	for _, h := range leftover {
		t.Remove(h)
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.mu.RLock()
	obs := t.observers
	t.mu.RUnlock()
	for _, o := range obs {
		o.OnHandleEvent(e)
	}
}
