package termmenu

import (
	"sync"

	"github.com/b/shellside/pkg/surface"
)

// Handler receives a pointer event.
type Handler func(ev *surface.Event)

// Target is a terminal surface that accepts pointer listeners.
type Target interface {
	AddListener(kind surface.EventKind, h Handler) (remove func())
}

type listener struct {
	id uint64
	h  Handler
}

// Dispatcher is a set of pointer listeners keyed by event kind.
type Dispatcher struct {
	mu        sync.Mutex
	next      uint64
	listeners map[surface.EventKind][]listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[surface.EventKind][]listener)}
}

// AddListener registers h for kind. The returned func removes it and is
// safe to call more than once.
func (d *Dispatcher) AddListener(kind surface.EventKind, h Handler) (remove func()) {
	d.mu.Lock()
	d.next++
	id := d.next
	d.listeners[kind] = append(d.listeners[kind], listener{id: id, h: h})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(kind, id) })
	}
}

func (d *Dispatcher) remove(kind surface.EventKind, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ls := d.listeners[kind]
	for i, l := range ls {
		if l.id == id {
			d.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Dispatch delivers ev to every listener for its kind, in registration order.
func (d *Dispatcher) Dispatch(ev *surface.Event) {
	d.mu.Lock()
	ls := append([]listener(nil), d.listeners[ev.Kind]...)
	d.mu.Unlock()
	for _, l := range ls {
		l.h(ev)
	}
}

// Len counts listeners across all kinds.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, ls := range d.listeners {
		n += len(ls)
	}
	return n
}
