// Package events is a small synchronous publish/subscribe registry used to
// tell other parts of the UI about sidebar changes.
package events

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/b/shellside/pkg/logging"
)

// Observer receives a published value.
type Observer[T any] func(T)

// Subscription identifies one Subscribe call; pass it to Unsubscribe.
type Subscription uint64

type entry[T any] struct {
	id Subscription
	fn Observer[T]
}

// Registry delivers values to observers in subscription order.
type Registry[T any] struct {
	mu      sync.Mutex
	entries []entry[T]
	nextID  Subscription
	log     *slog.Logger
}

// NewRegistry returns an empty registry. log may be nil.
func NewRegistry[T any](log *slog.Logger) *Registry[T] {
	return &Registry[T]{log: logging.OrDiscard(log)}
}

// Subscribe appends fn. A nil fn is ignored and returns 0.
func (r *Registry[T]) Subscribe(fn Observer[T]) Subscription {
	if fn == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries = append(r.entries, entry[T]{id: r.nextID, fn: fn})
	return r.nextID
}

// Unsubscribe removes the observer registered under sub. Unknown ids are ignored.
func (r *Registry[T]) Unsubscribe(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == sub {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len reports the number of observers.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Notify calls every observer with v. Observers run outside the lock so they
// may subscribe or unsubscribe; a panicking observer is logged and skipped.
func (r *Registry[T]) Notify(v T) {
	r.mu.Lock()
	entries := make([]entry[T], len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	for _, e := range entries {
		r.call(e, v)
	}
}

func (r *Registry[T]) call(e entry[T], v T) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("observer failed", "subscription", uint64(e.id), "panic", p, "stack", string(debug.Stack()))
		}
	}()
	e.fn(v)
}
