package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotify_Order(t *testing.T) {
	r := NewRegistry[int](nil)
	var got []string
	r.Subscribe(func(v int) { got = append(got, "a") })
	r.Subscribe(func(v int) { got = append(got, "b") })

	r.Notify(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestNotify_PanickingObserverIsIsolated(t *testing.T) {
	r := NewRegistry[string](nil)
	var received []string
	r.Subscribe(func(string) { panic("bad observer") })
	r.Subscribe(func(v string) { received = append(received, v) })

	assert.NotPanics(t, func() { r.Notify("collapsed") })
	assert.Equal(t, []string{"collapsed"}, received)
}

func TestUnsubscribe(t *testing.T) {
	r := NewRegistry[int](nil)
	calls := 0
	sub := r.Subscribe(func(int) { calls++ })
	r.Subscribe(func(int) {})
	assert.Equal(t, 2, r.Len())

	r.Unsubscribe(sub)
	r.Unsubscribe(sub)
	r.Unsubscribe(999)
	r.Notify(1)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, r.Len())
}

func TestSubscribe_Nil(t *testing.T) {
	r := NewRegistry[int](nil)
	assert.Equal(t, Subscription(0), r.Subscribe(nil))
	assert.Equal(t, 0, r.Len())
}

func TestNotify_ObserverMayUnsubscribeItself(t *testing.T) {
	r := NewRegistry[int](nil)
	var sub Subscription
	calls := 0
	sub = r.Subscribe(func(int) {
		calls++
		r.Unsubscribe(sub)
	})

	r.Notify(1)
	r.Notify(2)

	assert.Equal(t, 1, calls)
}
