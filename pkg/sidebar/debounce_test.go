package sidebar

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu  sync.Mutex
	got []int
}

func (c *collector) add(v int) {
	c.mu.Lock()
	c.got = append(c.got, v)
	c.mu.Unlock()
}

func (c *collector) values() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.got...)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	c := &collector{}
	d := NewDebouncer(20*time.Millisecond, c.add)

	for i := 1; i <= 5; i++ {
		d.Schedule(i)
	}
	v, ok := d.Pending()
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	require.Eventually(t, func() bool { return len(c.values()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, []int{5}, c.values())

	_, ok = d.Pending()
	assert.False(t, ok)
}

func TestDebouncer_CancelIsIdempotent(t *testing.T) {
	c := &collector{}
	d := NewDebouncer(10*time.Millisecond, c.add)

	assert.False(t, d.Cancel())
	d.Schedule(1)
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, c.values())

	d.Schedule(2)
	require.Eventually(t, func() bool { return len(c.values()) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Cancel(), "cancel after fire")
}

func TestDebouncer_Flush(t *testing.T) {
	c := &collector{}
	d := NewDebouncer(time.Hour, c.add)

	assert.False(t, d.Flush())
	d.Schedule(7)
	assert.True(t, d.Flush())
	assert.Equal(t, []int{7}, c.values())
	assert.False(t, d.Flush())
}
