package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_Queues(t *testing.T) {
	c := NewCenter(Options{})
	c.Errorf("paste failed: %s", "no clipboard")

	select {
	case n := <-c.C():
		assert.Equal(t, Error, n.Level)
		assert.Equal(t, "paste failed: no clipboard", n.Message)
	default:
		t.Fatal("expected a notification")
	}
}

func TestNotify_DropsOldestWhenFull(t *testing.T) {
	c := NewCenter(Options{Buffer: 2})
	c.Infof("one")
	c.Infof("two")
	c.Infof("three")

	got := []string{(<-c.C()).Message, (<-c.C()).Message}
	assert.Equal(t, []string{"two", "three"}, got)
}

func TestToast_Expiry(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCenter(Options{TTL: time.Second})
	c.now = func() time.Time { return base }
	c.Warnf("careful")

	toast := c.Toast(<-c.C())
	assert.False(t, toast.Expired(base.Add(999*time.Millisecond)))
	assert.True(t, toast.Expired(base.Add(time.Second)))
}

func TestNotify_DesktopOnlyForErrors(t *testing.T) {
	orig := desktopNotify
	t.Cleanup(func() { desktopNotify = orig })

	sent := make(chan string, 4)
	desktopNotify = func(title, message string) error {
		sent <- title + ": " + message
		return nil
	}

	c := NewCenter(Options{Desktop: true, AppName: "test"})
	c.Infof("quiet")
	c.Errorf("loud")

	select {
	case msg := <-sent:
		assert.Equal(t, "test: loud", msg)
	case <-time.After(time.Second):
		t.Fatal("desktop notification not sent")
	}
	require.Never(t, func() bool { return len(sent) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "warn", Warn.String())
	assert.Equal(t, "error", Error.String())
}
