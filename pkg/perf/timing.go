// Package perf times slow operations (store round-trips, clipboard calls)
// and reports them at debug level.
package perf

import (
	"context"
	"log/slog"
	"time"
)

// Slow is the threshold above which Stop logs at warn instead of debug.
var Slow = 250 * time.Millisecond

// Timer tracks elapsed time for a named operation
type Timer struct {
	log   *slog.Logger
	name  string
	start time.Time
}

// Start begins timing an operation. A nil logger makes Stop silent.
func Start(log *slog.Logger, name string) *Timer {
	return &Timer{log: log, name: name, start: time.Now()}
}

// Stop ends timing and logs the result
func (t *Timer) Stop(attrs ...any) time.Duration {
	elapsed := time.Since(t.start)
	if t.log == nil {
		return elapsed
	}
	level := slog.LevelDebug
	if elapsed >= Slow {
		level = slog.LevelWarn
	}
	args := append([]any{"op", t.name, "elapsed", elapsed}, attrs...)
	t.log.Log(context.Background(), level, "timing", args...)
	return elapsed
}

// Track is a convenience function that times a function call
func Track(log *slog.Logger, name string, fn func()) time.Duration {
	t := Start(log, name)
	fn()
	return t.Stop()
}
