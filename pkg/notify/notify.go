// Package notify carries short user-facing messages from background work to
// the UI status line, and optionally to the desktop.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/b/shellside/pkg/logging"
)

type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case Warn:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Notification is one message.
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Toast is a notification being displayed until Expires.
type Toast struct {
	Notification
	Expires time.Time
}

func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

const (
	DefaultBuffer = 16
	DefaultTTL    = 3 * time.Second
)

var desktopNotify = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Options configures a Center.
type Options struct {
	Buffer int
	TTL    time.Duration
	// Desktop also raises error notifications as desktop notifications.
	Desktop bool
	AppName string
	Logger  *slog.Logger
}

// Center queues notifications for the UI. Notify never blocks: when the
// queue is full the oldest message is dropped.
type Center struct {
	ch      chan Notification
	ttl     time.Duration
	desktop bool
	appName string
	log     *slog.Logger
	now     func() time.Time
}

func NewCenter(opts Options) *Center {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.AppName == "" {
		opts.AppName = "shellside"
	}
	return &Center{
		ch:      make(chan Notification, opts.Buffer),
		ttl:     opts.TTL,
		desktop: opts.Desktop,
		appName: opts.AppName,
		log:     logging.OrDiscard(opts.Logger),
		now:     time.Now,
	}
}

// Notify queues msg at level.
func (c *Center) Notify(level Level, msg string) {
	n := Notification{Level: level, Message: msg, At: c.now()}
	c.log.Log(context.Background(), level.slog(), "notification", "message", msg)

	for {
		select {
		case c.ch <- n:
			c.raiseDesktop(n)
			return
		default:
		}
		select {
		case dropped := <-c.ch:
			c.log.Debug("notification dropped", "message", dropped.Message)
		default:
		}
	}
}

func (c *Center) raiseDesktop(n Notification) {
	if !c.desktop || n.Level != Error {
		return
	}
	go func() {
		defer logging.Recover(c.log, "desktop notification")
		if err := desktopNotify(c.appName, n.Message); err != nil {
			c.log.Debug("desktop notification failed", "err", err)
		}
	}()
}

func (c *Center) Infof(format string, args ...any) {
	c.Notify(Info, fmt.Sprintf(format, args...))
}

func (c *Center) Warnf(format string, args ...any) {
	c.Notify(Warn, fmt.Sprintf(format, args...))
}

func (c *Center) Errorf(format string, args ...any) {
	c.Notify(Error, fmt.Sprintf(format, args...))
}

// C is the queue the UI drains.
func (c *Center) C() <-chan Notification {
	return c.ch
}

// Toast wraps n with its display expiry.
func (c *Center) Toast(n Notification) Toast {
	return Toast{Notification: n, Expires: n.At.Add(c.ttl)}
}
