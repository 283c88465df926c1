// Package termmenu binds pointer handling on the terminal pane to either a
// command context menu or select-to-copy behaviour, depending on the
// terminal.select_to_copy setting.
package termmenu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/b/shellside/pkg/clipboard"
	"github.com/b/shellside/pkg/commands"
	"github.com/b/shellside/pkg/logging"
	"github.com/b/shellside/pkg/menu"
	"github.com/b/shellside/pkg/notify"
	"github.com/b/shellside/pkg/store"
	"github.com/b/shellside/pkg/surface"
	"github.com/b/shellside/pkg/terminal"
)

// Mode is the pointer behaviour bound to the terminal.
type Mode int

const (
	ModeStandard Mode = iota
	ModeSelectToCopy
)

func (m Mode) String() string {
	if m == ModeSelectToCopy {
		return "select-to-copy"
	}
	return "standard"
}

const (
	DefaultSettleDelay  = 50 * time.Millisecond
	DefaultBindAttempts = 5
	DefaultBindInterval = 100 * time.Millisecond
)

var errNoTarget = errors.New("terminal surface not available")

// Notifier surfaces failures to the user.
type Notifier interface {
	Notify(level notify.Level, msg string)
}

// Options wires a Controller to its collaborators.
type Options struct {
	Store     store.Store
	Locate    func() (Target, bool)
	Terminals terminal.Accessor
	Commands  *commands.Registry
	Menus     *menu.Renderer
	Clipboard clipboard.Clipboard
	Notifier  Notifier
	Logger    *slog.Logger

	// AfterCommand runs once a menu command finished and the menu was dismissed.
	AfterCommand func(id string, err error)

	SettleDelay  time.Duration
	BindAttempts int
	BindInterval time.Duration
}

// Controller owns the pointer listeners on the terminal surface.
type Controller struct {
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	bound    bool
	mode     Mode
	removers []func()

	ready     chan struct{}
	startOnce sync.Once
	work      sync.WaitGroup
}

func New(opts Options) *Controller {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.BindAttempts <= 0 {
		opts.BindAttempts = DefaultBindAttempts
	}
	if opts.BindInterval <= 0 {
		opts.BindInterval = DefaultBindInterval
	}
	return &Controller{
		opts:  opts,
		log:   logging.OrDiscard(opts.Logger).With("component", "termmenu"),
		ctx:   context.Background(),
		ready: make(chan struct{}),
	}
}

// Start binds in the background. Ready closes once the attempt finished,
// whether or not a surface was found.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		c.ctx = ctx
		c.mu.Unlock()
		go func() {
			defer close(c.ready)
			defer logging.Recover(c.log, "termmenu start")
			if err := c.bind(ctx); err != nil {
				c.log.Warn("context menu not bound", "err", err)
			}
		}()
	})
}

// Ready is closed after the first bind attempt.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// UpdateSettings re-reads the mode and rebinds the listeners.
func (c *Controller) UpdateSettings(ctx context.Context) error {
	c.detach()
	return c.bind(ctx)
}

// Destroy removes every listener. A bind already retrying is not aborted.
func (c *Controller) Destroy() {
	c.detach()
}

// Wait blocks until in-flight copy, paste and command work is done.
func (c *Controller) Wait() {
	c.work.Wait()
}

// State reports whether listeners are attached and in which mode.
func (c *Controller) State() (bound bool, mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bound, c.mode
}

func (c *Controller) bind(ctx context.Context) error {
	mode := c.loadMode(ctx)
	target, err := c.locate(ctx)
	if err != nil {
		return err
	}

	var removers []func()
	switch mode {
	case ModeSelectToCopy:
		removers = append(removers,
			target.AddListener(surface.MouseUp, c.onSelectRelease),
			target.AddListener(surface.ContextMenu, c.onPasteClick),
		)
	default:
		removers = append(removers, target.AddListener(surface.ContextMenu, c.onContextMenu))
	}

	c.mu.Lock()
	old := c.removers
	c.removers, c.bound, c.mode = removers, true, mode
	c.mu.Unlock()
	for _, remove := range old {
		remove()
	}
	c.log.Debug("context menu bound", "mode", mode)
	return nil
}

func (c *Controller) detach() {
	c.mu.Lock()
	removers := c.removers
	c.removers, c.bound = nil, false
	c.mu.Unlock()
	for _, remove := range removers {
		remove()
	}
}

func (c *Controller) loadMode(ctx context.Context) Mode {
	if c.opts.Store == nil {
		return ModeStandard
	}
	on, _, err := store.GetBool(ctx, c.opts.Store, store.KeySelectToCopy)
	if err != nil {
		c.log.Warn("failed to read select-to-copy setting", "err", err)
		return ModeStandard
	}
	if on {
		return ModeSelectToCopy
	}
	return ModeStandard
}

func (c *Controller) locate(ctx context.Context) (Target, error) {
	if c.opts.Locate == nil {
		return nil, errNoTarget
	}
	var target Target
	backoff := retry.WithMaxRetries(uint64(c.opts.BindAttempts-1), retry.NewConstant(c.opts.BindInterval))
	err := retry.Do(ctx, backoff, func(context.Context) error {
		t, ok := c.opts.Locate()
		if !ok || t == nil {
			return retry.RetryableError(errNoTarget)
		}
		target = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", c.opts.BindAttempts, err)
	}
	return target, nil
}

func (c *Controller) active() terminal.Session {
	if c.opts.Terminals == nil {
		return nil
	}
	return c.opts.Terminals.Active()
}

func (c *Controller) baseContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

func (c *Controller) fail(what string, err error) {
	c.log.Error(what+" failed", "err", err)
	if c.opts.Notifier != nil {
		c.opts.Notifier.Notify(notify.Error, fmt.Sprintf("%s failed: %v", what, err))
	}
}

func (c *Controller) async(where string, fn func()) {
	c.work.Add(1)
	go func() {
		defer c.work.Done()
		defer logging.Recover(c.log, where)
		fn()
	}()
}

// onSelectRelease copies the selection once the pane has settled it.
func (c *Controller) onSelectRelease(ev *surface.Event) {
	if ev.Button != surface.ButtonLeft {
		return
	}
	c.work.Add(1)
	time.AfterFunc(c.opts.SettleDelay, func() {
		defer c.work.Done()
		defer logging.Recover(c.log, "select to copy")
		s := c.active()
		if s == nil || !s.HasSelection() {
			return
		}
		text := s.Selection()
		if text == "" || c.opts.Clipboard == nil {
			return
		}
		if err := c.opts.Clipboard.Copy(text); err != nil {
			c.fail("copy", err)
		}
	})
}

// onPasteClick pastes the clipboard into the active connected session.
func (c *Controller) onPasteClick(ev *surface.Event) {
	ev.PreventDefault()
	s := c.active()
	if s == nil || !s.Connected() || c.opts.Clipboard == nil {
		return
	}
	c.async("paste", func() {
		text, err := c.opts.Clipboard.Paste()
		if err != nil {
			c.fail("paste", err)
			return
		}
		if err := s.Paste(text); err != nil {
			c.fail("paste", err)
		}
	})
}

// onContextMenu opens the command menu at the cursor.
func (c *Controller) onContextMenu(ev *surface.Event) {
	ev.PreventDefault()
	if c.opts.Commands == nil || c.opts.Menus == nil {
		return
	}
	cctx := commands.Context{Terminal: c.active(), Event: ev}
	items := c.opts.Commands.Build(cctx)
	if len(items) == 0 {
		return
	}
	m := c.opts.Menus.Render(items, ev.X, ev.Y)
	var once sync.Once
	m.OnClick(func(id string) {
		once.Do(func() {
			c.async("menu command", func() {
				var err error
				defer func() {
					if c.opts.AfterCommand != nil {
						c.opts.AfterCommand(id, err)
					}
				}()
				defer m.Dismiss()
				if err = c.opts.Commands.Execute(c.baseContext(), id, cctx); err != nil {
					c.fail(id, err)
				}
			})
		})
	})
}
