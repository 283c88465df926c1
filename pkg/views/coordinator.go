// Package views switches between the mutually exclusive sidebar views and
// keeps the sidebar width, title and selector controls in step.
package views

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/b/shellside/pkg/logging"
	"github.com/b/shellside/pkg/sidebar"
	"github.com/b/shellside/pkg/surface"
)

var (
	ErrUnknownView  = errors.New("unknown view")
	ErrViewExists   = errors.New("view already registered")
	ErrViewActive   = errors.New("cannot remove the active view")
	ErrMissingName  = errors.New("view name is required")
	ErrMissingTitle = errors.New("view title is required")
	ErrMissingShow  = errors.New("view show action is required")
)

// WidthSwitcher applies the width remembered for a view; *sidebar.Sidebar implements it.
type WidthSwitcher interface {
	SwitchToView(view sidebar.View) bool
}

// Options configures New.
type Options struct {
	Sidebar WidthSwitcher
	Chrome  surface.Chrome
	Logger  *slog.Logger
}

// Coordinator owns the registered views and which one is current.
type Coordinator struct {
	sidebar WidthSwitcher
	chrome  surface.Chrome
	log     *slog.Logger

	mu      sync.Mutex
	views   *orderedmap.OrderedMap[string, View]
	current string
}

// New returns a coordinator with no views.
func New(opts Options) *Coordinator {
	return &Coordinator{
		sidebar: opts.Sidebar,
		chrome:  opts.Chrome,
		log:     logging.OrDiscard(opts.Logger).With("component", "views"),
		views:   orderedmap.New[string, View](),
	}
}

// AddView registers v under name. The first view added does not become current
// until SwitchToView is called.
func (c *Coordinator) AddView(name string, v View) error {
	if name == "" {
		return ErrMissingName
	}
	if v == nil {
		return fmt.Errorf("%s: %w", name, ErrMissingShow)
	}
	if f, ok := v.(Func); ok && f.OnShow == nil {
		return fmt.Errorf("%s: %w", name, ErrMissingShow)
	}
	if v.Title() == "" {
		return fmt.Errorf("%s: %w", name, ErrMissingTitle)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.views.Get(name); ok {
		return fmt.Errorf("%s: %w", name, ErrViewExists)
	}
	c.views.Set(name, v)
	return nil
}

// RemoveView unregisters name. The current view cannot be removed.
func (c *Coordinator) RemoveView(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.views.Get(name); !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownView)
	}
	if name == c.current {
		return fmt.Errorf("%s: %w", name, ErrViewActive)
	}
	c.views.Delete(name)
	return nil
}

// SwitchToView makes name the current view. Switching to the current view does
// nothing unless force is set. Unknown names are logged and reported as false.
func (c *Coordinator) SwitchToView(name string, force bool) bool {
	c.mu.Lock()
	next, ok := c.views.Get(name)
	if !ok {
		c.mu.Unlock()
		c.log.Warn("switch to unregistered view", "view", name)
		return false
	}
	prevName := c.current
	prev, hadPrev := c.views.Get(prevName)
	c.mu.Unlock()

	changed := prevName != name
	if !changed && !force {
		return true
	}

	// width first so the old content never shows at the new width
	if c.sidebar != nil && !c.sidebar.SwitchToView(sidebar.View(name)) {
		c.log.Debug("sidebar keeps its width for view", "view", name)
	}
	if changed && hadPrev {
		if h, ok := prev.(Hider); ok {
			h.Hide()
		}
	}
	next.Show()
	if c.chrome != nil {
		c.chrome.SetTitle(next.Title())
		c.chrome.SetActiveSelector(name)
	}

	c.mu.Lock()
	c.current = name
	c.mu.Unlock()
	c.log.Debug("switched view", "from", prevName, "to", name, "forced", force)
	return true
}

// Current returns the current view name, "" before the first switch.
func (c *Coordinator) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Names lists registered views in registration order.
func (c *Coordinator) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, c.views.Len())
	for pair := c.views.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Title returns the title of a registered view.
func (c *Coordinator) Title(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views.Get(name)
	if !ok {
		return "", false
	}
	return v.Title(), true
}
