// Package sidebar owns the collapsible, resizable sidebar: its collapsed
// flag, one remembered width per view, and the persistence of both.
package sidebar

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/b/shellside/pkg/events"
	"github.com/b/shellside/pkg/logging"
	"github.com/b/shellside/pkg/store"
	"github.com/b/shellside/pkg/surface"
)

// View names a sidebar content view.
type View string

const (
	ViewProfiles View = "profiles"
	ViewFiles    View = "files"
)

// Valid reports whether v is a view the sidebar keeps a width for.
func (v View) Valid() bool {
	return v == ViewProfiles || v == ViewFiles
}

func (v View) widthKey() string {
	if v == ViewFiles {
		return store.KeyFilesWidth
	}
	return store.KeyProfilesWidth
}

// Defaults.
const (
	DefaultMinWidth = 200
	DefaultMaxWidth = 600
	DefaultWidth    = 250
	DefaultDebounce = 300 * time.Millisecond
)

// State is a snapshot of the sidebar. Width equals the current view's width
// whenever the sidebar is expanded.
type State struct {
	Collapsed     bool
	View          View
	ProfilesWidth int
	FilesWidth    int
	Width         int
}

func (s State) widthFor(v View) int {
	if v == ViewFiles {
		return s.FilesWidth
	}
	return s.ProfilesWidth
}

func (s *State) setWidthFor(v View, w int) {
	if v == ViewFiles {
		s.FilesWidth = w
	} else {
		s.ProfilesWidth = w
	}
}

// Change is delivered to observers after a transition is applied.
type Change struct {
	Collapsed bool
	Width     int
	View      View
}

// Options configures New. Zero values take the defaults above.
type Options struct {
	Store        store.Store
	Surface      surface.Surface
	Logger       *slog.Logger
	MinWidth     int
	MaxWidth     int
	DefaultWidth int
	Debounce     time.Duration
}

type write struct {
	key   string
	value int
}

// Sidebar is the sidebar state machine. All methods are safe to call from
// any goroutine; observers and the store are always called without the lock held.
type Sidebar struct {
	store store.Store
	surf  surface.Surface
	log   *slog.Logger
	min   int
	max   int

	mu sync.Mutex
	st State

	mirror    atomic.Pointer[State]
	observers *events.Registry[Change]
	debounce  *Debouncer[write]
}

// New builds an expanded sidebar on the profiles view with default widths.
func New(opts Options) *Sidebar {
	if opts.MinWidth <= 0 {
		opts.MinWidth = DefaultMinWidth
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.MaxWidth < opts.MinWidth {
		opts.MaxWidth = opts.MinWidth
	}
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = DefaultWidth
	}
	opts.DefaultWidth = clamp(opts.DefaultWidth, opts.MinWidth, opts.MaxWidth)
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory(nil)
	}

	s := &Sidebar{
		store: opts.Store,
		surf:  opts.Surface,
		log:   logging.OrDiscard(opts.Logger).With("component", "sidebar"),
		min:   opts.MinWidth,
		max:   opts.MaxWidth,
		st: State{
			View:          ViewProfiles,
			ProfilesWidth: opts.DefaultWidth,
			FilesWidth:    opts.DefaultWidth,
			Width:         opts.DefaultWidth,
		},
	}
	s.observers = events.NewRegistry[Change](s.log)
	s.debounce = NewDebouncer(opts.Debounce, func(w write) {
		s.persist(context.Background(), w)
	})
	s.publish(s.st)
	return s
}

// Init hydrates the state from the store once and applies it to the surface.
// Unreadable or out-of-range values keep their defaults.
func (s *Sidebar) Init(ctx context.Context) {
	collapsed, okCollapsed, err := store.GetBool(ctx, s.store, store.KeySidebarCollapsed)
	if err != nil {
		s.log.Warn("load collapsed flag", "err", err)
	}
	widths := map[View]int{}
	for _, v := range []View{ViewProfiles, ViewFiles} {
		w, ok, err := store.GetInt(ctx, s.store, v.widthKey())
		switch {
		case err != nil:
			s.log.Warn("load width", "view", v, "err", err)
		case ok && s.inRange(w):
			widths[v] = w
		case ok:
			s.log.Warn("ignoring stored width out of range", "view", v, "width", w, "min", s.min, "max", s.max)
		}
	}

	s.mu.Lock()
	for v, w := range widths {
		s.st.setWidthFor(v, w)
	}
	if okCollapsed {
		s.st.Collapsed = collapsed
	}
	s.st.Width = s.st.widthFor(s.st.View)
	st := s.st
	s.publish(st)
	s.mu.Unlock()

	if el, ok := s.element(); ok {
		if st.Collapsed {
			el.ClearWidth()
			s.surf.SetLayoutWidth(0)
		} else {
			el.SetWidth(st.Width)
			s.surf.SetLayoutWidth(st.Width)
		}
		s.decorate(el, st.Collapsed)
	}
	s.log.Debug("hydrated", "collapsed", st.Collapsed, "profiles", st.ProfilesWidth, "files", st.FilesWidth)
}

// Collapse hides the sidebar, remembering the rendered width for the current view.
func (s *Sidebar) Collapse() {
	el, ok := s.element()
	if !ok {
		s.log.Warn("collapse: sidebar surface not found")
		return
	}

	s.mu.Lock()
	if s.st.Collapsed {
		s.mu.Unlock()
		return
	}
	live := el.RenderedWidth()
	if live <= 0 {
		live = s.st.Width
	}
	live = clamp(live, s.min, s.max)
	s.st.setWidthFor(s.st.View, live)
	s.st.Width = live
	s.st.Collapsed = true
	st := s.st
	s.publish(st)
	s.mu.Unlock()

	el.ClearWidth()
	s.surf.SetLayoutWidth(0)
	s.decorate(el, true)

	ctx := context.Background()
	s.persistCollapsed(ctx, true)
	s.persist(ctx, write{key: st.View.widthKey(), value: live})
	s.observers.Notify(changeOf(st))
}

// Expand shows the sidebar at the current view's remembered width.
func (s *Sidebar) Expand() {
	el, ok := s.element()
	if !ok {
		s.log.Warn("expand: sidebar surface not found")
		return
	}

	s.mu.Lock()
	if !s.st.Collapsed {
		s.mu.Unlock()
		return
	}
	s.st.Collapsed = false
	s.st.Width = s.st.widthFor(s.st.View)
	st := s.st
	s.publish(st)
	s.mu.Unlock()

	el.SetWidth(st.Width)
	s.surf.SetLayoutWidth(st.Width)
	s.decorate(el, false)

	s.persistCollapsed(context.Background(), false)
	s.observers.Notify(changeOf(st))
}

// Toggle collapses an expanded sidebar and expands a collapsed one.
func (s *Sidebar) Toggle() {
	if s.IsCollapsed() {
		s.Expand()
	} else {
		s.Collapse()
	}
}

// SetWidth changes the current view's width. It fails for widths outside
// [min,max]. While expanded the width is applied and persisted: debounced when
// resizing is true (a drag in progress), immediately otherwise.
func (s *Sidebar) SetWidth(width int, resizing bool) bool {
	if !s.inRange(width) {
		s.log.Warn("rejecting width out of range", "width", width, "min", s.min, "max", s.max)
		return false
	}

	s.mu.Lock()
	s.st.Width = width
	s.st.setWidthFor(s.st.View, width)
	st := s.st
	s.publish(st)
	s.mu.Unlock()

	if st.Collapsed {
		return true
	}
	if el, ok := s.element(); ok {
		el.SetWidth(width)
		s.surf.SetLayoutWidth(width)
		s.decorate(el, false)
	} else {
		s.log.Debug("set width: sidebar surface not found", "width", width)
	}

	w := write{key: st.View.widthKey(), value: width}
	if resizing {
		s.debounce.Schedule(w)
	} else {
		s.debounce.Cancel()
		s.persist(context.Background(), w)
	}
	s.observers.Notify(changeOf(st))
	return true
}

// SwitchToView swaps in the width remembered for view. Unknown views fail;
// the current view succeeds without doing anything.
func (s *Sidebar) SwitchToView(view View) bool {
	if !view.Valid() {
		s.log.Warn("switch to unknown view", "view", view)
		return false
	}

	s.mu.Lock()
	if s.st.View == view {
		s.mu.Unlock()
		return true
	}
	prev := s.st
	s.st.setWidthFor(prev.View, prev.Width)
	s.st.View = view
	s.st.Width = s.st.widthFor(view)
	st := s.st
	s.publish(st)
	s.mu.Unlock()

	if st.Collapsed || st.Width == prev.Width {
		return true
	}
	if el, ok := s.element(); ok {
		el.SetWidth(st.Width)
		s.surf.SetLayoutWidth(st.Width)
		s.decorate(el, false)
	}
	s.debounce.Cancel()
	ctx := context.Background()
	s.persist(ctx, write{key: prev.View.widthKey(), value: prev.Width})
	s.persist(ctx, write{key: view.widthKey(), value: st.Width})
	s.observers.Notify(changeOf(st))
	return true
}

// State returns the last published snapshot without taking the lock.
func (s *Sidebar) State() State {
	return *s.mirror.Load()
}

// Width is the live width.
func (s *Sidebar) Width() int { return s.State().Width }

// CurrentView is the view whose width is live.
func (s *Sidebar) CurrentView() View { return s.State().View }

// IsCollapsed reports the collapsed flag.
func (s *Sidebar) IsCollapsed() bool { return s.State().Collapsed }

// Bounds returns the accepted width range.
func (s *Sidebar) Bounds() (min, max int) { return s.min, s.max }

// Subscribe registers fn for every applied change.
func (s *Sidebar) Subscribe(fn func(Change)) events.Subscription {
	return s.observers.Subscribe(fn)
}

// Unsubscribe removes an observer.
func (s *Sidebar) Unsubscribe(sub events.Subscription) {
	s.observers.Unsubscribe(sub)
}

// Flush writes a pending debounced width now.
func (s *Sidebar) Flush() {
	s.debounce.Flush()
}

// Close drops a pending debounced write.
func (s *Sidebar) Close() {
	s.debounce.Cancel()
}

func (s *Sidebar) element() (surface.Element, bool) {
	if s.surf == nil {
		return nil, false
	}
	return s.surf.Sidebar()
}

// decorate applies the marker, toggle and search side effects every transition shares.
func (s *Sidebar) decorate(el surface.Element, collapsed bool) {
	el.SetCollapsedMarker(collapsed)
	if collapsed {
		s.surf.SetToggle(surface.IconExpand, surface.TooltipExpand)
	} else {
		s.surf.SetToggle(surface.IconCollapse, surface.TooltipCollapse)
	}
	s.surf.ClearSearch()
}

// publish refreshes the lock-free mirror; caller holds mu.
func (s *Sidebar) publish(st State) {
	s.mirror.Store(&st)
}

func (s *Sidebar) persist(ctx context.Context, w write) {
	if err := store.SetInt(ctx, s.store, w.key, w.value); err != nil {
		s.log.Error("persist width", "key", w.key, "width", w.value, "err", err)
	}
}

func (s *Sidebar) persistCollapsed(ctx context.Context, collapsed bool) {
	if err := store.SetBool(ctx, s.store, store.KeySidebarCollapsed, collapsed); err != nil {
		s.log.Error("persist collapsed flag", "collapsed", collapsed, "err", err)
	}
}

func (s *Sidebar) inRange(w int) bool {
	return w >= s.min && w <= s.max
}

func changeOf(st State) Change {
	return Change{Collapsed: st.Collapsed, Width: st.Width, View: st.View}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
