package tui

import (
	"sync"

	"github.com/b/shellside/pkg/surface"
	"github.com/b/shellside/pkg/termmenu"
	"github.com/b/shellside/pkg/views"
)

// CellsPerUnit converts sidebar width units to terminal columns.
const CellsPerUnit = 8

// UnitsToCells converts a width in units to whole columns.
func UnitsToCells(units int) int {
	return units / CellsPerUnit
}

// CellsToUnits converts columns to width units.
func CellsToUnits(cells int) int {
	return cells * CellsPerUnit
}

// Surface is the UI state written by the sidebar and the view coordinator.
// It is safe for concurrent use; the model reads a snapshot each frame.
type Surface struct {
	mu sync.Mutex
	st surfaceState

	events  *termmenu.Dispatcher
	laidOut bool
	changed func()
}

type surfaceState struct {
	collapsed   bool
	width       int // explicit element width in units, 0 when cleared
	layoutWidth int
	toggleIcon  string
	toggleTip   string
	title       string
	active      string
	searchGen   int
	shownGen    int
}

func NewSurface() *Surface {
	return &Surface{
		st: surfaceState{
			toggleIcon: surface.IconCollapse,
			toggleTip:  surface.TooltipCollapse,
		},
		events: termmenu.NewDispatcher(),
	}
}

// OnChange registers fn to be called after any mutation, typically to wake
// the program. It must not block.
func (s *Surface) OnChange(fn func()) {
	s.mu.Lock()
	s.changed = fn
	s.mu.Unlock()
}

func (s *Surface) update(fn func(st *surfaceState)) {
	s.mu.Lock()
	fn(&s.st)
	changed := s.changed
	s.mu.Unlock()
	if changed != nil {
		changed()
	}
}

func (s *Surface) snapshot() surfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Sidebar returns the sidebar element. It exists for the surface's lifetime.
func (s *Surface) Sidebar() (surface.Element, bool) {
	return element{s}, true
}

func (s *Surface) SetLayoutWidth(width int) {
	s.update(func(st *surfaceState) { st.layoutWidth = width })
}

func (s *Surface) SetToggle(icon, tooltip string) {
	s.update(func(st *surfaceState) { st.toggleIcon, st.toggleTip = icon, tooltip })
}

// ClearSearch asks the model to reset the files filter on its next frame.
func (s *Surface) ClearSearch() {
	s.update(func(st *surfaceState) { st.searchGen++ })
}

func (s *Surface) SetTitle(title string) {
	s.update(func(st *surfaceState) { st.title = title })
}

func (s *Surface) SetActiveSelector(name string) {
	s.update(func(st *surfaceState) { st.active = name })
}

// markShown records that a view's Show ran so the model can refresh it.
func (s *Surface) markShown() {
	s.update(func(st *surfaceState) { st.shownGen++ })
}

// Terminal returns the terminal pane's event target once the pane is laid out.
func (s *Surface) Terminal() (termmenu.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.laidOut {
		return nil, false
	}
	return s.events, true
}

// Events is the terminal pane's dispatcher.
func (s *Surface) Events() *termmenu.Dispatcher {
	return s.events
}

func (s *Surface) setLaidOut() {
	s.mu.Lock()
	s.laidOut = true
	s.mu.Unlock()
}

// element is the sidebar container view of Surface.
type element struct{ s *Surface }

func (e element) SetCollapsedMarker(collapsed bool) {
	e.s.update(func(st *surfaceState) { st.collapsed = collapsed })
}

func (e element) SetWidth(width int) {
	e.s.update(func(st *surfaceState) { st.width = width })
}

func (e element) ClearWidth() {
	e.s.update(func(st *surfaceState) { st.width = 0 })
}

func (e element) RenderedWidth() int {
	st := e.s.snapshot()
	if st.collapsed {
		return 0
	}
	if st.width > 0 {
		return st.width
	}
	return st.layoutWidth
}

// View returns a sidebar view titled title whose Show refreshes the body.
func (s *Surface) View(title string) views.View {
	return views.Func{Label: title, OnShow: s.markShown}
}
