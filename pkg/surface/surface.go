// Package surface is the narrow capability the sidebar and view coordinator
// use to touch the rendering substrate. The terminal UI implements it; tests
// use fakes.
package surface

// Element is the sidebar container.
type Element interface {
	// SetCollapsedMarker toggles the visual "collapsed" marker.
	SetCollapsedMarker(collapsed bool)
	// SetWidth sets an explicit width in width units.
	SetWidth(width int)
	// ClearWidth drops the explicit width.
	ClearWidth()
	// RenderedWidth is the width currently on screen, 0 if unknown.
	RenderedWidth() int
}

// Surface gives access to the sidebar element and the document-level chrome
// around it.
type Surface interface {
	// Sidebar returns the sidebar element, or false if it does not exist yet.
	Sidebar() (Element, bool)
	// SetLayoutWidth publishes the effective sidebar width for dependent layout.
	SetLayoutWidth(width int)
	// SetToggle replaces the collapse toggle icon and tooltip.
	SetToggle(icon, tooltip string)
	// ClearSearch dismisses any search UI bound to the view tree.
	ClearSearch()
}

// Chrome is the part of the surface the view coordinator updates.
type Chrome interface {
	SetTitle(title string)
	SetActiveSelector(name string)
}

// Toggle icons and tooltips for the collapse control.
const (
	IconCollapse    = "◀"
	IconExpand      = "▶"
	TooltipCollapse = "Collapse sidebar"
	TooltipExpand   = "Expand sidebar"
)
