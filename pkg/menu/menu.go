// Package menu renders a positioned context menu and hit-tests clicks on it.
package menu

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/b/shellside/pkg/commands"
)

// MaxLabelWidth caps a row's label in cells.
const MaxLabelWidth = 32

// Region is a clickable area of the open menu, in screen cells.
type Region struct {
	StartLine int
	EndLine   int // inclusive
	StartCol  int
	EndCol    int // inclusive
	Action    string
	Disabled  bool
}

func (r Region) contains(x, y int) bool {
	return y >= r.StartLine && y <= r.EndLine && x >= r.StartCol && x <= r.EndCol
}

// Menu is one rendered menu. Only the most recently rendered menu is live.
type Menu struct {
	r       *Renderer
	items   []commands.Item
	x, y    int
	width   int
	height  int
	cursor  int
	onClick func(action string)
	closed  bool
}

// OnClick sets the handler run when an enabled row is chosen.
func (m *Menu) OnClick(fn func(action string)) {
	m.r.mu.Lock()
	m.onClick = fn
	m.r.mu.Unlock()
}

// Dismiss closes the menu. Dismissing a replaced menu is a no-op.
func (m *Menu) Dismiss() {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.closed = true
	if m.r.open == m {
		m.r.open = nil
	}
}

// Closed reports whether the menu was dismissed or replaced.
func (m *Menu) Closed() bool {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return m.closed
}

// Items returns the rows the menu was rendered with.
func (m *Menu) Items() []commands.Item {
	return append([]commands.Item(nil), m.items...)
}

// Styles used by View.
type Styles struct {
	Box      lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Disabled lipgloss.Style
	Rule     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#56949f")).
			Padding(0, 1),
		Item:     lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#191724")).Background(lipgloss.Color("#9ccfd8")),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("#6e6a86")),
		Rule:     lipgloss.NewStyle().Foreground(lipgloss.Color("#403d52")),
	}
}

// Renderer owns the single open menu.
type Renderer struct {
	mu      sync.Mutex
	open    *Menu
	styles  Styles
	screenW int
	screenH int
}

func NewRenderer(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// SetScreen records the screen size so menus stay on screen.
func (r *Renderer) SetScreen(width, height int) {
	r.mu.Lock()
	r.screenW, r.screenH = width, height
	r.mu.Unlock()
}

// Render opens a menu for items at x, y, replacing any open menu.
func (r *Renderer) Render(items []commands.Item, x, y int) *Menu {
	inner := 0
	for _, it := range items {
		if w := runewidth.StringWidth(rowText(it)); w > inner {
			inner = w
		}
	}
	if inner > MaxLabelWidth {
		inner = MaxLabelWidth
	}

	m := &Menu{r: r, items: items, width: inner + 4, height: len(items) + 2, cursor: -1}

	r.mu.Lock()
	defer r.mu.Unlock()
	m.x, m.y = clamp(x, m.width, r.screenW), clamp(y, m.height, r.screenH)
	m.cursor = nextEnabled(items, -1, 1)
	if r.open != nil {
		r.open.closed = true
	}
	r.open = m
	return m
}

func clamp(pos, size, limit int) int {
	if limit > 0 && pos+size > limit {
		pos = limit - size
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

func rowText(it commands.Item) string {
	icon := it.Icon
	if icon == "" {
		icon = " "
	}
	return icon + " " + it.Label
}

// Open returns the live menu.
func (r *Renderer) Open() (*Menu, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open, r.open != nil
}

// Regions returns the clickable rows of the open menu.
func (r *Renderer) Regions() []Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regionsLocked()
}

func (r *Renderer) regionsLocked() []Region {
	m := r.open
	if m == nil {
		return nil
	}
	var regions []Region
	for i, it := range m.items {
		if it.Separator {
			continue
		}
		line := m.y + 1 + i
		regions = append(regions, Region{
			StartLine: line,
			EndLine:   line,
			StartCol:  m.x + 1,
			EndCol:    m.x + m.width - 2,
			Action:    it.ID,
			Disabled:  !it.Enabled,
		})
	}
	return regions
}

// Contains reports whether x, y falls inside the open menu's box.
func (r *Renderer) Contains(x, y int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.open
	return m != nil && x >= m.x && x < m.x+m.width && y >= m.y && y < m.y+m.height
}

// Click delivers a click at x, y. It returns true when the click landed on
// the open menu. Enabled rows fire the menu's click handler; disabled rows
// and borders are inert. A click outside dismisses the menu.
func (r *Renderer) Click(x, y int) bool {
	r.mu.Lock()
	m := r.open
	if m == nil {
		r.mu.Unlock()
		return false
	}
	inside := x >= m.x && x < m.x+m.width && y >= m.y && y < m.y+m.height
	if !inside {
		m.closed = true
		r.open = nil
		r.mu.Unlock()
		return false
	}
	var action string
	for _, reg := range r.regionsLocked() {
		if reg.contains(x, y) && !reg.Disabled {
			action = reg.Action
			break
		}
	}
	fn := m.onClick
	r.mu.Unlock()

	if action != "" && fn != nil {
		fn(action)
	}
	return true
}

// Move shifts the keyboard cursor to the next enabled row in direction delta.
func (r *Renderer) Move(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.open; m != nil {
		if next := nextEnabled(m.items, m.cursor, delta); next >= 0 {
			m.cursor = next
		}
	}
}

// Activate fires the row under the keyboard cursor.
func (r *Renderer) Activate() bool {
	r.mu.Lock()
	m := r.open
	if m == nil || m.cursor < 0 {
		r.mu.Unlock()
		return false
	}
	action, fn := m.items[m.cursor].ID, m.onClick
	r.mu.Unlock()
	if fn != nil {
		fn(action)
	}
	return true
}

// Dismiss closes the open menu, if any.
func (r *Renderer) Dismiss() {
	if m, ok := r.Open(); ok {
		m.Dismiss()
	}
}

func nextEnabled(items []commands.Item, from, delta int) int {
	if delta == 0 {
		return from
	}
	for i := from + delta; i >= 0 && i < len(items); i += delta {
		if !items[i].Separator && items[i].Enabled {
			return i
		}
	}
	return -1
}

// View renders the open menu box, or "" when none is open.
func (r *Renderer) View() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.open
	if m == nil {
		return ""
	}
	inner := m.width - 4
	rows := make([]string, 0, len(m.items))
	for i, it := range m.items {
		if it.Separator {
			rows = append(rows, r.styles.Rule.Render(strings.Repeat("─", inner)))
			continue
		}
		text := runewidth.FillRight(runewidth.Truncate(rowText(it), inner, "…"), inner)
		switch {
		case !it.Enabled:
			rows = append(rows, r.styles.Disabled.Render(text))
		case i == m.cursor:
			rows = append(rows, r.styles.Selected.Render(text))
		default:
			rows = append(rows, r.styles.Item.Render(text))
		}
	}
	return r.styles.Box.Render(strings.Join(rows, "\n"))
}

// Position returns the open menu's top-left corner.
func (r *Renderer) Position() (x, y int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open == nil {
		return 0, 0, false
	}
	return r.open.x, r.open.y, true
}
