package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/b/shellside/pkg/colors"
	"github.com/b/shellside/pkg/config"
	"github.com/b/shellside/pkg/notify"
	"github.com/b/shellside/pkg/sidebar"
)

type styles struct {
	header    lipgloss.Style
	selector  lipgloss.Style
	active    lipgloss.Style
	row       lipgloss.Style
	cursor    lipgloss.Style
	muted     lipgloss.Style
	border    lipgloss.Style
	selection lipgloss.Style
	status    lipgloss.Style
	levels    map[notify.Level]lipgloss.Style
}

// newStyles builds the palette, nudging text colours that would be hard to
// read on the terminal background.
func newStyles(c config.SidebarColors, light bool) styles {
	c.HeaderFg = colors.Legible(c.HeaderFg, !light)
	c.ActiveFg = colors.Legible(c.ActiveFg, !light)
	c.InactiveFg = colors.Legible(c.InactiveFg, !light)
	return styles{
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.HeaderFg)).Bold(true),
		selector:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.InactiveFg)),
		active:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.ActiveFg)).Bold(true).Underline(true),
		row:       lipgloss.NewStyle().Foreground(lipgloss.Color(c.InactiveFg)),
		cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.ActiveFg)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6e6a86")),
		border:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Border)),
		selection: lipgloss.NewStyle().Reverse(true),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#908caa")),
		levels: map[notify.Level]lipgloss.Style{
			notify.Info:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9ccfd8")),
			notify.Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f6c177")),
			notify.Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#eb6f92")).Bold(true),
		},
	}
}

// fit truncates s, which may carry styling, to w cells and pads it to exactly w.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, "…")
	if n := ansi.StringWidth(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	h := m.bodyHeight()
	cols := m.sidebarCols()

	side := m.renderSidebar(cols, h)
	divider := m.style.border.Render(strings.TrimSuffix(strings.Repeat("│\n", h), "\n"))
	pane := m.renderPane(h)
	body := lipgloss.JoinHorizontal(lipgloss.Top, side, divider, pane)

	if menuView := m.d.Menus.View(); menuView != "" {
		if x, y, ok := m.d.Menus.Position(); ok {
			body = overlay(body, menuView, x, y)
		}
	}
	return body + "\n" + m.renderStatus()
}

func (m Model) renderSidebar(cols, h int) string {
	snap := m.d.Surface.snapshot()
	lines := make([]string, 0, h)

	if snap.collapsed {
		lines = append(lines, m.style.header.Render(fit(snap.toggleIcon, cols)))
		for len(lines) < h {
			lines = append(lines, strings.Repeat(" ", cols))
		}
		return strings.Join(lines, "\n")
	}

	title := snap.toggleIcon + " " + snap.title
	lines = append(lines, m.style.header.Render(fit(title, cols)))
	lines = append(lines, fit(m.renderSelector(snap.active), cols))
	lines = append(lines, m.style.border.Render(strings.Repeat("─", cols)))

	var body []string
	if snap.active == string(sidebar.ViewFiles) {
		body = m.filesBody(cols)
	} else {
		body = m.profilesBody(cols)
	}
	lines = append(lines, body...)

	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, strings.Repeat(" ", cols))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w < cols {
			lines[i] = l + strings.Repeat(" ", cols-w)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSelector(active string) string {
	var b strings.Builder
	for _, name := range m.d.Views.Names() {
		title, _ := m.d.Views.Title(name)
		label := " " + title + " "
		if name == active {
			b.WriteString(m.style.active.Render(label))
		} else {
			b.WriteString(m.style.selector.Render(label))
		}
	}
	return b.String()
}

func (m Model) row(text string, selected bool, cols int) string {
	marker := "  "
	style := m.style.row
	if selected {
		marker = "▸ "
		if m.focus == focusSidebar {
			style = m.style.cursor
		}
	}
	return style.Render(fit(marker+text, cols))
}

func (m Model) profilesBody(cols int) []string {
	var out []string
	active := m.d.Terminals.ActivePTY()
	for i, r := range m.profileRows() {
		if r.profile != nil {
			out = append(out, m.row(r.profile.Name, i == m.cursor, cols))
			continue
		}
		label := "● " + r.session.Profile().Name
		if !r.session.Connected() {
			label = "○ " + r.session.Profile().Name + " (exited)"
		}
		if active != nil && active.ID() == r.session.ID() {
			label += " *"
		}
		out = append(out, m.row(label, i == m.cursor, cols))
	}
	return out
}

func (m Model) filesBody(cols int) []string {
	f := m.filter
	f.Width = cols - lipgloss.Width(f.Prompt) - 1
	out := []string{fit(f.View(), cols)}
	files := m.filteredFiles()
	if len(files) == 0 {
		return append(out, m.style.muted.Render(fit("  no matches", cols)))
	}
	for i, name := range files {
		out = append(out, m.row(name, i == m.filesCursor, cols))
	}
	return out
}

func (m Model) renderPane(h int) string {
	if m.d.Terminals.Active() == nil {
		hint := m.style.muted.Render("no terminal session")
		return lipgloss.Place(m.vp.Width, h, lipgloss.Center, lipgloss.Center, hint)
	}
	return m.vp.View()
}

func (m Model) renderStatus() string {
	text := fit(m.statusText(), m.width)
	if m.toast != nil {
		if st, ok := m.style.levels[m.toast.Level]; ok {
			return st.Render(text)
		}
	}
	return m.style.status.Render(text)
}

// overlay draws top over base with its top-left corner at x, y.
func overlay(base, top string, x, y int) string {
	baseLines := strings.Split(base, "\n")
	for i, line := range strings.Split(top, "\n") {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		under := baseLines[row]
		left := ansi.Truncate(under, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(under, x+ansi.StringWidth(line), "")
		baseLines[row] = left + line + right
	}
	return strings.Join(baseLines, "\n")
}
