// Package tui hosts the sidebar, the terminal pane and the context menu in a
// bubbletea program.
package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/b/shellside/pkg/config"
	"github.com/b/shellside/pkg/logging"
	"github.com/b/shellside/pkg/menu"
	"github.com/b/shellside/pkg/notify"
	"github.com/b/shellside/pkg/sidebar"
	"github.com/b/shellside/pkg/surface"
	"github.com/b/shellside/pkg/terminal"
	"github.com/b/shellside/pkg/views"
)

// Deps are the components the model drives.
type Deps struct {
	Surface   *Surface
	Sidebar   *sidebar.Sidebar
	Views     *views.Coordinator
	Terminals *terminal.Manager
	Menus     *menu.Renderer
	Notify    *notify.Center
	Config    *config.Config
	Logger    *slog.Logger
	// Dir is listed by the files view; defaults to the working directory.
	Dir string
	// LightBackground adapts the sidebar colours to a light terminal.
	LightBackground bool
}

// RefreshMsg asks the model to re-read the surface.
type RefreshMsg struct{}

// OutputMsg reports new output on a terminal session.
type OutputMsg struct{}

type notificationMsg notify.Notification

type toastExpiredMsg struct{}

type filesLoadedMsg struct {
	names []string
	err   error
}

type focusArea int

const (
	focusTerminal focusArea = iota
	focusSidebar
)

const (
	collapsedCols  = 1
	minSidebarCols = 8
	minPaneCols    = 10
	sidebarHeader  = 3 // toggle/title, selector, rule
)

type dragState struct {
	active bool
	units  int
}

type Model struct {
	d     Deps
	log   *slog.Logger
	keys  config.Bindings
	style styles

	width  int
	height int
	focus  focusArea

	cursor      int // profiles view row
	files       []string
	filesCursor int
	filter      textinput.Model

	vp        viewport.Model
	drag      dragState
	selecting bool
	anchor    int

	toast *notify.Toast

	searchGen int
	shownGen  int
	active    string
}

func New(d Deps) Model {
	if d.Config == nil {
		d.Config, _ = config.LoadConfig("")
	}
	if d.Dir == "" {
		d.Dir, _ = os.Getwd()
	}
	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/ "

	snap := d.Surface.snapshot()
	return Model{
		d:         d,
		log:       logging.OrDiscard(d.Logger).With("component", "tui"),
		keys:      d.Config.Bindings,
		style:     newStyles(d.Config.Sidebar.Colors, d.LightBackground),
		filter:    filter,
		vp:        viewport.New(0, 0),
		searchGen: snap.searchGen,
		shownGen:  snap.shownGen,
		active:    snap.active,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitNotification(), m.loadFiles())
}

func (m Model) waitNotification() tea.Cmd {
	if m.d.Notify == nil {
		return nil
	}
	ch := m.d.Notify.C()
	return func() tea.Msg {
		return notificationMsg(<-ch)
	}
}

func (m Model) loadFiles() tea.Cmd {
	dir := m.d.Dir
	return func() tea.Msg {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return filesLoadedMsg{err: err}
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		return filesLoadedMsg{names: names}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.d.Menus.SetScreen(msg.Width, msg.Height)
		m.layoutPane()
		m.d.Surface.setLaidOut()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case RefreshMsg:
		m.layoutPane()

	case OutputMsg:
		m.syncTerminal()

	case filesLoadedMsg:
		if msg.err != nil {
			m.log.Warn("list files", "dir", m.d.Dir, "err", msg.err)
		}
		m.files = msg.names
		m.clampFilesCursor()

	case notificationMsg:
		t := m.d.Notify.Toast(notify.Notification(msg))
		m.toast = &t
		cmds = append(cmds, m.waitNotification(), tea.Tick(time.Until(t.Expires), func(time.Time) tea.Msg {
			return toastExpiredMsg{}
		}))

	case toastExpiredMsg:
		if m.toast != nil && m.toast.Expired(time.Now()) {
			m.toast = nil
		}
	}

	cmds = append(cmds, m.applySurface())
	return m, tea.Batch(cmds...)
}

// applySurface reacts to changes the sidebar or coordinator made.
func (m *Model) applySurface() tea.Cmd {
	snap := m.d.Surface.snapshot()
	var cmd tea.Cmd
	if snap.searchGen != m.searchGen {
		m.searchGen = snap.searchGen
		m.filter.SetValue("")
		m.filesCursor = 0
	}
	if snap.shownGen != m.shownGen {
		m.shownGen = snap.shownGen
		if snap.active == string(sidebar.ViewFiles) {
			cmd = m.loadFiles()
		}
	}
	if snap.active != m.active {
		m.active = snap.active
		if m.active == string(sidebar.ViewFiles) && m.focus == focusSidebar {
			m.filter.Focus()
		} else {
			m.filter.Blur()
		}
	}
	m.layoutPane()
	return cmd
}

func (m *Model) switchView(v sidebar.View) {
	m.focus = focusSidebar
	m.d.Views.SwitchToView(string(v), false)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if _, open := m.d.Menus.Open(); open {
		switch msg.String() {
		case "esc":
			m.d.Menus.Dismiss()
		case "up", "k":
			m.d.Menus.Move(-1)
		case "down", "j":
			m.d.Menus.Move(1)
		case "enter":
			m.d.Menus.Activate()
		}
		return nil, true
	}

	switch msg.String() {
	case m.keys.Quit:
		m.d.Sidebar.Flush()
		return tea.Quit, true
	case m.keys.ToggleSidebar:
		m.d.Sidebar.Toggle()
		if m.d.Sidebar.IsCollapsed() {
			m.focus = focusTerminal
		}
		return nil, true
	case m.keys.ProfilesView:
		m.switchView(sidebar.ViewProfiles)
		return nil, true
	case m.keys.FilesView:
		m.switchView(sidebar.ViewFiles)
		m.filter.Focus()
		return nil, true
	}

	if m.focus == focusSidebar && !m.d.Sidebar.IsCollapsed() {
		return m.handleSidebarKey(msg)
	}
	return nil, m.sendToShell(keyBytes(msg))
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	files := m.active == string(sidebar.ViewFiles)
	switch msg.String() {
	case "esc":
		m.focus = focusTerminal
		m.filter.Blur()
		return nil, true
	case "up":
		m.moveCursor(-1)
		return nil, true
	case "down":
		m.moveCursor(1)
		return nil, true
	case "enter":
		m.activateRow()
		return nil, true
	}
	if !files {
		switch msg.String() {
		case "k":
			m.moveCursor(-1)
		case "j":
			m.moveCursor(1)
		}
		return nil, true
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.clampFilesCursor()
	return cmd, true
}

func (m *Model) sendToShell(text string) bool {
	if text == "" {
		return false
	}
	s := m.d.Terminals.ActivePTY()
	if s == nil || !s.Connected() {
		return false
	}
	s.Buffer().ScrollToBottom()
	if err := s.Send(text); err != nil {
		m.log.Debug("write to shell", "err", err)
	}
	return true
}

// profileRows lists profiles followed by open sessions.
type profileRow struct {
	profile *config.Profile
	session *terminal.PTYSession
}

func (m Model) profileRows() []profileRow {
	rows := make([]profileRow, 0, len(m.d.Config.Profiles))
	for i := range m.d.Config.Profiles {
		rows = append(rows, profileRow{profile: &m.d.Config.Profiles[i]})
	}
	for _, s := range m.d.Terminals.Sessions() {
		rows = append(rows, profileRow{session: s})
	}
	return rows
}

func (m Model) filteredFiles() []string {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if q == "" {
		return m.files
	}
	var out []string
	for _, f := range m.files {
		if strings.Contains(strings.ToLower(f), q) {
			out = append(out, f)
		}
	}
	return out
}

func (m *Model) clampFilesCursor() {
	n := len(m.filteredFiles())
	if m.filesCursor >= n {
		m.filesCursor = n - 1
	}
	if m.filesCursor < 0 {
		m.filesCursor = 0
	}
}

func (m *Model) moveCursor(delta int) {
	if m.active == string(sidebar.ViewFiles) {
		m.filesCursor += delta
		m.clampFilesCursor()
		return
	}
	n := len(m.profileRows())
	m.cursor += delta
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) activateRow() {
	if m.active == string(sidebar.ViewFiles) {
		files := m.filteredFiles()
		if m.filesCursor >= len(files) {
			return
		}
		m.insertPath(files[m.filesCursor])
		return
	}
	rows := m.profileRows()
	if m.cursor >= len(rows) {
		return
	}
	row := rows[m.cursor]
	if row.session != nil {
		m.d.Terminals.SetActive(row.session.ID())
		m.focus = focusTerminal
		m.syncTerminal()
		return
	}
	m.openProfile(*row.profile)
}

func (m *Model) openProfile(p config.Profile) {
	if _, err := m.d.Terminals.Open(p); err != nil {
		m.log.Error("open profile", "profile", p.Name, "err", err)
		if m.d.Notify != nil {
			m.d.Notify.Errorf("could not start %s: %v", p.Name, err)
		}
		return
	}
	m.focus = focusTerminal
	m.layoutPane()
}

func (m *Model) insertPath(name string) {
	path := filepath.Join(m.d.Dir, strings.TrimSuffix(name, "/"))
	s := m.d.Terminals.ActivePTY()
	if s == nil || !s.Connected() {
		if m.d.Notify != nil {
			m.d.Notify.Warnf("no connected terminal for %s", name)
		}
		return
	}
	if err := s.Paste(shellQuote(path)); err != nil {
		m.log.Debug("insert path", "err", err)
	}
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// sidebarCols is the width of the sidebar content, excluding the divider.
func (m Model) sidebarCols() int {
	snap := m.d.Surface.snapshot()
	if snap.collapsed {
		return collapsedCols
	}
	cols := UnitsToCells(snap.layoutWidth)
	if maxCols := m.width - minPaneCols - 1; cols > maxCols {
		cols = maxCols
	}
	if cols < minSidebarCols {
		cols = minSidebarCols
	}
	return cols
}

// paneX is the first column of the terminal pane.
func (m Model) paneX() int {
	return m.sidebarCols() + 1
}

func (m Model) bodyHeight() int {
	if h := m.height - 1; h > 0 {
		return h
	}
	return 0
}

func (m *Model) layoutPane() {
	if m.width == 0 {
		return
	}
	w := m.width - m.paneX()
	if w < 1 {
		w = 1
	}
	m.vp.Width, m.vp.Height = w, m.bodyHeight()
	m.d.Terminals.Resize(terminal.Size{Cols: w, Rows: m.vp.Height})
	m.syncTerminal()
}

func (m *Model) syncTerminal() {
	s := m.d.Terminals.ActivePTY()
	if s == nil {
		m.vp.SetContent("")
		return
	}
	buf := s.Buffer()
	lines := buf.Lines()
	if from, to, ok := buf.SelectedRange(); ok {
		for i := from; i <= to && i < len(lines); i++ {
			lines[i] = m.style.selection.Render(lines[i])
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if top, follow := buf.Position(); follow {
		m.vp.GotoBottom()
	} else {
		m.vp.SetYOffset(top)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.drag.active {
		m.handleDrag(msg)
		return
	}

	if _, open := m.d.Menus.Open(); open && msg.Action == tea.MouseActionPress {
		if m.d.Menus.Click(msg.X, msg.Y) {
			return
		}
	}

	sideCols := m.sidebarCols()
	switch {
	case msg.X < sideCols:
		m.handleSidebarMouse(msg)
	case msg.X == sideCols:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.d.Sidebar.IsCollapsed() {
			m.drag = dragState{active: true, units: m.d.Sidebar.Width()}
		}
	default:
		m.handlePaneMouse(msg)
	}
}

// handleDrag resizes the sidebar while the divider is held.
func (m *Model) handleDrag(msg tea.MouseMsg) {
	lo, hi := m.d.Sidebar.Bounds()
	units := CellsToUnits(msg.X)
	if units < lo {
		units = lo
	}
	if units > hi {
		units = hi
	}
	switch msg.Action {
	case tea.MouseActionMotion:
		if units != m.drag.units {
			m.drag.units = units
			m.d.Sidebar.SetWidth(units, true)
		}
	case tea.MouseActionRelease:
		m.d.Sidebar.SetWidth(units, false)
		m.drag = dragState{}
	}
}

func (m *Model) handleSidebarMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	if m.d.Sidebar.IsCollapsed() {
		if msg.Button == tea.MouseButtonLeft {
			m.d.Sidebar.Expand()
		}
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(-1)
		return
	case tea.MouseButtonWheelDown:
		m.moveCursor(1)
		return
	case tea.MouseButtonLeft:
	default:
		return
	}

	m.focus = focusSidebar
	switch {
	case msg.Y == 0 && msg.X < 2:
		m.d.Sidebar.Toggle()
		m.focus = focusTerminal
	case msg.Y == 1:
		if v, ok := m.selectorAt(msg.X); ok {
			m.switchView(v)
		}
	case msg.Y >= sidebarHeader:
		m.clickRow(msg.Y - sidebarHeader)
	}
}

func (m *Model) clickRow(row int) {
	if m.active == string(sidebar.ViewFiles) {
		row-- // filter input
		if row >= 0 && row < len(m.filteredFiles()) {
			m.filesCursor = row
			m.filter.Focus()
		}
		return
	}
	if row >= 0 && row < len(m.profileRows()) {
		m.cursor = row
		m.activateRow()
	}
}

func (m *Model) handlePaneMouse(msg tea.MouseMsg) {
	s := m.d.Terminals.ActivePTY()
	line := m.vp.YOffset + msg.Y
	events := m.d.Surface.Events()

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		if s != nil && msg.Action == tea.MouseActionPress {
			delta := 3
			if msg.Button == tea.MouseButtonWheelUp {
				delta = -3
			}
			s.Buffer().ScrollBy(delta, m.vp.Height)
			m.syncTerminal()
		}

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		events.Dispatch(&surface.Event{Kind: surface.ContextMenu, Button: surface.ButtonRight, X: msg.X, Y: msg.Y})

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.focus = focusTerminal
		m.filter.Blur()
		events.Dispatch(&surface.Event{Kind: surface.MouseDown, Button: surface.ButtonLeft, X: msg.X, Y: msg.Y})
		if s != nil {
			s.Buffer().ClearSelection()
			m.selecting, m.anchor = true, line
			m.syncTerminal()
		}

	case msg.Action == tea.MouseActionMotion && m.selecting:
		if s != nil {
			s.Buffer().Select(m.anchor, line)
			m.syncTerminal()
		}

	case msg.Action == tea.MouseActionRelease && m.selecting:
		m.selecting = false
		events.Dispatch(&surface.Event{Kind: surface.MouseUp, Button: surface.ButtonLeft, X: msg.X, Y: msg.Y})
	}
}

// selectorAt maps a column on the selector row to a view.
func (m Model) selectorAt(x int) (sidebar.View, bool) {
	col := 0
	for _, name := range m.d.Views.Names() {
		title, _ := m.d.Views.Title(name)
		w := len([]rune(title)) + 2
		if x >= col && x < col+w {
			return sidebar.View(name), true
		}
		col += w
	}
	return "", false
}

func (m Model) statusText() string {
	if m.toast != nil {
		return fmt.Sprintf("%s: %s", m.toast.Level, m.toast.Message)
	}
	if m.d.Terminals.Active() == nil {
		return fmt.Sprintf("%s profiles, enter to start a shell  %s quit", m.keys.ProfilesView, m.keys.Quit)
	}
	return fmt.Sprintf("%s sidebar  %s profiles  %s files  %s quit", m.keys.ToggleSidebar, m.keys.ProfilesView, m.keys.FilesView, m.keys.Quit)
}
