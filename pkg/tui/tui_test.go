package tui

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b/shellside/pkg/config"
	"github.com/b/shellside/pkg/menu"
	"github.com/b/shellside/pkg/notify"
	"github.com/b/shellside/pkg/sidebar"
	"github.com/b/shellside/pkg/store"
	"github.com/b/shellside/pkg/surface"
	"github.com/b/shellside/pkg/terminal"
	"github.com/b/shellside/pkg/views"
)

type fixture struct {
	m     Model
	surf  *Surface
	sb    *sidebar.Sidebar
	st    *store.Memory
	views *views.Coordinator
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pkg"), 0755))

	f := &fixture{surf: NewSurface(), st: store.NewMemory(nil), dir: dir}
	f.sb = sidebar.New(sidebar.Options{Store: f.st, Surface: f.surf, Debounce: 10 * time.Millisecond})
	f.sb.Init(context.Background())
	t.Cleanup(f.sb.Close)

	f.views = views.New(views.Options{Sidebar: f.sb, Chrome: f.surf})
	require.NoError(t, f.views.AddView(string(sidebar.ViewProfiles), f.surf.View("Profiles")))
	require.NoError(t, f.views.AddView(string(sidebar.ViewFiles), f.surf.View("Files")))
	require.True(t, f.views.SwitchToView(string(sidebar.ViewProfiles), true))

	mgr := terminal.NewManager(terminal.ManagerOptions{
		Start: func(string, terminal.Profile, terminal.Size, func(string), *slog.Logger) (*terminal.PTYSession, error) {
			return nil, errors.New("no pty in tests")
		},
	})
	f.m = New(Deps{
		Surface:   f.surf,
		Sidebar:   f.sb,
		Views:     f.views,
		Terminals: mgr,
		Menus:     menu.NewRenderer(menu.DefaultStyles()),
		Notify:    notify.NewCenter(notify.Options{}),
		Config:    cfg,
		Dir:       dir,
	})
	f.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.m.Update(msg)
	f.m = next.(Model)
	return cmd
}

func ctrl(key string) tea.KeyMsg {
	types := map[string]tea.KeyType{
		"ctrl+b": tea.KeyCtrlB,
		"ctrl+o": tea.KeyCtrlO,
		"ctrl+p": tea.KeyCtrlP,
		"ctrl+q": tea.KeyCtrlQ,
	}
	return tea.KeyMsg{Type: types[key]}
}

func TestUnitConversion(t *testing.T) {
	assert.Equal(t, 25, UnitsToCells(200))
	assert.Equal(t, 75, UnitsToCells(600))
	assert.Equal(t, 320, CellsToUnits(40))
}

func TestSurface_Element(t *testing.T) {
	s := NewSurface()
	el, ok := s.Sidebar()
	require.True(t, ok)

	s.SetLayoutWidth(250)
	assert.Equal(t, 250, el.RenderedWidth())
	el.SetWidth(300)
	assert.Equal(t, 300, el.RenderedWidth())
	el.SetCollapsedMarker(true)
	assert.Equal(t, 0, el.RenderedWidth())
	el.ClearWidth()
	el.SetCollapsedMarker(false)
	assert.Equal(t, 250, el.RenderedWidth())
}

func TestSurface_TerminalTargetAfterLayout(t *testing.T) {
	s := NewSurface()
	_, ok := s.Terminal()
	assert.False(t, ok)

	s.setLaidOut()
	target, ok := s.Terminal()
	require.True(t, ok)
	assert.Same(t, s.Events(), target)
}

func TestSurface_OnChange(t *testing.T) {
	s := NewSurface()
	calls := 0
	s.OnChange(func() { calls++ })

	s.SetTitle("Files")
	s.SetToggle(surface.IconExpand, surface.TooltipExpand)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Files", s.snapshot().title)
	assert.Equal(t, surface.IconExpand, s.snapshot().toggleIcon)
}

func TestModel_ToggleKey(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 31, f.m.sidebarCols())

	f.send(ctrl("ctrl+b"))
	assert.True(t, f.sb.IsCollapsed())
	assert.Equal(t, collapsedCols, f.m.sidebarCols())
	assert.Equal(t, surface.IconExpand, f.surf.snapshot().toggleIcon)

	f.send(ctrl("ctrl+b"))
	assert.False(t, f.sb.IsCollapsed())
	assert.Equal(t, 31, f.m.sidebarCols())
}

func TestModel_SwitchViewKeys(t *testing.T) {
	f := newFixture(t)
	cmd := f.send(ctrl("ctrl+o"))

	assert.Equal(t, string(sidebar.ViewFiles), f.views.Current())
	assert.Equal(t, "Files", f.surf.snapshot().title)
	assert.Equal(t, string(sidebar.ViewFiles), f.m.active)
	assert.Equal(t, focusSidebar, f.m.focus)
	require.NotNil(t, cmd)

	f.send(ctrl("ctrl+p"))
	assert.Equal(t, string(sidebar.ViewProfiles), f.views.Current())
}

func TestModel_FilesFilterAndClearSearch(t *testing.T) {
	f := newFixture(t)
	f.send(ctrl("ctrl+o"))
	f.send(filesLoadedMsg{names: []string{"README.md", "main.go", "pkg/"}})

	for _, r := range "main" {
		f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, []string{"main.go"}, f.m.filteredFiles())

	f.surf.ClearSearch()
	f.send(RefreshMsg{})
	assert.Equal(t, "", f.m.filter.Value())
	assert.Len(t, f.m.filteredFiles(), 3)
}

func TestModel_CollapseClearsSearch(t *testing.T) {
	f := newFixture(t)
	f.send(ctrl("ctrl+o"))
	f.send(filesLoadedMsg{names: []string{"a", "b"}})
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.Equal(t, "a", f.m.filter.Value())

	f.send(ctrl("ctrl+b"))
	assert.Equal(t, "", f.m.filter.Value())
}

func TestModel_LoadFiles(t *testing.T) {
	f := newFixture(t)
	msg := f.m.loadFiles()()

	loaded, ok := msg.(filesLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)
	assert.Equal(t, []string{"README.md", "main.go", "pkg/"}, loaded.names)
}

func TestModel_DragResizesSidebar(t *testing.T) {
	f := newFixture(t)
	divider := f.m.sidebarCols()

	f.send(tea.MouseMsg{X: divider, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.True(t, f.m.drag.active)

	f.send(tea.MouseMsg{X: 40, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, 320, f.sb.Width())

	f.send(tea.MouseMsg{X: 45, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.False(t, f.m.drag.active)
	assert.Equal(t, 360, f.sb.Width())
	assert.Equal(t, 45, f.m.sidebarCols())

	got, ok, err := store.GetInt(context.Background(), f.st, store.KeyProfilesWidth)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 360, got)
}

func TestModel_DragClampsToBounds(t *testing.T) {
	f := newFixture(t)
	divider := f.m.sidebarCols()

	f.send(tea.MouseMsg{X: divider, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	f.send(tea.MouseMsg{X: 110, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	_, hi := f.sb.Bounds()
	assert.Equal(t, hi, f.sb.Width())
}

func TestModel_RightClickDispatchesContextMenu(t *testing.T) {
	f := newFixture(t)
	var got []*surface.Event
	f.surf.Events().AddListener(surface.ContextMenu, func(ev *surface.Event) { got = append(got, ev) })

	f.send(tea.MouseMsg{X: 60, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	require.Len(t, got, 1)
	assert.Equal(t, 60, got[0].X)
	assert.Equal(t, 10, got[0].Y)

	// right clicks on the sidebar are not terminal events
	f.send(tea.MouseMsg{X: 3, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	assert.Len(t, got, 1)
}

func TestModel_ToggleIconClick(t *testing.T) {
	f := newFixture(t)
	f.send(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.True(t, f.sb.IsCollapsed())

	f.send(tea.MouseMsg{X: 0, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.False(t, f.sb.IsCollapsed())
}

func TestModel_SelectorClick(t *testing.T) {
	f := newFixture(t)
	// " Profiles " spans columns 0-9, " Files " starts at 10
	f.send(tea.MouseMsg{X: 12, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, string(sidebar.ViewFiles), f.views.Current())
}

func TestModel_OpenProfileFailureNotifies(t *testing.T) {
	f := newFixture(t)
	f.m.focus = focusSidebar
	f.send(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case n := <-f.m.d.Notify.C():
		assert.Equal(t, notify.Error, n.Level)
		assert.Contains(t, n.Message, "no pty in tests")
	default:
		t.Fatal("expected a notification")
	}
}

func TestModel_Toast(t *testing.T) {
	f := newFixture(t)
	f.send(notificationMsg(notify.Notification{Level: notify.Warn, Message: "careful", At: time.Now()}))

	require.NotNil(t, f.m.toast)
	assert.Contains(t, f.m.View(), "warn: careful")
}

func TestModel_QuitFlushes(t *testing.T) {
	f := newFixture(t)
	f.sb.SetWidth(400, true)

	cmd := f.send(ctrl("ctrl+q"))
	require.NotNil(t, cmd)

	got, ok, err := store.GetInt(context.Background(), f.st, store.KeyProfilesWidth)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 400, got)
}

func TestModel_MenuKeys(t *testing.T) {
	f := newFixture(t)
	m := f.m.d.Menus.Render(nil, 0, 0)
	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.Closed())
}

func TestView_Renders(t *testing.T) {
	f := newFixture(t)
	out := f.m.View()

	assert.Contains(t, out, "Profiles")
	assert.Contains(t, out, "shell")
	assert.Contains(t, out, "no terminal session")
}

func TestOverlay(t *testing.T) {
	base := "aaaaaa\nbbbbbb\ncccccc"
	got := overlay(base, "XY\nZW", 2, 1)
	assert.Equal(t, "aaaaaa\nbbXYbb\nccZWcc", got)

	got = overlay("ab", "XY", 4, 0)
	assert.Equal(t, "ab  XY", got)
}

func TestKeyBytes(t *testing.T) {
	assert.Equal(t, "ls", keyBytes(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ls")}))
	assert.Equal(t, "\x1bb", keyBytes(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b"), Alt: true}))
	assert.Equal(t, "\r", keyBytes(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Equal(t, "\x03", keyBytes(tea.KeyMsg{Type: tea.KeyCtrlC}))
	assert.Equal(t, "\x1b[A", keyBytes(tea.KeyMsg{Type: tea.KeyUp}))
	assert.Equal(t, "", keyBytes(tea.KeyMsg{Type: tea.KeyF5}))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "/tmp/x.go", shellQuote("/tmp/x.go"))
	assert.Equal(t, "'/tmp/my file'", shellQuote("/tmp/my file"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
