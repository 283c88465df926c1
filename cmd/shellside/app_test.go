package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b/shellside/pkg/config"
	"github.com/b/shellside/pkg/control"
	"github.com/b/shellside/pkg/store"
	"github.com/b/shellside/pkg/terminal"
	"github.com/b/shellside/pkg/termmenu"
	"github.com/b/shellside/pkg/views"
)

type paneWrite struct{ pane, text string }

type fakePanes struct{ writes []paneWrite }

func (f *fakePanes) WriteToShell(_ context.Context, pane, text string) error {
	f.writes = append(f.writes, paneWrite{pane, text})
	return nil
}

func noPTY(string, terminal.Profile, terminal.Size, func(string), *slog.Logger) (*terminal.PTYSession, error) {
	return nil, errors.New("no pty in tests")
}

func newTestApp(t *testing.T) (*app, *fakePanes, *store.Memory) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	st := store.NewMemory(nil)
	panes := &fakePanes{}
	a, err := newApp(appOptions{ConfigPath: path, Config: cfg, Store: st, Start: noPTY, Panes: panes})
	require.NoError(t, err)
	t.Cleanup(a.close)

	// a first frame lays out the terminal pane
	a.model().Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a, panes, st
}

func request(t *testing.T, a *app, typ control.MessageType, payload any) (control.Message, error) {
	t.Helper()
	msg, err := control.NewMessage(typ, payload)
	require.NoError(t, err)
	return a.handleControl(context.Background(), msg)
}

func TestApp_InitialState(t *testing.T) {
	a, _, _ := newTestApp(t)
	st := a.state()

	assert.False(t, st.Collapsed)
	assert.Equal(t, "profiles", st.View)
	assert.Equal(t, 250, st.Width)
	assert.Equal(t, 0, st.Sessions)
	assert.Equal(t, []string{"profiles", "files"}, a.views.Names())
}

func TestApp_ControlToggle(t *testing.T) {
	a, _, st := newTestApp(t)

	resp, err := request(t, a, control.MsgSidebarToggle, nil)
	require.NoError(t, err)
	assert.Equal(t, control.MsgAck, resp.Type)

	var state control.StatePayload
	require.NoError(t, resp.Decode(&state))
	assert.True(t, state.Collapsed)

	collapsed, ok, err := store.GetBool(context.Background(), st, store.KeySidebarCollapsed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, collapsed)
}

func TestApp_ControlWidth(t *testing.T) {
	a, _, st := newTestApp(t)

	_, err := request(t, a, control.MsgSidebarWidth, control.WidthPayload{Width: 400})
	require.NoError(t, err)
	assert.Equal(t, 400, a.sidebar.Width())

	w, ok, err := store.GetInt(context.Background(), st, store.KeyProfilesWidth)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 400, w)

	_, err = request(t, a, control.MsgSidebarWidth, control.WidthPayload{Width: 5000})
	assert.ErrorContains(t, err, "outside [200, 600]")
	assert.Equal(t, 400, a.sidebar.Width())
}

func TestApp_ControlViewSwitch(t *testing.T) {
	a, _, _ := newTestApp(t)

	_, err := request(t, a, control.MsgViewSwitch, control.ViewPayload{View: "files"})
	require.NoError(t, err)
	assert.Equal(t, "files", a.views.Current())

	_, err = request(t, a, control.MsgViewSwitch, control.ViewPayload{View: "git"})
	assert.ErrorIs(t, err, views.ErrUnknownView)
	assert.Equal(t, "files", a.views.Current())
}

func TestApp_ControlBadPayload(t *testing.T) {
	a, _, _ := newTestApp(t)

	_, err := a.handleControl(context.Background(), control.Message{Type: control.MsgSidebarWidth})
	assert.Error(t, err)

	_, err = a.handleControl(context.Background(), control.Message{Type: "bogus"})
	assert.ErrorContains(t, err, "unknown message type")
}

func TestApp_ControlState(t *testing.T) {
	a, _, _ := newTestApp(t)

	resp, err := request(t, a, control.MsgState, nil)
	require.NoError(t, err)
	assert.Equal(t, control.MsgState, resp.Type)

	var st control.StatePayload
	require.NoError(t, resp.Decode(&st))
	assert.Equal(t, "standard", st.MenuMode)
	assert.False(t, st.MenuBound)
}

func TestApp_ReloadRebindsMenu(t *testing.T) {
	a, _, st := newTestApp(t)
	a.start(context.Background())
	<-a.ctrl.Ready()

	bound, mode := a.ctrl.State()
	require.True(t, bound)
	assert.Equal(t, termmenu.ModeStandard, mode)

	require.NoError(t, os.WriteFile(a.cfgPath, []byte("terminal:\n  select_to_copy: true\n"), 0644))
	_, err := request(t, a, control.MsgMenuReload, nil)
	require.NoError(t, err)

	bound, mode = a.ctrl.State()
	assert.True(t, bound)
	assert.Equal(t, termmenu.ModeSelectToCopy, mode)

	on, _, err := store.GetBool(context.Background(), st, store.KeySelectToCopy)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestApp_ConfigChangeNotifies(t *testing.T) {
	a, _, _ := newTestApp(t)

	a.onConfigChange(nil, errors.New("bad yaml"))
	n := <-a.notify.C()
	assert.Contains(t, n.Message, "bad yaml")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	a.onConfigChange(cfg, nil)
	n = <-a.notify.C()
	assert.Equal(t, "config reloaded", n.Message)
}

func TestApp_ShellSend(t *testing.T) {
	a, panes, _ := newTestApp(t)

	_, err := request(t, a, control.MsgShellSend, control.SendPayload{Session: "%3", Text: "make\r"})
	require.NoError(t, err)
	assert.Equal(t, []paneWrite{{"%3", "make\r"}}, panes.writes)

	_, err = request(t, a, control.MsgShellSend, control.SendPayload{Text: "ls\r"})
	assert.ErrorIs(t, err, terminal.ErrNoSession)

	_, err = request(t, a, control.MsgShellSend, control.SendPayload{Session: "nope", Text: "ls\r"})
	assert.ErrorIs(t, err, terminal.ErrNoSession)
}

func TestApp_ServesControlSocket(t *testing.T) {
	a, _, _ := newTestApp(t)
	dir, err := os.MkdirTemp("", "ssapp")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	server := control.NewServer(filepath.Join(dir, "s.sock"), nil)
	server.OnCommand = a.handleControl
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)

	client := control.NewClient(server.SocketPath())
	_, err = client.Request(context.Background(), control.MsgSidebarToggle, nil)
	require.NoError(t, err)

	st, err := client.State(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Collapsed)
}

func TestEditConfig_Profiles(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { configPath = "" })

	require.NoError(t, editConfig(func(cfg *config.Config) error {
		return config.AddProfile(cfg, config.Profile{Name: "zsh", Command: "/bin/zsh"})
	}))
	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, config.FindProfile(cfg, "zsh"))

	err = editConfig(func(cfg *config.Config) error {
		return config.AddProfile(cfg, config.Profile{Name: "zsh"})
	})
	assert.ErrorIs(t, err, config.ErrProfileExists)

	require.NoError(t, editConfig(func(cfg *config.Config) error {
		return config.DeleteProfile(cfg, "zsh")
	}))
	cfg, err = config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Nil(t, config.FindProfile(cfg, "zsh"))
}
