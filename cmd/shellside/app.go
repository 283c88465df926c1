package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/b/shellside/pkg/clipboard"
	"github.com/b/shellside/pkg/commands"
	"github.com/b/shellside/pkg/config"
	"github.com/b/shellside/pkg/control"
	"github.com/b/shellside/pkg/logging"
	"github.com/b/shellside/pkg/menu"
	"github.com/b/shellside/pkg/notify"
	"github.com/b/shellside/pkg/sidebar"
	"github.com/b/shellside/pkg/store"
	"github.com/b/shellside/pkg/terminal"
	"github.com/b/shellside/pkg/termmenu"
	"github.com/b/shellside/pkg/tmux"
	"github.com/b/shellside/pkg/tui"
	"github.com/b/shellside/pkg/views"
)

type appOptions struct {
	ConfigPath string
	Config     *config.Config
	Store      store.Store
	Logger     *slog.Logger

	// Start overrides how terminal sessions are launched.
	Start func(id string, p terminal.Profile, size terminal.Size, onOutput func(string), log *slog.Logger) (*terminal.PTYSession, error)
	// Panes types into tmux panes; defaults to the tmux binary.
	Panes terminal.ShellWriter
	// Light is true when the terminal background is light.
	Light bool
}

// app owns every component of a running shellside.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     *slog.Logger

	store    store.Store
	surf     *tui.Surface
	sidebar  *sidebar.Sidebar
	views    *views.Coordinator
	terms    *terminal.Manager
	shell    shellRouter
	notify   *notify.Center
	menus    *menu.Renderer
	commands *commands.Registry
	ctrl     *termmenu.Controller

	light       bool
	wakeOutput  func()
	wakeRefresh func()
}

func newApp(opts appOptions) (*app, error) {
	cfg := opts.Config
	log := logging.OrDiscard(opts.Logger)
	a := &app{
		cfgPath:     opts.ConfigPath,
		cfg:         cfg,
		log:         log,
		store:       opts.Store,
		surf:        tui.NewSurface(),
		light:       opts.Light,
		wakeOutput:  func() {},
		wakeRefresh: func() {},
	}

	a.sidebar = sidebar.New(sidebar.Options{
		Store:        a.store,
		Surface:      a.surf,
		Logger:       log,
		MinWidth:     cfg.Sidebar.MinWidth,
		MaxWidth:     cfg.Sidebar.MaxWidth,
		DefaultWidth: cfg.Sidebar.DefaultWidth,
		Debounce:     time.Duration(cfg.Sidebar.DebounceMs) * time.Millisecond,
	})
	a.sidebar.Init(context.Background())

	a.views = views.New(views.Options{Sidebar: a.sidebar, Chrome: a.surf, Logger: log})
	for _, v := range []struct{ name, title string }{
		{string(sidebar.ViewProfiles), "Profiles"},
		{string(sidebar.ViewFiles), "Files"},
	} {
		if err := a.views.AddView(v.name, a.surf.View(v.title)); err != nil {
			return nil, fmt.Errorf("register %s view: %w", v.name, err)
		}
	}
	if !a.views.SwitchToView(cfg.Sidebar.View, true) {
		a.views.SwitchToView(string(sidebar.ViewProfiles), true)
	}

	a.terms = terminal.NewManager(terminal.ManagerOptions{
		Logger:     log,
		Scrollback: cfg.Terminal.Scrollback,
		OnOutput:   func(string) { a.wakeOutput() },
		Start:      opts.Start,
	})
	panes := opts.Panes
	if panes == nil {
		panes = tmux.NewPaneWriter()
	}
	a.shell = shellRouter{local: a.terms, panes: panes}

	clip, err := clipboard.New(clipboard.Options{Backend: cfg.Clipboard.Backend, Out: os.Stderr, Logger: log})
	if err != nil {
		return nil, err
	}
	log.Debug("clipboard ready", "backend", clipboard.Backend(clip))

	a.notify = notify.NewCenter(notify.Options{
		TTL:     time.Duration(cfg.Notify.ToastSeconds) * time.Second,
		Desktop: cfg.Notify.Desktop,
		AppName: "shellside",
		Logger:  log,
	})
	a.menus = menu.NewRenderer(menu.DefaultStyles())
	a.commands = commands.NewRegistry(log)
	if err := commands.RegisterDefaults(a.commands, commands.Deps{Clipboard: clip, Shell: a.shell}); err != nil {
		return nil, err
	}

	a.ctrl = termmenu.New(termmenu.Options{
		Store:     a.store,
		Locate:    a.surf.Terminal,
		Terminals: a.terms,
		Commands:  a.commands,
		Menus:     a.menus,
		Clipboard: clip,
		Notifier:  a.notify,
		Logger:    log,
		AfterCommand: func(id string, err error) {
			log.Debug("menu command done", "command", id, "err", err)
			a.wakeRefresh()
		},
	})
	return a, nil
}

func (a *app) model() tui.Model {
	return tui.New(tui.Deps{
		Surface:   a.surf,
		Sidebar:   a.sidebar,
		Views:     a.views,
		Terminals: a.terms,
		Menus:     a.menus,
		Notify:    a.notify,
		Config:    a.cfg,
		Logger:    a.log,

		LightBackground: a.light,
	})
}

// attach points the wake-ups at p. It must run before p starts.
func (a *app) attach(p *tea.Program) {
	a.wakeOutput = tui.Waker(p, tui.OutputMsg{})
	a.wakeRefresh = tui.Waker(p, tui.RefreshMsg{})
	a.surf.OnChange(a.wakeRefresh)
}

// start seeds the menu mode from the config and binds the context menu.
func (a *app) start(ctx context.Context) {
	if err := store.SetBool(ctx, a.store, store.KeySelectToCopy, a.cfg.Terminal.SelectToCopy); err != nil {
		a.log.Warn("seed select-to-copy", "err", err)
	}
	a.ctrl.Start(ctx)
}

// applySettings stores the terminal settings of cfg and rebinds the menu.
func (a *app) applySettings(ctx context.Context, cfg *config.Config) error {
	if err := store.SetBool(ctx, a.store, store.KeySelectToCopy, cfg.Terminal.SelectToCopy); err != nil {
		return fmt.Errorf("store select-to-copy: %w", err)
	}
	return a.ctrl.UpdateSettings(ctx)
}

func (a *app) reload(ctx context.Context) error {
	cfg, err := config.LoadConfig(a.cfgPath)
	if err != nil {
		return err
	}
	return a.applySettings(ctx, cfg)
}

func (a *app) onConfigChange(cfg *config.Config, err error) {
	if err != nil {
		a.notify.Warnf("config not reloaded: %v", err)
		return
	}
	if err := a.applySettings(context.Background(), cfg); err != nil {
		a.notify.Errorf("apply settings: %v", err)
		return
	}
	a.notify.Infof("config reloaded")
}

func (a *app) state() control.StatePayload {
	st := a.sidebar.State()
	bound, mode := a.ctrl.State()
	return control.StatePayload{
		Collapsed:     st.Collapsed,
		View:          string(st.View),
		Width:         st.Width,
		ProfilesWidth: st.ProfilesWidth,
		FilesWidth:    st.FilesWidth,
		MenuMode:      mode.String(),
		MenuBound:     bound,
		Sessions:      len(a.terms.Sessions()),
	}
}

// handleControl serves requests from the control socket.
func (a *app) handleControl(ctx context.Context, msg control.Message) (control.Message, error) {
	switch msg.Type {
	case control.MsgSidebarToggle:
		a.sidebar.Toggle()

	case control.MsgSidebarWidth:
		var p control.WidthPayload
		if err := msg.Decode(&p); err != nil {
			return control.Message{}, err
		}
		if !a.sidebar.SetWidth(p.Width, p.Resizing) {
			lo, hi := a.sidebar.Bounds()
			return control.Message{}, fmt.Errorf("width %d outside [%d, %d]", p.Width, lo, hi)
		}

	case control.MsgViewSwitch:
		var p control.ViewPayload
		if err := msg.Decode(&p); err != nil {
			return control.Message{}, err
		}
		if !a.views.SwitchToView(p.View, p.Force) {
			return control.Message{}, fmt.Errorf("%w: %s", views.ErrUnknownView, p.View)
		}

	case control.MsgMenuReload:
		if err := a.reload(ctx); err != nil {
			return control.Message{}, err
		}

	case control.MsgShellSend:
		var p control.SendPayload
		if err := msg.Decode(&p); err != nil {
			return control.Message{}, err
		}
		if err := a.shell.WriteToShell(ctx, p.Session, p.Text); err != nil {
			return control.Message{}, err
		}

	case control.MsgState:
		return control.NewMessage(control.MsgState, a.state())

	default:
		return control.Message{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return control.NewMessage(control.MsgAck, a.state())
}

// close stops background work and releases the store.
func (a *app) close() {
	a.ctrl.Destroy()
	a.ctrl.Wait()
	a.sidebar.Flush()
	a.sidebar.Close()
	a.terms.Close()
	if err := a.store.Close(); err != nil && !errors.Is(err, store.ErrClosed) {
		a.log.Warn("close store", "err", err)
	}
}
