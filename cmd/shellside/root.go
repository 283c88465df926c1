package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/b/shellside/pkg/colors"
	"github.com/b/shellside/pkg/config"
	"github.com/b/shellside/pkg/control"
	"github.com/b/shellside/pkg/logging"
	"github.com/b/shellside/pkg/paths"
	"github.com/b/shellside/pkg/store"
)

var (
	configPath string
	sessionID  string
	ephemeral  bool
)

var rootCmd = &cobra.Command{
	Use:   "shellside",
	Short: "Terminal with a resizable profiles and files sidebar",
	Long: `shellside runs shells in a terminal pane next to a collapsible sidebar.
The sidebar lists shell profiles and the working directory; its width and
collapsed state are remembered per view. Right click the terminal for the
context menu, or enable select-to-copy in the config.`,
	RunE:          runUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "config file (default "+paths.ConfigPath()+")")
	f.StringVar(&sessionID, "session", os.Getenv("SHELLSIDE_SESSION"), "session name for the control socket")
	f.Bool("debug", false, "enable debug logging")
	f.String("log-file", "", "log file (default "+paths.LogPath()+")")
	f.String("store", "", "state backend: yaml, sqlite, tmux or memory")
	f.BoolVar(&ephemeral, "ephemeral", false, "keep sidebar state in memory only")
}

// Execute runs the root command.
func Execute() error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig applies flags over env over the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(resolvedConfigPath(), cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if ephemeral {
		cfg.Store.Backend = store.BackendMemory
	}
	return cfg, nil
}

func storePath(cfg *config.Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	if cfg.Store.Backend == store.BackendSQLite {
		return paths.StatePath("state.db")
	}
	return paths.StatePath("state.yaml")
}

func runUI(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("shellside needs an interactive terminal")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := paths.EnsureStateDir(); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	logPath := cfg.Log.File
	if logPath == "" {
		logPath = paths.LogPath()
	}
	log, closer, err := logging.New(logging.Options{Path: logPath, Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer closer.Close()
	log.Info("starting", "version", version, "config", resolvedConfigPath(), "store", cfg.Store.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, store.Options{Backend: cfg.Store.Backend, Path: storePath(cfg), Logger: log})
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	light := !colors.IsDark(colors.ThemeMode(cfg.Sidebar.Theme))
	a, err := newApp(appOptions{ConfigPath: resolvedConfigPath(), Config: cfg, Store: st, Logger: log, Light: light})
	if err != nil {
		st.Close()
		return err
	}
	defer a.close()

	lipgloss.SetColorProfile(termenv.ANSI256)
	p := tea.NewProgram(a.model(), tea.WithAltScreen(), tea.WithMouseCellMotion())
	a.attach(p)
	a.start(ctx)

	server := control.NewServer(paths.SocketPath(sessionID), log)
	server.OnCommand = a.handleControl
	if err := server.Start(); err != nil {
		log.Warn("control socket unavailable", "err", err)
	} else {
		defer server.Stop()
	}

	if err := config.Watch(ctx, a.cfgPath, a.onConfigChange, log); err != nil {
		log.Warn("config watch disabled", "err", err)
	}

	// SIGUSR1 reloads the config, like an edit to the file
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)
	defer signal.Stop(sigCh)
	go func() {
		defer logging.Recover(log, "signal handler")
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				if err := a.reload(ctx); err != nil {
					a.notify.Errorf("reload config: %v", err)
				}
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
