package config

import (
	"github.com/b/shellside/pkg/paths"
	"github.com/b/shellside/pkg/terminal"
)

type Config struct {
	Sidebar   Sidebar            `yaml:"sidebar" koanf:"sidebar"`
	Terminal  Terminal           `yaml:"terminal" koanf:"terminal"`
	Clipboard Clipboard          `yaml:"clipboard" koanf:"clipboard"`
	Notify    Notify             `yaml:"notify" koanf:"notify"`
	Store     Store              `yaml:"store" koanf:"store"`
	Log       Log                `yaml:"log" koanf:"log"`
	Bindings  Bindings           `yaml:"bindings" koanf:"bindings"`
	Profiles  []Profile          `yaml:"profiles" koanf:"profiles"`
}

// Profile is a shell the profiles view can launch.
type Profile = terminal.Profile

type Sidebar struct {
	MinWidth     int           `yaml:"min_width" koanf:"min_width"`         // width units (default: 200)
	MaxWidth     int           `yaml:"max_width" koanf:"max_width"`         // width units (default: 600)
	DefaultWidth int           `yaml:"default_width" koanf:"default_width"` // used when nothing is stored (default: 250)
	DebounceMs   int           `yaml:"debounce_ms" koanf:"debounce_ms"`     // resize persistence delay (default: 300)
	View         string        `yaml:"view" koanf:"view"`                   // initial view (default: profiles)
	Theme        string        `yaml:"theme" koanf:"theme"`                 // terminal background: auto, dark or light (default: auto)
	Colors       SidebarColors `yaml:"colors" koanf:"colors"`
}

type SidebarColors struct {
	HeaderFg   string `yaml:"header_fg" koanf:"header_fg"`     // View title text (default: #9ccfd8)
	ActiveFg   string `yaml:"active_fg" koanf:"active_fg"`     // Selected row text (default: #ffffff)
	InactiveFg string `yaml:"inactive_fg" koanf:"inactive_fg"` // Other rows (default: #cccccc)
	Border     string `yaml:"border" koanf:"border"`           // Divider (default: #444444)
}

type Terminal struct {
	SelectToCopy bool `yaml:"select_to_copy" koanf:"select_to_copy"`
	Scrollback   int  `yaml:"scrollback" koanf:"scrollback"`
}

type Clipboard struct {
	Backend string `yaml:"backend" koanf:"backend"` // auto, system or osc52
}

type Notify struct {
	Desktop      bool `yaml:"desktop" koanf:"desktop"`
	ToastSeconds int  `yaml:"toast_seconds" koanf:"toast_seconds"`
}

type Store struct {
	Backend string `yaml:"backend" koanf:"backend"` // yaml, sqlite, tmux or memory
	Path    string `yaml:"path,omitempty" koanf:"path"`
}

type Log struct {
	Level string `yaml:"level" koanf:"level"`
	File  string `yaml:"file,omitempty" koanf:"file"`
}

type Bindings struct {
	ToggleSidebar string `yaml:"toggle_sidebar" koanf:"toggle_sidebar"`
	ProfilesView  string `yaml:"profiles_view" koanf:"profiles_view"`
	FilesView     string `yaml:"files_view" koanf:"files_view"`
	Quit          string `yaml:"quit" koanf:"quit"`
}

func DefaultConfigPath() string {
	return paths.ConfigPath()
}

// DefaultProfile launches the user's login shell.
func DefaultProfile() Profile {
	return Profile{Name: "shell"}
}
