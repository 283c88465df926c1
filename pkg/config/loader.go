package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrLastProfile     = errors.New("cannot delete the last profile")
)

// EnvPrefix marks environment overrides. A double underscore separates
// sections: SHELLSIDE_SIDEBAR__MAX_WIDTH sets sidebar.max_width.
const EnvPrefix = "SHELLSIDE_"

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"debug":    "log.level",
	"log-file": "log.file",
	"store":    "store.backend",
}

func defaults() map[string]any {
	return map[string]any{
		"sidebar.min_width":          200,
		"sidebar.max_width":          600,
		"sidebar.default_width":      250,
		"sidebar.debounce_ms":        300,
		"sidebar.view":               "profiles",
		"sidebar.theme":              "auto",
		"sidebar.colors.header_fg":   "#9ccfd8",
		"sidebar.colors.active_fg":   "#ffffff",
		"sidebar.colors.inactive_fg": "#cccccc",
		"sidebar.colors.border":      "#444444",
		"terminal.select_to_copy":    false,
		"terminal.scrollback":        5000,
		"clipboard.backend":          "auto",
		"notify.desktop":             false,
		"notify.toast_seconds":       3,
		"store.backend":              "yaml",
		"log.level":                  "info",
		"bindings.toggle_sidebar":    "ctrl+b",
		"bindings.profiles_view":     "ctrl+p",
		"bindings.files_view":        "ctrl+o",
		"bindings.quit":              "ctrl+q",
	}
}

// Load reads configuration with precedence flags > env > file > defaults.
// A missing file is not an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			if f.Name == "debug" {
				if v, _ := flags.GetBool("debug"); v {
					return key, "debug"
				}
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfig reads path with defaults and environment overrides only.
func LoadConfig(path string) (*Config, error) {
	return Load(path, nil)
}

// SaveConfig writes the config to the specified path
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyDefaults repairs values the file may have set to something unusable.
func applyDefaults(cfg *Config) {
	if cfg.Sidebar.MinWidth <= 0 {
		cfg.Sidebar.MinWidth = 200
	}
	if cfg.Sidebar.MaxWidth < cfg.Sidebar.MinWidth {
		cfg.Sidebar.MaxWidth = cfg.Sidebar.MinWidth
	}
	if cfg.Sidebar.DefaultWidth < cfg.Sidebar.MinWidth {
		cfg.Sidebar.DefaultWidth = cfg.Sidebar.MinWidth
	}
	if cfg.Sidebar.DefaultWidth > cfg.Sidebar.MaxWidth {
		cfg.Sidebar.DefaultWidth = cfg.Sidebar.MaxWidth
	}
	if cfg.Sidebar.DebounceMs <= 0 {
		cfg.Sidebar.DebounceMs = 300
	}
	if cfg.Sidebar.View != "profiles" && cfg.Sidebar.View != "files" {
		cfg.Sidebar.View = "profiles"
	}
	switch cfg.Sidebar.Theme {
	case "auto", "dark", "light":
	default:
		cfg.Sidebar.Theme = "auto"
	}
	if cfg.Terminal.Scrollback <= 0 {
		cfg.Terminal.Scrollback = 5000
	}
	if cfg.Notify.ToastSeconds <= 0 {
		cfg.Notify.ToastSeconds = 3
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "yaml"
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = []Profile{DefaultProfile()}
	}
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name == "" {
			cfg.Profiles[i].Name = fmt.Sprintf("profile %d", i+1)
		}
	}
}

// FindProfile returns the profile with the given name, or nil if not found
func FindProfile(cfg *Config, name string) *Profile {
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name == name {
			return &cfg.Profiles[i]
		}
	}
	return nil
}

// AddProfile appends a profile. Names must be unique.
func AddProfile(cfg *Config, p Profile) error {
	if FindProfile(cfg, p.Name) != nil {
		return ErrProfileExists
	}
	cfg.Profiles = append(cfg.Profiles, p)
	return nil
}

// DeleteProfile removes a profile by name.
// The last remaining profile cannot be deleted.
func DeleteProfile(cfg *Config, name string) error {
	for i, p := range cfg.Profiles {
		if p.Name == name {
			if len(cfg.Profiles) == 1 {
				return ErrLastProfile
			}
			cfg.Profiles = append(cfg.Profiles[:i], cfg.Profiles[i+1:]...)
			return nil
		}
	}
	return ErrProfileNotFound
}
