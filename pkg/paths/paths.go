// Package paths resolves where shellside keeps its config, state and runtime files.
//
// Layout (XDG-style):
//
//	Config:  ~/.config/shellside/config.yaml   (override: SHELLSIDE_CONFIG_DIR)
//	State:   ~/.local/state/shellside/         (override: SHELLSIDE_STATE_DIR)
//	Runtime: $TMPDIR/shellside-<session>.sock
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const appName = "shellside"

var (
	configDirOnce   sync.Once
	configDirCached string

	stateDirOnce   sync.Once
	stateDirCached string
)

// ConfigDir resolves the config directory.
// Priority: SHELLSIDE_CONFIG_DIR env > ~/.config/shellside/
func ConfigDir() string {
	configDirOnce.Do(func() {
		configDirCached = resolveDir("SHELLSIDE_CONFIG_DIR", ".config")
	})
	return configDirCached
}

// StateDir resolves the state directory.
// Priority: SHELLSIDE_STATE_DIR env > ~/.local/state/shellside/
func StateDir() string {
	stateDirOnce.Do(func() {
		stateDirCached = resolveDir("SHELLSIDE_STATE_DIR", filepath.Join(".local", "state"))
	})
	return stateDirCached
}

func resolveDir(envKey, homeRel string) string {
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, homeRel, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StatePath returns the full path to a state file (e.g. "settings.yaml").
func StatePath(filename string) string {
	return filepath.Join(StateDir(), filename)
}

// LogPath is the default log file.
func LogPath() string {
	return StatePath(appName + ".log")
}

// SocketPath returns the control socket for a session.
func SocketPath(sessionID string) string {
	if sessionID == "" {
		sessionID = "default"
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.sock", appName, sessionID))
}

// EnsureConfigDir creates the config directory if it doesn't exist and returns its path.
func EnsureConfigDir() (string, error) {
	return ensure(ConfigDir())
}

// EnsureStateDir creates the state directory if it doesn't exist and returns its path.
func EnsureStateDir() (string, error) {
	return ensure(StateDir())
}

func ensure(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create dir %s: %w", dir, err)
	}
	return dir, nil
}

// ResetForTest clears cached values so tests can re-run resolution logic.
// Only use in tests.
func ResetForTest() {
	configDirOnce = sync.Once{}
	configDirCached = ""
	stateDirOnce = sync.Once{}
	stateDirCached = ""
}
