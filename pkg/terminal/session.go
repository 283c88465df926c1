// Package terminal provides the terminal sessions the context menu acts on:
// PTY-backed shells with a scrollback buffer, line selection and a
// multiline-safe paste entry point.
package terminal

import (
	"context"
	"errors"
)

var (
	ErrNoSession    = errors.New("no active terminal session")
	ErrNotConnected = errors.New("terminal session is not connected")
)

// Session is what the context menu needs from a terminal.
type Session interface {
	ID() string
	Connected() bool
	HasSelection() bool
	Selection() string
	SelectAll()
	ClearSelection()
	ScrollToTop()
	ScrollToBottom()
	Lines() []string
	// Paste sends text as a single bracketed paste.
	Paste(text string) error
}

// Accessor returns the active session, or nil.
type Accessor interface {
	Active() Session
}

// ShellWriter writes raw text to the shell behind a session.
type ShellWriter interface {
	WriteToShell(ctx context.Context, sessionID, text string) error
}

// Profile describes a shell to launch.
type Profile struct {
	Name    string   `yaml:"name" koanf:"name"`
	Command string   `yaml:"command" koanf:"command"`
	Args    []string `yaml:"args,omitempty" koanf:"args"`
	Dir     string   `yaml:"dir,omitempty" koanf:"dir"`
	Env     []string `yaml:"env,omitempty" koanf:"env"`
	// Scrollback overrides the manager's line limit for this profile.
	Scrollback int `yaml:"scrollback,omitempty" koanf:"scrollback"`
}
