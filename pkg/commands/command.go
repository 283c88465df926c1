// Package commands holds the ordered set of actions offered by the terminal
// context menu.
package commands

import (
	"context"
	"errors"

	"github.com/b/shellside/pkg/surface"
	"github.com/b/shellside/pkg/terminal"
)

var (
	ErrMissingID       = errors.New("command id is required")
	ErrMissingLabel    = errors.New("command label is required")
	ErrMissingExecute  = errors.New("command execute is required")
	ErrDuplicateID     = errors.New("command id already registered")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrCommandDisabled = errors.New("command is disabled")
)

// Context is what a command sees when it is evaluated or run.
// Terminal may be nil.
type Context struct {
	Terminal terminal.Session
	Event    *surface.Event
}

// Connected reports an active, connected session.
func (c Context) Connected() bool {
	return c.Terminal != nil && c.Terminal.Connected()
}

// Command is one context menu action.
type Command struct {
	ID    string
	Label string
	Icon  string
	// Execute runs the action; it may block.
	Execute func(ctx context.Context, c Context) error
	// IsEnabled reports whether the action applies; nil means always.
	IsEnabled func(c Context) bool
}

// Item is a built menu entry.
type Item struct {
	ID        string
	Label     string
	Icon      string
	Enabled   bool
	Separator bool
}
