package main

import (
	"context"
	"strings"

	"github.com/b/shellside/pkg/terminal"
)

// shellRouter types into local sessions by id and into tmux panes by pane id.
// An empty id targets the active local session.
type shellRouter struct {
	local *terminal.Manager
	panes terminal.ShellWriter
}

func (r shellRouter) WriteToShell(ctx context.Context, id, text string) error {
	if id == "" {
		s := r.local.Active()
		if s == nil {
			return terminal.ErrNoSession
		}
		id = s.ID()
	}
	if strings.HasPrefix(id, "%") && r.panes != nil {
		return r.panes.WriteToShell(ctx, id, text)
	}
	return r.local.WriteToShell(ctx, id, text)
}
