package commands

import (
	"context"
	"errors"

	"github.com/b/shellside/pkg/clipboard"
	"github.com/b/shellside/pkg/terminal"
)

// Default command ids.
const (
	CmdCopy           = "copy"
	CmdPaste          = "paste"
	CmdSelectAll      = "select-all"
	CmdClear          = "clear"
	CmdScrollToTop    = "scroll-to-top"
	CmdScrollToBottom = "scroll-to-bottom"
)

// Deps are the collaborators the default commands act through.
type Deps struct {
	Clipboard clipboard.Clipboard
	Shell     terminal.ShellWriter
}

func hasTerminal(c Context) bool { return c.Terminal != nil }
func hasSelection(c Context) bool { return c.Terminal != nil && c.Terminal.HasSelection() }

// RegisterDefaults adds the built-in terminal commands to r.
func RegisterDefaults(r *Registry, d Deps) error {
	cmds := []Command{
		{
			ID: CmdCopy, Label: "Copy", Icon: "⧉",
			IsEnabled: hasSelection,
			Execute: func(_ context.Context, c Context) error {
				if d.Clipboard == nil {
					return errors.New("no clipboard available")
				}
				return d.Clipboard.Copy(c.Terminal.Selection())
			},
		},
		{
			ID: CmdPaste, Label: "Paste", Icon: "⎘",
			IsEnabled: Context.Connected,
			Execute: func(_ context.Context, c Context) error {
				if d.Clipboard == nil {
					return errors.New("no clipboard available")
				}
				text, err := d.Clipboard.Paste()
				if err != nil {
					return err
				}
				return c.Terminal.Paste(text)
			},
		},
		{
			ID: CmdSelectAll, Label: "Select All",
			IsEnabled: hasTerminal,
			Execute: func(_ context.Context, c Context) error {
				c.Terminal.SelectAll()
				return nil
			},
		},
		{},
		{
			ID: CmdClear, Label: "Clear",
			IsEnabled: Context.Connected,
			Execute: func(ctx context.Context, c Context) error {
				if d.Shell == nil {
					return terminal.ErrNotConnected
				}
				return d.Shell.WriteToShell(ctx, c.Terminal.ID(), "clear\r")
			},
		},
		{},
		{
			ID: CmdScrollToTop, Label: "Scroll to Top", Icon: "⤒",
			IsEnabled: hasTerminal,
			Execute: func(_ context.Context, c Context) error {
				c.Terminal.ScrollToTop()
				return nil
			},
		},
		{
			ID: CmdScrollToBottom, Label: "Scroll to Bottom", Icon: "⤓",
			IsEnabled: hasTerminal,
			Execute: func(_ context.Context, c Context) error {
				c.Terminal.ScrollToBottom()
				return nil
			},
		},
	}

	for _, cmd := range cmds {
		if cmd.ID == "" {
			r.AddSeparator()
			continue
		}
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}
