// Package clipboard copies and pastes text through the system clipboard,
// falling back to OSC 52 escape sequences when no clipboard tool is available.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/b/shellside/pkg/logging"
)

var ErrPasteUnsupported = errors.New("paste is not supported by this clipboard")

// Clipboard is the text clipboard used by copy and paste commands.
type Clipboard interface {
	Copy(text string) error
	Paste() (string, error)
}

var (
	systemWrite       = clipboard.WriteAll
	systemRead        = clipboard.ReadAll
	systemUnsupported = func() bool { return clipboard.Unsupported }
)

// System uses the platform clipboard tool (pbcopy, xclip, wl-copy, ...).
type System struct{}

func (System) Copy(text string) error { return systemWrite(text) }
func (System) Paste() (string, error) { return systemRead() }

// OSC52 asks the host terminal to set its clipboard. Reading is not possible.
type OSC52 struct {
	Out  io.Writer
	Tmux bool
}

func (o OSC52) Copy(text string) error {
	seq := osc52.New(text)
	if o.Tmux {
		seq = seq.Tmux()
	}
	out := o.Out
	if out == nil {
		out = os.Stderr
	}
	if _, err := seq.WriteTo(out); err != nil {
		return fmt.Errorf("write osc52: %w", err)
	}
	return nil
}

func (OSC52) Paste() (string, error) { return "", ErrPasteUnsupported }

// Fallback tries Primary first and uses Secondary when it fails.
type Fallback struct {
	Primary   Clipboard
	Secondary Clipboard
	Logger    *slog.Logger
}

func (f Fallback) Copy(text string) error {
	err := f.Primary.Copy(text)
	if err == nil {
		return nil
	}
	logging.OrDiscard(f.Logger).Debug("primary clipboard copy failed, using fallback", "err", err)
	if err2 := f.Secondary.Copy(text); err2 != nil {
		return errors.Join(err, err2)
	}
	return nil
}

func (f Fallback) Paste() (string, error) {
	text, err := f.Primary.Paste()
	if err == nil {
		return text, nil
	}
	text, err2 := f.Secondary.Paste()
	if err2 != nil {
		return "", errors.Join(err, err2)
	}
	return text, nil
}

// Options selects the clipboard backend.
type Options struct {
	// Backend is "auto", "system" or "osc52".
	Backend string
	Out     io.Writer
	Logger  *slog.Logger
}

// New returns the clipboard for opts. In auto mode the system clipboard is
// used when a tool is installed, with OSC 52 as the fallback for copy.
func New(opts Options) (Clipboard, error) {
	osc := OSC52{Out: opts.Out, Tmux: os.Getenv("TMUX") != ""}
	switch opts.Backend {
	case "", "auto":
		if systemUnsupported() {
			return osc, nil
		}
		return Fallback{Primary: System{}, Secondary: osc, Logger: opts.Logger}, nil
	case "system":
		return System{}, nil
	case "osc52":
		return osc, nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", opts.Backend)
	}
}

// Backend names the backend c uses.
func Backend(c Clipboard) string {
	switch c.(type) {
	case System:
		return "system"
	case OSC52:
		return "osc52"
	case Fallback:
		return "system+osc52"
	default:
		return "custom"
	}
}
