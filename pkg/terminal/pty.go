package terminal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/creack/pty"

	"github.com/b/shellside/pkg/logging"
)

const (
	bracketedPasteStart = "\x1b[200~"
	bracketedPasteEnd   = "\x1b[201~"
)

// Size is a terminal size in cells.
type Size struct {
	Cols int
	Rows int
}

func (s Size) winsize() *pty.Winsize {
	cols, rows := s.Cols, s.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	return &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
}

// PTYSession is a shell running in a pseudo-terminal.
type PTYSession struct {
	id      string
	profile Profile
	buf     *Buffer
	log     *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	ptmx *os.File

	connected atomic.Bool
	onOutput  func(id string)
	done      chan struct{}
}

// StartPTY launches the profile's command in a new pseudo-terminal.
// onOutput is called from the reader goroutine after new output is buffered
// and once more when the shell exits.
func StartPTY(id string, p Profile, size Size, onOutput func(id string), log *slog.Logger) (*PTYSession, error) {
	command := p.Command
	if command == "" {
		command = os.Getenv("SHELL")
	}
	if command == "" {
		command = "/bin/sh"
	}
	cmd := exec.Command(command, p.Args...)
	cmd.Dir = p.Dir
	cmd.Env = append(append([]string{}, os.Environ()...), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, p.Env...)

	ptmx, err := pty.StartWithSize(cmd, size.winsize())
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}
	s := newSession(id, p, log)
	s.cmd, s.ptmx, s.onOutput = cmd, ptmx, onOutput
	s.connected.Store(true)
	go s.readLoop(ptmx)
	return s, nil
}

func newSession(id string, p Profile, log *slog.Logger) *PTYSession {
	return &PTYSession{
		id:      id,
		profile: p,
		buf:     NewBuffer(p.Scrollback),
		log:     logging.OrDiscard(log).With("session", id),
		done:    make(chan struct{}),
	}
}

func (s *PTYSession) readLoop(r io.Reader) {
	defer close(s.done)
	chunk := make([]byte, 32*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			s.buf.Write(chunk[:n])
			s.notify()
		}
		if err != nil {
			if err != io.EOF {
				s.log.Debug("pty read ended", "err", err)
			}
			break
		}
	}
	s.connected.Store(false)
	if s.cmd != nil {
		_ = s.cmd.Wait()
	}
	s.notify()
}

func (s *PTYSession) notify() {
	if s.onOutput != nil {
		s.onOutput(s.id)
	}
}

func (s *PTYSession) ID() string { return s.id }
func (s *PTYSession) Profile() Profile { return s.profile }
func (s *PTYSession) Connected() bool { return s.connected.Load() }
func (s *PTYSession) Buffer() *Buffer { return s.buf }
func (s *PTYSession) HasSelection() bool { return s.buf.HasSelection() }
func (s *PTYSession) Selection() string { return s.buf.Selection() }
func (s *PTYSession) SelectAll() { s.buf.SelectAll() }
func (s *PTYSession) ClearSelection() { s.buf.ClearSelection() }
func (s *PTYSession) ScrollToTop() { s.buf.ScrollToTop() }
func (s *PTYSession) ScrollToBottom() { s.buf.ScrollToBottom() }
func (s *PTYSession) Lines() []string { return s.buf.Lines() }
func (s *PTYSession) Done() <-chan struct{} { return s.done }

// Send writes raw input to the shell.
func (s *PTYSession) Send(text string) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ptmx == nil {
		return ErrNotConnected
	}
	_, err := io.WriteString(s.ptmx, text)
	return err
}

// Paste sends text wrapped in bracketed-paste markers so multiline input
// reaches the shell as one edit instead of being executed line by line.
func (s *PTYSession) Paste(text string) error {
	if text == "" {
		return nil
	}
	return s.Send(bracketedPaste(text))
}

func bracketedPaste(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, bracketedPasteEnd, "")
	text = strings.ReplaceAll(text, "\n", "\r")
	return bracketedPasteStart + text + bracketedPasteEnd
}

// Resize updates the pseudo-terminal window size.
func (s *PTYSession) Resize(size Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ptmx == nil {
		return ErrNotConnected
	}
	return pty.Setsize(s.ptmx, size.winsize())
}

// Close kills the shell and releases the pseudo-terminal.
func (s *PTYSession) Close() error {
	s.mu.Lock()
	ptmx := s.ptmx
	s.ptmx = nil
	s.mu.Unlock()
	if ptmx == nil {
		return nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.connected.Store(false)
	return ptmx.Close()
}
