package terminal

import (
	"regexp"
	"strings"
	"sync"
)

// ansiEscapeRegex matches CSI and OSC escape sequences
var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\].*?(?:\x07|\x1b\\)`)

// StripANSI removes ANSI escape sequences from a string
func StripANSI(s string) string {
	return ansiEscapeRegex.ReplaceAllString(s, "")
}

// DefaultScrollback is the number of lines a Buffer keeps.
const DefaultScrollback = 5000

// Buffer is a plain-text scrollback with a line-range selection and a scroll position.
type Buffer struct {
	mu      sync.Mutex
	lines   []string
	partial string
	max     int

	selFrom int // -1 when nothing is selected
	selTo   int

	top    int
	follow bool
}

// NewBuffer keeps at most max lines (DefaultScrollback when max <= 0).
func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = DefaultScrollback
	}
	return &Buffer{max: max, selFrom: -1, follow: true}
}

// Write appends output, splitting on newlines and dropping escape sequences.
func (b *Buffer) Write(p []byte) (int, error) {
	text := StripANSI(string(p))
	text = strings.ReplaceAll(text, "\r\n", "\n")

	b.mu.Lock()
	defer b.mu.Unlock()
	parts := strings.Split(b.partial+text, "\n")
	b.partial = strings.TrimRight(parts[len(parts)-1], "\r")
	for _, line := range parts[:len(parts)-1] {
		b.lines = append(b.lines, strings.TrimRight(line, "\r"))
	}
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = append([]string(nil), b.lines[over:]...)
		b.shiftSelection(over)
		b.top -= over
		if b.top < 0 {
			b.top = 0
		}
	}
	return len(p), nil
}

// shiftSelection keeps the selection on the same text after trimming; caller holds mu.
func (b *Buffer) shiftSelection(n int) {
	if b.selFrom < 0 {
		return
	}
	b.selFrom -= n
	b.selTo -= n
	if b.selTo < 0 {
		b.selFrom = -1
		return
	}
	if b.selFrom < 0 {
		b.selFrom = 0
	}
}

// Lines returns all lines including the unterminated last one.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.linesLocked()
}

func (b *Buffer) linesLocked() []string {
	out := make([]string, 0, len(b.lines)+1)
	out = append(out, b.lines...)
	if b.partial != "" {
		out = append(out, b.partial)
	}
	return out
}

// Select marks lines from..to (inclusive, any order) as selected.
func (b *Buffer) Select(from, to int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if from > to {
		from, to = to, from
	}
	n := len(b.linesLocked())
	if n == 0 || to < 0 || from >= n {
		b.selFrom = -1
		return
	}
	if from < 0 {
		from = 0
	}
	if to >= n {
		to = n - 1
	}
	b.selFrom, b.selTo = from, to
}

// SelectAll selects every line.
func (b *Buffer) SelectAll() {
	b.Select(0, 1<<30)
}

// ClearSelection drops the selection.
func (b *Buffer) ClearSelection() {
	b.mu.Lock()
	b.selFrom = -1
	b.mu.Unlock()
}

// Selection returns the selected lines joined by newlines.
func (b *Buffer) Selection() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selFrom < 0 {
		return ""
	}
	lines := b.linesLocked()
	if b.selTo >= len(lines) {
		return ""
	}
	return strings.Join(lines[b.selFrom:b.selTo+1], "\n")
}

// SelectedRange reports the selected line range.
func (b *Buffer) SelectedRange() (from, to int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selFrom, b.selTo, b.selFrom >= 0
}

// HasSelection reports a selection containing non-whitespace text.
func (b *Buffer) HasSelection() bool {
	return strings.TrimSpace(b.Selection()) != ""
}

// ScrollToTop pins the view to the first line.
func (b *Buffer) ScrollToTop() {
	b.mu.Lock()
	b.top, b.follow = 0, false
	b.mu.Unlock()
}

// ScrollToBottom follows new output again.
func (b *Buffer) ScrollToBottom() {
	b.mu.Lock()
	b.follow = true
	b.mu.Unlock()
}

// ScrollBy moves the view by delta lines; scrolling past the end follows output.
func (b *Buffer) ScrollBy(delta, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.linesLocked())
	bottom := n - height
	if bottom < 0 {
		bottom = 0
	}
	if b.follow {
		b.top = bottom
	}
	b.top += delta
	switch {
	case b.top >= bottom:
		b.top, b.follow = bottom, true
	case b.top < 0:
		b.top, b.follow = 0, false
	default:
		b.follow = false
	}
}

// Position returns the first visible line and whether the view follows output.
func (b *Buffer) Position() (top int, follow bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.top, b.follow
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.lines, b.partial = nil, ""
	b.selFrom, b.top, b.follow = -1, 0, true
	b.mu.Unlock()
}
