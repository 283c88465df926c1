package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// keySequences maps named keys to the bytes a terminal sends for them.
var keySequences = map[tea.KeyType]string{
	tea.KeyEnter:     "\r",
	tea.KeyTab:       "\t",
	tea.KeyBackspace: "\x7f",
	tea.KeyEsc:       "\x1b",
	tea.KeySpace:     " ",
	tea.KeyUp:        "\x1b[A",
	tea.KeyDown:      "\x1b[B",
	tea.KeyRight:     "\x1b[C",
	tea.KeyLeft:      "\x1b[D",
	tea.KeyHome:      "\x1b[H",
	tea.KeyEnd:       "\x1b[F",
	tea.KeyPgUp:      "\x1b[5~",
	tea.KeyPgDown:    "\x1b[6~",
	tea.KeyDelete:    "\x1b[3~",
	tea.KeyShiftTab:  "\x1b[Z",
	tea.KeyCtrlA:     "\x01",
	tea.KeyCtrlC:     "\x03",
	tea.KeyCtrlD:     "\x04",
	tea.KeyCtrlE:     "\x05",
	tea.KeyCtrlK:     "\x0b",
	tea.KeyCtrlL:     "\x0c",
	tea.KeyCtrlR:     "\x12",
	tea.KeyCtrlU:     "\x15",
	tea.KeyCtrlW:     "\x17",
	tea.KeyCtrlZ:     "\x1a",
}

// keyBytes returns what to write to a shell for msg, or "" if the key has
// no terminal encoding.
func keyBytes(msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes {
		s := string(msg.Runes)
		if msg.Alt {
			s = "\x1b" + s
		}
		if msg.Paste {
			return "\x1b[200~" + s + "\x1b[201~"
		}
		return s
	}
	return keySequences[msg.Type]
}

// Waker returns a non-blocking func that delivers msg to p. Calls made while
// a delivery is pending are coalesced. Safe to call from inside Update.
func Waker(p *tea.Program, msg tea.Msg) func() {
	var pending atomic.Bool
	return func() {
		if !pending.CompareAndSwap(false, true) {
			return
		}
		go func() {
			pending.Store(false)
			p.Send(msg)
		}()
	}
}
