package surface

// EventKind is the kind of pointer event delivered by the terminal pane.
type EventKind int

const (
	MouseDown EventKind = iota
	MouseUp
	ContextMenu
)

func (k EventKind) String() string {
	switch k {
	case MouseDown:
		return "mousedown"
	case MouseUp:
		return "mouseup"
	case ContextMenu:
		return "contextmenu"
	default:
		return "unknown"
	}
}

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Event is a pointer event in screen cells.
type Event struct {
	Kind   EventKind
	Button Button
	X, Y   int

	prevented bool
}

// PreventDefault suppresses the host's own handling of the event.
func (e *Event) PreventDefault() { e.prevented = true }

func (e *Event) DefaultPrevented() bool { return e.prevented }
