package views

// View is a named content region of the sidebar.
type View interface {
	Title() string
	Show()
}

// Hider is implemented by views that need to tear down when switched away from.
type Hider interface {
	Hide()
}

// Func adapts closures to View and Hider. OnHide may be nil.
type Func struct {
	Label  string
	OnShow func()
	OnHide func()
}

func (f Func) Title() string { return f.Label }

func (f Func) Show() {
	if f.OnShow != nil {
		f.OnShow()
	}
}

func (f Func) Hide() {
	if f.OnHide != nil {
		f.OnHide()
	}
}
