package termmenu

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b/shellside/pkg/commands"
	"github.com/b/shellside/pkg/menu"
	"github.com/b/shellside/pkg/notify"
	"github.com/b/shellside/pkg/store"
	"github.com/b/shellside/pkg/surface"
	"github.com/b/shellside/pkg/terminal"
)

type fakeSession struct {
	mu        sync.Mutex
	connected bool
	selection string
	pasted    []string
}

func (f *fakeSession) ID() string { return "s1" }
func (f *fakeSession) Connected() bool { return f.connected }
func (f *fakeSession) HasSelection() bool { return f.selection != "" }
func (f *fakeSession) Selection() string { return f.selection }
func (f *fakeSession) SelectAll() {}
func (f *fakeSession) ClearSelection() {}
func (f *fakeSession) ScrollToTop() {}
func (f *fakeSession) ScrollToBottom() {}
func (f *fakeSession) Lines() []string { return nil }

func (f *fakeSession) Paste(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pasted = append(f.pasted, text)
	return nil
}

func (f *fakeSession) Pasted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pasted...)
}

type accessor struct{ s terminal.Session }

func (a accessor) Active() terminal.Session { return a.s }

type fakeClipboard struct {
	mu     sync.Mutex
	text   string
	copies int
	err    error
}

func (f *fakeClipboard) Copy(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.copies++
	return nil
}

func (f *fakeClipboard) Paste() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeClipboard) Copies() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.copies
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Notify(level notify.Level, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, level.String()+": "+msg)
}

func (f *fakeNotifier) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

type harness struct {
	ctrl     *Controller
	disp     *Dispatcher
	session  *fakeSession
	clip     *fakeClipboard
	notifier *fakeNotifier
	menus    *menu.Renderer
	reg      *commands.Registry
	st       *store.Memory
}

func newHarness(t *testing.T, selectToCopy bool) *harness {
	t.Helper()
	h := &harness{
		disp:     NewDispatcher(),
		session:  &fakeSession{connected: true},
		clip:     &fakeClipboard{},
		notifier: &fakeNotifier{},
		menus:    menu.NewRenderer(menu.DefaultStyles()),
		reg:      commands.NewRegistry(nil),
		st:       store.NewMemory(nil),
	}
	if selectToCopy {
		require.NoError(t, store.SetBool(context.Background(), h.st, store.KeySelectToCopy, true))
	}
	require.NoError(t, commands.RegisterDefaults(h.reg, commands.Deps{Clipboard: h.clip}))
	h.ctrl = New(Options{
		Store:        h.st,
		Locate:       func() (Target, bool) { return h.disp, true },
		Terminals:    accessor{h.session},
		Commands:     h.reg,
		Menus:        h.menus,
		Clipboard:    h.clip,
		Notifier:     h.notifier,
		SettleDelay:  5 * time.Millisecond,
		BindInterval: time.Millisecond,
	})
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.ctrl.Start(context.Background())
	select {
	case <-h.ctrl.Ready():
	case <-time.After(time.Second):
		t.Fatal("controller never became ready")
	}
}

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	var got []string
	removeA := d.AddListener(surface.ContextMenu, func(*surface.Event) { got = append(got, "a") })
	d.AddListener(surface.ContextMenu, func(*surface.Event) { got = append(got, "b") })
	d.AddListener(surface.MouseUp, func(*surface.Event) { got = append(got, "up") })
	assert.Equal(t, 3, d.Len())

	d.Dispatch(&surface.Event{Kind: surface.ContextMenu})
	assert.Equal(t, []string{"a", "b"}, got)

	removeA()
	removeA()
	assert.Equal(t, 2, d.Len())

	got = nil
	d.Dispatch(&surface.Event{Kind: surface.ContextMenu})
	assert.Equal(t, []string{"b"}, got)
}

func TestStart_BindsStandard(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	bound, mode := h.ctrl.State()
	assert.True(t, bound)
	assert.Equal(t, ModeStandard, mode)
	assert.Equal(t, 1, h.disp.Len())
}

func TestStart_RetriesUntilSurfaceExists(t *testing.T) {
	h := newHarness(t, false)
	var calls atomic.Int32
	h.ctrl.opts.Locate = func() (Target, bool) {
		if calls.Add(1) < 3 {
			return nil, false
		}
		return h.disp, true
	}
	h.start(t)

	bound, _ := h.ctrl.State()
	assert.True(t, bound)
	assert.Equal(t, int32(3), calls.Load())
}

func TestStart_GivesUpAfterBoundedAttempts(t *testing.T) {
	h := newHarness(t, false)
	var calls atomic.Int32
	h.ctrl.opts.Locate = func() (Target, bool) {
		calls.Add(1)
		return nil, false
	}
	h.start(t)

	bound, _ := h.ctrl.State()
	assert.False(t, bound)
	assert.Equal(t, int32(DefaultBindAttempts), calls.Load())
}

func TestSelectToCopy_CopiesAfterSettle(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	_, mode := h.ctrl.State()
	require.Equal(t, ModeSelectToCopy, mode)
	assert.Equal(t, 2, h.disp.Len())

	h.session.selection = "make test"
	h.disp.Dispatch(&surface.Event{Kind: surface.MouseUp, Button: surface.ButtonRight})
	h.disp.Dispatch(&surface.Event{Kind: surface.MouseUp, Button: surface.ButtonLeft})
	h.ctrl.Wait()

	text, copies := h.clip.Copies()
	assert.Equal(t, "make test", text)
	assert.Equal(t, 1, copies)
}

func TestSelectToCopy_EmptySelectionNotCopied(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)

	h.disp.Dispatch(&surface.Event{Kind: surface.MouseUp, Button: surface.ButtonLeft})
	h.ctrl.Wait()

	_, copies := h.clip.Copies()
	assert.Equal(t, 0, copies)
}

func TestSelectToCopy_RightClickPastes(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	h.clip.text = "echo hi"

	ev := &surface.Event{Kind: surface.ContextMenu, Button: surface.ButtonRight}
	h.disp.Dispatch(ev)
	h.ctrl.Wait()

	assert.True(t, ev.DefaultPrevented())
	assert.Equal(t, []string{"echo hi"}, h.session.Pasted())
	_, open := h.menus.Open()
	assert.False(t, open)
}

func TestSelectToCopy_DisconnectedDoesNotPaste(t *testing.T) {
	h := newHarness(t, true)
	h.session.connected = false
	h.start(t)
	h.clip.text = "echo hi"

	h.disp.Dispatch(&surface.Event{Kind: surface.ContextMenu, Button: surface.ButtonRight})
	h.ctrl.Wait()

	assert.Empty(t, h.session.Pasted())
}

func TestSelectToCopy_PasteFailureNotifies(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	h.clip.err = errors.New("clipboard unavailable")

	h.disp.Dispatch(&surface.Event{Kind: surface.ContextMenu, Button: surface.ButtonRight})
	h.ctrl.Wait()

	assert.Equal(t, []string{"error: paste failed: clipboard unavailable"}, h.notifier.Messages())
}

// rowY is the screen line of item i in a menu rendered at y.
func rowY(y, i int) int { return y + 1 + i }

func TestStandard_MenuRunsCommandThenDismisses(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.clip.text = "ls -la"

	ev := &surface.Event{Kind: surface.ContextMenu, Button: surface.ButtonRight, X: 4, Y: 2}
	h.disp.Dispatch(ev)
	require.True(t, ev.DefaultPrevented())

	m, ok := h.menus.Open()
	require.True(t, ok)
	items := m.Items()
	require.Equal(t, commands.CmdPaste, items[1].ID)
	assert.False(t, items[0].Enabled, "copy needs a selection")

	require.True(t, h.menus.Click(6, rowY(2, 1)))
	h.ctrl.Wait()

	assert.Equal(t, []string{"ls -la"}, h.session.Pasted())
	assert.True(t, m.Closed())
}

func TestStandard_DisabledItemIsInert(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	h.disp.Dispatch(&surface.Event{Kind: surface.ContextMenu, X: 4, Y: 2})
	m, ok := h.menus.Open()
	require.True(t, ok)

	h.menus.Click(6, rowY(2, 0))
	h.ctrl.Wait()

	assert.False(t, m.Closed())
	_, copies := h.clip.Copies()
	assert.Equal(t, 0, copies)
}

func TestStandard_CommandFailureNotifies(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.clip.err = errors.New("no clipboard")

	h.disp.Dispatch(&surface.Event{Kind: surface.ContextMenu, X: 0, Y: 0})
	h.menus.Click(2, rowY(0, 1))
	h.ctrl.Wait()

	msgs := h.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "paste failed")
	_, open := h.menus.Open()
	assert.False(t, open)
}

func TestUpdateSettings_Rebinds(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	require.Equal(t, 1, h.disp.Len())

	require.NoError(t, store.SetBool(context.Background(), h.st, store.KeySelectToCopy, true))
	require.NoError(t, h.ctrl.UpdateSettings(context.Background()))

	_, mode := h.ctrl.State()
	assert.Equal(t, ModeSelectToCopy, mode)
	assert.Equal(t, 2, h.disp.Len())

	require.NoError(t, store.SetBool(context.Background(), h.st, store.KeySelectToCopy, false))
	require.NoError(t, h.ctrl.UpdateSettings(context.Background()))
	assert.Equal(t, 1, h.disp.Len())
}

func TestDestroy_RemovesListeners(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	require.Equal(t, 2, h.disp.Len())

	h.ctrl.Destroy()
	bound, _ := h.ctrl.State()
	assert.False(t, bound)
	assert.Equal(t, 0, h.disp.Len())

	h.ctrl.Destroy()
}

func TestStandard_AfterCommandHook(t *testing.T) {
	h := newHarness(t, false)
	done := make(chan string, 1)
	h.ctrl.opts.AfterCommand = func(id string, err error) {
		assert.NoError(t, err)
		done <- id
	}
	h.start(t)

	h.disp.Dispatch(&surface.Event{Kind: surface.ContextMenu, X: 0, Y: 0})
	h.menus.Click(2, rowY(0, 2))
	h.ctrl.Wait()

	select {
	case id := <-done:
		assert.Equal(t, commands.CmdSelectAll, id)
	default:
		t.Fatal("hook not called")
	}
}
