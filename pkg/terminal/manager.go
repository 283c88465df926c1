package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/b/shellside/pkg/logging"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Size     Size
	Logger   *slog.Logger
	OnOutput func(id string)
	// Scrollback is the line limit for profiles that do not set one.
	Scrollback int

	// Start overrides how sessions are launched.
	Start func(id string, p Profile, size Size, onOutput func(string), log *slog.Logger) (*PTYSession, error)
}

// Manager owns the open sessions and tracks the active one.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*PTYSession
	order    []string
	active   string
	size     Size
	lines    int
	onOutput func(id string)
	start    func(id string, p Profile, size Size, onOutput func(string), log *slog.Logger) (*PTYSession, error)
	log      *slog.Logger
}

func NewManager(opts ManagerOptions) *Manager {
	start := opts.Start
	if start == nil {
		start = StartPTY
	}
	return &Manager{
		sessions: make(map[string]*PTYSession),
		size:     opts.Size,
		lines:    opts.Scrollback,
		onOutput: opts.OnOutput,
		start:    start,
		log:      logging.OrDiscard(opts.Logger),
	}
}

// Open launches a session for the profile and makes it active.
func (m *Manager) Open(p Profile) (*PTYSession, error) {
	id := uuid.NewString()
	if p.Scrollback <= 0 {
		p.Scrollback = m.lines
	}
	m.mu.Lock()
	size := m.size
	m.mu.Unlock()

	s, err := m.start(id, p, size, m.onOutput, m.log)
	if err != nil {
		return nil, fmt.Errorf("open profile %q: %w", p.Name, err)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.order = append(m.order, id)
	m.active = id
	m.mu.Unlock()
	m.log.Info("terminal session opened", "session", id, "profile", p.Name)
	return s, nil
}

// Active returns the active session, or nil when there is none.
func (m *Manager) Active() Session {
	if s := m.ActivePTY(); s != nil {
		return s
	}
	return nil
}

// ActivePTY is Active with the concrete type.
func (m *Manager) ActivePTY() *PTYSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[m.active]
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*PTYSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// SetActive makes id the active session.
func (m *Manager) SetActive(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	m.active = id
	return true
}

// Sessions returns the open sessions in launch order.
func (m *Manager) Sessions() []*PTYSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*PTYSession, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id])
	}
	return out
}

// WriteToShell sends raw text to the session's shell.
func (m *Manager) WriteToShell(_ context.Context, sessionID, text string) error {
	s, ok := m.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}
	return s.Send(text)
}

// Resize applies size to every session and to sessions opened later.
func (m *Manager) Resize(size Size) {
	m.mu.Lock()
	m.size = size
	sessions := make([]*PTYSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		if err := s.Resize(size); err != nil && err != ErrNotConnected {
			m.log.Debug("resize failed", "session", s.ID(), "err", err)
		}
	}
}

// CloseSession closes one session; the most recently opened survivor becomes active.
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	delete(m.sessions, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.active == id {
		m.active = ""
		if n := len(m.order); n > 0 {
			m.active = m.order[n-1]
		}
	}
	m.mu.Unlock()
	return s.Close()
}

// Close closes every session.
func (m *Manager) Close() {
	for _, s := range m.Sessions() {
		if err := m.CloseSession(s.ID()); err != nil {
			m.log.Debug("close session", "session", s.ID(), "err", err)
		}
	}
}
