package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/b/shellside/pkg/logging"
)

type entry struct {
	cmd       Command
	separator bool
}

// Registry keeps commands and separators in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	byID    map[string]int
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		byID: make(map[string]int),
		log:  logging.OrDiscard(log),
	}
}

// Register appends cmd. Invalid or duplicate commands are rejected.
func (r *Registry) Register(cmd Command) error {
	switch {
	case cmd.ID == "":
		return ErrMissingID
	case cmd.Label == "":
		return fmt.Errorf("%w: %s", ErrMissingLabel, cmd.ID)
	case cmd.Execute == nil:
		return fmt.Errorf("%w: %s", ErrMissingExecute, cmd.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[cmd.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, cmd.ID)
	}
	r.byID[cmd.ID] = len(r.entries)
	r.entries = append(r.entries, entry{cmd: cmd})
	return nil
}

// AddSeparator appends a separator.
func (r *Registry) AddSeparator() {
	r.mu.Lock()
	r.entries = append(r.entries, entry{separator: true})
	r.mu.Unlock()
}

// Unregister removes the command with id.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return false
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.entries); i++ {
		if !r.entries[i].separator {
			r.byID[r.entries[i].cmd.ID] = i
		}
	}
	return true
}

// Len counts registered commands, not separators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Get looks up a command.
func (r *Registry) Get(id string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return Command{}, false
	}
	return r.entries[idx].cmd, true
}

// Build returns the menu items for c. Separators never lead, trail or repeat.
func (r *Registry) Build(c Context) []Item {
	r.mu.RLock()
	entries := append([]entry(nil), r.entries...)
	r.mu.RUnlock()

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.separator {
			if len(items) == 0 || items[len(items)-1].Separator {
				continue
			}
			items = append(items, Item{Separator: true})
			continue
		}
		items = append(items, Item{
			ID:      e.cmd.ID,
			Label:   e.cmd.Label,
			Icon:    e.cmd.Icon,
			Enabled: r.enabled(e.cmd, c),
		})
	}
	if n := len(items); n > 0 && items[n-1].Separator {
		items = items[:n-1]
	}
	return items
}

func (r *Registry) enabled(cmd Command, c Context) (ok bool) {
	if cmd.IsEnabled == nil {
		return true
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Warn("command predicate panicked", "command", cmd.ID, "panic", p)
			ok = false
		}
	}()
	return cmd.IsEnabled(c)
}

// Execute runs the command with id if it is enabled for c.
func (r *Registry) Execute(ctx context.Context, id string, c Context) error {
	cmd, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	if !r.enabled(cmd, c) {
		return fmt.Errorf("%w: %s", ErrCommandDisabled, id)
	}
	r.log.Debug("executing command", "command", id)
	if err := cmd.Execute(ctx, c); err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return nil
}
