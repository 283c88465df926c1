// Package tmux talks to a running tmux server: user options double as a
// settings store, and send-keys delivers text to shells running in panes.
package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a tmux command and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// ExecRunner runs the real tmux binary.
func ExecRunner(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "tmux", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("tmux %s: %w", args[0], err)
	}
	return out, nil
}

// OptionName maps a settings key to a tmux user option:
// "sidebar.files_width" -> "@shellside_sidebar_files_width".
func OptionName(key string) string {
	return "@shellside_" + strings.NewReplacer(".", "_", "-", "_").Replace(key)
}

// OptionStore persists settings as session user options.
type OptionStore struct {
	run Runner
}

// NewOptionStore uses the tmux binary on PATH.
func NewOptionStore() *OptionStore {
	return &OptionStore{run: ExecRunner}
}

// NewOptionStoreWithRunner is used by tests.
func NewOptionStoreWithRunner(run Runner) *OptionStore {
	return &OptionStore{run: run}
}

// Get reads an option. An unset option comes back empty and reports ok=false.
func (s *OptionStore) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.run(ctx, "show-options", "-v", "-q", OptionName(key))
	if err != nil {
		return "", false, err
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Set writes an option; an empty value unsets it.
func (s *OptionStore) Set(ctx context.Context, key, value string) error {
	if value == "" {
		_, err := s.run(ctx, "set-option", "-u", OptionName(key))
		return err
	}
	_, err := s.run(ctx, "set-option", OptionName(key), value)
	return err
}

func (s *OptionStore) Close() error { return nil }

// PaneWriter sends literal text to a pane; the session id is the pane id (e.g. "%12").
type PaneWriter struct {
	run Runner
}

// NewPaneWriter uses the tmux binary on PATH.
func NewPaneWriter() *PaneWriter {
	return &PaneWriter{run: ExecRunner}
}

// NewPaneWriterWithRunner is used by tests.
func NewPaneWriterWithRunner(run Runner) *PaneWriter {
	return &PaneWriter{run: run}
}

// WriteToShell types text into the pane without key-name translation.
func (w *PaneWriter) WriteToShell(ctx context.Context, paneID, text string) error {
	if paneID == "" {
		return fmt.Errorf("send-keys: empty pane id")
	}
	_, err := w.run(ctx, "send-keys", "-t", paneID, "-l", "--", text)
	return err
}
