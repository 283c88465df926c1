package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/b/shellside/pkg/perf"
	"github.com/b/shellside/pkg/tmux"
)

// Backend names accepted by Open.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendTmux   = "tmux"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string // file for yaml/sqlite
	Logger  *slog.Logger
}

// Open builds the configured backend wrapped with timing logs.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case "", BackendYAML:
		s, err = OpenYAML(opts.Path)
	case BackendSQLite:
		s, err = OpenSQLite(ctx, opts.Path)
	case BackendTmux:
		s = tmux.NewOptionStore()
	case BackendMemory:
		s = NewMemory(nil)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Timed(s, opts.Logger), nil
}

type timed struct {
	Store
	log *slog.Logger
}

// Timed logs the duration of every Get and Set.
func Timed(s Store, log *slog.Logger) Store {
	if log == nil {
		return s
	}
	return &timed{Store: s, log: log}
}

func (t *timed) Get(ctx context.Context, key string) (string, bool, error) {
	timer := perf.Start(t.log, "store.get")
	v, ok, err := t.Store.Get(ctx, key)
	timer.Stop("key", key, "found", ok)
	return v, ok, err
}

func (t *timed) Set(ctx context.Context, key, value string) error {
	timer := perf.Start(t.log, "store.set")
	err := t.Store.Set(ctx, key, value)
	timer.Stop("key", key, "value", value)
	return err
}
