// Package store is the key/value persistence gateway for sidebar widths and
// terminal menu settings. Every backend is best-effort: callers log failures
// and keep their in-memory state.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Keys persisted by shellside.
const (
	KeySidebarCollapsed = "sidebar.collapsed"
	KeyProfilesWidth    = "sidebar.profiles_width"
	KeyFilesWidth       = "sidebar.files_width"
	KeySelectToCopy     = "terminal.select_to_copy"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is a string key/value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// GetInt reads an integer value. Missing keys report ok=false.
func GetInt(ctx context.Context, s Store, key string) (int, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("key %s: %w", key, err)
	}
	return n, true, nil
}

// GetBool reads a boolean value. Missing keys report ok=false.
func GetBool(ctx context.Context, s Store, key string) (bool, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("key %s: %w", key, err)
	}
	return b, true, nil
}

// SetInt writes an integer value.
func SetInt(ctx context.Context, s Store, key string, v int) error {
	return s.Set(ctx, key, strconv.Itoa(v))
}

// SetBool writes a boolean value.
func SetBool(ctx context.Context, s Store, key string, v bool) error {
	return s.Set(ctx, key, strconv.FormatBool(v))
}
