package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	y, err := OpenYAML(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	sq, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{
		"memory": NewMemory(nil),
		"yaml":   y,
		"sqlite": sq,
	}
}

func TestBackends_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Get(ctx, KeyFilesWidth)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, SetInt(ctx, s, KeyFilesWidth, 320))
			require.NoError(t, SetInt(ctx, s, KeyFilesWidth, 340))
			n, ok, err := GetInt(ctx, s, KeyFilesWidth)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 340, n)

			require.NoError(t, SetBool(ctx, s, KeySidebarCollapsed, true))
			b, ok, err := GetBool(ctx, s, KeySidebarCollapsed)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.True(t, b)
		})
	}
}

func TestGetInt_BadValue(t *testing.T) {
	s := NewMemory(map[string]string{KeyProfilesWidth: "wide"})
	_, ok, err := GetInt(context.Background(), s, KeyProfilesWidth)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestYAMLFile_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "settings.yaml")
	ctx := context.Background()

	s, err := OpenYAML(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeySelectToCopy, "true"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "terminal.select_to_copy")

	again, err := OpenYAML(path)
	require.NoError(t, err)
	v, ok, err := again.Get(ctx, KeySelectToCopy)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestYAMLFile_BadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0644))
	_, err := OpenYAML(path)
	assert.Error(t, err)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory(nil)
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Set(context.Background(), "k", "v"), ErrClosed)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "etcd"})
	assert.Error(t, err)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Options{Backend: BackendMemory})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "v"))
}
