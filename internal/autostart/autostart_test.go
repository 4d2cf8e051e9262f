package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTogglesEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autostart", "clipdeck.entry")
	m := NewWithItem(FileEntry{
		Path:   path,
		Render: func(argv []string) string { return strings.Join(argv, " ") },
		Argv:   []string{"/usr/local/bin/clipdeck", "serve"},
	})

	assert.False(t, m.Enabled())
	require.NoError(t, m.Set(true))
	assert.True(t, m.Enabled())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/clipdeck serve", string(data))

	require.NoError(t, m.Set(false))
	assert.False(t, m.Enabled())
	require.NoError(t, m.Set(false), "disabling twice is fine")
}

type failingItem struct{ err error }

func (f failingItem) IsEnabled() bool { return false }
func (f failingItem) Enable() error   { return f.err }
func (f failingItem) Disable() error  { return f.err }

func TestSetWrapsItemErrors(t *testing.T) {
	boom := errors.New("read-only home")
	m := NewWithItem(failingItem{err: boom})
	err := m.Set(true)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "enable login item")
	assert.ErrorIs(t, m.Set(false), boom)
}
