package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndDelete(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalFileStorage(base)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }

	path, err := store.Save(strings.NewReader("PK..."), "Абоненты.XLSX", "imports")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "imports/2026/10/17/2026-10-17-"), path)
	assert.True(t, strings.HasSuffix(path, ".xlsx"), path)

	raw, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(path)))
	require.NoError(t, err)
	assert.Equal(t, "PK...", string(raw))

	require.NoError(t, store.Delete(path))
	_, err = os.Stat(filepath.Join(base, filepath.FromSlash(path)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(path))
}

func TestRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Delete("../etc/passwd"))
	_, err = store.Save(strings.NewReader("x"), "a.xlsx", "../outside")
	assert.Error(t, err)
}
