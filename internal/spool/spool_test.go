package spool

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveReadRemove(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	content := []byte("%PDF-1.4 test document")
	f, err := store.Save(bytes.NewReader(content), "order-42.pdf")
	require.NoError(t, err)

	assert.Equal(t, "order-42.pdf", f.Name)
	assert.Equal(t, int64(len(content)), f.Size)
	assert.True(t, strings.HasSuffix(f.Path, ".pdf"))

	got, err := f.Bytes()
	require.NoError(t, err)
	assert.Equal(t, content, got)

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_OriginalNameNeverInPath(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	f, err := store.Save(bytes.NewReader([]byte("x")), "../../etc/passwd")
	require.NoError(t, err)
	defer f.Remove()

	rel, err := filepath.Rel(dir, f.Path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "spool path escaped the spool dir: %s", f.Path)
}

func TestFile_RemoveTwice(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	f, err := store.Save(bytes.NewReader([]byte("x")), "a.pdf")
	require.NoError(t, err)

	require.NoError(t, f.Remove())
	require.NoError(t, f.Remove())
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "spool")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
