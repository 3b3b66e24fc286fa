package osfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evfs-project/evfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadStatRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := New(Options{Name: "osfs0", Root: dir})

	f, err := fs.Open("/hello.txt", evfs.Write|evfs.OpenOrNew|evfs.Overwrite)
	require.NoError(t, err)
	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, f.Close())

	info, err := fs.Stat("/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.False(t, info.IsDir())

	rf, err := fs.Open("/hello.txt", evfs.Read)
	require.NoError(t, err)
	defer rf.Close()
	buf := make([]byte, 5)
	n, err = rf.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestMkdirAndOpenDir(t *testing.T) {
	dir := t.TempDir()
	fs := New(Options{Root: dir})

	require.NoError(t, fs.Mkdir("/sub"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("x"), 0o644))

	d, err := fs.OpenDir("/sub")
	require.NoError(t, err)
	defer d.Close()

	info, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, "a.txt", info.Name)

	_, err = d.Read()
	assert.ErrorIs(t, err, evfs.ErrDone)
}

func TestDeleteAndRename(t *testing.T) {
	dir := t.TempDir()
	fs := New(Options{Root: dir})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	require.NoError(t, fs.Rename("/a.txt", "/b.txt"))
	_, err := fs.Stat("/a.txt")
	assert.ErrorIs(t, err, evfs.ErrNoFile)

	require.NoError(t, fs.Delete("/b.txt"))
	_, err = fs.Stat("/b.txt")
	assert.ErrorIs(t, err, evfs.ErrNoFile)
}

func TestSetwdAffectsRelativeOpen(t *testing.T) {
	dir := t.TempDir()
	fs := New(Options{Root: dir})
	require.NoError(t, fs.Mkdir("/sub"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("y"), 0o644))

	require.NoError(t, fs.Setwd("/sub"))
	got, err := fs.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/sub", got)

	info, err := fs.Stat("c.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Size)
}

func TestStatMissingFile(t *testing.T) {
	dir := t.TempDir()
	fs := New(Options{Root: dir})
	_, err := fs.Stat("/nope.txt")
	assert.ErrorIs(t, err, evfs.ErrNoFile)
}
