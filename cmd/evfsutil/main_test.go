package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPrefix(t *testing.T) {
	assert.True(t, hasPrefix("romfs:foo.img", "romfs:"))
	assert.True(t, hasPrefix("tar:foo.tar", "tar:"))
	assert.False(t, hasPrefix("os", "romfs:"))
	assert.False(t, hasPrefix("", "romfs:"))
}

func TestMountBackendDefaultsToOS(t *testing.T) {
	flagBackend = "os"
	defer func() { flagBackend = "os" }()

	b, err := mountBackend()
	require.NoError(t, err)
	assert.Equal(t, "os0", b.Name())
}

func TestMountBackendRejectsUnknown(t *testing.T) {
	flagBackend = "nonsense"
	defer func() { flagBackend = "os" }()

	_, err := mountBackend()
	assert.Error(t, err)
}

func TestFileReaderAtDelegatesToOSFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := fileReaderAt{f}
	buf := make([]byte, 5)
	n, err := r.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}
