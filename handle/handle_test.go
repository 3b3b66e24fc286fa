package handle

import (
	"testing"

	"github.com/evfs-project/evfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloserRunsOnce(t *testing.T) {
	var c Closer
	calls := 0
	err := c.Do(func() error { calls++; return nil })
	require.NoError(t, err)
	err = c.Do(func() error { calls++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, c.Closed())
}

func TestOffsetAdvanceAndEOF(t *testing.T) {
	o := NewOffset(10)
	assert.False(t, o.EOF())
	assert.Equal(t, int64(10), o.Remaining())
	o.Advance(4)
	assert.Equal(t, int64(4), o.Pos())
	assert.Equal(t, int64(6), o.Remaining())
	o.Advance(6)
	assert.True(t, o.EOF())
	assert.Equal(t, int64(0), o.Remaining())
}

func TestOffsetSeekOrigins(t *testing.T) {
	o := NewOffset(100)

	pos, err := o.Seek(10, evfs.SeekTo)
	require.NoError(t, err)
	assert.Equal(t, int64(10), pos)

	pos, err = o.Seek(5, evfs.SeekRel)
	require.NoError(t, err)
	assert.Equal(t, int64(15), pos)

	pos, err = o.Seek(20, evfs.SeekRev)
	require.NoError(t, err)
	assert.Equal(t, int64(80), pos)
}

func TestOffsetSeekClamps(t *testing.T) {
	o := NewOffset(50)

	pos, err := o.Seek(-10, evfs.SeekTo)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	pos, err = o.Seek(1000, evfs.SeekTo)
	require.NoError(t, err)
	assert.Equal(t, int64(50), pos)
}

func TestOffsetSeekRejectsBadOrigin(t *testing.T) {
	o := NewOffset(10)
	_, err := o.Seek(0, evfs.SeekOrigin(99))
	assert.Error(t, err)
}
