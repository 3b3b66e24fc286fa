// Package handle provides the small pieces of per-open-file bookkeeping
// shared across read-only backends: close-once semantics (a file or
// directory handle must be released exactly once) and the read-position/EOF
// tracking every read-only backend repeats for its file handles. ROMFS and
// TAR both build their file handles on top of this instead of repeating the
// offset arithmetic, generalizing the per-handle bookkeeping
// backend/archive/squashfs/cache.go keeps around a vfs.Handle.
package handle

import (
	"sync"

	"github.com/evfs-project/evfs"
)

// Closer gives a handle type call-Close-exactly-once semantics: the
// supplied close function runs on the first call to Do and never again.
type Closer struct {
	mu     sync.Mutex
	closed bool
}

// Do invokes fn only the first time it is called; later calls are a no-op
// returning nil.
func (c *Closer) Do(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return fn()
}

// Closed reports whether Do has already fired.
func (c *Closer) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Offset tracks a read position against a fixed size, the bookkeeping every
// read-only file handle (ROMFS, TAR) repeats for Read/Seek/Tell/Size/EOF.
type Offset struct {
	pos  int64
	size int64
}

// NewOffset returns an Offset for a file of the given size, positioned at 0.
func NewOffset(size int64) *Offset { return &Offset{size: size} }

// Pos returns the current position.
func (o *Offset) Pos() int64 { return o.pos }

// Size returns the fixed file size.
func (o *Offset) Size() int64 { return o.size }

// EOF reports whether the position has reached or passed size.
func (o *Offset) EOF() bool { return o.pos >= o.size }

// Remaining returns how many bytes are left before EOF, never negative.
func (o *Offset) Remaining() int64 {
	r := o.size - o.pos
	if r < 0 {
		return 0
	}
	return r
}

// Advance moves the position forward by n bytes, as Read consumes them.
func (o *Offset) Advance(n int64) { o.pos += n }

// Seek applies the SeekTo/SeekRel/SeekRev origins, clamping the result to
// [0, size], and returns the new position.
func (o *Offset) Seek(offset int64, origin evfs.SeekOrigin) (int64, error) {
	var target int64
	switch origin {
	case evfs.SeekTo:
		target = offset
	case evfs.SeekRel:
		target = o.pos + offset
	case evfs.SeekRev:
		target = o.size - offset
	default:
		return 0, evfs.New(evfs.KindBadArg, "seek", "")
	}
	if target < 0 {
		target = 0
	}
	if target > o.size {
		target = o.size
	}
	o.pos = target
	return o.pos, nil
}
