// Package romfs implements a read-only Linux ROMFS reader: superblock
// validation, a 16-byte-aligned on-disk directory tree walk, and an
// optional lazy hash index that upgrades lookups from a tree walk to O(1)
// once built.
//
// The byte-source abstraction (an io.ReaderAt over whatever holds the
// image) and the caching/pooling shape of reads are grounded on
// backend/archive/squashfs/cache.go's cache type, which wraps a vfs.Node in
// exactly this way for an archive mounted read-only over another backend.
package romfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/evfs-project/evfs"
	"github.com/evfs-project/evfs/handle"
	"github.com/evfs-project/evfs/hashmap"
	"github.com/evfs-project/evfs/internal/elog"
)

var magic = [8]byte{'-', 'r', 'o', 'm', '1', 'f', 's', '-'}

// nodeType is the low nibble of a header's next_offset|type|mode word.
type nodeType uint32

const (
	typeHardLink nodeType = 0
	typeDir      nodeType = 1
	typeFile     nodeType = 2
	typeSymlink  nodeType = 3
	typeBlockDev nodeType = 4
	typeCharDev  nodeType = 5
	typeSocket   nodeType = 6
	typeFIFO     nodeType = 7
)

// maxHeaderProbe bounds the first read attempted for a header: enough for
// the fixed 16-byte fields plus a generously long name. A name whose NUL
// terminator does not fall within this probe is reported as corruption; a
// header whose aligned length runs past a short first read is read again
// at that length.
const maxHeaderProbe = 16 + 256

func align16(n int64) int64 { return (n + 15) &^ 15 }

type header struct {
	offset    int64
	next      int64
	typ       nodeType
	specInfo  int64
	size      int64
	name      string
	headerLen int64
}

// Options configures a Mount.
type Options struct {
	Name string `config:"name"` // registry name reported by Name()
	// TotalSize, if non-zero, is the known size of the backing image; the
	// declared superblock fs-size must not exceed it.
	TotalSize int64 `config:"total_size"`
	// NoDirDots skips the "." and ".." hard-link entries on the first read
	// of a freshly opened or rewound directory handle.
	NoDirDots bool `config:"no_dir_dots"`
}

// FS is a mounted ROMFS image.
type FS struct {
	src        io.ReaderAt
	name       string
	fsSize     int64
	totalSize  int64
	rootOffset int64
	noDirDots  bool

	mu    sync.Mutex
	index *hashmap.Map[int64]
}

// Mount validates the superblock at the start of src and returns a mounted
// filesystem. src must support random reads by absolute offset.
func Mount(src io.ReaderAt, opts Options) (*FS, error) {
	var sb [512]byte
	n, err := src.ReadAt(sb[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		elog.Errorf(opts.Name, "mount: reading superblock: %v", err)
		return nil, evfs.Wrap(evfs.KindIO, "mount", "", err)
	}
	if n < 16 || !bytes.Equal(sb[:8], magic[:]) {
		elog.Errorf(opts.Name, "mount: bad magic")
		return nil, evfs.New(evfs.KindInvalid, "mount", "")
	}
	fsSize := int64(binary.BigEndian.Uint32(sb[8:12]))
	if opts.TotalSize > 0 && fsSize > opts.TotalSize {
		elog.Errorf(opts.Name, "mount: declared fs-size %d exceeds known image size %d", fsSize, opts.TotalSize)
		return nil, evfs.New(evfs.KindInvalid, "mount", "")
	}

	var sum uint32
	for i := 0; i+4 <= n; i += 4 {
		sum += binary.BigEndian.Uint32(sb[i : i+4])
	}
	if sum != 0 {
		elog.Errorf(opts.Name, "mount: superblock checksum mismatch")
		return nil, evfs.New(evfs.KindInvalid, "mount", "")
	}

	nameEnd := bytes.IndexByte(sb[16:n], 0)
	if nameEnd < 0 {
		elog.Errorf(opts.Name, "mount: volume name is not NUL-terminated within the superblock")
		return nil, evfs.New(evfs.KindInvalid, "mount", "")
	}
	rootOffset := align16(16 + int64(nameEnd) + 1)

	f := &FS{
		src:        src,
		name:       opts.Name,
		fsSize:     fsSize,
		totalSize:  opts.TotalSize,
		rootOffset: rootOffset,
		noDirDots:  opts.NoDirDots,
	}
	elog.Debugf(opts.Name, "mount: fs-size=%d root-offset=%d", fsSize, rootOffset)
	return f, nil
}

// Name implements evfs.Backend.
func (f *FS) Name() string { return f.name }

func (f *FS) readHeader(off int64) (header, error) {
	buf := make([]byte, maxHeaderProbe)
	n, err := f.src.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return header{}, evfs.Wrap(evfs.KindIO, "readHeader", "", err)
	}
	if n < 16 {
		return header{}, evfs.New(evfs.KindCorruption, "readHeader", "")
	}

	nextRaw := binary.BigEndian.Uint32(buf[0:4])
	specInfo := binary.BigEndian.Uint32(buf[4:8])
	size := binary.BigEndian.Uint32(buf[8:12])

	nameEnd := bytes.IndexByte(buf[16:n], 0)
	if nameEnd < 0 {
		return header{}, evfs.New(evfs.KindCorruption, "readHeader", "name not NUL-terminated")
	}
	headerLen := align16(16 + int64(nameEnd) + 1)
	name := string(buf[16 : 16+nameEnd])

	if headerLen > int64(n) {
		buf = make([]byte, headerLen)
		if _, err := f.src.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
			return header{}, evfs.Wrap(evfs.KindIO, "readHeader", "", err)
		}
	}

	var sum uint32
	for i := int64(0); i+4 <= headerLen; i += 4 {
		sum += binary.BigEndian.Uint32(buf[i : i+4])
	}
	if sum != 0 {
		return header{}, evfs.New(evfs.KindCorruption, "readHeader", "")
	}

	return header{
		offset:    off,
		next:      int64(nextRaw &^ 0xF),
		typ:       nodeType(nextRaw & 0xF),
		specInfo:  int64(specInfo),
		size:      int64(size),
		name:      name,
		headerLen: headerLen,
	}, nil
}

func tokenize(path string) []string {
	var out []string
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		out = append(out, seg)
	}
	return out
}

// lookup resolves path to its header, via the hash index if one has been
// built, else by a tree walk.
func (f *FS) lookup(path string) (header, error) {
	f.mu.Lock()
	idx := f.index
	f.mu.Unlock()
	if idx != nil {
		return f.lookupIndexed(idx, path)
	}
	return f.lookupWalk(path)
}

func (f *FS) lookupIndexed(idx *hashmap.Map[int64], path string) (header, error) {
	key := strings.Join(tokenize(path), "/")
	if key == "" {
		return f.readHeader(f.rootOffset)
	}
	off, ok := idx.Get([]byte(key))
	if !ok {
		return header{}, evfs.New(evfs.KindNoPath, "lookup", path)
	}
	return f.readHeader(off)
}

func (f *FS) lookupWalk(path string) (header, error) {
	cur, err := f.readHeader(f.rootOffset)
	if err != nil {
		return header{}, err
	}
	tokens := tokenize(path)
	for i, tok := range tokens {
		if cur.typ != typeDir {
			return header{}, evfs.New(evfs.KindNoPath, "lookup", path)
		}
		found, err := f.scanSiblings(cur.specInfo, tok)
		if err != nil {
			return header{}, evfs.New(evfs.KindNoPath, "lookup", path)
		}
		last := i == len(tokens)-1

		switch found.typ {
		case typeHardLink:
			linked, err := f.readHeader(found.specInfo)
			if err != nil {
				return header{}, err
			}
			cur = linked
		case typeFile:
			if !last {
				return header{}, evfs.New(evfs.KindNoPath, "lookup", path)
			}
			cur = found
		default:
			cur = found
		}
	}
	return cur, nil
}

func (f *FS) scanSiblings(first int64, name string) (header, error) {
	off := first
	for off != 0 {
		hdr, err := f.readHeader(off)
		if err != nil {
			return header{}, err
		}
		if hdr.name == name {
			return hdr, nil
		}
		off = hdr.next
	}
	return header{}, evfs.New(evfs.KindNoPath, "scan", name)
}

// BuildIndex performs a recursive scan of the tree and constructs a
// Robin-Hood hash index from full path to header offset, then switches
// lookups from a tree walk to this O(1) strategy. It is idempotent and
// safe to call at any point after Mount.
func (f *FS) BuildIndex() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		return nil
	}
	root, err := f.readHeader(f.rootOffset)
	if err != nil {
		return err
	}

	count := 0
	if err := f.walkDir(root, "", func(string, header) error {
		count++
		return nil
	}); err != nil {
		return err
	}

	idx := hashmap.NewStatic[int64](count, hashmap.FNV32a)
	if err := f.walkDir(root, "", func(key string, hdr header) error {
		_, err := idx.Insert([]byte(key), hdr.offset, nil)
		return err
	}); err != nil {
		return err
	}
	f.index = idx
	return nil
}

// walkDir visits every entry under dir (excluding the "." and ".."
// self/parent hard links, which would otherwise make a full scan cyclic),
// recursing into sub-directories.
func (f *FS) walkDir(dir header, prefix string, visit func(key string, hdr header) error) error {
	off := dir.specInfo
	for off != 0 {
		hdr, err := f.readHeader(off)
		if err != nil {
			return err
		}
		off = hdr.next
		if hdr.name == "." || hdr.name == ".." {
			continue
		}
		key := hdr.name
		if prefix != "" {
			key = prefix + "/" + hdr.name
		}
		if err := visit(key, hdr); err != nil {
			return err
		}
		if hdr.typ == typeDir {
			if err := f.walkDir(hdr, key, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func infoOf(hdr header) evfs.Info {
	info := evfs.Info{
		Name:   hdr.name,
		Size:   hdr.size,
		Fields: evfs.HasName | evfs.HasSize | evfs.HasType,
	}
	if hdr.typ == typeDir || hdr.typ == typeHardLink {
		info.Type |= evfs.TypeDir
	}
	return info
}

// Stat implements evfs.Backend.
func (f *FS) Stat(path string) (evfs.Info, error) {
	hdr, err := f.lookup(path)
	if err != nil {
		return evfs.Info{}, err
	}
	return infoOf(hdr), nil
}

// Open implements evfs.Backend. ROMFS is read-only: any write-intent flag
// is rejected.
func (f *FS) Open(path string, flags evfs.OpenFlag) (evfs.File, error) {
	if flags&(evfs.Write|evfs.OpenOrNew|evfs.Append|evfs.Overwrite|evfs.NoExist) != 0 {
		return nil, evfs.New(evfs.KindDisabled, "open", path)
	}
	hdr, err := f.lookup(path)
	if err != nil {
		elog.Errorf(f.name, "open %q failed: %v", path, err)
		return nil, err
	}
	if hdr.typ == typeDir {
		elog.Errorf(f.name, "open %q failed: is a directory", path)
		return nil, evfs.New(evfs.KindIsDir, "open", path)
	}
	return &file{fs: f, hdr: hdr, off: handle.NewOffset(hdr.size)}, nil
}

// Ctrl implements evfs.Ctrler for the backend-level GET_STAT_FIELDS /
// GET_DIR_FIELDS commands.
func (f *FS) Ctrl(cmd evfs.CtrlCmd, arg any) (any, error) {
	switch cmd {
	case evfs.CtrlGetStatFields:
		return evfs.HasName | evfs.HasSize | evfs.HasType, nil
	case evfs.CtrlGetDirFields:
		return evfs.HasName | evfs.HasSize | evfs.HasType, nil
	}
	return nil, evfs.New(evfs.KindUnsupported, "ctrl", "")
}

// OpenDir implements evfs.DirOpener.
func (f *FS) OpenDir(path string) (evfs.Dir, error) {
	hdr, err := f.lookup(path)
	if err != nil {
		return nil, err
	}
	if hdr.typ != typeDir {
		return nil, evfs.New(evfs.KindNoPath, "opendir", path)
	}
	return &dir{fs: f, first: hdr.specInfo, cur: hdr.specInfo}, nil
}

type dir struct {
	fs          *FS
	first       int64
	cur         int64
	skippedDots bool
}

// Read implements evfs.Dir.
func (d *dir) Read() (evfs.Info, error) {
	for {
		if d.cur == 0 {
			return evfs.Info{}, evfs.ErrDone
		}
		hdr, err := d.fs.readHeader(d.cur)
		if err != nil {
			return evfs.Info{}, err
		}
		d.cur = hdr.next
		if d.fs.noDirDots && !d.skippedDots && (hdr.name == "." || hdr.name == "..") {
			continue
		}
		d.skippedDots = true
		return infoOf(hdr), nil
	}
}

// Rewind implements evfs.Dir.
func (d *dir) Rewind() error {
	d.cur = d.first
	d.skippedDots = false
	return nil
}

// Close implements evfs.Dir.
func (d *dir) Close() error { return nil }

type file struct {
	fs     *FS
	hdr    header
	off    *handle.Offset
	closer handle.Closer
}

// Read implements evfs.File.
func (h *file) Read(p []byte) (int, error) {
	remaining := h.off.Remaining()
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	abs := h.hdr.offset + h.hdr.headerLen + h.off.Pos()
	n, err := h.fs.src.ReadAt(p, abs)
	h.off.Advance(int64(n))
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}

// Write implements evfs.File; ROMFS files are never writable.
func (h *file) Write([]byte) (int, error) {
	return 0, evfs.New(evfs.KindDisabled, "write", "")
}

// Close implements evfs.File.
func (h *file) Close() error { return h.closer.Do(func() error { return nil }) }

// Seek implements evfs.File.
func (h *file) Seek(offset int64, origin evfs.SeekOrigin) (int64, error) {
	return h.off.Seek(offset, origin)
}

// Tell implements evfs.File.
func (h *file) Tell() (int64, error) { return h.off.Pos(), nil }

// Size implements evfs.File.
func (h *file) Size() (int64, error) { return h.off.Size(), nil }

// Truncate implements evfs.File; ROMFS is read-only.
func (h *file) Truncate(int64) error { return evfs.New(evfs.KindDisabled, "truncate", "") }

// Sync implements evfs.File.
func (h *file) Sync() error { return nil }

// EOF implements evfs.File.
func (h *file) EOF() bool { return h.off.EOF() }

// Ctrl implements evfs.File. CtrlGetRsrcAddr exposes a borrowed view of the
// file's bytes within an in-memory image.
func (h *file) Ctrl(cmd evfs.CtrlCmd, arg any) (any, error) {
	if cmd != evfs.CtrlGetRsrcAddr {
		return nil, evfs.New(evfs.KindUnsupported, "ctrl", "")
	}
	ms, ok := h.fs.src.(*MemSource)
	if !ok {
		return nil, evfs.New(evfs.KindUnsupported, "ctrl", "")
	}
	start := h.hdr.offset + h.hdr.headerLen
	return ms.buf[start : start+h.hdr.size], nil
}

// MemSource adapts an in-memory ROMFS image to io.ReaderAt, for the
// in-memory mount variant that exposes CtrlGetRsrcAddr.
type MemSource struct{ buf []byte }

// NewMemSource wraps buf, which must outlive the mounted FS.
func NewMemSource(buf []byte) *MemSource { return &MemSource{buf: buf} }

// ReadAt implements io.ReaderAt.
func (m *MemSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
