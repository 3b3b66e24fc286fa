// Package osfs is a thin stdio backend where open/close/read/write map
// directly onto the host's file calls: a minimal os.* wrapper that exists
// so the registry and dispatch layer have a concrete, fully capable backend
// to exercise end-to-end, the way backend/local/local.go's Fs wraps os.*
// for rclone's local backend. Unlike local.go this carries none of that
// backend's platform-specific metadata, xattr, or clone-detection
// machinery: those concerns are out of scope here.
package osfs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/evfs-project/evfs"
	"github.com/evfs-project/evfs/internal/elog"
	"github.com/evfs-project/evfs/vfspath"
)

// Options configures a New. Name and Root are populated via config.Set when
// the backend is mounted from registration arguments rather than a literal
// struct, the way backend/kvfs's Options carries `config:"..."` tags for
// configstruct.Set.
type Options struct {
	// Name is the registry name reported by Name().
	Name string `config:"name"`
	// Root, if non-empty, is prepended to every path before it reaches the
	// host filesystem, the way backend/local optionally roots itself at a
	// configured directory.
	Root string `config:"root"`
}

// FS is a backend whose paths map directly onto host filesystem paths.
type FS struct {
	name string
	root string

	mu  sync.Mutex
	cwd string
}

// New returns an osfs backend rooted at opts.Root (the host filesystem root
// if empty).
func New(opts Options) *FS {
	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}
	return &FS{name: opts.Name, root: opts.Root, cwd: wd}
}

func (f *FS) resolve(path string) (string, error) {
	f.mu.Lock()
	cwd := f.cwd
	f.mu.Unlock()

	abs, err := vfspath.Absolute(cwd, path, vfspath.DefaultRoot, vfspath.Options{})
	if err != nil {
		return "", err
	}
	if f.root == "" {
		return abs, nil
	}
	return filepath.Join(f.root, abs), nil
}

// Name implements evfs.Backend.
func (f *FS) Name() string { return f.name }

func flagsToOS(flags evfs.OpenFlag) int {
	var o int
	switch {
	case flags&evfs.Write != 0 && flags&evfs.Read != 0:
		o = os.O_RDWR
	case flags&evfs.Write != 0:
		o = os.O_WRONLY
	default:
		o = os.O_RDONLY
	}
	if flags&evfs.OpenOrNew != 0 {
		o |= os.O_CREATE
	}
	if flags&evfs.NoExist != 0 {
		o |= os.O_CREATE | os.O_EXCL
	}
	if flags&evfs.Overwrite != 0 {
		o |= os.O_TRUNC
	}
	if flags&evfs.Append != 0 {
		o |= os.O_APPEND
	}
	return o
}

// Open implements evfs.Backend.
func (f *FS) Open(path string, flags evfs.OpenFlag) (evfs.File, error) {
	real, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	osFile, err := os.OpenFile(real, flagsToOS(flags), 0o666)
	if err != nil {
		elog.Errorf(f.name, "open %q failed: %v", path, err)
		return nil, translateErr("open", path, err)
	}
	return &file{f: osFile}, nil
}

// Stat implements evfs.Backend.
func (f *FS) Stat(path string) (evfs.Info, error) {
	real, err := f.resolve(path)
	if err != nil {
		return evfs.Info{}, err
	}
	fi, err := os.Stat(real)
	if err != nil {
		return evfs.Info{}, translateErr("stat", path, err)
	}
	info := evfs.Info{
		Name:    fi.Name(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Fields:  evfs.HasName | evfs.HasSize | evfs.HasModTime | evfs.HasType,
	}
	if fi.IsDir() {
		info.Type |= evfs.TypeDir
	}
	return info, nil
}

// Delete implements evfs.Deleter.
func (f *FS) Delete(path string) error {
	real, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(real); err != nil {
		return translateErr("delete", path, err)
	}
	return nil
}

// Rename implements evfs.Renamer.
func (f *FS) Rename(oldPath, newPath string) error {
	realOld, err := f.resolve(oldPath)
	if err != nil {
		return err
	}
	realNew, err := f.resolve(newPath)
	if err != nil {
		return err
	}
	if err := os.Rename(realOld, realNew); err != nil {
		return translateErr("rename", oldPath, err)
	}
	return nil
}

// Mkdir implements evfs.Mkdirer.
func (f *FS) Mkdir(path string) error {
	real, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Mkdir(real, 0o777); err != nil {
		return translateErr("mkdir", path, err)
	}
	return nil
}

// OpenDir implements evfs.DirOpener.
func (f *FS) OpenDir(path string) (evfs.Dir, error) {
	real, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(real)
	if err != nil {
		return nil, translateErr("opendir", path, err)
	}
	return &dir{entries: entries}, nil
}

// Getwd implements evfs.CWD.
func (f *FS) Getwd() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cwd, nil
}

// Setwd implements evfs.CWD.
func (f *FS) Setwd(path string) error {
	f.mu.Lock()
	cwd := f.cwd
	f.mu.Unlock()

	abs, err := vfspath.Absolute(cwd, path, vfspath.DefaultRoot, vfspath.Options{})
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.cwd = abs
	f.mu.Unlock()
	return nil
}

// Ctrl implements evfs.Ctrler.
func (f *FS) Ctrl(cmd evfs.CtrlCmd, arg any) (any, error) {
	switch cmd {
	case evfs.CtrlGetStatFields:
		return evfs.HasName | evfs.HasSize | evfs.HasModTime | evfs.HasType, nil
	case evfs.CtrlGetDirFields:
		return evfs.HasName | evfs.HasType, nil
	}
	return nil, evfs.New(evfs.KindUnsupported, "ctrl", "")
}

func translateErr(op, path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return evfs.Wrap(evfs.KindNoFile, op, path, err)
	case os.IsExist(err):
		return evfs.Wrap(evfs.KindExists, op, path, err)
	case os.IsPermission(err):
		return evfs.Wrap(evfs.KindAuth, op, path, err)
	default:
		return evfs.Wrap(evfs.KindIO, op, path, err)
	}
}

type dir struct {
	entries []os.DirEntry
	pos     int
}

// Read implements evfs.Dir.
func (d *dir) Read() (evfs.Info, error) {
	if d.pos >= len(d.entries) {
		return evfs.Info{}, evfs.ErrDone
	}
	e := d.entries[d.pos]
	d.pos++
	info := evfs.Info{Name: e.Name(), Fields: evfs.HasName | evfs.HasType}
	if e.IsDir() {
		info.Type |= evfs.TypeDir
	}
	if fi, err := e.Info(); err == nil {
		info.Size = fi.Size()
		info.ModTime = fi.ModTime()
		info.Fields |= evfs.HasSize | evfs.HasModTime
	}
	return info, nil
}

// Rewind implements evfs.Dir.
func (d *dir) Rewind() error {
	d.pos = 0
	return nil
}

// Close implements evfs.Dir.
func (d *dir) Close() error { return nil }

type file struct {
	f *os.File
}

// Read implements evfs.File.
func (h *file) Read(p []byte) (int, error) { return h.f.Read(p) }

// Write implements evfs.File.
func (h *file) Write(p []byte) (int, error) { return h.f.Write(p) }

// Close implements evfs.File.
func (h *file) Close() error { return h.f.Close() }

// Seek implements evfs.File.
func (h *file) Seek(offset int64, origin evfs.SeekOrigin) (int64, error) {
	var whence int
	switch origin {
	case evfs.SeekTo:
		whence = os.SEEK_SET
	case evfs.SeekRel:
		whence = os.SEEK_CUR
	case evfs.SeekRev:
		whence = os.SEEK_END
		offset = -offset
	default:
		return 0, evfs.New(evfs.KindBadArg, "seek", "")
	}
	return h.f.Seek(offset, whence)
}

// Tell implements evfs.File.
func (h *file) Tell() (int64, error) { return h.f.Seek(0, os.SEEK_CUR) }

// Size implements evfs.File.
func (h *file) Size() (int64, error) {
	fi, err := h.f.Stat()
	if err != nil {
		return 0, translateErr("size", h.f.Name(), err)
	}
	return fi.Size(), nil
}

// Truncate implements evfs.File.
func (h *file) Truncate(size int64) error { return h.f.Truncate(size) }

// Sync implements evfs.File.
func (h *file) Sync() error { return h.f.Sync() }

// EOF implements evfs.File. Since os.File carries no sticky EOF flag, this
// reports whether the current position has reached the file's size.
func (h *file) EOF() bool {
	pos, err := h.f.Seek(0, os.SEEK_CUR)
	if err != nil {
		return false
	}
	fi, err := h.f.Stat()
	if err != nil {
		return false
	}
	return pos >= fi.Size()
}

// Ctrl implements evfs.File. osfs file handles carry no extra commands.
func (h *file) Ctrl(cmd evfs.CtrlCmd, arg any) (any, error) {
	return nil, evfs.New(evfs.KindUnsupported, "ctrl", "")
}
