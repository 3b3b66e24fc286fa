// Package jail implements a path-jailing shim: it wraps an inner backend
// and confines every path that reaches it to a subtree of that backend,
// translating virtual paths so that a ".." chain can never walk the inner
// backend outside the jailed root.
//
// Forwarding every operation to an inner backend after rewriting its path
// argument mirrors the wrapping-backend shape of backend/archive/archive.go
// (an Fs wrapping another fs.Fs and forwarding via Features().X) and
// backend/alias's even thinner "just retarget the path" wrapper; this shim
// generalizes that idiom to EVFS's capability-interface dispatch instead of
// rclone's Features() struct.
package jail

import (
	"strings"
	"sync"

	"github.com/evfs-project/evfs"
	"github.com/evfs-project/evfs/internal/elog"
	"github.com/evfs-project/evfs/vfspath"
)

// FS confines path access to a subtree of an inner backend.
type FS struct {
	name  string
	inner evfs.Backend
	root  vfspath.RootFunc

	mu       sync.Mutex
	jailRoot string // normalized, absolute on the inner backend
	shimCwd  string // virtual cwd, absolute under the POSIX-style virtual root
}

// New creates a shim named name, rooted at jailRoot on inner. jailRoot must
// be absolute on inner's own path syntax.
func New(name, jailRoot string, inner evfs.Backend) (*FS, error) {
	rf := rootFuncFor(inner)
	norm, err := vfspath.Normalize(jailRoot, rf, vfspath.Options{})
	if err != nil {
		return nil, err
	}
	if !vfspath.IsAbs(norm, rf) {
		return nil, evfs.New(evfs.KindBadArg, "jail.New", jailRoot)
	}
	return &FS{
		name:     name,
		inner:    inner,
		root:     rf,
		jailRoot: norm,
		shimCwd:  "/",
	}, nil
}

func rootFuncFor(b evfs.Backend) vfspath.RootFunc {
	if rc, ok := b.(evfs.RootComponenter); ok {
		return func(path string) (int, int, bool) { return rc.RootComponent(path) }
	}
	return vfspath.DefaultRoot
}

// translate turns a virtual path into the path the inner backend should
// see: jailRoot joined with the path's virtual-absolute form, normalized
// against the inner backend's own root syntax so any ".." is collapsed
// before it ever reaches the inner backend -- the normalization happens
// strictly before the join, so a crafted "../../etc/passwd" can never climb
// out of jailRoot.
func (f *FS) translate(path string) (string, error) {
	f.mu.Lock()
	shimCwd := f.shimCwd
	f.mu.Unlock()

	virtualAbs, err := vfspath.Absolute(shimCwd, path, vfspath.DefaultRoot, vfspath.Options{})
	if err != nil {
		return "", err
	}
	tail := strings.TrimPrefix(virtualAbs, "/")
	joined := vfspath.Join(f.jailRoot, tail, f.root)
	return vfspath.Normalize(joined, f.root, vfspath.Options{})
}

// Name implements evfs.Backend.
func (f *FS) Name() string { return f.name }

// Open implements evfs.Backend.
func (f *FS) Open(path string, flags evfs.OpenFlag) (evfs.File, error) {
	real, err := f.translate(path)
	if err != nil {
		elog.Errorf(f.name, "open %q: translate failed: %v", path, err)
		return nil, err
	}
	file, err := f.inner.Open(real, flags)
	if err != nil {
		elog.Errorf(f.name, "open %q (inner %q) failed: %v", path, real, err)
	}
	return file, err
}

// Stat implements evfs.Backend.
func (f *FS) Stat(path string) (evfs.Info, error) {
	real, err := f.translate(path)
	if err != nil {
		return evfs.Info{}, err
	}
	return f.inner.Stat(real)
}

// Delete implements evfs.Deleter, forwarding to the inner backend if it
// supports deletion.
func (f *FS) Delete(path string) error {
	d, ok := f.inner.(evfs.Deleter)
	if !ok {
		return evfs.New(evfs.KindUnsupported, "delete", path)
	}
	real, err := f.translate(path)
	if err != nil {
		return err
	}
	return d.Delete(real)
}

// Rename implements evfs.Renamer.
func (f *FS) Rename(oldPath, newPath string) error {
	r, ok := f.inner.(evfs.Renamer)
	if !ok {
		return evfs.New(evfs.KindUnsupported, "rename", oldPath)
	}
	realOld, err := f.translate(oldPath)
	if err != nil {
		return err
	}
	realNew, err := f.translate(newPath)
	if err != nil {
		return err
	}
	return r.Rename(realOld, realNew)
}

// Mkdir implements evfs.Mkdirer.
func (f *FS) Mkdir(path string) error {
	m, ok := f.inner.(evfs.Mkdirer)
	if !ok {
		return evfs.New(evfs.KindUnsupported, "mkdir", path)
	}
	real, err := f.translate(path)
	if err != nil {
		return err
	}
	return m.Mkdir(real)
}

// OpenDir implements evfs.DirOpener.
func (f *FS) OpenDir(path string) (evfs.Dir, error) {
	do, ok := f.inner.(evfs.DirOpener)
	if !ok {
		return nil, evfs.New(evfs.KindUnsupported, "opendir", path)
	}
	real, err := f.translate(path)
	if err != nil {
		return nil, err
	}
	return do.OpenDir(real)
}

// Getwd implements evfs.CWD, returning the shim's own virtual cwd -- never
// the inner backend's.
func (f *FS) Getwd() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shimCwd, nil
}

// Setwd implements evfs.CWD.
func (f *FS) Setwd(path string) error {
	f.mu.Lock()
	cwd := f.shimCwd
	f.mu.Unlock()

	abs, err := vfspath.Absolute(cwd, path, vfspath.DefaultRoot, vfspath.Options{})
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.shimCwd = abs
	f.mu.Unlock()
	return nil
}

// Ctrl implements evfs.Ctrler, forwarding to the inner backend.
func (f *FS) Ctrl(cmd evfs.CtrlCmd, arg any) (any, error) {
	c, ok := f.inner.(evfs.Ctrler)
	if !ok {
		return nil, evfs.New(evfs.KindUnsupported, "ctrl", "")
	}
	return c.Ctrl(cmd, arg)
}

// Unregister implements evfs.Unregisterable. It releases only the shim's
// own state; the inner backend's lifecycle stays under the registry's
// control and is never touched here.
func (f *FS) Unregister() {
	elog.Debugf(f.name, "unregistering jail shim rooted at %q", f.jailRoot)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inner = nil
}
