package evfs

import "github.com/evfs-project/evfs/internal/elog"

// This file implements the backend-agnostic API surface, dispatching
// through a Registry to the named (or default) backend and degrading
// optional capabilities to ErrUnsupported. It mirrors the
// "do := f.Features().X; if do == nil { return ErrNotImplemented }" pattern
// used pervasively by rclone's wrapping backends (backend/archive/archive.go)
// to forward to an inner Fs only when it supports the operation.

// Open opens path on the named backend (or the default, if name is empty).
func (r *Registry) Open(name, path string, flags OpenFlag) (File, error) {
	b, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, New(KindBadArg, "open", path)
	}
	f, err := b.Open(path, flags)
	if err != nil {
		elog.Errorf(b.Name(), "open %q failed: %v", path, err)
	}
	return f, err
}

// Stat returns Info for path on the named backend (or the default).
func (r *Registry) Stat(name, path string) (Info, error) {
	b, err := r.Get(name)
	if err != nil {
		return Info{}, err
	}
	if path == "" {
		return Info{}, New(KindBadArg, "stat", path)
	}
	return b.Stat(path)
}

// Delete removes path on the named backend (or the default).
func (r *Registry) Delete(name, path string) error {
	b, err := r.Get(name)
	if err != nil {
		return err
	}
	d, ok := b.(Deleter)
	if !ok {
		return New(KindUnsupported, "delete", path)
	}
	return d.Delete(path)
}

// Rename renames oldPath to newPath on the named backend (or the default).
func (r *Registry) Rename(name, oldPath, newPath string) error {
	b, err := r.Get(name)
	if err != nil {
		return err
	}
	rn, ok := b.(Renamer)
	if !ok {
		return New(KindUnsupported, "rename", oldPath)
	}
	return rn.Rename(oldPath, newPath)
}

// Mkdir creates path on the named backend (or the default).
func (r *Registry) Mkdir(name, path string) error {
	b, err := r.Get(name)
	if err != nil {
		return err
	}
	m, ok := b.(Mkdirer)
	if !ok {
		return New(KindUnsupported, "mkdir", path)
	}
	return m.Mkdir(path)
}

// MakePath creates path and every missing parent directory: a NoFile or
// NoPath encountered mid-walk is not propagated, it triggers creation of
// that segment before continuing.
func (r *Registry) MakePath(name, path string) error {
	b, err := r.Get(name)
	if err != nil {
		return err
	}
	m, ok := b.(Mkdirer)
	if !ok {
		return New(KindUnsupported, "make_path", path)
	}
	segments := splitKept(path)
	cur := ""
	if len(path) > 0 && path[0] == '/' {
		cur = "/"
	}
	for _, seg := range segments {
		if cur == "" || cur == "/" {
			cur = cur + seg
		} else {
			cur = cur + "/" + seg
		}
		if _, err := b.Stat(cur); err != nil {
			if !Is(err, ErrNoFile) && !Is(err, ErrNoPath) {
				return err
			}
			if err := m.Mkdir(cur); err != nil && !Is(err, ErrExists) {
				elog.Errorf(b.Name(), "make_path: mkdir %q failed: %v", cur, err)
				return err
			}
			elog.Debugf(b.Name(), "make_path: created %q", cur)
		}
	}
	return nil
}

func splitKept(path string) []string {
	var out []string
	seg := ""
	for _, c := range path {
		if c == '/' || c == '\\' {
			if seg != "" {
				out = append(out, seg)
				seg = ""
			}
			continue
		}
		seg += string(c)
	}
	if seg != "" {
		out = append(out, seg)
	}
	return out
}

// OpenDir opens path for directory iteration on the named backend.
func (r *Registry) OpenDir(name, path string) (Dir, error) {
	b, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	d, ok := b.(DirOpener)
	if !ok {
		return nil, New(KindUnsupported, "open_dir", path)
	}
	return d.OpenDir(path)
}

// Getwd returns the current working directory of the named backend.
func (r *Registry) Getwd(name string) (string, error) {
	b, err := r.Get(name)
	if err != nil {
		return "", err
	}
	c, ok := b.(CWD)
	if !ok {
		return "", New(KindUnsupported, "get_cwd", "")
	}
	return c.Getwd()
}

// Setwd sets the current working directory of the named backend.
func (r *Registry) Setwd(name, path string) error {
	b, err := r.Get(name)
	if err != nil {
		return err
	}
	c, ok := b.(CWD)
	if !ok {
		return New(KindUnsupported, "set_cwd", path)
	}
	return c.Setwd(path)
}

// Ctrl sends a control command to the named backend.
func (r *Registry) Ctrl(name string, cmd CtrlCmd, arg any) (any, error) {
	b, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	c, ok := b.(Ctrler)
	if !ok {
		return nil, New(KindUnsupported, "vfs_ctrl", "")
	}
	return c.Ctrl(cmd, arg)
}

// Package-level convenience wrappers over Default.

func Open(name, path string, flags OpenFlag) (File, error) { return Default.Open(name, path, flags) }
func Stat(name, path string) (Info, error)                 { return Default.Stat(name, path) }
func Delete(name, path string) error                       { return Default.Delete(name, path) }
func Rename(name, oldPath, newPath string) error            { return Default.Rename(name, oldPath, newPath) }
func Mkdir(name, path string) error                        { return Default.Mkdir(name, path) }
func MakePath(name, path string) error                      { return Default.MakePath(name, path) }
func OpenDir(name, path string) (Dir, error)                { return Default.OpenDir(name, path) }
func Getwd(name string) (string, error)                    { return Default.Getwd(name) }
func Setwd(name, path string) error                        { return Default.Setwd(name, path) }
func Ctrl(name string, cmd CtrlCmd, arg any) (any, error)   { return Default.Ctrl(name, cmd, arg) }
