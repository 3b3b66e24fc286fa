package evfs

import "io"

// File is the dispatch table a file handle exposes: ctrl, close, read,
// write, truncate, sync, size, seek, tell and eof. A backend's concrete
// file handle embeds whatever per-backend state it needs and implements
// this interface; callers never see the concrete type.
//
// Invariant: after Close returns, no other method may be called. A File
// obtained from a failed Open is never handed to the caller.
type File interface {
	io.Reader
	io.Writer
	io.Closer

	// Seek repositions the read/write offset relative to origin.
	Seek(offset int64, origin SeekOrigin) (int64, error)
	// Tell returns the current offset.
	Tell() (int64, error)
	// Size returns the file's current size.
	Size() (int64, error)
	// Truncate changes the file's size.
	Truncate(size int64) error
	// Sync flushes any buffered writes to the backend's storage.
	Sync() error
	// EOF reports whether the last Read reached (or the offset is at) the
	// end of the file.
	EOF() bool
	// Ctrl sends a backend- or file-specific control command.
	Ctrl(cmd CtrlCmd, arg any) (any, error)
}

// Dir is the dispatch table a directory handle exposes: {close, read, rewind}.
type Dir interface {
	io.Closer
	// Read returns the next entry, or ErrDone when exhausted.
	Read() (Info, error)
	// Rewind restarts iteration at the first entry.
	Rewind() error
}

// Backend is the capability set a named filesystem implementation offers.
// Open and Stat are required; everything else is optional and a backend
// that doesn't implement one of the optional interfaces below reports
// ErrUnsupported through the registry's forwarding helpers (Delete, Rename,
// ...).
//
// A concrete backend type implements Backend plus zero or more of Deleter,
// Renamer, Mkdirer, DirOpener, CWD, Ctrler and RootComponenter, and the
// registry/dispatch layer type-asserts for each as needed, the same
// capability-by-interface-assertion idiom rclone's own Features struct uses
// in place of a fixed vtable.
type Backend interface {
	// Name returns this backend's unique registration name.
	Name() string
	// Open opens path with the given flags, returning a file handle.
	Open(path string, flags OpenFlag) (File, error)
	// Stat returns Info describing path.
	Stat(path string) (Info, error)
}

// Deleter is implemented by backends that support removing a file.
type Deleter interface {
	Delete(path string) error
}

// Renamer is implemented by backends that support renaming in place.
type Renamer interface {
	Rename(oldPath, newPath string) error
}

// Mkdirer is implemented by backends that support directory creation.
type Mkdirer interface {
	Mkdir(path string) error
}

// DirOpener is implemented by backends that support directory listing.
type DirOpener interface {
	OpenDir(path string) (Dir, error)
}

// CWD is implemented by backends that track a current working directory.
type CWD interface {
	Getwd() (string, error)
	Setwd(path string) error
}

// Ctrler is implemented by backends that accept out-of-band control
// commands not tied to a single open file.
type Ctrler interface {
	Ctrl(cmd CtrlCmd, arg any) (any, error)
}

// RootComponenter is implemented by backends whose root syntax differs from
// the default POSIX-style rule (e.g. FAT's "C:" drive letters). See
// vfspath.RootFunc.
type RootComponenter interface {
	RootComponent(path string) (start, end int, isAbsolute bool)
}

// Unregisterable is implemented by backends that need to release resources
// when removed from the registry. If a backend doesn't implement this,
// removal is a no-op beyond unlinking it.
type Unregisterable interface {
	Unregister()
}
