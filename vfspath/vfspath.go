// Package vfspath implements a backend-parameterised path algebra:
// root-component extraction, basename/dirname/extension, join,
// normalization (with "." and ".." collapse) and relative-to-absolute
// conversion with overlap-safe buffer semantics.
//
// The teacher (rclone) expresses the equivalent logic ad hoc inside each
// wrapping backend -- see backend/archive/squashfs.toNative/fromNative,
// which trims a fixed prefix and joins with path.Join. This package
// generalizes that pattern into a backend-parameterised algebra driven by a
// RootFunc, since a single wire format (POSIX vs FAT-style roots) is not
// enough for every backend EVFS supports.
package vfspath

import "strings"

// PathSeps is the set of bytes recognised as path separators while parsing.
// DirSep is the single canonical separator used for all output.
const (
	PathSeps = "/\\"
	DirSep   = '/'
)

// MaxPath is the default cap on path length. Callers that need longer paths
// pass AllowLongPaths to the functions that accept an Options value.
const MaxPath = 256

// Options controls the few knobs the algebra exposes beyond the path and
// root functions themselves.
type Options struct {
	// AllowLongPaths disables the MaxPath cap.
	AllowLongPaths bool
}

func (o Options) maxPath() int {
	if o.AllowLongPaths {
		return -1
	}
	return MaxPath
}

// isSep reports whether b is one of PathSeps.
func isSep(b byte) bool {
	return strings.IndexByte(PathSeps, b) >= 0
}

// RootFunc classifies the leading bytes of path as its root component,
// returning the byte range [start, end) of the root and whether the path is
// absolute. isAbsolute requires the root range to be non-empty *and*
// contain at least one separator.
type RootFunc func(path string) (start, end int, isAbsolute bool)

// DefaultRoot implements the POSIX-style rule: the root is the maximal
// leading run of path separators.
func DefaultRoot(path string) (start, end int, isAbsolute bool) {
	n := 0
	for n < len(path) && isSep(path[n]) {
		n++
	}
	return 0, n, n > 0
}

// FATRoot implements the FAT-style rule: an alphanumeric drive letter
// followed by ':' counts as part of the root, with or without a trailing
// separator, e.g. "C:", "C:\", "C:/foo".
func FATRoot(path string) (start, end int, isAbsolute bool) {
	if len(path) >= 2 && isAlphaNum(path[0]) && path[1] == ':' {
		end = 2
		if len(path) > 2 && isSep(path[2]) {
			end = 3
		}
		return 0, end, end > 2
	}
	// Fall back to the default rule so a bare "/foo" is still absolute on a
	// FAT-style backend without a drive letter.
	return DefaultRoot(path)
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// IsAbs reports whether path is absolute under root.
func IsAbs(path string, root RootFunc) bool {
	_, _, abs := root(path)
	return abs
}

// Base returns the final element of path, mirroring Python's
// os.path.basename: the substring after the rightmost separator (or the
// whole path if there is none).
func Base(path string) string {
	if path == "" {
		return ""
	}
	i := lastSepIndex(path)
	return path[i+1:]
}

// Dir returns everything before the final element of path, mirroring
// os.path.dirname, but preserving the trailing separator when the result
// collapses to the root component.
func Dir(path string, root RootFunc) string {
	_, end, _ := root(path)
	i := lastSepIndex(path)
	if i < 0 {
		return ""
	}
	dir := path[:i+1]
	// Trim trailing separators down to a single one, unless doing so would
	// eat into (or past) the root range -- the root keeps exactly the bytes
	// the RootFunc claims, plus the one trailing separator we already have.
	j := len(dir)
	for j > end && j > 0 && isSep(dir[j-1]) {
		j--
	}
	if j < end {
		j = end
	}
	if j == 0 {
		return dir[:1]
	}
	return dir[:j]
}

func lastSepIndex(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if isSep(path[i]) {
			return i
		}
	}
	return -1
}

// Ext returns the rightmost "." extension within the basename, mirroring
// os.path.splitext: a leading dot on the basename itself is not an
// extension separator.
func Ext(path string) string {
	base := Base(path)
	for i := len(base) - 1; i > 0; i-- {
		if base[i] == '.' {
			return base[i:]
		}
	}
	return ""
}

// Join concatenates head and tail with a single canonical separator between
// them:
//   - head == ""          -> tail
//   - head is its own root -> head + tail (no extra separator)
//   - tail == ""          -> head + separator
func Join(head, tail string, root RootFunc) string {
	if head == "" {
		return tail
	}
	_, end, _ := root(head)
	if tail == "" {
		if len(head) > 0 && isSep(head[len(head)-1]) {
			return head
		}
		return head + string(DirSep)
	}
	if len(head) == end && end > 0 {
		return head + tail
	}
	if len(head) > 0 && isSep(head[len(head)-1]) {
		return head + tail
	}
	return head + string(DirSep) + tail
}
