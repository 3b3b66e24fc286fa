package vfspath

import (
	"strings"

	"github.com/evfs-project/evfs"
)

// Normalize reduces the root to minimal form, collapses separator runs,
// canonicalizes separators, drops "." segments, collapses ".." against the
// preceding kept segment (a no-op at an absolute root, preserved as a
// leading segment on a relative path), then strips any trailing separator
// except a bare root.
func Normalize(path string, root RootFunc, opts Options) (string, error) {
	_, end, isAbs := root(path)

	rootPrefix := canonicalizeRoot(path[:end], isAbs)
	rest := path[end:]

	var stack []string
	seg := strings.Builder{}
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		s := seg.String()
		seg.Reset()
		switch s {
		case ".":
			// dropped
		case "..":
			if isAbs {
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				// else: ".." at an absolute root is a no-op
			} else {
				if len(stack) == 0 || stack[len(stack)-1] == ".." {
					stack = append(stack, "..")
				} else {
					stack = stack[:len(stack)-1]
				}
			}
		default:
			stack = append(stack, s)
		}
	}
	for i := 0; i < len(rest); i++ {
		if isSep(rest[i]) {
			flush()
			continue
		}
		seg.WriteByte(rest[i])
	}
	flush()

	var out string
	switch {
	case len(stack) == 0 && rootPrefix != "":
		out = rootPrefix
	case len(stack) == 0:
		out = "."
	default:
		out = rootPrefix + strings.Join(stack, string(DirSep))
	}

	if max := opts.maxPath(); max > 0 && len(out) > max {
		return out[:max], evfs.New(evfs.KindOverflow, "normalize", path)
	}
	return out, nil
}

// canonicalizeRoot reduces a root range to its minimal form: separators
// within it converted to DirSep, and exactly one trailing DirSep if the
// path is absolute.
func canonicalizeRoot(root string, isAbs bool) string {
	if root == "" {
		return ""
	}
	b := make([]byte, 0, len(root)+1)
	for i := 0; i < len(root); i++ {
		if isSep(root[i]) {
			if len(b) == 0 || b[len(b)-1] != DirSep {
				b = append(b, DirSep)
			}
			continue
		}
		b = append(b, root[i])
	}
	if isAbs && (len(b) == 0 || b[len(b)-1] != DirSep) {
		b = append(b, DirSep)
	}
	return string(b)
}
