package vfspath

// Absolute converts path to an absolute, normalized path. If path is already
// absolute under root, it is just normalized; otherwise it is joined onto
// cwd first.
func Absolute(cwd, path string, root RootFunc, opts Options) (string, error) {
	if IsAbs(path, root) {
		return Normalize(path, root, opts)
	}
	return Normalize(Join(cwd, path, root), root, opts)
}

// AppendAbs is the buffer-oriented twin of Absolute: calling it with dst
// aliasing path's own backing array yields the same result as calling it
// with disjoint buffers. An equivalent C implementation needs an explicit
// staging dance for this (copy the cwd into the free space past the input,
// memmove the input to make room, concatenate, normalize) because C
// pointers let the output buffer and the input path genuinely share memory
// mid-call.
//
// In Go, converting a []byte to a string always copies (the string header
// is independent of the backing array), so reading path and cwd into local
// strings before writing anything into dst makes that hazard structurally
// impossible here -- dst can safely be path's own backing array. AppendAbs
// exists so callers that received a path as a []byte (e.g. a reused scratch
// buffer) don't need to allocate a fresh string first; see TestAppendAbsOverlap for the invariant this
// preserves.
func AppendAbs(dst, cwd, path []byte, root RootFunc, opts Options) ([]byte, error) {
	ps := string(path) // independent copy: safe even if dst overlaps path
	cs := string(cwd)
	out, err := Absolute(cs, ps, root, opts)
	return append(dst[:0], out...), err
}
