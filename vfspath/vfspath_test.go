package vfspath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScenarios(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"S1", "/a//b/./c/../d/", "/a/b/d"},
		{"S2", "a/b/../../../c", "../c"},
		{"S3", "/..", "/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in, DefaultRoot, Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestJoinScenarios(t *testing.T) {
	assert.Equal(t, "/foo/bar", Join("/foo", "bar", DefaultRoot))
	assert.Equal(t, "/foo", Join("/", "foo", DefaultRoot))
	assert.Equal(t, "/foo/", Join("/foo", "", DefaultRoot))
	assert.Equal(t, "/", Join("/", "", DefaultRoot))
}

func TestBasenameDirnameExt(t *testing.T) {
	assert.Equal(t, "c", Base("/a/b/c"))
	assert.Equal(t, "/a/b", Dir("/a/b/c", DefaultRoot))
	assert.Equal(t, "/", Dir("/", DefaultRoot))
	assert.Equal(t, ".gz", Ext("f.tar.gz"))
}

func TestNormalizeInvariants(t *testing.T) {
	inputs := []string{
		"/a//b/./c/../d/", "a/b/../../../c", "/..", "/a/b/c", "a", "../../x",
		"/", "a/./b/../../c",
	}
	for _, in := range inputs {
		got, err := Normalize(in, DefaultRoot, Options{})
		require.NoError(t, err)
		for i := 0; i < len(got); i++ {
			if isSep(got[i]) {
				assert.False(t, i+1 < len(got) && isSep(got[i+1]), "no run of >=2 separators in %q", got)
			}
		}
		if got != "/" {
			assert.False(t, len(got) > 0 && isSep(got[len(got)-1]), "no trailing separator in %q", got)
		}
		// Idempotent: normalizing twice gives the same result.
		got2, err := Normalize(got, DefaultRoot, Options{})
		require.NoError(t, err)
		assert.Equal(t, got, got2, "normalize should be idempotent for %q", in)
	}
}

func TestAbsoluteOfAbsoluteIsNormalize(t *testing.T) {
	// Invariant 1: normalize(absolute(p)) == normalize(p) for absolute p.
	p := "/a//b/./c/../d/"
	abs, err := Absolute("/cwd", p, DefaultRoot, Options{})
	require.NoError(t, err)
	norm, err := Normalize(p, DefaultRoot, Options{})
	require.NoError(t, err)
	assert.Equal(t, norm, abs)
}

func TestJoinDirnameBasenameInvariant(t *testing.T) {
	// Invariant 2: join(dirname(p), basename(p)) normalizes the same as normalize(p).
	for _, p := range []string{"/a/b/c", "a/b/c", "/a", "a"} {
		dir := Dir(p, DefaultRoot)
		base := Base(p)
		joined := Join(dir, base, DefaultRoot)
		wantNorm, err := Normalize(p, DefaultRoot, Options{})
		require.NoError(t, err)
		gotNorm, err := Normalize(joined, DefaultRoot, Options{})
		require.NoError(t, err)
		assert.Equal(t, wantNorm, gotNorm, "path=%q dir=%q base=%q joined=%q", p, dir, base, joined)
	}
}

func TestAppendAbsOverlap(t *testing.T) {
	// Invariant 9: AppendAbs(dst, cwd, path) with dst sharing path's backing
	// array gives the same result as with disjoint buffers.
	backing := []byte("../x")
	path := backing // alias

	disjointOut, err := AppendAbs(nil, []byte("/j"), []byte("../x"), DefaultRoot, Options{})
	require.NoError(t, err)

	aliasedOut, err := AppendAbs(backing[:0], []byte("/j"), path, DefaultRoot, Options{})
	require.NoError(t, err)

	assert.Equal(t, string(disjointOut), string(aliasedOut))
}

func TestFATRoot(t *testing.T) {
	start, end, abs := FATRoot(`C:\foo\bar`)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
	assert.True(t, abs)

	_, end, abs = FATRoot(`C:foo`)
	assert.Equal(t, 2, end)
	assert.False(t, abs)
}

func TestOverflow(t *testing.T) {
	long := "/" + string(make([]byte, MaxPath*2))
	_, err := Normalize(long, DefaultRoot, Options{})
	require.Error(t, err)
}
