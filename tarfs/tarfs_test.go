package tarfs

import (
	"fmt"
	"io"
	"testing"

	"github.com/evfs-project/evfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memReaderAt adapts a []byte to io.ReaderAt for tests.
type memReaderAt struct{ buf []byte }

func (m memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// writeOctal writes v as a NUL-terminated octal field of the given width.
func writeOctal(b []byte, v int64, width int) {
	s := fmt.Sprintf("%0*o", width-1, v)
	copy(b, s)
	b[width-1] = 0
}

// buildHeader writes one 512-byte ustar record (header only, no data) for
// name with the given type flag and size, with a correctly computed
// checksum.
func buildHeader(name string, typeFlag byte, size int64) []byte {
	block := make([]byte, blockSize)
	copy(block[offName:], name)
	writeOctal(block[offSize:], size, sizeSize)
	block[offTypeFlag] = typeFlag
	copy(block[offMagic:], "ustar")
	block[offMagic+5] = ' '

	for i := offChecksum; i < offChecksum+sizeChecksum; i++ {
		block[i] = ' '
	}
	var sum int64
	for _, b := range block[:headerSize] {
		sum += int64(b)
	}
	writeOctal(block[offChecksum:], sum, sizeChecksum)
	return block
}

// buildArchive assembles a tar image with a directory "a/" and a regular
// file "a/b.txt" with the given content.
func buildArchive(content string) []byte {
	var img []byte
	img = append(img, buildHeader("a/", typeDirectory, 0)...)
	img = append(img, buildHeader("a/b.txt", typeRegularA, int64(len(content)))...)
	img = append(img, content...)
	pad := (blockSize - len(content)%blockSize) % blockSize
	img = append(img, make([]byte, pad)...)
	// Two all-zero trailing blocks mark end of archive.
	img = append(img, make([]byte, 2*blockSize)...)
	return img
}

func TestMountAndStatDir(t *testing.T) {
	img := buildArchive("abc")
	fs, err := Mount(memReaderAt{img}, Options{Name: "tar0"})
	require.NoError(t, err)

	info, err := fs.Stat("/a")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenReadFile(t *testing.T) {
	img := buildArchive("abc")
	fs, err := Mount(memReaderAt{img}, Options{})
	require.NoError(t, err)

	info, err := fs.Stat("/a/b.txt")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, int64(3), info.Size)

	f, err := fs.Open("/a/b.txt", 0)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 3)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(buf))
	assert.True(t, f.EOF())
}

func TestOpenRejectsWriteAndDir(t *testing.T) {
	img := buildArchive("abc")
	fs, err := Mount(memReaderAt{img}, Options{})
	require.NoError(t, err)

	_, err = fs.Open("/a/b.txt", evfs.Write)
	require.Error(t, err)

	_, err = fs.Open("/a", 0)
	require.Error(t, err)
}

func TestDirListingUnsupported(t *testing.T) {
	img := buildArchive("abc")
	fs, err := Mount(memReaderAt{img}, Options{})
	require.NoError(t, err)

	fields, err := fs.Ctrl(evfs.CtrlGetDirFields, nil)
	require.NoError(t, err)
	assert.Equal(t, evfs.InfoFields(0), fields)
}

func TestStatMissingFile(t *testing.T) {
	img := buildArchive("abc")
	fs, err := Mount(memReaderAt{img}, Options{})
	require.NoError(t, err)

	_, err = fs.Stat("/nope")
	require.Error(t, err)
}

func TestChecksumVerification(t *testing.T) {
	block := buildHeader("ok.txt", typeRegularA, 1)
	var sum int64
	for i, b := range block[:headerSize] {
		if i >= offChecksum && i < offChecksum+sizeChecksum {
			b = ' '
		}
		sum += int64(b)
	}
	got, err := parseOctal(block[offChecksum : offChecksum+sizeChecksum])
	require.NoError(t, err)
	assert.Equal(t, sum, got)
}

func TestIterateStopsAtBadMagic(t *testing.T) {
	img := buildHeader("x", typeRegularA, 0)
	img[offMagic] = 'Z' // corrupt the magic field

	fs, err := Mount(memReaderAt{img}, Options{})
	require.NoError(t, err, "a bad magic ends iteration cleanly, it does not fail Mount")

	_, err = fs.Stat("/x")
	assert.Error(t, err, "no entries should have been indexed past the corrupt header")
}
