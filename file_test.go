package swift

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"testing"

	"github.com/jmgilman/go/fs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSplittingStore builds a Store with a tiny part size so the split write
// path triggers on small test payloads.
func newSplittingStore(t *testing.T, partSize int64) (*Store, *fakeTransport) {
	t.Helper()

	ft := newFakeTransport()
	store, err := NewStore(Config{
		RootURI:   "swift://container.rack/",
		Transport: ft,
		PartSize:  partSize,
		Logger:    slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	return store, ft
}

// TestFileInterfaceCompliance verifies the handle types satisfy the file
// interfaces. The compile-time checks live next to the implementations.
func TestFileInterfaceCompliance(t *testing.T) {
	var _ core.File = (*File)(nil)
	var _ core.Syncer = (*File)(nil)
	var _ core.File = (*streamingFile)(nil)
}

// TestNewFileWrite tests the initial state of a write handle.
func TestNewFileWrite(t *testing.T) {
	store, _ := newTestStore(t)
	f := newFileWrite(store, "docs/note", "note", os.O_WRONLY|os.O_CREATE)

	assert.Equal(t, "note", f.Name())
	assert.Equal(t, 0, f.buffer.Len())
	assert.Equal(t, 0, f.nextPart)
	assert.False(t, f.closed)
}

// TestFileWriteSmall tests that a file below the part threshold uploads as
// one object on Close.
func TestFileWriteSmall(t *testing.T) {
	fsys, ft := newTestFS(t)

	file, err := fsys.Create("small.txt")
	require.NoError(t, err)

	n, err := file.Write([]byte("tiny"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Nothing hits the store until Close
	assert.Empty(t, ft.callsWith("PUT"))

	require.NoError(t, file.Close())
	assert.Equal(t, []string{"PUT /small.txt"}, ft.callsWith("PUT"))

	got, err := fsys.ReadFile("small.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("tiny"), got)
}

// TestFileWriteSplit tests the part-splitting write path: full buffers
// flush as numbered parts and Close finalizes with a manifest.
func TestFileWriteSplit(t *testing.T) {
	store, ft := newSplittingStore(t, 4)
	fsys := NewWithStore(store)

	file, err := fsys.Create("big.bin")
	require.NoError(t, err)

	for _, chunk := range []string{"abc", "def", "ghi"} {
		n, err := file.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}
	require.NoError(t, file.Close())

	assert.True(t, ft.has("/big.bin/000001"))
	assert.True(t, ft.has("/big.bin/000002"))
	assert.True(t, ft.has("/big.bin"), "manifest at the logical name")
	assert.Equal(t, "container/big.bin/", ft.lastPutHeaders.Get(headerObjectManifest))

	got, err := fsys.ReadFile("big.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefghi"), got)

	info, err := fsys.Stat("big.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size())
}

// TestFileWriteManyParts tests that a file spanning ten or more parts reads
// back in write order. The manifest concatenates parts in the store's
// lexicographic listing order, so the padded part names must sort the same
// way they were written.
func TestFileWriteManyParts(t *testing.T) {
	store, ft := newSplittingStore(t, 4)
	fsys := NewWithStore(store)

	file, err := fsys.Create("big.bin")
	require.NoError(t, err)

	var want []byte
	for i := 0; i < 12; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i)}, 4)
		_, err := file.Write(chunk)
		require.NoError(t, err)
		want = append(want, chunk...)
	}
	require.NoError(t, file.Close())

	assert.True(t, ft.has("/big.bin/000001"))
	assert.True(t, ft.has("/big.bin/000012"))

	got, err := fsys.ReadFile("big.bin")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := fsys.Stat("big.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), info.Size())
}

// TestFileWriteModes tests write rejection on closed and read-mode handles.
func TestFileWriteModes(t *testing.T) {
	store, _ := newTestStore(t)

	t.Run("write after close", func(t *testing.T) {
		f := newFileWrite(store, "f", "f", os.O_WRONLY)
		require.NoError(t, f.Close())

		_, err := f.Write([]byte("x"))
		assert.ErrorIs(t, err, fs.ErrClosed)
	})

	t.Run("write without write flag", func(t *testing.T) {
		f := newFileWrite(store, "f", "f", os.O_RDONLY)

		_, err := f.Write([]byte("x"))
		assert.ErrorIs(t, err, fs.ErrInvalid)
	})

	t.Run("read on write handle", func(t *testing.T) {
		f := newFileWrite(store, "f", "f", os.O_WRONLY)

		_, err := f.Read(make([]byte, 4))
		assert.ErrorIs(t, err, fs.ErrInvalid)
	})

	t.Run("seek on write handle", func(t *testing.T) {
		f := newFileWrite(store, "f", "f", os.O_WRONLY)

		_, err := f.Seek(0, io.SeekStart)
		assert.ErrorIs(t, err, core.ErrUnsupported)
	})
}

// TestFileCloseIdempotent tests that a double Close uploads exactly once.
func TestFileCloseIdempotent(t *testing.T) {
	store, ft := newTestStore(t)
	f := newFileWrite(store, "f", "f", os.O_WRONLY)

	_, err := f.Write([]byte("once"))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Len(t, ft.callsWith("PUT"), 1)
}

// TestFileStatWhileWriting tests that Stat on a write handle reflects the
// bytes written so far.
func TestFileStatWhileWriting(t *testing.T) {
	store, _ := newTestStore(t)
	f := newFileWrite(store, "f", "f", os.O_WRONLY)

	_, err := f.Write([]byte("12345678"))
	require.NoError(t, err)

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size())
}

// TestFileSync tests that Sync commits the unsplit buffer as the logical
// object without closing the handle.
func TestFileSync(t *testing.T) {
	store, ft := newTestStore(t)
	f := newFileWrite(store, "f", "f", os.O_WRONLY)

	_, err := f.Write([]byte("synced"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	assert.True(t, ft.has("/f"))

	// The handle stays writable after Sync
	_, err = f.Write([]byte(" more"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// TestStreamingFileRead tests sequential reads and Stat on a read handle.
func TestStreamingFileRead(t *testing.T) {
	fsys, ft := newTestFS(t)
	ft.seed("/f", []byte("0123456789"))

	file, err := fsys.Open("f")
	require.NoError(t, err)

	got, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))

	info, err := file.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size())

	require.NoError(t, file.Close())
	require.NoError(t, file.Close(), "close is idempotent")

	_, err = file.Read(make([]byte, 1))
	assert.ErrorIs(t, err, fs.ErrClosed)
}

// TestStreamingFileSeek tests repositioning via byte-range reopens.
func TestStreamingFileSeek(t *testing.T) {
	fsys, ft := newTestFS(t)
	ft.seed("/f", []byte("0123456789"))

	file, err := fsys.Open("f")
	require.NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	seeker, ok := file.(io.Seeker)
	require.True(t, ok)

	pos, err := seeker.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	buf := make([]byte, 3)
	_, err = io.ReadFull(file, buf)
	require.NoError(t, err)
	assert.Equal(t, "456", string(buf))

	pos, err = seeker.Seek(-2, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)

	got, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "89", string(got))

	_, err = seeker.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

// TestStreamingFileSeekReopenFailure tests that a handle whose range reopen
// fails stops serving reads instead of reading from the discarded stream.
func TestStreamingFileSeekReopenFailure(t *testing.T) {
	fsys, ft := newTestFS(t)
	ft.seed("/f", []byte("0123456789"))

	file, err := fsys.Open("f")
	require.NoError(t, err)

	seeker, ok := file.(io.Seeker)
	require.True(t, ok)

	ft.getErr["/f"] = errors.New("store unavailable")

	_, err = seeker.Seek(4, io.SeekStart)
	require.Error(t, err)

	_, err = file.Read(make([]byte, 1))
	assert.ErrorIs(t, err, fs.ErrClosed)

	require.NoError(t, file.Close())
}

// TestStreamingFileReadAt tests that ReadAt serves an independent range
// without disturbing the sequential stream.
func TestStreamingFileReadAt(t *testing.T) {
	fsys, ft := newTestFS(t)
	ft.seed("/f", []byte("0123456789"))

	file, err := fsys.Open("f")
	require.NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	readerAt, ok := file.(io.ReaderAt)
	require.True(t, ok)

	buf := make([]byte, 4)
	n, err := readerAt.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))

	// Sequential position unaffected
	head := make([]byte, 2)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "01", string(head))
}

// TestStreamingFileWriteRejected tests that read handles refuse writes.
func TestStreamingFileWriteRejected(t *testing.T) {
	fsys, ft := newTestFS(t)
	ft.seed("/f", []byte("x"))

	file, err := fsys.Open("f")
	require.NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	writer, ok := file.(io.Writer)
	require.True(t, ok)

	_, err = writer.Write([]byte("nope"))
	assert.ErrorIs(t, err, fs.ErrInvalid)
}
