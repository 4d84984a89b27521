package swift

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/fs/core"
	"github.com/jmgilman/go/fs/swift/internal/errs"
	"github.com/jmgilman/go/fs/swift/internal/types"
)

// File represents a Swift object handle opened for writing.
//
// Writes accumulate in memory until the store's part-size threshold is
// crossed; from then on each full buffer is flushed as a numbered part
// object and Close finalizes the logical object with a manifest. Small
// files are uploaded as a single object on Close.
type File struct {
	store *Store
	key   string // Container-relative path (including prefix)
	name  string // Original name provided to Create/OpenFile
	mode  int    // Open flags (O_WRONLY, O_CREATE, ...)

	buffer       *bytes.Buffer
	nextPart     int   // 1-based index of the next part; 0 while unsplit
	bytesWritten int64 // Total bytes written (for Stat in write mode)
	closed       bool  // Prevent double-close
}

// newFileWrite creates a File in write mode with an empty buffer.
func newFileWrite(store *Store, key, name string, flag int) *File {
	return &File{
		store:  store,
		key:    key,
		name:   name,
		mode:   flag,
		buffer: new(bytes.Buffer),
	}
}

// Read is not supported on write-mode files.
func (f *File) Read(_ []byte) (int, error) {
	return 0, errs.PathError("read", f.name, fs.ErrInvalid)
}

// Write appends len(p) bytes to the upload. Once the accumulated data
// reaches the store's part size, it is flushed synchronously as a part
// object before Write returns.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, errs.PathError("write", f.name, fs.ErrClosed)
	}
	if f.mode&(os.O_WRONLY|os.O_RDWR) == 0 {
		return 0, errs.PathError("write", f.name, fs.ErrInvalid)
	}

	n, err := f.buffer.Write(p)
	f.bytesWritten += int64(n)
	if err != nil {
		return n, errs.PathError("write", f.name, err)
	}

	for int64(f.buffer.Len()) >= f.store.PartSize() {
		if err := f.flushPart(context.Background()); err != nil {
			return n, errs.PathError("write", f.name, err)
		}
	}

	return n, nil
}

// flushPart uploads the buffered data as the next numbered part.
func (f *File) flushPart(ctx context.Context) error {
	if f.nextPart == 0 {
		f.nextPart = 1
	}

	length := int64(f.buffer.Len())
	if err := f.store.UploadPart(ctx, f.key, f.nextPart, bytes.NewReader(f.buffer.Bytes()), length); err != nil {
		return err
	}

	f.nextPart++
	f.buffer.Reset()
	return nil
}

// Seek is not supported on write-mode files.
func (f *File) Seek(_ int64, _ int) (int64, error) {
	return 0, errs.PathError("seek", f.name, core.ErrUnsupported)
}

// ReadAt is not supported on write-mode files.
func (f *File) ReadAt(_ []byte, _ int64) (int, error) {
	return 0, errs.PathError("readat", f.name, core.ErrUnsupported)
}

// Stat returns the FileInfo structure describing the file.
// In write mode this reflects the bytes written so far.
func (f *File) Stat() (fs.FileInfo, error) {
	return types.NewFileInfo(f.name, f.bytesWritten, time.Now(), 0644), nil
}

// Close finalizes the upload. Small files become a single object; split
// files get their final part flushed and a manifest written at the logical
// name. Close is idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil // Already closed, idempotent
	}
	f.closed = true

	if f.mode&(os.O_WRONLY|os.O_RDWR) == 0 {
		return nil
	}

	ctx := context.Background()

	// Unsplit: the whole file fits in the buffer
	if f.nextPart == 0 {
		length := int64(f.buffer.Len())
		if err := f.store.UploadObject(ctx, f.key, bytes.NewReader(f.buffer.Bytes()), length); err != nil {
			return errs.PathError("close", f.name, err)
		}
		return nil
	}

	// Split: flush the tail, then point the manifest at the parts
	if f.buffer.Len() > 0 {
		if err := f.flushPart(ctx); err != nil {
			return errs.PathError("close", f.name, err)
		}
	}
	if err := f.store.CreateManifest(ctx, f.key); err != nil {
		return errs.PathError("close", f.name, err)
	}

	return nil
}

// Sync commits the current contents of the file to storage. Before the
// first part split this uploads the buffer as the logical object; after a
// split the data is already on the store as parts and Sync is a no-op
// (the manifest is only written by Close).
func (f *File) Sync() error {
	if f.closed || f.mode&(os.O_WRONLY|os.O_RDWR) == 0 {
		return nil
	}
	if f.nextPart != 0 {
		return nil
	}

	length := int64(f.buffer.Len())
	if err := f.store.UploadObject(context.Background(), f.key, bytes.NewReader(f.buffer.Bytes()), length); err != nil {
		return errs.PathError("sync", f.name, err)
	}
	return nil
}

// Name returns the name of the file as provided to Create or OpenFile.
func (f *File) Name() string {
	return f.name
}

// streamingFile provides streaming reads without buffering entire objects.
type streamingFile struct {
	store  *Store
	key    string
	name   string
	body   io.ReadCloser
	status FileStatus
	offset int64 // Current read position for Seek implementation
	closed bool
}

// newStreamingFile creates a streaming file handle for reading.
func newStreamingFile(ctx context.Context, store *Store, key, name string) (*streamingFile, error) {
	// Metadata first; a HEAD does not tie up a data connection
	status, err := store.Stat(ctx, key)
	if err != nil {
		return nil, errs.PathError("open", name, underlying(err))
	}

	body, err := store.GetObject(ctx, key, nil)
	if err != nil {
		return nil, errs.PathError("open", name, underlying(err))
	}

	return &streamingFile{
		store:  store,
		key:    key,
		name:   name,
		body:   body,
		status: status,
	}, nil
}

// Read reads up to len(p) bytes into p from the object stream.
func (f *streamingFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, errs.PathError("read", f.name, fs.ErrClosed)
	}
	n, err := f.body.Read(p)
	f.offset += int64(n)

	// Normalize EOF behavior: if we read any data, return nil error
	if n > 0 && errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

// Close closes the streaming file and releases the connection.
func (f *streamingFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.body.Close()
}

// Stat returns file information for the streaming file.
func (f *streamingFile) Stat() (fs.FileInfo, error) {
	return types.NewFileInfo(
		filepath.Base(f.name),
		f.status.Size,
		f.status.ModTime,
		0644,
	), nil
}

// Name returns the name of the file.
func (f *streamingFile) Name() string {
	return f.name
}

// Write is not supported for read-only streaming files.
func (f *streamingFile) Write(_ []byte) (int, error) {
	return 0, errs.PathError("write", f.name, fs.ErrInvalid)
}

// Seek sets the read position for the next Read operation.
// It reopens the object with a byte-range request at the new offset.
func (f *streamingFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, errs.PathError("seek", f.name, fs.ErrClosed)
	}

	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = f.offset + offset
	case io.SeekEnd:
		newOffset = f.status.Size + offset
	default:
		return 0, errs.PathError("seek", f.name, fs.ErrInvalid)
	}

	if newOffset < 0 {
		return 0, errs.PathError("seek", f.name, fs.ErrInvalid)
	}

	// If seeking to current position, no need to reopen
	if newOffset == f.offset {
		return newOffset, nil
	}

	_ = f.body.Close()

	var rng *ByteRange
	if newOffset > 0 {
		rng = &ByteRange{Start: newOffset}
	}

	// nolint:contextcheck // fs.File.Seek cannot accept context; using background context
	body, err := f.store.GetObject(context.Background(), f.key, rng)
	if err != nil {
		// The old stream is already closed and there is no new one to swap
		// in, so the handle cannot serve further reads.
		f.closed = true
		return 0, errs.PathError("seek", f.name, underlying(err))
	}

	f.body = body
	f.offset = newOffset
	return newOffset, nil
}

// ReadAt reads len(p) bytes from the file starting at byte offset off.
// It issues a dedicated byte-range request so the main stream position is
// unaffected.
func (f *streamingFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, errs.PathError("readat", f.name, fs.ErrClosed)
	}
	if off < 0 {
		return 0, errs.PathError("readat", f.name, fs.ErrInvalid)
	}

	// nolint:contextcheck // fs.File.ReadAt cannot accept context; using background context
	body, err := f.store.GetObject(context.Background(), f.key, &ByteRange{Start: off, Length: int64(len(p))})
	if err != nil {
		return 0, errs.PathError("readat", f.name, underlying(err))
	}
	defer func() {
		_ = body.Close()
	}()

	return io.ReadFull(body, p)
}

// Compile-time interface checks.
var (
	_ core.File   = (*File)(nil)
	_ fs.File     = (*File)(nil)
	_ io.Seeker   = (*File)(nil)
	_ io.ReaderAt = (*File)(nil)
	_ core.Syncer = (*File)(nil)

	_ core.File   = (*streamingFile)(nil)
	_ fs.File     = (*streamingFile)(nil)
	_ io.Seeker   = (*streamingFile)(nil)
	_ io.ReaderAt = (*streamingFile)(nil)
)
