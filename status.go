package swift

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/go/fs/swift/internal/errs"
	"github.com/jmgilman/go/fs/swift/internal/pathutil"
)

// FileStatus is the filesystem metadata synthesized for one path from raw
// store response headers. It is derived fresh per request and never
// persisted.
type FileStatus struct {
	// Path is the canonicalized path under the filesystem's own scheme
	// and authority, e.g. "swift://container.service/a/b".
	Path string

	// Size is the object length in bytes; always 0 for directories.
	Size int64

	// Dir reports whether the store classified the path as directory-like.
	Dir bool

	// ModTime is the store's modification time, or the synthesis time if
	// the store sent none.
	ModTime time.Time
}

// Name returns the last path element.
func (st FileStatus) Name() string {
	return pathutil.Base(fsPath(st.Path))
}

// Stat synthesizes the status of a path. The leaf-object address is checked
// first, then the directory-marker address, then a prefix probe for
// directories implied only by their children. A path absent in all three
// forms fails with fs.ErrNotExist.
func (s *Store) Stat(ctx context.Context, name string) (FileStatus, error) {
	markerForm := false
	headers, err := s.transport.Head(ctx, s.objectAddress(name))
	if errors.Is(err, fs.ErrNotExist) {
		addr := s.directoryAddress(name)
		if !addr.IsRoot() {
			headers, err = s.transport.Head(ctx, addr)
			markerForm = true
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		if status, ok := s.statImpliedDirectory(ctx, name); ok {
			return status, nil
		}
	}
	if err != nil {
		return FileStatus{}, errs.PathError("stat", name, err)
	}

	status, err := s.synthesizeStatus(name, headers)
	if err != nil {
		return FileStatus{}, errs.PathError("stat", name, err)
	}
	if markerForm {
		// A marker object is a plain zero-length object on the wire; the
		// trailing separator in its name is what makes it a directory.
		status.Dir = true
		status.Size = 0
	}
	return status, nil
}

// statImpliedDirectory probes for a directory that exists only through the
// names of the objects beneath it: no marker, no aggregate headers, just a
// non-empty prefix. Any probe failure reports "not implied" rather than an
// error, since the caller already holds the authoritative not-found.
func (s *Store) statImpliedDirectory(ctx context.Context, name string) (FileStatus, bool) {
	raw, err := s.transport.ListPrefix(ctx, s.directoryAddress(name), "")
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		return FileStatus{}, false
	}

	return FileStatus{
		Path:    s.qualifiedPath(name),
		Dir:     true,
		ModTime: time.Now(),
	}, true
}

// synthesizeStatus converts raw response headers into a FileStatus.
//
// The store signals "directory" only through the aggregate container
// headers, which leaf objects never carry. When they are present the entry
// is a directory of length zero regardless of any Content-Length header.
// This classification is a heuristic of the store's data model and is kept
// in this one function so a structural metadata scheme could replace it
// without touching callers.
func (s *Store) synthesizeStatus(name string, headers http.Header) (FileStatus, error) {
	status := FileStatus{
		Path:    s.qualifiedPath(name),
		ModTime: time.Now(),
	}

	if headers.Get(headerContainerObjectCount) != "" ||
		headers.Get(headerContainerBytesUsed) != "" {
		status.Dir = true
	} else if raw := headers.Get("Content-Length"); raw != "" {
		length, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return FileStatus{}, fmt.Errorf("%w: bad Content-Length %q", ErrProtocol, raw)
		}
		status.Size = length
	}

	if raw := headers.Get("Last-Modified"); raw != "" {
		modTime, err := time.Parse(lastModifiedLayout, raw)
		if err != nil {
			// Fabricating a modification time would corrupt caller
			// assumptions, so an unparseable date is fatal.
			return FileStatus{}, fmt.Errorf("%w: bad Last-Modified %q", ErrProtocol, raw)
		}
		status.ModTime = modTime
	}

	return status, nil
}
