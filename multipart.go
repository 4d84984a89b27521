package swift

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jmgilman/go/fs/swift/internal/errs"
)

// partAddress derives the store address of one numbered part of a logical
// object. The part index is appended as a fixed-width extra path segment:
// below the logical name so parts can never collide with it, and zero-padded
// so the store's lexicographic listing order, which the manifest concatenates
// in, matches the numeric part order.
func (s *Store) partAddress(name string, partNumber int) ObjectAddress {
	addr := s.objectAddress(name)
	addr.Object = fmt.Sprintf("%s/%06d", addr.Object, partNumber)
	return addr
}

// UploadPart writes one part of a larger logical object.
func (s *Store) UploadPart(ctx context.Context, name string, partNumber int, body io.Reader, length int64) error {
	if err := s.transport.Put(ctx, s.partAddress(name, partNumber), body, length, nil); err != nil {
		return errs.PathError("upload", name, err)
	}
	return nil
}

// CreateManifest finalizes a multipart upload: it writes a zero-length
// object at the logical name whose manifest header points at the parts'
// common prefix, telling the store to serve the logical object as the
// ordered concatenation of every object under that prefix.
//
// It must be called only after all parts have landed. Nothing here detects
// a manifest over a partially-uploaded prefix; that is a caller error.
func (s *Store) CreateManifest(ctx context.Context, name string) error {
	addr := s.objectAddress(name)

	// Manifest value: container-qualified prefix, leading separator
	// stripped, trailing separator enforced.
	prefix := addr.Container + addr.Object
	prefix = strings.TrimPrefix(prefix, "/")
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	extra := http.Header{}
	extra.Set(headerObjectManifest, prefix)

	if err := s.transport.Put(ctx, addr, nil, 0, extra); err != nil {
		return errs.PathError("upload", name, err)
	}
	return nil
}
