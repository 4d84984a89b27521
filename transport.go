package swift

import (
	"context"
	"io"
	"net/http"
)

// ByteRange selects a half-open slice of an object for Get.
type ByteRange struct {
	// Start is the offset of the first byte to return.
	Start int64

	// Length is the number of bytes to return. Zero means "to the end".
	Length int64
}

// Transport issues raw requests against the object store. It owns
// authentication, connection handling, and low-level retries; callers above
// it never perform I/O themselves.
//
// The capability set is deliberately narrow (head, get, put, delete, copy,
// prefix listing) and none of the methods imply atomicity the store cannot
// deliver. Implementations must be safe for concurrent use.
type Transport interface {
	// Head fetches the metadata headers for an address. It returns
	// fs.ErrNotExist when the store has no object there.
	Head(ctx context.Context, addr ObjectAddress) (http.Header, error)

	// Get opens the object data for reading, optionally restricted to a
	// byte range. The returned stream must be closed to release the
	// connection.
	Get(ctx context.Context, addr ObjectAddress, rng *ByteRange) (io.ReadCloser, http.Header, error)

	// Put writes an object of the given length from body. Extra headers,
	// if any, are sent verbatim with the request.
	Put(ctx context.Context, addr ObjectAddress, body io.Reader, length int64, extra http.Header) error

	// Delete removes an object. It returns true iff this call performed
	// the deletion; an already-absent object yields (false, nil).
	Delete(ctx context.Context, addr ObjectAddress) (bool, error)

	// Copy duplicates src to dst server-side. A missing source returns
	// fs.ErrNotExist; any other non-success outcome returns (false, nil)
	// or an error describing the failure.
	Copy(ctx context.Context, src, dst ObjectAddress) (bool, error)

	// ListPrefix returns the raw newline-delimited object names under the
	// address's prefix, starting after marker if it is non-empty. A
	// missing container or prefix returns fs.ErrNotExist; the store's
	// distinguished empty result returns ErrNoContent.
	ListPrefix(ctx context.Context, addr ObjectAddress, marker string) ([]byte, error)

	// Locations returns the raw ring-location response for an object,
	// used to resolve physical data placement.
	Locations(ctx context.Context, addr ObjectAddress) ([]byte, error)
}
