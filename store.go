package swift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/jmgilman/go/fs/swift/internal/errs"
	"github.com/jmgilman/go/fs/swift/internal/pathutil"
)

// uriPattern extracts quoted URIs from a ring-location response body.
var uriPattern = regexp.MustCompile(`"\S+?"`)

// Store is the translation core between filesystem semantics and the flat
// object store. It maps paths to store addresses, synthesizes filesystem
// metadata from response headers, and emulates directories, rename, and
// multipart upload on top of the Transport's narrow request surface.
//
// Every method is synchronous and performs one or more sequential
// round-trips. The Store holds no mutable state beyond its configuration,
// so it is safe for concurrent use to the extent the underlying store
// tolerates concurrent mutation of the same object names.
type Store struct {
	transport Transport
	container string
	service   string
	authority string // authority of the root URI, used in qualified paths
	partSize  int64
	logger    *slog.Logger
}

// NewStore creates a Store for the filesystem root named by cfg.RootURI.
// If cfg.Transport is nil, a RestTransport is built from the connection
// fields.
func NewStore(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	container, service, err := splitRootURI(cfg.RootURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	root, err := url.Parse(cfg.RootURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport, err = NewRestTransport(cfg)
		if err != nil {
			return nil, err
		}
	}

	partSize := cfg.PartSize
	if partSize <= 0 {
		partSize = DefaultPartSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		transport: transport,
		container: container,
		service:   service,
		authority: root.Host,
		partSize:  partSize,
		logger:    logger,
	}, nil
}

// Container returns the container this store addresses.
func (s *Store) Container() string {
	return s.container
}

// PartSize returns the configured multipart threshold.
func (s *Store) PartSize() int64 {
	return s.partSize
}

// objectAddress maps a path to its leaf-object address.
func (s *Store) objectAddress(name string) ObjectAddress {
	return AddressFor(s.container, name, false)
}

// directoryAddress maps a path to its directory-marker address.
func (s *Store) directoryAddress(name string) ObjectAddress {
	return AddressFor(s.container, name, true)
}

// qualifiedPath canonicalizes a path under the filesystem's own scheme and
// authority.
func (s *Store) qualifiedPath(name string) string {
	p := pathutil.Normalize(name)
	if p == "." {
		return Scheme + "://" + s.authority + "/"
	}
	return Scheme + "://" + s.authority + "/" + p
}

// absPath normalizes a name to an absolute slash-separated path; the root
// is "/".
func absPath(name string) string {
	p := pathutil.Normalize(name)
	if p == "." {
		return "/"
	}
	return "/" + p
}

// fsPath recovers the container-relative path from a qualified path. The
// qualified form embeds the object name verbatim, so this is plain string
// surgery; running it through url.Parse would percent-decode names that
// legally contain "%".
func fsPath(qualified string) string {
	rest := qualified
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "/"
	}
	return rest[slash:]
}

// ObjectExists reports whether metadata can be retrieved for the path.
func (s *Store) ObjectExists(ctx context.Context, name string) (bool, error) {
	_, err := s.Stat(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateDirectory writes the zero-length directory marker for a path.
func (s *Store) CreateDirectory(ctx context.Context, name string) error {
	addr := s.directoryAddress(name)
	if addr.IsRoot() {
		// The container itself is the root; nothing to create.
		return nil
	}
	if err := s.transport.Put(ctx, addr, nil, 0, nil); err != nil {
		return errs.PathError("mkdir", name, err)
	}
	return nil
}

// DeleteObject removes the leaf object at a path. It returns true iff this
// call performed the deletion.
func (s *Store) DeleteObject(ctx context.Context, name string) (bool, error) {
	return s.transport.Delete(ctx, s.objectAddress(name))
}

// deleteMarker removes the directory marker at a path, if present.
func (s *Store) deleteMarker(ctx context.Context, name string) (bool, error) {
	return s.transport.Delete(ctx, s.directoryAddress(name))
}

// Delete removes a path. Files are deleted directly. Directories require
// recursive unless empty; children are deleted one by one (leaf objects
// first, markers after), so a failure partway leaves a partially-deleted
// tree.
func (s *Store) Delete(ctx context.Context, name string, recursive bool) (bool, error) {
	status, err := s.Stat(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !status.Dir {
		return s.DeleteObject(ctx, name)
	}

	listing, err := s.List(ctx, name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if len(listing) > 0 && !recursive {
		return false, errs.PathError("delete", name, ErrNotEmpty)
	}

	// Leaf objects first so directory prefixes never outlive their content,
	// then the markers, deepest entries having been listed after their
	// parents either way.
	for _, entry := range listing {
		if entry.Dir {
			continue
		}
		if _, err := s.DeleteObject(ctx, fsPath(entry.Path)); err != nil {
			return false, err
		}
	}
	for _, entry := range listing {
		if !entry.Dir {
			continue
		}
		if _, err := s.deleteMarker(ctx, fsPath(entry.Path)); err != nil {
			return false, err
		}
	}

	if s.directoryAddress(name).IsRoot() {
		// The root directory itself is the container and cannot be removed.
		return true, nil
	}
	deleted, err := s.deleteMarker(ctx, name)
	if err != nil {
		return false, err
	}
	if !deleted {
		// No marker existed; the directory was implied by its children.
		deleted = len(listing) > 0
	}
	return deleted, nil
}

// GetObject opens the object data at a path for reading, optionally
// restricted to a byte range. The stream must be closed by the caller.
func (s *Store) GetObject(ctx context.Context, name string, rng *ByteRange) (io.ReadCloser, error) {
	body, _, err := s.transport.Get(ctx, s.objectAddress(name), rng)
	if err != nil {
		return nil, errs.PathError("open", name, err)
	}
	return body, nil
}

// UploadObject writes an object of the given length at a path.
func (s *Store) UploadObject(ctx context.Context, name string, body io.Reader, length int64) error {
	if err := s.transport.Put(ctx, s.objectAddress(name), body, length, nil); err != nil {
		return errs.PathError("upload", name, err)
	}
	return nil
}

// ObjectLocations resolves the physical placement of an object's data,
// returning the URIs extracted from the store's location response.
func (s *Store) ObjectLocations(ctx context.Context, name string) ([]*url.URL, error) {
	raw, err := s.transport.Locations(ctx, s.objectAddress(name))
	if err != nil {
		return nil, errs.PathError("locations", name, err)
	}
	return extractURIs(raw), nil
}

// extractURIs pulls every quoted URI out of a location response body.
func extractURIs(raw []byte) []*url.URL {
	var uris []*url.URL
	for _, match := range uriPattern.FindAllString(string(raw), -1) {
		trimmed := match[1 : len(match)-1]
		u, err := url.Parse(trimmed)
		if err != nil {
			continue
		}
		uris = append(uris, u)
	}
	return uris
}
