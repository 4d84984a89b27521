package swift

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/jmgilman/go/fs/swift/internal/errs"
)

// DirectoryListing holds the statuses discovered under a prefix, in
// discovery order. An empty listing is a valid result, distinct from "not
// found".
type DirectoryListing []FileStatus

// List enumerates every object under a path's prefix and materializes a
// FileStatus for each, at the cost of one metadata round-trip per entry.
//
// The store's ambiguous outcomes are normalized here: a missing prefix or
// the distinguished no-content status mean "empty" at the filesystem root
// (a fresh container has nothing to list) but "not found" anywhere else.
// Any other failure propagates unchanged.
func (s *Store) List(ctx context.Context, name string) (DirectoryListing, error) {
	addr := s.directoryAddress(name)

	raw, err := s.transport.ListPrefix(ctx, addr, "")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNoContent) {
			if addr.IsRoot() {
				return DirectoryListing{}, nil
			}
			return nil, errs.PathError("list", name, fs.ErrNotExist)
		}
		return nil, err
	}

	listing := DirectoryListing{}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			line = "/" + line
		}
		// Skip the directory's own marker
		if line == addr.Object {
			continue
		}

		status, err := s.Stat(ctx, line)
		if errors.Is(err, fs.ErrNotExist) {
			// Entry vanished between the listing and the metadata fetch;
			// surface the store's eventual consistency as an omission.
			s.logger.DebugContext(ctx, "listed entry vanished before stat", "path", line)
			continue
		}
		if err != nil {
			return nil, err
		}
		listing = append(listing, status)
	}

	return listing, nil
}
