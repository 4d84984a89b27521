package swift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmgilman/go/fs/core"
	"github.com/jmgilman/go/fs/swift/internal/errs"
	"github.com/jmgilman/go/fs/swift/internal/pathutil"
	"github.com/jmgilman/go/fs/swift/internal/types"
	"github.com/jmgilman/go/fs/swift/internal/walk"
)

// SwiftFS implements core.FS for OpenStack Swift storage. It is a thin
// layer over Store, which does the heavy lifting of emulating hierarchy on
// the flat object namespace.
//
//nolint:revive // SwiftFS name is intentional to match naming pattern across fs implementations
type SwiftFS struct {
	store  *Store
	prefix string // Optional prefix for all paths (Chroot)
}

// New creates a Swift-backed filesystem.
// Returns error if configuration is invalid or authentication fails.
func New(cfg Config) (*SwiftFS, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	return &SwiftFS{store: store}, nil
}

// NewWithStore wraps an existing Store in the core.FS surface.
func NewWithStore(store *Store) *SwiftFS {
	return &SwiftFS{store: store}
}

// Store exposes the underlying translation core for callers that need the
// store-level operations (part upload, manifest finalization, object
// locations) directly.
func (m *SwiftFS) Store() *Store {
	return m.store
}

// Type returns the underlying filesystem type.
func (m *SwiftFS) Type() core.FSType {
	return core.FSTypeRemote
}

// joinPath joins the filesystem prefix with the given name.
func (m *SwiftFS) joinPath(name string) string {
	return pathutil.JoinPath(m.prefix, name)
}

// Open opens the named file for reading.
// The returned file streams object data and supports Seek and ReadAt via
// byte-range requests.
func (m *SwiftFS) Open(name string) (fs.File, error) {
	key := m.joinPath(name)
	return newStreamingFile(context.Background(), m.store, key, name)
}

// Stat returns file information for the named file.
func (m *SwiftFS) Stat(name string) (fs.FileInfo, error) {
	status, err := m.store.Stat(context.Background(), m.joinPath(name))
	if err != nil {
		return nil, errs.PathError("stat", name, underlying(err))
	}

	return fileInfoFromStatus(filepath.Base(name), status), nil
}

// ReadDir reads the directory named by name and returns a list of directory
// entries sorted by filename.
//
// The store's prefix listing is deep, so entries below the immediate
// children are collapsed into synthesized directory entries.
func (m *SwiftFS) ReadDir(name string) ([]fs.DirEntry, error) {
	key := m.joinPath(name)

	listing, err := m.store.List(context.Background(), key)
	if err != nil {
		return nil, errs.PathError("readdir", name, underlying(err))
	}

	base := absPath(key)
	seen := make(map[string]bool)
	var entries []fs.DirEntry

	for _, status := range listing {
		rel := relativeTo(fsPath(status.Path), base)
		if rel == "" {
			continue
		}

		if idx := strings.Index(rel, "/"); idx >= 0 {
			// Deeper entry: surface its first segment as a directory
			child := rel[:idx]
			if child == "" || seen[child] {
				continue
			}
			seen[child] = true
			entries = append(entries, types.NewDirEntry(child, true, 0, time.Time{}))
			continue
		}

		if seen[rel] {
			continue
		}
		seen[rel] = true
		entries = append(entries, types.NewDirEntry(rel, status.Dir, status.Size, status.ModTime))
	}

	// Sort entries by name to enforce fs.ReadDir contract
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// ReadFile reads the named file and returns the contents.
func (m *SwiftFS) ReadFile(name string) ([]byte, error) {
	ctx := context.Background()
	key := m.joinPath(name)

	// Get size first to pre-allocate exact buffer size
	status, err := m.store.Stat(ctx, key)
	if err != nil {
		return nil, errs.PathError("readfile", name, underlying(err))
	}

	body, err := m.store.GetObject(ctx, key, nil)
	if err != nil {
		return nil, errs.PathError("readfile", name, underlying(err))
	}
	defer func() {
		_ = body.Close()
	}()

	buf := make([]byte, status.Size)
	if _, err := io.ReadFull(body, buf); err != nil {
		return nil, errs.PathError("readfile", name, err)
	}

	return buf, nil
}

// Exists reports whether the named file or directory exists.
func (m *SwiftFS) Exists(name string) (bool, error) {
	exists, err := m.store.ObjectExists(context.Background(), m.joinPath(name))
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create creates the named file for writing.
func (m *SwiftFS) Create(name string) (core.File, error) {
	key := m.joinPath(name)
	return newFileWrite(m.store, key, name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC), nil
}

// OpenFile opens the named file with the specified flags and permissions.
// Supported flags: O_RDONLY, O_WRONLY, O_CREATE, O_TRUNC.
// Unsupported flags: O_RDWR, O_APPEND, O_EXCL, O_SYNC (returns ErrUnsupported).
func (m *SwiftFS) OpenFile(name string, flag int, _ fs.FileMode) (core.File, error) {
	if flag&os.O_RDWR != 0 {
		return nil, errs.PathErrorf("open", name, "%w: O_RDWR not supported in Swift", core.ErrUnsupported)
	}
	if flag&os.O_APPEND != 0 {
		return nil, errs.PathErrorf("open", name, "%w: O_APPEND not supported in Swift", core.ErrUnsupported)
	}
	if flag&os.O_EXCL != 0 {
		return nil, errs.PathErrorf("open", name, "%w: O_EXCL not supported in Swift", core.ErrUnsupported)
	}
	if flag&os.O_SYNC != 0 {
		return nil, errs.PathErrorf("open", name, "%w: O_SYNC not supported in Swift", core.ErrUnsupported)
	}

	key := m.joinPath(name)

	if flag&(os.O_WRONLY|os.O_CREATE) != 0 {
		return newFileWrite(m.store, key, name, flag), nil
	}

	return newStreamingFile(context.Background(), m.store, key, name)
}

// WriteFile writes data to the named file.
func (m *SwiftFS) WriteFile(name string, data []byte, _ fs.FileMode) error {
	file, err := m.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	if _, err := file.Write(data); err != nil {
		return errs.PathError("writefile", name, err)
	}

	if err := file.Close(); err != nil {
		return errs.PathError("writefile", name, err)
	}

	return nil
}

// Mkdir creates a directory marker for the named path. Unlike S3-style
// stores, Swift directories are real zero-length marker objects, so an
// empty directory survives a listing.
func (m *SwiftFS) Mkdir(name string, _ fs.FileMode) error {
	if err := m.store.CreateDirectory(context.Background(), m.joinPath(name)); err != nil {
		return errs.PathError("mkdir", name, underlying(err))
	}
	return nil
}

// MkdirAll creates a directory marker for the named path and every missing
// ancestor. Existing directories along the way are harmless; a segment that
// already exists as a file fails with ErrNotDirectory, since writing a
// marker beside it would leave the name meaning two things at once.
func (m *SwiftFS) MkdirAll(path string, _ fs.FileMode) error {
	ctx := context.Background()
	key := m.joinPath(path)

	p := pathutil.Normalize(key)
	if p == "." {
		return nil
	}

	segments := strings.Split(p, "/")
	for i := range segments {
		dir := strings.Join(segments[:i+1], "/")
		status, err := m.store.Stat(ctx, dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if err := m.store.CreateDirectory(ctx, dir); err != nil {
				return errs.PathError("mkdir", path, underlying(err))
			}
		case err != nil:
			return errs.PathError("mkdir", path, underlying(err))
		case !status.Dir:
			return errs.PathError("mkdir", path, ErrNotDirectory)
		}
	}

	return nil
}

// Remove removes the named file or empty directory.
func (m *SwiftFS) Remove(name string) error {
	deleted, err := m.store.Delete(context.Background(), m.joinPath(name), false)
	if err != nil {
		return errs.PathError("remove", name, underlying(err))
	}
	if !deleted {
		return errs.PathError("remove", name, fs.ErrNotExist)
	}
	return nil
}

// RemoveAll removes path and any children it contains. Removing a path that
// does not exist returns nil.
func (m *SwiftFS) RemoveAll(path string) error {
	if _, err := m.store.Delete(context.Background(), m.joinPath(path), true); err != nil {
		return errs.PathError("removeall", path, underlying(err))
	}
	return nil
}

// Rename renames (moves) oldpath to newpath.
//
// Swift implements rename as copy+delete, which is neither atomic nor
// cheap: a failure partway can leave objects at both paths. Renames the
// store rejects by geometry (missing source, occupied destination, moving
// a directory under itself) surface as fs.ErrInvalid.
func (m *SwiftFS) Rename(oldpath, newpath string) error {
	renamed, err := m.store.Rename(context.Background(), m.joinPath(oldpath), m.joinPath(newpath))
	if err != nil {
		return errs.PathError("rename", oldpath, underlying(err))
	}
	if !renamed {
		return errs.PathError("rename", oldpath, fs.ErrInvalid)
	}
	return nil
}

// Walk walks the file tree rooted at root, calling walkFn for each file or
// directory. Directories implied by child objects are walked even when no
// marker object exists for them.
func (m *SwiftFS) Walk(root string, walkFn fs.WalkDirFunc) error {
	status, err := m.store.Stat(context.Background(), m.joinPath(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.PathError("walk", root, fs.ErrNotExist)
		}
		return fmt.Errorf("walk %s: %w", root, err)
	}

	if !status.Dir {
		// Root is a file, use standard WalkDir
		if walkErr := fs.WalkDir(m, root, walkFn); walkErr != nil {
			return fmt.Errorf("walk %s: %w", root, walkErr)
		}
		return nil
	}

	return m.walkDir(root, m.joinPath(root), walkFn)
}

// walkDir recursively walks a directory tree.
func (m *SwiftFS) walkDir(name, key string, walkFn fs.WalkDirFunc) error {
	rootEntry := types.NewDirEntry(filepath.Base(name), true, 0, time.Time{})

	if err := walkFn(name, rootEntry, nil); err != nil {
		if errors.Is(err, fs.SkipDir) {
			return nil
		}
		return err
	}

	entries, err := m.ReadDir(name)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := walk.ProcessEntry(name, key, entry, walkFn, m.walkDir); err != nil {
			return err
		}
	}

	return nil
}

// Chroot returns a new filesystem rooted at dir.
func (m *SwiftFS) Chroot(dir string) (core.FS, error) {
	return &SwiftFS{
		store:  m.store,
		prefix: m.joinPath(dir),
	}, nil
}

// fileInfoFromStatus converts a store-level status into fs.FileInfo.
func fileInfoFromStatus(name string, status FileStatus) fs.FileInfo {
	mode := fs.FileMode(0644)
	if status.Dir {
		mode = fs.ModeDir | 0755
	}
	return types.NewFileInfo(name, status.Size, status.ModTime, mode)
}

// relativeTo strips base (an absolute path, "/" for the root) from an
// absolute entry path. It returns "" when the entry is the base itself or
// lies outside it.
func relativeTo(path, base string) string {
	if base == "/" {
		return strings.TrimPrefix(path, "/")
	}
	if path == base {
		return ""
	}
	if !strings.HasPrefix(path, base+"/") {
		return ""
	}
	return strings.TrimPrefix(path, base+"/")
}

// underlying unwraps a store-level fs.PathError so the filesystem surface
// can re-wrap it under its own op and name without double nesting.
func underlying(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

// Compile-time interface check.
var _ core.FS = (*SwiftFS)(nil)
