package swift

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jmgilman/go/fs/swift/internal/pathutil"
)

// renamePlan is the decision record computed for one rename call: how the
// source and destination were classified and where the data will land. It
// lives only for the duration of the call.
type renamePlan struct {
	srcStatus  FileStatus
	destExists bool
	destIsDir  bool
	target     string // resolved target path (target root for directories)
}

// Rename moves src to dst through copy-then-delete.
//
// The operation is not atomic: a failure partway leaves source and
// destination in a mixed state, and callers must not assume rollback.
// Expected negative outcomes (renaming onto itself, moving the root,
// moving a directory under itself, a missing source, an unviable
// destination) report false with no error and issue no mutation requests.
// I/O and protocol failures are returned as errors.
func (s *Store) Rename(ctx context.Context, src, dst string) (bool, error) {
	srcPath := absPath(src)
	dstPath := absPath(dst)
	s.logger.DebugContext(ctx, "mv", "src", srcPath, "dst", dstPath)

	if srcPath == dstPath {
		s.logger.DebugContext(ctx, "destination == source, failing")
		return false, nil
	}
	if srcPath == "/" {
		s.logger.DebugContext(ctx, "cannot rename root")
		return false, nil
	}
	if pathutil.IsDescendant(srcPath, dstPath) {
		s.logger.DebugContext(ctx, "cannot move a directory under itself")
		return false, nil
	}

	plan, ok, err := s.planRename(ctx, srcPath, dstPath)
	if err != nil || !ok {
		return false, err
	}

	if !plan.srcStatus.Dir {
		if err := s.copyThenDelete(ctx, s.objectAddress(srcPath), s.objectAddress(plan.target)); err != nil {
			return false, err
		}
		return true, nil
	}

	return s.renameDirectory(ctx, srcPath, plan)
}

// planRename resolves the source and destination metadata and classifies
// the rename. It reports ok=false for the expected-negative geometries.
func (s *Store) planRename(ctx context.Context, srcPath, dstPath string) (renamePlan, bool, error) {
	var plan renamePlan

	srcStatus, err := s.Stat(ctx, srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.DebugContext(ctx, "source path not found, failing", "src", srcPath)
		return plan, false, nil
	}
	if err != nil {
		return plan, false, err
	}
	plan.srcStatus = srcStatus

	dstStatus, err := s.Stat(ctx, dstPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.DebugContext(ctx, "destination does not exist", "dst", dstPath)
	case err != nil:
		return plan, false, err
	default:
		plan.destExists = true
		plan.destIsDir = dstStatus.Dir
	}

	// The destination's parent must be a viable location. The HEAD is
	// skipped when it matches the source's parent (which exists, since the
	// source does) and when it is the root (which always exists).
	srcParent := pathutil.Parent(srcPath)
	dstParent := pathutil.Parent(dstPath)
	if dstParent != "/" && dstParent != srcParent {
		if _, err := s.Stat(ctx, dstParent); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.DebugContext(ctx, "destination parent does not exist", "parent", dstParent)
				return plan, false, nil
			}
			return plan, false, err
		}
	}

	if !srcStatus.Dir {
		// Source is a simple file:
		//  - destination exists and is a file: fail
		//  - destination exists and is a directory: move under it
		//  - destination absent: take its name
		switch {
		case plan.destExists && !plan.destIsDir:
			s.logger.DebugContext(ctx, "cannot rename a file over one that already exists")
			return plan, false, nil
		case plan.destExists:
			plan.target = dstPath + "/" + pathutil.Base(srcPath)
		default:
			plan.target = dstPath
		}
		return plan, true, nil
	}

	// Source is a directory:
	//  - destination is a file: fail
	//  - destination is a directory: new directory under it
	//  - destination absent: new directory with that name
	if plan.destExists && !plan.destIsDir {
		s.logger.DebugContext(ctx, "the source is a directory, but not the destination")
		return plan, false, nil
	}
	if plan.destExists {
		plan.target = dstPath + "/" + pathutil.Base(srcPath)
	} else {
		plan.target = dstPath
	}
	return plan, true, nil
}

// renameDirectory migrates everything under srcPath into the plan's target
// root: leaf objects at their object addresses, directory markers (the
// source's own included) at their marker addresses, so the old tree is gone
// when the migration completes.
//
// The children are taken from one prefix listing of the source's parent; an
// entry deleted between that snapshot and its copy reflects the store's
// eventual consistency and is skipped with a warning, not treated as a
// failure.
func (s *Store) renameDirectory(ctx context.Context, srcPath string, plan renamePlan) (bool, error) {
	listing, err := s.List(ctx, pathutil.Parent(srcPath))
	if err != nil {
		return false, err
	}

	for _, entry := range listing {
		entryPath := fsPath(entry.Path)
		if entryPath != srcPath && !strings.HasPrefix(entryPath, srcPath+"/") {
			// Sibling from the parent listing, not part of the source tree
			continue
		}

		targetPath := plan.target + strings.TrimPrefix(entryPath, srcPath)
		var src, dst ObjectAddress
		if entry.Dir {
			src = s.directoryAddress(entryPath)
			dst = s.directoryAddress(targetPath)
		} else {
			src = s.objectAddress(entryPath)
			dst = s.objectAddress(targetPath)
		}

		err := s.copyThenDelete(ctx, src, dst)
		if errors.Is(err, fs.ErrNotExist) {
			// A directory listed through its children alone has no marker
			// to move, and an object can vanish between the snapshot and
			// its copy; neither fails the rename.
			s.logger.WarnContext(ctx, "skipping rename of vanished entry", "path", entryPath)
			continue
		}
		if err != nil {
			return false, err
		}
	}

	return true, nil
}

// copyThenDelete copies an object and, if the copy worked, deletes the
// original. A failed copy preserves the source and raises ErrCopyFailed; no
// validity checks are made on the arguments.
func (s *Store) copyThenDelete(ctx context.Context, src, dst ObjectAddress) error {
	copied, err := s.transport.Copy(ctx, src, dst)
	if err != nil {
		return err
	}
	if !copied {
		return fmt.Errorf("copy of %s to %s: %w", src, dst, ErrCopyFailed)
	}

	_, err = s.transport.Delete(ctx, src)
	return err
}
