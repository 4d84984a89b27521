package swift

import (
	"strings"

	"github.com/jmgilman/go/fs/swift/internal/pathutil"
)

// ObjectAddress is the flat store address a filesystem path maps to: a
// container plus an object name. Directory markers are addressed by the same
// name with a trailing separator, so the object form and the directory form
// of a path never collide.
//
// The root of the filesystem maps to the container itself: its object form
// has an empty Object (a container-level request, which is how the store
// exposes aggregate metadata) and its directory form is "/".
type ObjectAddress struct {
	// Container is the Swift container holding the object.
	Container string

	// Object is the object name. It begins with "/" for any non-root path
	// and ends with "/" iff this is a directory-form address.
	Object string
}

// AddressFor maps a filesystem path to its store address. The mapping is
// deterministic and purely syntactic; it performs no I/O.
func AddressFor(container, name string, directoryForm bool) ObjectAddress {
	p := pathutil.Normalize(name)
	if p == "." {
		// Filesystem root
		if directoryForm {
			return ObjectAddress{Container: container, Object: "/"}
		}
		return ObjectAddress{Container: container, Object: ""}
	}

	obj := "/" + p
	if directoryForm {
		obj += "/"
	}
	return ObjectAddress{Container: container, Object: obj}
}

// IsRoot reports whether the address refers to the filesystem root.
func (a ObjectAddress) IsRoot() bool {
	return a.Object == "" || a.Object == "/"
}

// IsDirectoryForm reports whether this is a directory-marker address.
func (a ObjectAddress) IsDirectoryForm() bool {
	return strings.HasSuffix(a.Object, "/")
}

// Prefix returns the container-relative listing prefix for this address:
// the object name without its leading separator. The root prefix is empty,
// which lists the whole container.
func (a ObjectAddress) Prefix() string {
	return strings.TrimPrefix(a.Object, "/")
}

// String renders the address as "/container/object", the form used in
// X-Copy-From and Destination headers.
func (a ObjectAddress) String() string {
	return "/" + a.Container + a.Object
}
