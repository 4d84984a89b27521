package swift

import "errors"

var (
	// ErrInvalidConfig is returned by New and NewStore when the
	// configuration cannot name a filesystem root or a way to reach it.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotDirectory is returned when a path component that must be a
	// directory resolves to a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrProtocol is returned when the store sends a response this package
	// cannot interpret, such as an unparseable modification time header.
	// Operations that hit it are not retried here.
	ErrProtocol = errors.New("invalid response from object store")

	// ErrCopyFailed is returned when the copy step of a rename does not
	// succeed. The source object is preserved; no cleanup is attempted.
	ErrCopyFailed = errors.New("object copy failed")

	// ErrNoContent is the distinguished "no content" listing outcome
	// (HTTP 204). Transport implementations must return it so the lister
	// can tell an empty container apart from a missing prefix.
	ErrNoContent = errors.New("no content")

	// ErrNotEmpty is returned when deleting a non-empty directory without
	// the recursive flag.
	ErrNotEmpty = errors.New("directory not empty")
)
