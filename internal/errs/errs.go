// Package errs provides error handling utilities for the swift filesystem.
package errs

import (
	"fmt"
	"io/fs"
	"net/http"
)

// StatusError reports a non-success HTTP status returned by the object store
// that has no direct filesystem-error equivalent.
type StatusError struct {
	Code   int
	Method string
	Path   string
}

// Error returns the status error as a string.
func (e *StatusError) Error() string {
	return fmt.Sprintf("swift: %s %s returned status %d", e.Method, e.Path, e.Code)
}

// Translate converts an HTTP status code from the object store into a stdlib
// fs error. Success codes translate to nil.
func Translate(method, path string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}

	switch code {
	case http.StatusNotFound:
		return fs.ErrNotExist
	case http.StatusUnauthorized, http.StatusForbidden:
		return fs.ErrPermission
	}

	// Return a status error with context for other codes
	return &StatusError{Code: code, Method: method, Path: path}
}

// PathError wraps an error in a fs.PathError for the given operation and path.
// If the error is nil, returns nil.
func PathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// PathErrorf creates a fs.PathError with a formatted error message.
func PathErrorf(op, path, format string, args ...interface{}) error {
	return &fs.PathError{Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}
