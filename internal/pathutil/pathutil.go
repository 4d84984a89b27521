// Package pathutil provides path normalization and manipulation utilities
// for Swift object keys.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize cleans a path and ensures forward slashes.
// It applies: ToSlash → Clean → Trim slashes
// Returns "." for empty paths.
func Normalize(path string) string {
	if path == "" {
		return "."
	}

	// First convert backslashes to forward slashes (for Windows-style paths)
	path = strings.ReplaceAll(path, "\\", "/")

	// Clean the path (resolves . and ..)
	path = filepath.Clean(path)

	// Convert to forward slashes again (filepath.Clean may use OS separator)
	path = filepath.ToSlash(path)

	// Trim leading and trailing slashes
	path = strings.Trim(path, "/")

	// Return "." if path is now empty
	if path == "" {
		return "."
	}

	return path
}

// NormalizePrefix normalizes the prefix path:
// - Converts backslashes to forward slashes
// - Removes leading and trailing slashes
// - Returns empty string if prefix is "." or empty.
func NormalizePrefix(prefix string) string {
	if prefix == "" || prefix == "." {
		return ""
	}

	prefix = strings.ReplaceAll(prefix, "\\", "/")
	prefix = filepath.Clean(prefix)
	prefix = filepath.ToSlash(prefix)
	prefix = strings.Trim(prefix, "/")

	return prefix
}

// JoinPath joins a prefix with a name to create a container-relative path.
// It handles empty prefix correctly and uses forward slashes.
func JoinPath(prefix, name string) string {
	name = Normalize(name)

	// Handle special case where normalized name is "."
	if name == "." {
		if prefix == "" {
			return ""
		}
		return prefix
	}

	if prefix == "" {
		return name
	}

	return prefix + "/" + name
}

// BuildEntryKey constructs the object key for an entry given its parent key and name.
func BuildEntryKey(parentKey, entryName string) string {
	if parentKey != "" {
		return parentKey + "/" + entryName
	}
	return entryName
}

// Parent returns the parent of a slash-separated path. The parent of a
// top-level entry and of the root itself is "/".
func Parent(path string) string {
	path = "/" + Normalize(path)
	if path == "/." {
		return "/"
	}
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// Base returns the last element of a slash-separated path.
func Base(path string) string {
	path = Normalize(path)
	if path == "." {
		return "/"
	}
	idx := strings.LastIndex(path, "/")
	return path[idx+1:]
}

// IsDescendant reports whether child lives underneath parent in the path
// hierarchy. A path is not a descendant of itself.
func IsDescendant(parent, child string) bool {
	p := "/" + Normalize(parent)
	c := "/" + Normalize(child)
	if p == "/." || c == "/." {
		return p == "/." && c != "/."
	}
	if c == p {
		return false
	}
	return strings.HasPrefix(c, p+"/")
}
