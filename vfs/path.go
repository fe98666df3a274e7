package vfs

import (
	"strings"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

// NormalizePath cleans a slash-delimited path: collapses "." and ".."
// segments, strips a leading/trailing slash, and rejects null bytes.
// The root is the empty string.
func NormalizePath(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", svcerrors.InvalidInput("path", "contains a null byte")
	}

	segments := strings.Split(p, "/")
	var stack []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return strings.Join(stack, "/"), nil
}

// ParentPath returns the normalized parent of path, or "" if path is
// already at the root.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// IsAncestor reports whether ancestor is a path prefix of path (or
// equal to it), honoring path-segment boundaries.
func IsAncestor(ancestor, path string) bool {
	if ancestor == "" {
		return true
	}
	if ancestor == path {
		return true
	}
	return strings.HasPrefix(path, ancestor+"/")
}
