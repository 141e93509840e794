package common

import (
	"path"
	"strings"
)

// RemotePathUtils provides manipulation of remote (always slash-separated)
// paths, independent of the local OS separator.
type RemotePathUtils struct{}

// NewRemotePathUtils creates a new RemotePathUtils instance.
func NewRemotePathUtils() *RemotePathUtils {
	return &RemotePathUtils{}
}

// Normalize cleans a remote path and anchors it at the root.
func (ru *RemotePathUtils) Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Join joins remote path segments.
func (ru *RemotePathUtils) Join(segments ...string) string {
	return ru.Normalize(path.Join(segments...))
}

// Base returns the last component of a remote path.
func (ru *RemotePathUtils) Base(p string) string {
	return path.Base(ru.Normalize(p))
}

// Parent returns the parent of a remote path; the parent of the root is the
// root itself.
func (ru *RemotePathUtils) Parent(p string) string {
	return path.Dir(ru.Normalize(p))
}

// IsRoot reports whether the path denotes the root directory.
func (ru *RemotePathUtils) IsRoot(p string) bool {
	return ru.Normalize(p) == "/"
}

// ResolveLinkTarget resolves a symbolic link's stored target to an absolute
// remote path. Relative targets, including "." and ".." segments, resolve
// against the link's parent directory.
func (ru *RemotePathUtils) ResolveLinkTarget(linkPath, target string) string {
	if target == "" {
		return ru.Normalize(linkPath)
	}
	if strings.HasPrefix(target, "/") {
		return ru.Normalize(target)
	}
	return ru.Normalize(path.Join(ru.Parent(linkPath), target))
}
