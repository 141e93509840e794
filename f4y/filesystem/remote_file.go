package filesystem

import (
	"time"

	"github.com/ZanzyTHEbar/ftp4you/f4y/connection"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/common"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/interfaces"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/options"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/types"
)

// RemoteFile is the remote-domain File. It answers from a cached descriptor
// fetched over the connection; the cache can go stale, so Exists always
// re-queries and Refresh re-fetches on demand. The connection is borrowed,
// never owned.
type RemoteFile struct {
	conn  *connection.Connection
	path  string
	opts  options.FileOptions
	paths *common.RemotePathUtils
	desc  types.Descriptor
}

// NewRemoteFile creates a remote File and populates its descriptor with a
// fresh lookup.
func NewRemoteFile(conn *connection.Connection, path string, opts options.FileOptions) (*RemoteFile, error) {
	f, err := NewRemoteFileWithDescriptor(conn, path, opts, types.Descriptor{})
	if err != nil {
		return nil, err
	}
	if err := f.Refresh(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewRemoteFileWithDescriptor creates a remote File from a caller-supplied
// descriptor, typically one taken from a directory listing. An invalid
// (zero) descriptor defers the first lookup until a query needs it.
func NewRemoteFileWithDescriptor(conn *connection.Connection, path string, opts options.FileOptions, desc types.Descriptor) (*RemoteFile, error) {
	if path == "" {
		return nil, common.ErrPathEmpty
	}
	paths := common.NewRemotePathUtils()
	return &RemoteFile{
		conn:  conn,
		path:  paths.Normalize(path),
		opts:  opts,
		paths: paths,
		desc:  desc,
	}, nil
}

// descriptorFromEntry maps a transport listing entry onto the cached form.
func descriptorFromEntry(entry *connection.RemoteEntry) types.Descriptor {
	if entry == nil {
		return types.Descriptor{Valid: true, Exists: false}
	}
	desc := types.Descriptor{
		Valid:       true,
		Exists:      true,
		Kind:        types.KindNormal,
		Size:        entry.Size,
		Permissions: entry.Mode,
		ModTime:     entry.ModTime,
		LinkTarget:  entry.Target,
	}
	switch entry.Kind {
	case connection.KindDirectory:
		desc.Kind = types.KindDirectory
	case connection.KindSymbolicLink:
		desc.Kind = types.KindSymbolicLink
	}
	return desc
}

func (f *RemoteFile) Path() string   { return f.path }
func (f *RemoteFile) Name() string   { return f.paths.Base(f.path) }
func (f *RemoteFile) IsRemote() bool { return true }

// Connection exposes the borrowed connection so the opposite-domain
// filesystem can drive a cross-system transfer.
func (f *RemoteFile) Connection() *connection.Connection { return f.conn }

// Descriptor returns a copy of the cached state.
func (f *RemoteFile) Descriptor() types.Descriptor { return f.desc }

// Refresh re-fetches the descriptor. On a failed fetch the cache is cleared
// rather than left stale.
func (f *RemoteFile) Refresh() error {
	entry, err := f.conn.GetFile(f.path)
	if err != nil {
		f.desc.Invalidate()
		return err
	}
	f.desc = descriptorFromEntry(entry)
	return nil
}

// ensureValid populates the descriptor when it has never been fetched.
func (f *RemoteFile) ensureValid() error {
	if f.desc.Valid {
		return nil
	}
	return f.Refresh()
}

// Exists always asks the server, never the cache, and re-initializes the
// descriptor with whatever it learns.
func (f *RemoteFile) Exists() (bool, error) {
	if err := f.Refresh(); err != nil {
		return false, err
	}
	return f.desc.Exists, nil
}

// IsDirectory prefers the cache, except for symbolic links whose targets may
// have changed or be broken; those resolve against a live lookup of the
// target.
func (f *RemoteFile) IsDirectory() (bool, error) {
	if err := f.ensureValid(); err != nil {
		return false, err
	}
	if !f.desc.Exists {
		return false, nil
	}
	if f.desc.Kind == types.KindSymbolicLink {
		target, err := f.resolveTarget()
		if err != nil {
			return false, err
		}
		return target != nil && target.Kind == connection.KindDirectory, nil
	}
	return f.desc.Kind == types.KindDirectory, nil
}

// IsNormalFile mirrors IsDirectory, with broken links counting as neither.
func (f *RemoteFile) IsNormalFile() (bool, error) {
	if err := f.ensureValid(); err != nil {
		return false, err
	}
	if !f.desc.Exists {
		return false, nil
	}
	if f.desc.Kind == types.KindSymbolicLink {
		target, err := f.resolveTarget()
		if err != nil {
			return false, err
		}
		return target != nil && target.Kind == connection.KindFile, nil
	}
	return f.desc.Kind == types.KindNormal, nil
}

func (f *RemoteFile) IsSymbolicLink() (bool, error) {
	if err := f.ensureValid(); err != nil {
		return false, err
	}
	return f.desc.Exists && f.desc.Kind == types.KindSymbolicLink, nil
}

// Size returns -1 for a nonexistent file. With the follow-links-for-size
// policy enabled, a link reports its target's size instead of its own.
func (f *RemoteFile) Size() (int64, error) {
	if err := f.ensureValid(); err != nil {
		return -1, err
	}
	if !f.desc.Exists {
		return -1, nil
	}
	if f.desc.Kind == types.KindSymbolicLink && f.opts.FollowSymlinksForSize {
		target, err := f.resolveTarget()
		if err != nil {
			return -1, err
		}
		if target == nil {
			return -1, nil
		}
		return target.Size, nil
	}
	return f.desc.Size, nil
}

// Permissions renders the 10-character long-listing form. Bits the server
// never reported render as '-'. The follow-links policy for permissions is
// independent of the one for size.
func (f *RemoteFile) Permissions() (string, error) {
	if err := f.ensureValid(); err != nil {
		return "", err
	}
	if !f.desc.Exists {
		return common.RenderPermissions('-', ""), nil
	}
	kind := f.desc.Kind
	octal := f.desc.Permissions
	if kind == types.KindSymbolicLink && f.opts.FollowSymlinksForPermissions {
		target, err := f.resolveTarget()
		if err != nil {
			return "", err
		}
		if target != nil {
			octal = target.Mode
			kind = descriptorFromEntry(target).Kind
		}
	}
	typeChar := byte('-')
	switch kind {
	case types.KindDirectory:
		typeChar = 'd'
	case types.KindSymbolicLink:
		typeChar = 'l'
	}
	return common.RenderPermissions(typeChar, octal), nil
}

func (f *RemoteFile) ModificationTime() (time.Time, error) {
	if err := f.ensureValid(); err != nil {
		return time.Time{}, err
	}
	if !f.desc.Exists {
		return time.Time{}, nil
	}
	return f.desc.ModTime, nil
}

// Parent returns the parent path as a lazily-initialized remote File, without
// a server round-trip.
func (f *RemoteFile) Parent() (interfaces.File, error) {
	return NewRemoteFileWithDescriptor(f.conn, f.paths.Parent(f.path), f.opts, types.Descriptor{})
}

// ExistingParent walks upward until a component exists as a directory. The
// remote root always exists, so the walk terminates there at the latest.
func (f *RemoteFile) ExistingParent() (interfaces.File, error) {
	current := f.paths.Parent(f.path)
	for {
		if f.paths.IsRoot(current) {
			break
		}
		exists, err := f.conn.PathExists(current, true)
		if err != nil {
			return nil, err
		}
		if exists {
			break
		}
		current = f.paths.Parent(current)
	}
	return NewRemoteFileWithDescriptor(f.conn, current, f.opts, types.Descriptor{})
}

// resolveTarget resolves the link target, handling relative targets with "."
// and ".." segments against the link's parent. A nil result is a broken link.
func (f *RemoteFile) resolveTarget() (*connection.RemoteEntry, error) {
	targetPath := f.paths.ResolveLinkTarget(f.path, f.desc.LinkTarget)
	return f.conn.GetFile(targetPath)
}

var _ interfaces.File = (*RemoteFile)(nil)
