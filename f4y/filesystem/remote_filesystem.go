package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	internal "github.com/ZanzyTHEbar/ftp4you/f4y"
	"github.com/ZanzyTHEbar/ftp4you/f4y/connection"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/common"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/interfaces"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/options"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/types"
)

// RemoteFileSystem is the remote-domain FileSystem, bound to one connection.
// Local files are accepted as transfer sources (local to remote); the
// destination of every operation is the remote server.
//
// Remote-to-remote copies stage through a local scratch directory, since the
// protocol has no server-side copy primitive.
type RemoteFileSystem struct {
	conn       *connection.Connection
	stagingDir string
	queue      *OperationErrorQueue
	fileOpts   options.FileOptions
	scanOpts   options.ScanOptions
	paths      *common.RemotePathUtils
	logger     *slog.Logger
}

// RemoteFSOption configures a RemoteFileSystem.
type RemoteFSOption func(*RemoteFileSystem)

// WithStagingDir overrides the scratch directory used for remote-to-remote
// copies.
func WithStagingDir(dir string) RemoteFSOption {
	return func(fs *RemoteFileSystem) { fs.stagingDir = dir }
}

// WithRemoteFileOptions sets the metadata options applied to Files this
// filesystem hands out.
func WithRemoteFileOptions(o options.FileOptions) RemoteFSOption {
	return func(fs *RemoteFileSystem) { fs.fileOpts = o }
}

// WithRemoteScanOptions sets the scan behavior of bulk uploads, including
// ignore patterns.
func WithRemoteScanOptions(o options.ScanOptions) RemoteFSOption {
	return func(fs *RemoteFileSystem) { fs.scanOpts = o }
}

// WithRemoteLogger overrides the default slog logger.
func WithRemoteLogger(l *slog.Logger) RemoteFSOption {
	return func(fs *RemoteFileSystem) { fs.logger = l }
}

// NewRemoteFileSystem creates the remote-domain filesystem bound to conn.
func NewRemoteFileSystem(conn *connection.Connection, opts ...RemoteFSOption) *RemoteFileSystem {
	scan := options.DefaultScanOptions()
	scan.IgnoreFile = internal.DefaultIgnoreFileName
	fs := &RemoteFileSystem{
		conn:       conn,
		stagingDir: internal.DefaultStagingDir,
		queue:      NewOperationErrorQueue(),
		fileOpts:   options.DefaultFileOptions(),
		scanOpts:   scan,
		paths:      common.NewRemotePathUtils(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Connection returns the connection this filesystem is bound to.
func (fs *RemoteFileSystem) Connection() *connection.Connection { return fs.conn }

// AddFile uploads a single local file into the remote destDir. Only the local
// File variant is a legal source here.
func (fs *RemoteFileSystem) AddFile(src interfaces.File, destDir string) (bool, error) {
	local, ok := src.(*LocalFile)
	if !ok {
		return false, &connection.IllegalArgumentError{Reason: "remote filesystem addFile requires a local source"}
	}
	return fs.conn.UploadFile(local.Path(), fs.paths.Normalize(destDir))
}

// RemoveFile deletes a remote file or directory tree.
func (fs *RemoteFileSystem) RemoveFile(f interfaces.File) (bool, error) {
	if _, ok := f.(*RemoteFile); !ok {
		return false, &connection.IllegalArgumentError{Reason: "remote filesystem removeFile requires a remote file"}
	}
	return fs.RemoveFileByPath(f.Path())
}

// RemoveFileByPath deletes a remote path. A symbolic link is deleted as a
// link, never followed into its target; a directory is emptied bottom-up
// first. Any failure during recursion fails the whole removal.
func (fs *RemoteFileSystem) RemoveFileByPath(path string) (bool, error) {
	path = fs.paths.Normalize(path)
	entry, err := fs.conn.GetFile(path)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	switch entry.Kind {
	case connection.KindSymbolicLink:
		return fs.conn.RemoveFile(path)
	case connection.KindDirectory:
		if err := fs.removeRemoteTree(path); err != nil {
			return false, err
		}
		return true, nil
	default:
		return fs.conn.RemoveFile(path)
	}
}

func (fs *RemoteFileSystem) removeRemoteTree(dir string) error {
	entries, err := fs.conn.ListFiles(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		child := fs.paths.Join(dir, entry.Name)
		if entry.Kind == connection.KindDirectory {
			if err := fs.removeRemoteTree(child); err != nil {
				return err
			}
			continue
		}
		ok, err := fs.conn.RemoveFile(child)
		if err != nil {
			return err
		}
		if !ok {
			return common.WrapError(common.ErrRemovalFailed, "remove %s", child)
		}
	}
	ok, err := fs.conn.RemoveDirectory(dir)
	if err != nil {
		return err
	}
	if !ok {
		return common.WrapError(common.ErrRemovalFailed, "remove directory %s", dir)
	}
	return nil
}

// GetFile returns a remote File with a freshly fetched descriptor.
func (fs *RemoteFileSystem) GetFile(path string) (interfaces.File, error) {
	return NewRemoteFile(fs.conn, path, fs.fileOpts)
}

// FileExists reports whether a remote path exists.
func (fs *RemoteFileSystem) FileExists(path string) (bool, error) {
	return fs.conn.PathExists(fs.paths.Normalize(path), false)
}

// ListFiles lists a remote directory, or returns nil when the path is not an
// existing directory. Descriptors from the listing seed the returned Files,
// so no extra round-trip happens per entry.
func (fs *RemoteFileSystem) ListFiles(path string) ([]interfaces.File, error) {
	path = fs.paths.Normalize(path)
	isDir, err := fs.conn.PathExists(path, true)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, nil
	}
	entries, err := fs.conn.ListFiles(path)
	if err != nil {
		return nil, err
	}
	files := make([]interfaces.File, 0, len(entries))
	for i := range entries {
		f, err := NewRemoteFileWithDescriptor(fs.conn, fs.paths.Join(path, entries[i].Name), fs.fileOpts, descriptorFromEntry(&entries[i]))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// CopyFiles copies src into the remote destination directory. The source may
// be local (upload) or remote (staged copy through the local scratch
// directory).
func (fs *RemoteFileSystem) CopyFiles(src interfaces.File, destDir interfaces.File) (bool, error) {
	return fs.copyMove(src, destDir, false)
}

// MoveFiles moves src into the remote destination directory. A same-server
// move is a rename; a local source is uploaded and each source item deleted
// right after its transfer.
func (fs *RemoteFileSystem) MoveFiles(src interfaces.File, destDir interfaces.File) (bool, error) {
	return fs.copyMove(src, destDir, true)
}

func (fs *RemoteFileSystem) copyMove(src interfaces.File, destDir interfaces.File, move bool) (bool, error) {
	dest, ok := destDir.(*RemoteFile)
	if !ok {
		return false, &connection.IllegalArgumentError{Reason: "remote filesystem requires a remote destination directory"}
	}
	op := types.ClassifyOperation(src.IsRemote(), true)

	srcExists, err := src.Exists()
	if err != nil {
		return false, err
	}
	if !srcExists {
		return false, common.WrapError(common.ErrSourceNotExist, "%s %s", op, src.Path())
	}
	destIsDir, err := dest.IsDirectory()
	if err != nil {
		return false, err
	}
	if !destIsDir {
		return false, common.WrapError(common.ErrDestNotDirectory, "%s %s", op, dest.Path())
	}
	targetPath := fs.paths.Join(dest.Path(), src.Name())
	if collision, err := fs.FileExists(targetPath); err != nil {
		return false, err
	} else if collision {
		// Never overwrite silently; the refusal is the caller's signal.
		return false, nil
	}

	fs.logger.Info("starting transfer", "operation", op.String(), "source", src.Path(), "dest", targetPath, "move", move)
	switch op {
	case types.LocalToRemote:
		localSrc, ok := src.(*LocalFile)
		if !ok {
			return false, &connection.IllegalArgumentError{Reason: "local source must be a local file"}
		}
		return fs.localToRemote(localSrc, dest.Path(), targetPath, move)
	case types.RemoteToRemote:
		remoteSrc, ok := src.(*RemoteFile)
		if !ok {
			return false, &connection.IllegalArgumentError{Reason: "remote source must be a remote file"}
		}
		if move {
			// Same-server moves never need staging.
			return fs.conn.RenameFile(remoteSrc.Path(), targetPath)
		}
		return fs.remoteToRemoteCopy(remoteSrc, dest.Path())
	default:
		return false, &connection.IllegalArgumentError{Reason: fmt.Sprintf("unsupported operation %s on the remote filesystem", op)}
	}
}

// localToRemote uploads a local file or tree. Tree uploads pre-scan the
// source concurrently, then mirror directories before their children;
// per-file failures are queued as soft errors and the walk continues.
func (fs *RemoteFileSystem) localToRemote(src *LocalFile, destDir, targetPath string, move bool) (bool, error) {
	isDir, err := src.IsDirectory()
	if err != nil {
		return false, err
	}
	if !isDir {
		ok, err := fs.conn.UploadFile(src.Path(), destDir)
		if err != nil || !ok {
			return false, err
		}
		if move {
			if err := os.Remove(src.Path()); err != nil {
				return false, common.WrapError(err, "remove source %s after move", src.Path())
			}
		}
		return true, nil
	}

	items, err := NewTreeScanner(fs.scanOpts).Scan(context.Background(), src.Path())
	if err != nil {
		return false, common.WrapError(err, "scan %s", src.Path())
	}
	if ok, err := fs.conn.MakeDirectory(targetPath); err != nil || !ok {
		return false, err
	}
	// Parents precede children in scan order, so the mirrored structure
	// exists before anything is transferred into it.
	for _, item := range items {
		remotePath := fs.paths.Join(targetPath, item.RelPath)
		if item.IsDir {
			if ok, err := fs.conn.MakeDirectory(remotePath); err != nil || !ok {
				fs.queue.Enqueue(types.NewOperationError(
					fmt.Sprintf("failed to create directory %s", remotePath), item.Path, remotePath, err))
			}
			continue
		}
		ok, err := fs.conn.UploadFile(item.Path, fs.paths.Parent(remotePath))
		if err != nil || !ok {
			fs.queue.Enqueue(types.NewOperationError(
				fmt.Sprintf("failed to upload %s", item.Path), item.Path, remotePath, err))
			continue
		}
		if move {
			if err := os.Remove(item.Path); err != nil {
				fs.queue.Enqueue(types.NewOperationError(
					fmt.Sprintf("failed to remove source %s after move", item.Path), item.Path, remotePath, err))
			}
		}
	}
	if move {
		// Directories empty out bottom-up once their files are gone.
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].IsDir {
				if err := os.Remove(items[i].Path); err != nil {
					fs.queue.Enqueue(types.NewOperationError(
						fmt.Sprintf("failed to remove source directory %s after move", items[i].Path),
						items[i].Path, "", err))
				}
			}
		}
		if err := os.Remove(src.Path()); err != nil {
			fs.queue.Enqueue(types.NewOperationError(
				fmt.Sprintf("failed to remove source directory %s after move", src.Path()),
				src.Path(), targetPath, err))
		}
	}
	return true, nil
}

// remoteToRemoteCopy stages the source through the local scratch directory:
// download, then upload, then delete the staged copy whatever the outcome.
func (fs *RemoteFileSystem) remoteToRemoteCopy(src *RemoteFile, destDir string) (bool, error) {
	staging := filepath.Join(fs.stagingDir, uuid.New().String())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return false, common.WrapError(err, "create staging directory %s", staging)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			fs.logger.Warn("failed to clean staging directory", "dir", staging, "error", err)
		}
	}()

	stagingFile, err := NewLocalFile(staging)
	if err != nil {
		return false, err
	}
	local := NewLocalFileSystem(WithLocalLogger(fs.logger))
	ok, err := local.CopyFiles(src, stagingFile)
	if err != nil || !ok {
		return false, err
	}
	for local.HasNextOperationError() {
		fs.queue.Enqueue(local.NextOperationError())
	}

	staged, err := NewLocalFile(filepath.Join(staging, src.Name()))
	if err != nil {
		return false, err
	}
	destFile, err := NewRemoteFileWithDescriptor(fs.conn, destDir, fs.fileOpts, types.Descriptor{})
	if err != nil {
		return false, err
	}
	return fs.copyMove(staged, destFile, false)
}

// HasNextOperationError reports whether soft errors remain undrained.
func (fs *RemoteFileSystem) HasNextOperationError() bool {
	return fs.queue.HasNext()
}

// NextOperationError pops the oldest soft error, or nil.
func (fs *RemoteFileSystem) NextOperationError() *types.OperationError {
	return fs.queue.Next()
}

var _ interfaces.FileSystem = (*RemoteFileSystem)(nil)
