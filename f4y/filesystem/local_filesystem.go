package filesystem

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/ftp4you/f4y/connection"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/common"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/interfaces"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/options"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/types"
)

// LocalFileSystem is the local-domain FileSystem. Remote files are accepted
// as transfer sources (remote to local); the destination of every operation
// is the local disk.
type LocalFileSystem struct {
	queue    *OperationErrorQueue
	fileOpts options.FileOptions
	copyOpts options.CopyOptions
	logger   *slog.Logger
}

// LocalFSOption configures a LocalFileSystem.
type LocalFSOption func(*LocalFileSystem)

// WithLocalFileOptions sets the metadata options applied to Files this
// filesystem hands out.
func WithLocalFileOptions(o options.FileOptions) LocalFSOption {
	return func(fs *LocalFileSystem) { fs.fileOpts = o }
}

// WithLocalCopyOptions sets the walk behavior of same-system copies.
func WithLocalCopyOptions(o options.CopyOptions) LocalFSOption {
	return func(fs *LocalFileSystem) { fs.copyOpts = o }
}

// WithLocalLogger overrides the default slog logger.
func WithLocalLogger(l *slog.Logger) LocalFSOption {
	return func(fs *LocalFileSystem) { fs.logger = l }
}

// NewLocalFileSystem creates the local-domain filesystem.
func NewLocalFileSystem(opts ...LocalFSOption) *LocalFileSystem {
	fs := &LocalFileSystem{
		queue:    NewOperationErrorQueue(),
		fileOpts: options.DefaultFileOptions(),
		copyOpts: options.DefaultCopyOptions(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// AddFile downloads a single remote file into destDir. Only the remote File
// variant is a legal source here.
func (fs *LocalFileSystem) AddFile(src interfaces.File, destDir string) (bool, error) {
	remote, ok := src.(*RemoteFile)
	if !ok {
		return false, &connection.IllegalArgumentError{Reason: "local filesystem addFile requires a remote source"}
	}
	return remote.Connection().DownloadFile(remote.Path(), destDir)
}

// RemoveFile deletes a local file or directory tree.
func (fs *LocalFileSystem) RemoveFile(f interfaces.File) (bool, error) {
	if _, ok := f.(*LocalFile); !ok {
		return false, &connection.IllegalArgumentError{Reason: "local filesystem removeFile requires a local file"}
	}
	return fs.RemoveFileByPath(f.Path())
}

// RemoveFileByPath deletes a path. A symbolic link is removed as a link, its
// target untouched; a directory is emptied bottom-up first. Any failure
// during recursion fails the whole removal.
func (fs *LocalFileSystem) RemoveFileByPath(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, common.WrapError(err, "lstat %s", path)
	}
	if info.Mode()&os.ModeSymlink != 0 || !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return false, common.WrapError(err, "remove %s", path)
		}
		return true, nil
	}
	if err := fs.removeTree(path); err != nil {
		return false, err
	}
	return true, nil
}

func (fs *LocalFileSystem) removeTree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return common.WrapError(err, "read directory %s", dir)
	}
	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		if entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			if err := fs.removeTree(child); err != nil {
				return err
			}
			continue
		}
		if err := os.Remove(child); err != nil {
			return common.WrapError(err, "remove %s", child)
		}
	}
	if err := os.Remove(dir); err != nil {
		return common.WrapError(err, "remove directory %s", dir)
	}
	return nil
}

// GetFile returns a local File for the path, existing or not.
func (fs *LocalFileSystem) GetFile(path string) (interfaces.File, error) {
	return NewLocalFile(path)
}

// FileExists reports whether a local path exists, links counting as
// themselves.
func (fs *LocalFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, common.WrapError(err, "lstat %s", path)
	}
	return true, nil
}

// ListFiles lists a local directory, or returns nil when the path is not an
// existing directory.
func (fs *LocalFileSystem) ListFiles(path string) ([]interfaces.File, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, common.WrapError(err, "read directory %s", path)
	}
	files := make([]interfaces.File, 0, len(entries))
	for _, entry := range entries {
		f, err := NewLocalFile(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// CopyFiles copies src into the local destination directory. The source may
// be local (same-system copy) or remote (download).
func (fs *LocalFileSystem) CopyFiles(src interfaces.File, destDir interfaces.File) (bool, error) {
	return fs.copyMove(src, destDir, false)
}

// MoveFiles moves src into the local destination directory. A same-system
// move uses the native rename; a remote source is downloaded and each source
// item deleted right after its transfer.
func (fs *LocalFileSystem) MoveFiles(src interfaces.File, destDir interfaces.File) (bool, error) {
	return fs.copyMove(src, destDir, true)
}

func (fs *LocalFileSystem) copyMove(src interfaces.File, destDir interfaces.File, move bool) (bool, error) {
	dest, ok := destDir.(*LocalFile)
	if !ok {
		return false, &connection.IllegalArgumentError{Reason: "local filesystem requires a local destination directory"}
	}
	op := types.ClassifyOperation(src.IsRemote(), false)

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
	targetPath := filepath.Join(dest.Path(), src.Name())
	if collision, err := fs.FileExists(targetPath); err != nil {
		return false, err
	} else if collision {
		// Never overwrite silently; the refusal is the caller's signal.
		return false, nil
	}

	fs.logger.Info("starting transfer", "operation", op.String(), "source", src.Path(), "dest", targetPath, "move", move)
	switch op {
	case types.LocalToLocal:
		localSrc, ok := src.(*LocalFile)
		if !ok {
			return false, &connection.IllegalArgumentError{Reason: "local source must be a local file"}
		}
		return fs.localToLocal(localSrc, targetPath, move)
	case types.RemoteToLocal:
		remoteSrc, ok := src.(*RemoteFile)
		if !ok {
			return false, &connection.IllegalArgumentError{Reason: "remote source must be a remote file"}
		}
		return fs.remoteToLocal(remoteSrc, targetPath, move)
	default:
		return false, &connection.IllegalArgumentError{Reason: fmt.Sprintf("unsupported operation %s on the local filesystem", op)}
	}
}

// localToLocal performs a same-system copy or move. Failures during a
// recursive walk are fatal for the whole operation; the soft-error queue is
// reserved for cross-system transfers.
func (fs *LocalFileSystem) localToLocal(src *LocalFile, targetPath string, move bool) (bool, error) {
	if move {
		if err := os.Rename(src.Path(), targetPath); err != nil {
			return false, common.WrapError(err, "move %s to %s", src.Path(), targetPath)
		}
		return true, nil
	}
	isDir, err := src.IsDirectory()
	if err != nil {
		return false, err
	}
	if isDir {
		if err := fs.copyLocalTree(src.Path(), targetPath); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := copyLocalFile(src.Path(), targetPath); err != nil {
		return false, err
	}
	return true, nil
}

// copyLocalTree recursively copies a directory, following symbolic links when
// configured.
func (fs *LocalFileSystem) copyLocalTree(srcDir, dstDir string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return common.WrapError(err, "stat %s", srcDir)
	}
	if err := os.MkdirAll(dstDir, info.Mode().Perm()); err != nil {
		return common.WrapError(err, "create directory %s", dstDir)
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return common.WrapError(err, "read directory %s", srcDir)
	}
	for _, entry := range entries {
		srcChild := filepath.Join(srcDir, entry.Name())
		dstChild := filepath.Join(dstDir, entry.Name())
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if !fs.copyOpts.FollowSymlinks {
				continue
			}
			resolved, err := os.Stat(srcChild)
			if err != nil {
				return common.WrapError(err, "resolve link %s", srcChild)
			}
			isDir = resolved.IsDir()
		}
		if isDir {
			if err := fs.copyLocalTree(srcChild, dstChild); err != nil {
				return err
			}
			continue
		}
		if err := copyLocalFile(srcChild, dstChild); err != nil {
			return err
		}
	}
	return nil
}

func copyLocalFile(srcPath, dstPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return common.WrapError(err, "stat %s", srcPath)
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return common.WrapError(err, "open %s", srcPath)
	}
	defer src.Close()
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return common.WrapError(err, "create %s", dstPath)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return common.WrapError(err, "copy %s to %s", srcPath, dstPath)
	}
	return dst.Close()
}

// remoteToLocal downloads a remote file or tree. Per-file failures inside a
// tree are queued as soft errors; the walk continues.
func (fs *LocalFileSystem) remoteToLocal(src *RemoteFile, targetPath string, move bool) (bool, error) {
	isDir, err := src.IsDirectory()
	if err != nil {
		return false, err
	}
	conn := src.Connection()
	if !isDir {
		ok, err := conn.DownloadFile(src.Path(), filepath.Dir(targetPath))
		if err != nil || !ok {
			return false, err
		}
		if move {
			if _, err := conn.RemoveFile(src.Path()); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	if err := os.MkdirAll(targetPath, 0o755); err != nil {
		return false, common.WrapError(err, "create directory %s", targetPath)
	}
	fs.downloadTree(conn, src.Path(), targetPath, move)
	if move {
		if _, err := conn.RemoveDirectory(src.Path()); err != nil {
			fs.queue.Enqueue(types.NewOperationError(
				fmt.Sprintf("failed to remove source directory %s after move", src.Path()),
				src.Path(), targetPath, err))
		}
	}
	return true, nil
}

// downloadTree mirrors a remote directory one level at a time. Each file that
// fails to transfer is recorded and skipped; moving deletes every source item
// immediately after its own successful transfer, not batched at the end.
func (fs *LocalFileSystem) downloadTree(conn *connection.Connection, remoteDir, localDir string, move bool) {
	entries, err := conn.ListFiles(remoteDir)
	if err != nil {
		fs.queue.Enqueue(types.NewOperationError(
			fmt.Sprintf("failed to list %s", remoteDir), remoteDir, localDir, err))
		return
	}
	paths := common.NewRemotePathUtils()
	for _, entry := range entries {
		remoteChild := paths.Join(remoteDir, entry.Name)
		if entry.Kind == connection.KindDirectory {
			localChild := filepath.Join(localDir, entry.Name)
			if err := os.MkdirAll(localChild, 0o755); err != nil {
				fs.queue.Enqueue(types.NewOperationError(
					fmt.Sprintf("failed to create directory %s", localChild), remoteChild, localChild, err))
				continue
			}
			fs.downloadTree(conn, remoteChild, localChild, move)
			if move {
				if _, err := conn.RemoveDirectory(remoteChild); err != nil {
					fs.queue.Enqueue(types.NewOperationError(
						fmt.Sprintf("failed to remove source directory %s after move", remoteChild),
						remoteChild, localChild, err))
				}
			}
			continue
		}
		ok, err := conn.DownloadFile(remoteChild, localDir)
		if err != nil || !ok {
			fs.queue.Enqueue(types.NewOperationError(
				fmt.Sprintf("failed to download %s", remoteChild),
				remoteChild, filepath.Join(localDir, entry.Name), err))
			continue
		}
		if move {
			if _, err := conn.RemoveFile(remoteChild); err != nil {
				fs.queue.Enqueue(types.NewOperationError(
					fmt.Sprintf("failed to remove source %s after move", remoteChild),
					remoteChild, filepath.Join(localDir, entry.Name), err))
			}
		}
	}
}

// HasNextOperationError reports whether soft errors remain undrained.
func (fs *LocalFileSystem) HasNextOperationError() bool {
	return fs.queue.HasNext()
}

// NextOperationError pops the oldest soft error, or nil.
func (fs *LocalFileSystem) NextOperationError() *types.OperationError {
	return fs.queue.Next()
}

var _ interfaces.FileSystem = (*LocalFileSystem)(nil)
