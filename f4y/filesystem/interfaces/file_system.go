package interfaces

import (
	"time"

	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/types"
)

// File is the capability set shared by local and remote files. Local
// implementations answer from the live filesystem; the remote implementation
// answers from a cached descriptor with an explicit Refresh contract.
type File interface {
	// Path returns the absolute path of the file in its own domain.
	Path() string
	// Name returns the base name.
	Name() string
	// IsRemote reports which domain the file belongs to.
	IsRemote() bool

	// Exists re-checks existence. The remote implementation never trusts its
	// cache for this answer.
	Exists() (bool, error)
	IsDirectory() (bool, error)
	IsNormalFile() (bool, error)
	IsSymbolicLink() (bool, error)

	// Size returns the size in bytes, or -1 for a nonexistent file.
	Size() (int64, error)
	// Permissions renders the 10-character long-listing form, e.g.
	// "-rwxr-xr--". Unknown bits render as '-'.
	Permissions() (string, error)
	ModificationTime() (time.Time, error)

	// Parent returns the parent directory as a File, whether or not it
	// exists.
	Parent() (File, error)
	// ExistingParent walks upward until a component exists and is a
	// directory. Terminates at the root, which always exists.
	ExistingParent() (File, error)

	// Refresh re-fetches any cached state. A no-op for local files.
	Refresh() error
}

// FileSystem is the operation surface of one domain, local or remote. Each
// implementation accepts only its own File variant as a destination and the
// opposite variant as a cross-domain transfer source.
//
// Bulk operations record per-item failures on an internal queue drained via
// HasNextOperationError/NextOperationError instead of aborting the whole
// transfer.
type FileSystem interface {
	// AddFile transfers a single file from the opposite domain into destDir.
	AddFile(src File, destDir string) (bool, error)
	// RemoveFile deletes a file or directory tree. Symbolic links are removed
	// as links, never followed. Any failure during recursive deletion is
	// fatal for the whole removal.
	RemoveFile(f File) (bool, error)
	RemoveFileByPath(path string) (bool, error)

	GetFile(path string) (File, error)
	FileExists(path string) (bool, error)
	// ListFiles returns the entries of a directory without "." and "..", or
	// nil when the path is not an existing directory.
	ListFiles(path string) ([]File, error)

	CopyFiles(src File, destDir File) (bool, error)
	MoveFiles(src File, destDir File) (bool, error)

	HasNextOperationError() bool
	NextOperationError() *types.OperationError
}
