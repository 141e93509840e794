package filesystem

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/common"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/interfaces"
)

// LocalFile is the local-domain File. Every query delegates to the live
// filesystem, so answers are authoritative at call time and Refresh has
// nothing to do.
type LocalFile struct {
	path string
}

// NewLocalFile creates a File for a local path, existing or not.
func NewLocalFile(path string) (*LocalFile, error) {
	if path == "" {
		return nil, common.ErrPathEmpty
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, common.WrapError(err, "resolve local path %s", path)
	}
	return &LocalFile{path: filepath.Clean(abs)}, nil
}

func (f *LocalFile) Path() string   { return f.path }
func (f *LocalFile) Name() string   { return filepath.Base(f.path) }
func (f *LocalFile) IsRemote() bool { return false }

func (f *LocalFile) Exists() (bool, error) {
	_, err := os.Lstat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, common.WrapError(err, "stat %s", f.path)
	}
	return true, nil
}

func (f *LocalFile) IsDirectory() (bool, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, common.WrapError(err, "stat %s", f.path)
	}
	return info.IsDir(), nil
}

func (f *LocalFile) IsNormalFile() (bool, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, common.WrapError(err, "stat %s", f.path)
	}
	return info.Mode().IsRegular(), nil
}

func (f *LocalFile) IsSymbolicLink() (bool, error) {
	info, err := os.Lstat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, common.WrapError(err, "lstat %s", f.path)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// Size returns the byte size, following links the way the OS does, or -1 for
// a nonexistent file.
func (f *LocalFile) Size() (int64, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}
		return -1, common.WrapError(err, "stat %s", f.path)
	}
	return info.Size(), nil
}

// Permissions renders the link's own mode, not its target's.
func (f *LocalFile) Permissions() (string, error) {
	info, err := os.Lstat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return common.RenderPermissions('-', ""), nil
		}
		return "", common.WrapError(err, "lstat %s", f.path)
	}
	return common.ModeToPermissions(info.Mode()), nil
}

func (f *LocalFile) ModificationTime() (time.Time, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, common.WrapError(err, "stat %s", f.path)
	}
	return info.ModTime(), nil
}

func (f *LocalFile) Parent() (interfaces.File, error) {
	return NewLocalFile(filepath.Dir(f.path))
}

// ExistingParent walks upward until a component exists and is a directory.
// The filesystem root always exists, so the walk terminates.
func (f *LocalFile) ExistingParent() (interfaces.File, error) {
	current := filepath.Dir(f.path)
	for {
		info, err := os.Stat(current)
		if err == nil && info.IsDir() {
			return NewLocalFile(current)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return NewLocalFile(current)
		}
		current = parent
	}
}

func (f *LocalFile) Refresh() error { return nil }

var _ interfaces.File = (*LocalFile)(nil)
