package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFile_Queries(t *testing.T) {
	t.Run("answers are live, never cached", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "file.txt")
		f, err := NewLocalFile(p)
		require.NoError(t, err)

		exists, err := f.Exists()
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, os.WriteFile(p, []byte("content"), 0o644))
		exists, err = f.Exists()
		require.NoError(t, err)
		assert.True(t, exists, "the same File sees the file appear")

		size, err := f.Size()
		require.NoError(t, err)
		assert.Equal(t, int64(len("content")), size)
	})

	t.Run("size of a nonexistent file is -1", func(t *testing.T) {
		f, err := NewLocalFile(filepath.Join(t.TempDir(), "ghost"))
		require.NoError(t, err)

		size, err := f.Size()
		require.NoError(t, err)
		assert.Equal(t, int64(-1), size)
	})

	t.Run("an empty path is rejected", func(t *testing.T) {
		_, err := NewLocalFile("")
		assert.Error(t, err)
	})

	t.Run("relative paths are made absolute", func(t *testing.T) {
		f, err := NewLocalFile("relative/file.txt")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(f.Path()))
	})
}

func TestLocalFile_Types(t *testing.T) {
	t.Run("classifies files, directories and links", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "plain.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		link := filepath.Join(dir, "alias")
		require.NoError(t, os.Symlink(file, link))

		df, err := NewLocalFile(dir)
		require.NoError(t, err)
		isDir, err := df.IsDirectory()
		require.NoError(t, err)
		assert.True(t, isDir)

		ff, err := NewLocalFile(file)
		require.NoError(t, err)
		isFile, err := ff.IsNormalFile()
		require.NoError(t, err)
		assert.True(t, isFile)
		isLink, err := ff.IsSymbolicLink()
		require.NoError(t, err)
		assert.False(t, isLink)

		lf, err := NewLocalFile(link)
		require.NoError(t, err)
		isLink, err = lf.IsSymbolicLink()
		require.NoError(t, err)
		assert.True(t, isLink)
		isFile, err = lf.IsNormalFile()
		require.NoError(t, err)
		assert.True(t, isFile, "type questions follow the link")
	})

	t.Run("a broken link is neither file nor directory", func(t *testing.T) {
		link := filepath.Join(t.TempDir(), "dangling")
		require.NoError(t, os.Symlink(filepath.Join(t.TempDir(), "gone"), link))

		f, err := NewLocalFile(link)
		require.NoError(t, err)

		isLink, err := f.IsSymbolicLink()
		require.NoError(t, err)
		assert.True(t, isLink)
		isFile, err := f.IsNormalFile()
		require.NoError(t, err)
		assert.False(t, isFile)
		isDir, err := f.IsDirectory()
		require.NoError(t, err)
		assert.False(t, isDir)
	})
}

func TestLocalFile_Permissions(t *testing.T) {
	t.Run("renders the long-listing form", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o640))

		f, err := NewLocalFile(p)
		require.NoError(t, err)
		perms, err := f.Permissions()
		require.NoError(t, err)
		assert.Equal(t, "-rw-r-----", perms)
	})

	t.Run("a missing file renders as dashes", func(t *testing.T) {
		f, err := NewLocalFile(filepath.Join(t.TempDir(), "ghost"))
		require.NoError(t, err)
		perms, err := f.Permissions()
		require.NoError(t, err)
		assert.Equal(t, "----------", perms)
	})
}

func TestLocalFile_Parents(t *testing.T) {
	t.Run("existing parent skips missing intermediate components", func(t *testing.T) {
		base := t.TempDir()
		f, err := NewLocalFile(filepath.Join(base, "missing", "deeper", "file.txt"))
		require.NoError(t, err)

		parent, err := f.ExistingParent()
		require.NoError(t, err)
		assert.Equal(t, base, parent.Path())
	})

	t.Run("parent is purely lexical", func(t *testing.T) {
		f, err := NewLocalFile(filepath.Join(t.TempDir(), "ghost", "file.txt"))
		require.NoError(t, err)

		parent, err := f.Parent()
		require.NoError(t, err)
		assert.Equal(t, "ghost", filepath.Base(parent.Path()))
	})
}
