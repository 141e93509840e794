package filesystem

import (
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/ftp4you/f4y/connection"
)

func TestLocalFileSystem_CopyMove(t *testing.T) {
	t.Run("copies a directory tree recursively", func(t *testing.T) {
		fs := NewLocalFileSystem()
		src := localSourceTree(t, map[string]string{
			"a.txt":     "alpha",
			"sub/b.txt": "beta",
		})
		dest := t.TempDir()

		ok, err := fs.CopyFiles(mustLocalFile(t, src), mustLocalFile(t, dest))
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := os.ReadFile(filepath.Join(dest, "data", "sub", "b.txt"))
		require.NoError(t, err)
		assert.Equal(t, "beta", string(data))

		_, err = os.Stat(filepath.Join(src, "a.txt"))
		assert.NoError(t, err, "copy keeps the source")
	})

	t.Run("copies through symbolic links when following them", func(t *testing.T) {
		fs := NewLocalFileSystem()
		src := localSourceTree(t, map[string]string{"real.txt": "x"})
		require.NoError(t, os.Symlink(filepath.Join(src, "real.txt"), filepath.Join(src, "alias")))
		dest := t.TempDir()

		ok, err := fs.CopyFiles(mustLocalFile(t, src), mustLocalFile(t, dest))
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := os.ReadFile(filepath.Join(dest, "data", "alias"))
		require.NoError(t, err)
		assert.Equal(t, "x", string(data), "link content copied, not the link itself")
	})

	t.Run("moves with the native rename", func(t *testing.T) {
		fs := NewLocalFileSystem()
		src := localSourceTree(t, map[string]string{"a.txt": "alpha"})
		dest := t.TempDir()

		ok, err := fs.MoveFiles(mustLocalFile(t, src), mustLocalFile(t, dest))
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = os.Stat(src)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(filepath.Join(dest, "data", "a.txt"))
		assert.NoError(t, err)
	})

	t.Run("refuses to overwrite an existing destination entry", func(t *testing.T) {
		fs := NewLocalFileSystem()
		src := localSourceTree(t, map[string]string{"a.txt": "alpha"})
		dest := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dest, "data"), 0o755))

		ok, err := fs.CopyFiles(mustLocalFile(t, src), mustLocalFile(t, dest))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("a non-directory destination is a fatal error", func(t *testing.T) {
		fs := NewLocalFileSystem()
		src := localSourceTree(t, map[string]string{"a.txt": "alpha"})
		destFile := filepath.Join(t.TempDir(), "plain.txt")
		require.NoError(t, os.WriteFile(destFile, []byte("x"), 0o644))

		_, err := fs.CopyFiles(mustLocalFile(t, src), mustLocalFile(t, destFile))
		assert.Error(t, err)
	})

	t.Run("a remote destination is a programming error", func(t *testing.T) {
		srv := newFakeServer()
		srv.addDir("/dest")
		rfs := remoteFS(t, srv)
		fs := NewLocalFileSystem()
		src := localSourceTree(t, map[string]string{"a.txt": "alpha"})

		_, err := fs.CopyFiles(mustLocalFile(t, src), mustRemoteFile(t, rfs, "/dest"))
		var illegal *connection.IllegalArgumentError
		require.ErrorAs(t, err, &illegal)
	})
}

func TestLocalFileSystem_RemoteToLocal(t *testing.T) {
	t.Run("downloads a tree and mirrors its structure", func(t *testing.T) {
		srv := newFakeServer()
		srv.addFile("/src/a.txt", "alpha")
		srv.addFile("/src/sub/b.txt", "beta")
		rfs := remoteFS(t, srv)
		fs := NewLocalFileSystem()
		dest := t.TempDir()

		ok, err := fs.CopyFiles(mustRemoteFile(t, rfs, "/src"), mustLocalFile(t, dest))
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := os.ReadFile(filepath.Join(dest, "src", "sub", "b.txt"))
		require.NoError(t, err)
		assert.Equal(t, "beta", string(data))
		assert.False(t, fs.HasNextOperationError())
	})

	t.Run("a failed download is a soft error, not an abort", func(t *testing.T) {
		srv := newFakeServer()
		srv.addFile("/src/a.txt", "alpha")
		srv.addFile("/src/b.txt", "beta")
		srv.addFile("/src/c.txt", "gamma")
		srv.retrErr["/src/b.txt"] = &textproto.Error{Code: 426, Msg: "transfer aborted"}
		rfs := remoteFS(t, srv)
		fs := NewLocalFileSystem()
		dest := t.TempDir()

		ok, err := fs.CopyFiles(mustRemoteFile(t, rfs, "/src"), mustLocalFile(t, dest))
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = os.Stat(filepath.Join(dest, "src", "a.txt"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(dest, "src", "b.txt"))
		assert.True(t, os.IsNotExist(err))

		require.True(t, fs.HasNextOperationError())
		opErr := fs.NextOperationError()
		assert.Equal(t, "/src/b.txt", opErr.SourcePath)
		assert.False(t, fs.HasNextOperationError(), "exactly one soft error")
	})

	t.Run("move deletes each remote source right after its transfer", func(t *testing.T) {
		srv := newFakeServer()
		srv.addFile("/src/a.txt", "alpha")
		srv.addFile("/src/sub/b.txt", "beta")
		rfs := remoteFS(t, srv)
		fs := NewLocalFileSystem()
		dest := t.TempDir()

		ok, err := fs.MoveFiles(mustRemoteFile(t, rfs, "/src"), mustLocalFile(t, dest))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, srv.files, "remote sources removed")
		assert.False(t, srv.dirs["/src"], "remote tree removed")
	})
}

func TestLocalFileSystem_Remove(t *testing.T) {
	t.Run("removes a directory tree bottom-up", func(t *testing.T) {
		fs := NewLocalFileSystem()
		root := localSourceTree(t, map[string]string{
			"a.txt":          "x",
			"sub/deep/b.txt": "y",
		})

		ok, err := fs.RemoveFileByPath(root)
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = os.Stat(root)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("removes a symbolic link without recursing into its target", func(t *testing.T) {
		fs := NewLocalFileSystem()
		target := localSourceTree(t, map[string]string{"keep.txt": "x"})
		link := filepath.Join(t.TempDir(), "alias")
		require.NoError(t, os.Symlink(target, link))

		ok, err := fs.RemoveFileByPath(link)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = os.Lstat(link)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(filepath.Join(target, "keep.txt"))
		assert.NoError(t, err, "target contents untouched")
	})

	t.Run("removing a missing path is a refusal", func(t *testing.T) {
		fs := NewLocalFileSystem()
		ok, err := fs.RemoveFileByPath(filepath.Join(t.TempDir(), "ghost"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects a remote file argument", func(t *testing.T) {
		srv := newFakeServer()
		srv.addFile("/data/file.txt", "x")
		rfs := remoteFS(t, srv)
		fs := NewLocalFileSystem()

		_, err := fs.RemoveFile(mustRemoteFile(t, rfs, "/data/file.txt"))
		var illegal *connection.IllegalArgumentError
		require.ErrorAs(t, err, &illegal)
	})
}

func TestLocalFileSystem_ListAndAdd(t *testing.T) {
	t.Run("listFiles is nil for a non-directory", func(t *testing.T) {
		fs := NewLocalFileSystem()
		file := filepath.Join(t.TempDir(), "plain.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		files, err := fs.ListFiles(file)
		require.NoError(t, err)
		assert.Nil(t, files)

		files, err = fs.ListFiles(filepath.Join(t.TempDir(), "ghost"))
		require.NoError(t, err)
		assert.Nil(t, files)
	})

	t.Run("listFiles returns directory entries", func(t *testing.T) {
		fs := NewLocalFileSystem()
		root := localSourceTree(t, map[string]string{"a.txt": "x", "b.txt": "y"})

		files, err := fs.ListFiles(root)
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("addFile downloads a remote file", func(t *testing.T) {
		srv := newFakeServer()
		srv.addFile("/data/file.txt", "payload")
		rfs := remoteFS(t, srv)
		fs := NewLocalFileSystem()
		dest := t.TempDir()

		ok, err := fs.AddFile(mustRemoteFile(t, rfs, "/data/file.txt"), dest)
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := os.ReadFile(filepath.Join(dest, "file.txt"))
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("addFile rejects a local source", func(t *testing.T) {
		fs := NewLocalFileSystem()
		src := localSourceTree(t, map[string]string{"a.txt": "x"})

		_, err := fs.AddFile(mustLocalFile(t, filepath.Join(src, "a.txt")), t.TempDir())
		var illegal *connection.IllegalArgumentError
		require.ErrorAs(t, err, &illegal)
	})
}
