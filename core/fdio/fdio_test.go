package fdio

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/msh/core/line"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// testStreams backs a Streams with files in a temporary directory.
func testStreams(t *testing.T) (Streams, string) {
	t.Helper()
	dir := t.TempDir()

	open := func(name string, flag int) *os.File {
		fd, err := os.OpenFile(filepath.Join(dir, name), flag|os.O_CREATE, 0600)
		require.NoError(t, err)
		t.Cleanup(func() { fd.Close() })
		return fd
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stdin"), []byte("from stdin\n"), 0600))
	return NewStreams(open("stdin", os.O_RDONLY), open("stdout", os.O_WRONLY), open("stderr", os.O_WRONLY)), dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(contents)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")

	t.Run("write-truncates", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("old contents"), 0600))
		fd, err := Open(&line.Redirect{Path: path, Mode: line.ModeWrite})
		require.NoError(t, err)
		fmt.Fprint(fd, "new")
		fd.Close()
		assert.Equal(t, "new", readFile(t, path))
	})

	t.Run("append", func(t *testing.T) {
		fd, err := Open(&line.Redirect{Path: path, Mode: line.ModeAppend})
		require.NoError(t, err)
		fmt.Fprint(fd, "er")
		fd.Close()
		assert.Equal(t, "newer", readFile(t, path))
	})

	t.Run("missing", func(t *testing.T) {
		missing := filepath.Join(dir, "missing")
		_, err := Open(&line.Redirect{Path: missing, Mode: line.ModeRead})

		var redirErr *RedirectError
		require.ErrorAs(t, err, &redirErr)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Equal(t, missing+": no such file or directory", err.Error())
	})

	t.Run("no-dir", func(t *testing.T) {
		_, err := Open(&line.Redirect{Path: filepath.Join(dir, "a", "b"), Mode: line.ModeWrite})
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestSaveRestore(t *testing.T) {
	streams, dir := testStreams(t)
	target := filepath.Join(dir, "target")

	saved, err := Save(streams)
	require.NoError(t, err)

	require.NoError(t, Redirect(streams.Stdout(), &line.Redirect{Path: target, Mode: line.ModeWrite}))
	fmt.Fprintln(streams.Stdout(), "redirected")
	fmt.Fprintln(saved.Stdout(), "saved copy")

	require.NoError(t, saved.Restore())
	fmt.Fprintln(streams.Stdout(), "restored")

	assert.Equal(t, "redirected\n", readFile(t, target))
	assert.Equal(t, "saved copy\nrestored\n", readFile(t, filepath.Join(dir, "stdout")))

	// Restoring again is a no-op.
	assert.NoError(t, saved.Restore())
	assert.Nil(t, saved.Stdout())
}

func TestSave_closeOnExec(t *testing.T) {
	streams, _ := testStreams(t)

	saved, err := Save(streams)
	require.NoError(t, err)
	defer saved.Restore()

	for _, f := range []*os.File{saved.Stdin(), saved.Stdout(), saved.Stderr()} {
		assert.NotEqual(t, streams.Stdout().Fd(), f.Fd())

		flags, err := unix.FcntlInt(f.Fd(), unix.F_GETFD, 0)
		require.NoError(t, err)
		assert.NotZero(t, flags&unix.FD_CLOEXEC, "duplicate of %s leaks into children", f.Name())
	}
}

func TestRedirectAll(t *testing.T) {
	t.Run("shared", func(t *testing.T) {
		streams, dir := testStreams(t)
		both := filepath.Join(dir, "both")
		p := &line.Pipeline{
			Commands: []line.Command{{Args: []string{"make"}}},
			Output:   &line.Redirect{Path: both, Mode: line.ModeWrite},
			Error:    &line.Redirect{Path: both, Mode: line.ModeWrite},
		}
		assert.True(t, SharesOutput(p))

		saved, err := Save(streams)
		require.NoError(t, err)
		require.NoError(t, RedirectAll(streams, p))
		fmt.Fprintln(streams.Stdout(), "out")
		fmt.Fprintln(streams.Stderr(), "err")
		require.NoError(t, saved.Restore())

		assert.Equal(t, "out\nerr\n", readFile(t, both))
	})

	t.Run("input-failure-reported-to-error-file", func(t *testing.T) {
		streams, dir := testStreams(t)
		p := &line.Pipeline{
			Commands: []line.Command{{Args: []string{"cat"}}},
			Input:    &line.Redirect{Path: filepath.Join(dir, "missing"), Mode: line.ModeRead},
			Error:    &line.Redirect{Path: filepath.Join(dir, "errors"), Mode: line.ModeWrite},
		}

		saved, err := Save(streams)
		require.NoError(t, err)
		err = RedirectAll(streams, p)
		require.Error(t, err)
		fmt.Fprintln(streams.Stderr(), err)
		require.NoError(t, saved.Restore())

		assert.Contains(t, readFile(t, filepath.Join(dir, "errors")), "no such file or directory")
		assert.Empty(t, readFile(t, filepath.Join(dir, "stderr")))
	})
}
