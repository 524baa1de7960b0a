package walk

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func openRoot(t *testing.T, dir string) *os.Root {
	t.Helper()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { root.Close() })
	return root
}

func TestFilesNested(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html>")
	writeFile(t, dir, "assets/app.js", "x")
	writeFile(t, dir, "assets/img/logo.png", "png")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty", "deeper"), 0o755))

	res, err := Files(context.Background(), openRoot(t, dir), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/app.js", "assets/img/logo.png", "index.html"}, res.Paths)
	assert.Empty(t, res.Warnings)
}

func TestFilesEmptyRoot(t *testing.T) {
	t.Parallel()

	res, err := Files(context.Background(), openRoot(t, t.TempDir()), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Paths)
}

func TestFilesSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.txt", "real")
	writeFile(t, dir, "sub/inner.txt", "inner")
	require.NoError(t, os.Symlink(filepath.Join(dir, "real.txt"), filepath.Join(dir, "link.txt")))
	// A link back to the root would cycle forever if followed.
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "sub", "loop")))

	res, err := Files(context.Background(), openRoot(t, dir), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"real.txt", "sub/inner.txt"}, res.Paths)
}

func TestFilesUnreadableSubdir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "ok.txt", "ok")
	writeFile(t, dir, "locked/secret.txt", "secret")
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Files(context.Background(), openRoot(t, dir), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.txt"}, res.Paths)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "locked", res.Warnings[0].Path)
}

func TestFilesCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Files(ctx, openRoot(t, dir), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpenRejectsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.txt", "real")
	require.NoError(t, os.Symlink("real.txt", filepath.Join(dir, "link.txt")))
	root := openRoot(t, dir)

	f, err := Open(root, "real.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "real", string(data))
	require.NoError(t, f.Close())

	_, err = Open(root, "link.txt")
	require.ErrorIs(t, err, ErrSymlink)
}

func TestOpenRejectsNestedAndDirectorySymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.txt", "real")
	writeFile(t, dir, "sub/inner.txt", "inner")
	require.NoError(t, os.Symlink("../real.txt", filepath.Join(dir, "sub", "up.txt")))
	require.NoError(t, os.Symlink("sub", filepath.Join(dir, "subdir")))
	root := openRoot(t, dir)

	_, err := Open(root, filepath.Join("sub", "up.txt"))
	require.ErrorIs(t, err, ErrSymlink)

	_, err = Open(root, "subdir")
	require.ErrorIs(t, err, ErrSymlink)

	_, err = Open(root, "missing.txt")
	require.ErrorIs(t, err, os.ErrNotExist)
}
