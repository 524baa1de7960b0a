// Package walk enumerates the regular files of an asset tree.
package walk

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// Warning records a subtree that could not be read. The subtree is treated
// as empty.
type Warning struct {
	Path string
	Err  error
}

// Result is the outcome of a walk.
type Result struct {
	// Paths holds slash-separated paths relative to the root, in lexical order.
	Paths []string

	// Warnings lists directories whose contents were skipped.
	Warnings []Warning
}

// Files walks root recursively and collects every regular file.
//
// Symbolic links are never followed, whether they point at files or
// directories, so the walk cannot cycle. Sockets, devices and other
// irregular files are skipped. A directory that cannot be read contributes
// no files and a Warning; only an unreadable root is an error.
func Files(ctx context.Context, root *os.Root, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fsys := root.FS()
	if _, err := fs.ReadDir(fsys, "."); err != nil {
		return Result{}, fmt.Errorf("read root: %w", err)
	}

	res := Result{Paths: make([]string, 0, 256)}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == "." {
				return walkErr
			}
			logger.Debug("skipped unreadable path", "path", path, "error", walkErr)
			res.Warnings = append(res.Warnings, Warning{Path: path, Err: walkErr})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		mode := d.Type()
		switch {
		case mode&fs.ModeSymlink != 0:
			logger.Debug("skipped symlink", "path", path)
			return nil
		case d.IsDir():
			return nil
		case !mode.IsRegular():
			logger.Debug("skipped irregular file", "path", path, "mode", mode.String())
			return nil
		}

		res.Paths = append(res.Paths, path)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
