package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrSymlink is returned when a path resolves to a symbolic link.
var ErrSymlink = errors.New("symbolic links are not served")

// Open opens name inside root for reading without following a final
// symbolic link.
//
// os.Root resolves links that stay inside the root on its own, so the path
// is checked with Lstat first and the opened file must be the same file
// that was checked. A link swapped in between the two steps is refused.
func Open(root *os.Root, name string) (*os.File, error) {
	checked, err := root.Lstat(name)
	if err != nil {
		return nil, err
	}
	if checked.Mode()&fs.ModeSymlink != 0 {
		return nil, fmt.Errorf("open %s: %w", name, ErrSymlink)
	}

	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	opened, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !os.SameFile(checked, opened) {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", name, ErrSymlink)
	}
	return f, nil
}
