package spacache

import (
	"errors"
	"fmt"

	"github.com/meigma/spacache/internal/walk"
)

var (
	// ErrRootUnreadable is returned by Load when the asset root cannot be
	// opened or listed.
	ErrRootUnreadable = errors.New("asset root unreadable")

	// ErrTooManyFiles is returned when the tree holds more files than allowed.
	ErrTooManyFiles = errors.New("too many files")

	// ErrNoFallback is reported when FallbackKey is missing from the
	// compressed table, so unmatched routes resolve to not-found.
	ErrNoFallback = errors.New("fallback document not precompressed")

	// ErrSymlink is reported when a file turns into a symbolic link between
	// enumeration and reading.
	ErrSymlink = walk.ErrSymlink
)

// Warning operations.
const (
	OpWalk     = "walk"
	OpRead     = "read"
	OpCompress = "compress"
	OpFallback = "fallback"
)

// Warning describes a problem that degraded the cache without failing the
// load: an unreadable subtree or file, a file stored uncompressed because
// compression failed, or a missing fallback document.
type Warning struct {
	// Path is the slash-separated path relative to the root, or a key for
	// OpFallback.
	Path string

	// Op names the load step that failed.
	Op string

	// Err is the underlying error.
	Err error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s %s: %v", w.Op, w.Path, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}
