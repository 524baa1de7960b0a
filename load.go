package spacache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/spacache/internal/walk"
)

// Load walks dir, precompresses eligible files and returns the frozen cache
// together with a report of what was loaded.
//
// Files are read and compressed on a bounded pool of workers. Load returns
// only after every worker finished, so the returned Cache is complete. A
// file that cannot be read is left out of the cache; a file that cannot be
// compressed is stored uncompressed. Both are listed in Report.Warnings;
// Load logs only their count and Report.Log writes each one. Load fails
// only when dir itself cannot be read, the file limit is exceeded, or ctx
// is canceled.
//
// Symbolic links are not followed.
func Load(ctx context.Context, dir string, opts ...LoadOption) (*Cache, *Report, error) {
	l := &loader{cfg: newLoadConfig(opts)}
	return l.load(ctx, dir)
}

// loader holds state for a single Load.
type loader struct {
	cfg  loadConfig
	done atomic.Int64
}

// log returns the logger, falling back to a discard logger if nil.
func (l *loader) log() *slog.Logger {
	if l.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.cfg.logger
}

// reportProgress sends a progress event if a callback is configured.
func (l *loader) reportProgress(stage ProgressStage, path string, filesDone, filesTotal int) {
	if l.cfg.progress == nil {
		return
	}
	l.cfg.progress(ProgressEvent{
		Stage:      stage,
		Path:       path,
		FilesDone:  filesDone,
		FilesTotal: filesTotal,
	})
}

func (l *loader) load(ctx context.Context, dir string) (*Cache, *Report, error) {
	start := time.Now()

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	defer root.Close()

	l.log().Info("loading assets", "dir", dir, "encoding", l.cfg.encoding.String(), "workers", l.cfg.workers)
	l.reportProgress(StageEnumerating, "", 0, 0)

	walked, err := walk.Files(ctx, root, l.log())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	paths := walked.Paths
	if l.cfg.maxFiles > 0 && len(paths) > l.cfg.maxFiles {
		return nil, nil, fmt.Errorf("%w: found %d, limit %d", ErrTooManyFiles, len(paths), l.cfg.maxFiles)
	}
	l.log().Debug("assets enumerated", "file_count", len(paths), "skipped_dirs", len(walked.Warnings))

	// Each worker owns one slot, so results need no locking.
	assets := make([]asset, len(paths))
	loaded := make([]bool, len(paths))
	problems := make([]*Warning, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			assets[i], loaded[i], problems[i] = l.processFile(root, path)
			l.reportProgress(StageLoading, path, int(l.done.Add(1)), len(paths))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	warnings := make([]Warning, 0, len(walked.Warnings))
	for _, w := range walked.Warnings {
		warnings = append(warnings, Warning{Path: w.Path, Op: OpWalk, Err: w.Err})
	}
	kept := make([]asset, 0, len(assets))
	for i := range assets {
		if problems[i] != nil {
			warnings = append(warnings, *problems[i])
		}
		if loaded[i] {
			kept = append(kept, assets[i])
		}
	}
	slices.SortFunc(kept, func(a, b asset) int {
		return strings.Compare(a.key, b.key)
	})

	l.reportProgress(StagePublishing, "", len(paths), len(paths))
	cache := freeze(kept, l.cfg.encoding)
	if !cache.HasFallback() {
		warnings = append(warnings, Warning{Path: FallbackKey, Op: OpFallback, Err: ErrNoFallback})
	}

	stats := make([]LoadStat, len(kept))
	for i := range kept {
		stats[i] = LoadStat{
			Name:         kept[i].key,
			OriginalSize: kept[i].originalSize,
			FinalSize:    int64(len(kept[i].data)),
			Compressed:   kept[i].compressed,
		}
	}

	report := &Report{
		Stats:    stats,
		Warnings: warnings,
		Encoding: l.cfg.encoding,
		Duration: time.Since(start),
	}

	nCompressed, nPlain := cache.Len()
	l.log().Info("assets loaded",
		"compressed", nCompressed,
		"plain", nPlain,
		"bytes", cache.Size(),
		"warnings", len(warnings),
		"duration", report.Duration,
	)

	return cache, report, nil
}

// processFile reads, classifies and optionally compresses one file.
// loaded is false when the file must be left out of the cache.
//
//nolint:gocritic // unnamedResult is acceptable for this internal helper
func (l *loader) processFile(root *os.Root, path string) (asset, bool, *Warning) {
	data, err := readFile(root, path)
	if err != nil {
		return asset{}, false, &Warning{Path: path, Op: OpRead, Err: err}
	}

	a := asset{
		key:          KeyFromPath(filepath.FromSlash(path)),
		contentType:  l.cfg.mimeResolver(path),
		data:         data,
		originalSize: int64(len(data)),
	}
	if !l.cfg.policy(a.contentType) {
		return a, true, nil
	}

	compressed, err := l.cfg.compress(l.cfg.encoding, data)
	if err != nil {
		return a, true, &Warning{Path: path, Op: OpCompress, Err: err}
	}
	a.data = compressed
	a.compressed = true
	return a, true, nil
}

// readFile reads a regular file without following symbolic links.
func readFile(root *os.Root, path string) ([]byte, error) {
	f, err := walk.Open(root, filepath.FromSlash(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, errors.New("not a regular file")
	}

	buf := bytes.NewBuffer(make([]byte, 0, int(info.Size())+bytes.MinRead))
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
