package spacache

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// LoadStat describes one cached file.
type LoadStat struct {
	// Name is the cache key of the file.
	Name string

	// OriginalSize is the size of the file on disk.
	OriginalSize int64

	// FinalSize is the size of the stored payload.
	FinalSize int64

	// Compressed reports whether the payload is precompressed.
	Compressed bool
}

// Report summarizes a Load.
type Report struct {
	// Stats holds one entry per cached file, sorted by key.
	Stats []LoadStat

	// Warnings lists everything that degraded the cache.
	Warnings []Warning

	// Encoding is the encoding used for compressed files.
	Encoding Encoding

	// Duration is the wall time spent in Load.
	Duration time.Duration
}

// Totals aggregates the per-file stats of a Report.
type Totals struct {
	Files         int
	Compressed    int
	OriginalBytes int64
	FinalBytes    int64
}

// Reduction returns the relative size saving in percent. An empty report
// has no saving.
func (t Totals) Reduction() float64 {
	return reduction(t.OriginalBytes, t.FinalBytes)
}

// Totals sums the stats of the report.
func (r *Report) Totals() Totals {
	var t Totals
	for _, s := range r.Stats {
		t.Files++
		if s.Compressed {
			t.Compressed++
		}
		t.OriginalBytes += s.OriginalSize
		t.FinalBytes += s.FinalSize
	}
	return t
}

// Log writes a per-file table and the totals at info level, followed by
// every warning at warn level.
func (r *Report) Log(logger *slog.Logger) {
	if logger == nil {
		return
	}
	rule := strings.Repeat("-", 80)

	logger.Info("asset load report")
	logger.Info(rule)
	logger.Info(fmt.Sprintf("%-30s %10s %10s %10s %-8s", "File", "Original", "Final", "Reduction", "Type"))
	logger.Info(rule)
	label := strings.ToUpper(r.Encoding.String())
	for _, s := range r.Stats {
		kind := "NONE"
		if s.Compressed {
			kind = label
		}
		logger.Info(fmt.Sprintf("%-30s %10s %10s %9.1f%% %-8s",
			s.Name,
			humanize.IBytes(uint64(max(s.OriginalSize, 0))),
			humanize.IBytes(uint64(max(s.FinalSize, 0))),
			reduction(s.OriginalSize, s.FinalSize),
			kind,
		))
	}
	logger.Info(rule)

	t := r.Totals()
	logger.Info("asset totals",
		"files", t.Files,
		"compressed", t.Compressed,
		"original", humanize.IBytes(uint64(max(t.OriginalBytes, 0))),
		"final", humanize.IBytes(uint64(max(t.FinalBytes, 0))),
		"reduction_pct", fmt.Sprintf("%.1f", t.Reduction()),
		"duration", r.Duration,
	)
	for _, w := range r.Warnings {
		logger.Warn("asset load warning", "op", w.Op, "path", w.Path, "error", w.Err)
	}
}

func reduction(original, final int64) float64 {
	if original <= 0 {
		return 0
	}
	return 100 * (1 - float64(final)/float64(original))
}
