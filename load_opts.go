package spacache

import (
	"log/slog"
	"runtime"

	"github.com/meigma/spacache/internal/codec"
	"github.com/meigma/spacache/internal/mimetype"
)

// DefaultMaxFiles is the default limit used when no MaxFiles option is set.
const DefaultMaxFiles = 200_000

// loadConfig holds configuration for Load.
type loadConfig struct {
	logger       *slog.Logger
	workers      int
	encoding     Encoding
	policy       CompressionPolicy
	mimeResolver func(path string) string
	maxFiles     int
	progress     ProgressFunc

	// compress is swapped in tests to exercise compression failures.
	compress func(Encoding, []byte) ([]byte, error)
}

func newLoadConfig(opts []LoadOption) loadConfig {
	cfg := loadConfig{
		encoding:     EncodingBrotli,
		policy:       DefaultCompressionPolicy,
		mimeResolver: mimetype.ByExtension,
		compress:     codec.Compress,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	if cfg.maxFiles == 0 {
		cfg.maxFiles = DefaultMaxFiles
	}
	if cfg.policy == nil {
		cfg.policy = DefaultCompressionPolicy
	}
	if cfg.mimeResolver == nil {
		cfg.mimeResolver = mimetype.ByExtension
	}
	return cfg
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithLogger sets the logger for load operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(cfg *loadConfig) {
		cfg.logger = logger
	}
}

// WithWorkers caps the number of files read and compressed concurrently.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) LoadOption {
	return func(cfg *loadConfig) {
		cfg.workers = n
	}
}

// WithEncoding sets the algorithm used to precompress assets.
// The default is EncodingBrotli.
func WithEncoding(enc Encoding) LoadOption {
	return func(cfg *loadConfig) {
		cfg.encoding = enc
	}
}

// WithCompressionPolicy replaces the policy deciding which MIME types are
// precompressed. Nil restores DefaultCompressionPolicy.
func WithCompressionPolicy(p CompressionPolicy) LoadOption {
	return func(cfg *loadConfig) {
		cfg.policy = p
	}
}

// WithMIMEResolver replaces the extension-based MIME lookup. The function
// receives the slash-separated path relative to the root and must return a
// MIME type without parameters.
func WithMIMEResolver(fn func(path string) string) LoadOption {
	return func(cfg *loadConfig) {
		cfg.mimeResolver = fn
	}
}

// WithMaxFiles limits the number of files loaded.
// Zero uses DefaultMaxFiles. Negative means no limit.
func WithMaxFiles(n int) LoadOption {
	return func(cfg *loadConfig) {
		cfg.maxFiles = n
	}
}

// WithProgress sets a callback for progress updates.
func WithProgress(fn ProgressFunc) LoadOption {
	return func(cfg *loadConfig) {
		cfg.progress = fn
	}
}
