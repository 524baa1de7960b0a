// Package codec implements the content codings used to precompress assets.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoding identifies the compression algorithm applied to an asset.
type Encoding uint8

const (
	Brotli Encoding = iota
	Gzip
	Zstd
)

// String returns the human-readable name of the encoding.
func (e Encoding) String() string {
	switch e {
	case Brotli:
		return "brotli"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Token returns the HTTP content-coding token for the encoding,
// as used in Accept-Encoding and Content-Encoding headers.
func (e Encoding) Token() string {
	switch e {
	case Brotli:
		return "br"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return ""
	}
}

// ParseEncoding parses an encoding from its name or content-coding token.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "br", "brotli":
		return Brotli, nil
	case "gzip":
		return Gzip, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// zstdEncoder is shared by all callers; EncodeAll is safe for concurrent use.
var (
	zstdEncoderOnce sync.Once
	zstdEncoder     *zstd.Encoder
	zstdEncoderErr  error
)

func sharedZstdEncoder() (*zstd.Encoder, error) {
	zstdEncoderOnce.Do(func() {
		zstdEncoder, zstdEncoderErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true),
		)
	})
	return zstdEncoder, zstdEncoderErr
}

// Compress encodes data with the highest-ratio settings the encoding offers.
// The returned stream is complete: every encoder is closed before returning.
func Compress(enc Encoding, data []byte) ([]byte, error) {
	switch enc {
	case Brotli:
		var buf bytes.Buffer
		buf.Grow(len(data) / 2)
		w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("brotli write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("brotli close: %w", err)
		}
		return buf.Bytes(), nil

	case Gzip:
		var buf bytes.Buffer
		buf.Grow(len(data) / 2)
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil

	case Zstd:
		zw, err := sharedZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return zw.EncodeAll(data, make([]byte, 0, len(data)/2)), nil

	default:
		return nil, fmt.Errorf("unsupported encoding %d", enc)
	}
}

// NewReader returns a reader that decodes a payload produced by Compress.
// The caller must close the returned reader.
func NewReader(enc Encoding, r io.Reader) (io.ReadCloser, error) {
	switch enc {
	case Brotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, release, err := decoders.Get(r)
		if err != nil {
			return nil, err
		}
		return &pooledReader{Reader: dec, release: release}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %d", enc)
	}
}

type pooledReader struct {
	io.Reader
	release func()
	once    sync.Once
}

func (p *pooledReader) Close() error {
	p.once.Do(p.release)
	return nil
}
