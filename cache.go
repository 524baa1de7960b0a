package spacache

import (
	"slices"

	"github.com/meigma/spacache/internal/codec"
)

// FallbackKey is served, precompressed, for any key that matches no asset.
const FallbackKey = "/index.html"

// Encoding identifies the compression algorithm of precompressed assets.
type Encoding = codec.Encoding

// Supported encodings.
const (
	EncodingBrotli = codec.Brotli
	EncodingGzip   = codec.Gzip
	EncodingZstd   = codec.Zstd
)

// ParseEncoding parses an encoding from its name or content-coding token.
var ParseEncoding = codec.ParseEncoding

// Record is a cached asset. Data aliases the cache arena and must not be
// modified.
type Record struct {
	// ContentType is the MIME type of the decoded asset.
	ContentType string

	// Data is the payload as served: compressed for records in the
	// compressed table, the file's bytes otherwise.
	Data []byte

	// OriginalSize is the size of the file on disk.
	OriginalSize int64
}

// Resolution describes how a key was resolved.
type Resolution uint8

const (
	// Miss means neither the key nor the fallback is cached.
	Miss Resolution = iota

	// HitCompressed means the key matched the compressed table.
	HitCompressed

	// HitPlain means the key matched the plain table.
	HitPlain

	// Fallback means the key matched nothing and FallbackKey was served.
	Fallback
)

// String returns the string representation of the resolution.
func (r Resolution) String() string {
	switch r {
	case Miss:
		return "miss"
	case HitCompressed:
		return "hit_compressed"
	case HitPlain:
		return "hit_plain"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Compressed reports whether the resolved record is precompressed.
func (r Resolution) Compressed() bool {
	return r == HitCompressed || r == Fallback
}

// Cache is an immutable set of assets split into a compressed and a plain
// table. The tables never share a key. A Cache is safe for concurrent use;
// nothing modifies it after Load returns. A nil *Cache is empty.
type Cache struct {
	compressed map[string]*Record
	plain      map[string]*Record
	arena      []byte
	encoding   Encoding
}

// Resolve looks up key. Exact matches in the compressed table win over the
// plain table; when neither matches, the compressed FallbackKey record is
// returned. Resolve never allocates or blocks.
func (c *Cache) Resolve(key string) (*Record, Resolution) {
	if c == nil {
		return nil, Miss
	}
	if rec, ok := c.compressed[key]; ok {
		return rec, HitCompressed
	}
	if rec, ok := c.plain[key]; ok {
		return rec, HitPlain
	}
	if rec, ok := c.compressed[FallbackKey]; ok {
		return rec, Fallback
	}
	return nil, Miss
}

// Get returns the record for key and whether it is compressed with the
// cache's Encoding. ok is false when nothing, not even the fallback,
// matched.
func (c *Cache) Get(key string) (rec *Record, compressed, ok bool) {
	rec, res := c.Resolve(key)
	return rec, res.Compressed(), res != Miss
}

// Encoding returns the encoding of compressed records.
func (c *Cache) Encoding() Encoding {
	if c == nil {
		return EncodingBrotli
	}
	return c.encoding
}

// HasFallback reports whether unmatched keys resolve to FallbackKey.
func (c *Cache) HasFallback() bool {
	if c == nil {
		return false
	}
	_, ok := c.compressed[FallbackKey]
	return ok
}

// Len returns the number of compressed and plain records.
func (c *Cache) Len() (compressed, plain int) {
	if c == nil {
		return 0, 0
	}
	return len(c.compressed), len(c.plain)
}

// Size returns the total payload bytes held by the cache.
func (c *Cache) Size() int {
	if c == nil {
		return 0
	}
	return len(c.arena)
}

// Keys returns every cached key in sorted order.
func (c *Cache) Keys() []string {
	if c == nil {
		return []string{}
	}
	keys := make([]string, 0, len(c.compressed)+len(c.plain))
	for k := range c.compressed {
		keys = append(keys, k)
	}
	for k := range c.plain {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// asset is a processed file waiting to be published.
type asset struct {
	key          string
	contentType  string
	data         []byte
	originalSize int64
	compressed   bool
}

// freeze copies the payloads of assets into one arena and indexes them.
// Each record's Data is capacity-limited so appends cannot reach a
// neighbour.
func freeze(assets []asset, enc Encoding) *Cache {
	var total int
	var nCompressed int
	for i := range assets {
		total += len(assets[i].data)
		if assets[i].compressed {
			nCompressed++
		}
	}

	c := &Cache{
		compressed: make(map[string]*Record, nCompressed),
		plain:      make(map[string]*Record, len(assets)-nCompressed),
		arena:      make([]byte, total),
		encoding:   enc,
	}
	records := make([]Record, len(assets))

	var off int
	for i := range assets {
		a := &assets[i]
		end := off + copy(c.arena[off:], a.data)
		records[i] = Record{
			ContentType:  a.contentType,
			Data:         c.arena[off:end:end],
			OriginalSize: a.originalSize,
		}
		off = end

		if a.compressed {
			c.compressed[a.key] = &records[i]
		} else {
			c.plain[a.key] = &records[i]
		}
	}
	return c
}
