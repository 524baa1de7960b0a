package codec

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEncodings = []Encoding{Brotli, Gzip, Zstd}

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := map[string][]byte{
		"empty":      {},
		"repetitive": bytes.Repeat([]byte("<div class=\"row\">hello</div>\n"), 400),
		"short":      []byte("{}"),
	}

	for _, enc := range allEncodings {
		for name, in := range inputs {
			t.Run(enc.String()+"/"+name, func(t *testing.T) {
				t.Parallel()

				out, err := Compress(enc, in)
				require.NoError(t, err)

				r, err := NewReader(enc, bytes.NewReader(out))
				require.NoError(t, err)
				defer r.Close()

				got, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, len(in), len(got))
				assert.True(t, bytes.Equal(in, got))
			})
		}
	}
}

func TestCompressShrinksText(t *testing.T) {
	t.Parallel()

	in := bytes.Repeat([]byte("body { margin: 0; padding: 0; }\n"), 320)
	for _, enc := range allEncodings {
		out, err := Compress(enc, in)
		require.NoError(t, err)
		assert.Less(t, len(out), len(in), enc.String())
	}
}

func TestCompressUnknownEncoding(t *testing.T) {
	t.Parallel()

	_, err := Compress(Encoding(42), []byte("x"))
	require.Error(t, err)

	_, err = NewReader(Encoding(42), bytes.NewReader(nil))
	require.Error(t, err)
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"br", Brotli, false},
		{"brotli", Brotli, false},
		{" BR ", Brotli, false},
		{"gzip", Gzip, false},
		{"zstd", Zstd, false},
		{"deflate", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncoding(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodingTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "br", Brotli.Token())
	assert.Equal(t, "gzip", Gzip.Token())
	assert.Equal(t, "zstd", Zstd.Token())
	assert.Empty(t, Encoding(9).Token())
	assert.Equal(t, "unknown", Encoding(9).String())
}

func TestZstdReaderConcurrentReuse(t *testing.T) {
	t.Parallel()

	in := bytes.Repeat([]byte("const x = 1;\n"), 1000)
	out, err := Compress(Zstd, in)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				r, err := NewReader(Zstd, bytes.NewReader(out))
				if !assert.NoError(t, err) {
					return
				}
				got, err := io.ReadAll(r)
				assert.NoError(t, err)
				assert.NoError(t, r.Close())
				assert.Equal(t, len(in), len(got))
			}
		}()
	}
	wg.Wait()
}
