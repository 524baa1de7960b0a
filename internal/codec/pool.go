package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// decoders serves identity responses for zstd-encoded assets.
var decoders = newDecoderPool()

// decoderPool manages reusable zstd decoders to reduce allocation overhead
// when a client cannot accept the stored encoding.
type decoderPool struct {
	pool sync.Pool
}

func newDecoderPool() *decoderPool {
	p := &decoderPool{}
	p.pool.New = func() any {
		dec, err := newDecoder(nil)
		if err != nil {
			return nil
		}
		return dec
	}
	return p
}

// Get returns a decoder reading from r and a release function that must be
// called once the decoder is no longer used.
func (p *decoderPool) Get(r io.Reader) (*zstd.Decoder, func(), error) {
	dec, ok := p.pool.Get().(*zstd.Decoder)
	if !ok {
		fresh, err := newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return fresh, fresh.Close, nil
	}

	if err := dec.Reset(r); err != nil {
		dec.Close()
		fresh, err := newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return fresh, fresh.Close, nil
	}

	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		p.pool.Put(dec)
	}, nil
}

func newDecoder(r io.Reader) (*zstd.Decoder, error) {
	return zstd.NewReader(r, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(false))
}
