package storagefmt

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses consolidated fragments with Zstandard, favoring
// compression ratio over speed — a good fit for a fragment that is written
// once at consolidation time and read many times afterward.
type Zstd struct{}

var _ Codec = Zstd{}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("storagefmt: creating zstd decoder: %v", err))
		}

		return dec
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			panic(fmt.Sprintf("storagefmt: creating zstd encoder: %v", err))
		}

		return enc
	},
}

func (Zstd) Compress(data []byte) ([]byte, error) {
	enc := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (Zstd) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("storagefmt: zstd decompress: %w", err)
	}

	return out, nil
}
