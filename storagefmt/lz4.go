package storagefmt

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses consolidated fragments with LZ4, favoring speed over ratio
// compared to Zstd — a fit for deployments that consolidate often and want
// consolidation itself to stay cheap.
//
// The wire format is a 1-byte raw/compressed flag, a 4-byte little-endian
// original length, then the block — since lz4.UncompressBlock needs a
// destination buffer sized exactly to the uncompressed length up front. The
// flag (rather than comparing lengths) disambiguates the incompressible-input
// fallback from a compressed block that happens to match the original size.
type LZ4 struct{}

var _ Codec = LZ4{}

const (
	lz4FlagCompressed byte = 0
	lz4FlagRaw        byte = 1
)

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

func (LZ4) Compress(data []byte) ([]byte, error) {
	c := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	buf := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := c.CompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("storagefmt: lz4 compress: %w", err)
	}

	out := make([]byte, 5, 5+len(data))
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))

	if len(data) > 0 && (n == 0 || n >= len(data)) {
		// Incompressible input: the block did not come out smaller than the
		// original, so fall back to storing it uncompressed.
		out[0] = lz4FlagRaw

		return append(out, data...), nil
	}

	out[0] = lz4FlagCompressed

	return append(out, buf[:n]...), nil
}

func (LZ4) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 5 {
		return nil, fmt.Errorf("storagefmt: lz4 payload shorter than header")
	}

	flag := data[0]
	origLen := binary.LittleEndian.Uint32(data[1:])
	body := data[5:]

	if flag == lz4FlagRaw {
		return append([]byte(nil), body...), nil
	}

	out := make([]byte, origLen)

	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("storagefmt: lz4 decompress: %w", err)
	}

	return out[:n], nil
}
