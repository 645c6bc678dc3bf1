package storagefmt

import "fmt"

// Tag identifies which Codec (if any) compressed a fragment's bytes. It is
// the single leading byte of the envelope wrapped around the fragment codec
// output, making consolidation compression self-describing to any reader
// without requiring the reader to be separately configured with the same
// codec the consolidator chose.
type Tag byte

const (
	TagNone Tag = iota
	TagZstd
	TagLZ4
)

// Tag identifies which Codec implementation this is, for Wrap/Unwrap.
func (NoOp) Tag() Tag { return TagNone }
func (Zstd) Tag() Tag { return TagZstd }
func (LZ4) Tag() Tag  { return TagLZ4 }

// Tagged is implemented by every Codec in this package so Wrap can record
// which one produced a given envelope.
type Tagged interface {
	Codec
	Tag() Tag
}

var _ Tagged = NoOp{}
var _ Tagged = Zstd{}
var _ Tagged = LZ4{}

// Wrap compresses data with codec and prefixes the result with codec's tag
// byte.
func Wrap(codec Tagged, data []byte) ([]byte, error) {
	compressed, err := codec.Compress(data)
	if err != nil {
		return nil, err
	}

	return append([]byte{byte(codec.Tag())}, compressed...), nil
}

// Unwrap reads the leading tag byte off data and decompresses the remainder
// with the matching codec.
func Unwrap(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("storagefmt: empty envelope")
	}

	tag, body := Tag(data[0]), data[1:]

	switch tag {
	case TagNone:
		return NoOp{}.Decompress(body)
	case TagZstd:
		return Zstd{}.Decompress(body)
	case TagLZ4:
		return LZ4{}.Decompress(body)
	default:
		return nil, fmt.Errorf("storagefmt: unknown compression tag %d", tag)
	}
}
