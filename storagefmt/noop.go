package storagefmt

// NoOp is the default codec: consolidated fragments are stored uncompressed.
type NoOp struct{}

var _ Codec = NoOp{}

func (NoOp) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoOp) Decompress(data []byte) ([]byte, error) { return data, nil }
