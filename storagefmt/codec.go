// Package storagefmt provides optional transparent compression of
// consolidated fragments. It is never applied to per-write fragments (that
// would complicate the simple write-temp-then-rename publish path in
// vfs.Publish); the consolidator may opt into it for the single merged
// fragment it produces.
package storagefmt

// Codec compresses and decompresses a consolidated fragment's bytes.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}
