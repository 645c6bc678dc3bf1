// Package hash wraps the xxHash64 primitive used for fast, non-cryptographic
// fingerprints: fragment digest guards and test fixtures, never the wire
// format itself.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of data.
func ID(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// IDString computes the xxHash64 of a string without a copy to []byte.
func IDString(data string) uint64 {
	return xxhash.Sum64String(data)
}
