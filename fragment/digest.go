package fragment

import "github.com/arloliu/arraymeta/internal/hash"

// Digest returns the xxHash64 of a fragment's (already encrypted, if keyed)
// bytes. It is not part of the persisted wire format — integrity is
// delegated to the crypto filter when active, and to the VFS backend
// otherwise. Digest instead backs an in-memory fast-path guard a VFS backend
// can use to detect a short or partial temp-file write before it renames
// into a name readers will observe (see vfs.Publish).
func Digest(data []byte) uint64 {
	return hash.ID(data)
}
