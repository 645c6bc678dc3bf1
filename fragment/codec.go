package fragment

import (
	"fmt"

	"github.com/arloliu/arraymeta/endian"
	"github.com/arloliu/arraymeta/errs"
	"github.com/arloliu/arraymeta/internal/pool"
	"github.com/arloliu/arraymeta/types"
)

// wireEndian is the byte order of every multi-byte field in a fragment.
// Fixed at little-endian so a fragment written on one host is readable on
// any other, regardless of native byte order.
var wireEndian = endian.GetLittleEndianEngine()

// Wire layout of one entry, all fields little-endian:
//
//	tombstone : u8             (0 or 1)
//	key_len   : u32            > 0
//	key_bytes : key_len bytes  (UTF-8, no trailing NUL)
//	type      : u8             (value type tag; CHAR for tombstones)
//	count     : u32            elements, not bytes
//	payload   : count * sizeof(type) bytes (0 bytes iff tombstone=1)
//
// A fragment file is the concatenation of entries in insertion order, with
// no per-fragment header and no checksum: integrity is delegated to the
// crypto filter when active, and to the VFS backend otherwise.
const (
	tombstoneFieldSize = 1
	keyLenFieldSize    = 4
	typeFieldSize      = 1
	countFieldSize     = 4
	minEntrySize       = tombstoneFieldSize + keyLenFieldSize + typeFieldSize + countFieldSize
)

// Encode serializes entries into a single fragment blob in the order given.
// Callers are expected to have already resolved any same-key overwrites
// (the store does this at stage time); Encode does not deduplicate.
func Encode(entries []Entry) []byte {
	size := 0
	for _, e := range entries {
		size += minEntrySize + len(e.Key) + len(e.Payload)
	}

	bb := pool.GetFragmentBuffer()
	defer pool.PutFragmentBuffer(bb)
	bb.Grow(size)

	for _, e := range entries {
		bb.B = appendEntry(bb.B, e)
	}

	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

func appendEntry(buf []byte, e Entry) []byte {
	var tomb byte
	if e.Tombstone {
		tomb = 1
	}
	buf = append(buf, tomb)

	buf = wireEndian.AppendUint32(buf, uint32(len(e.Key)))
	buf = append(buf, e.Key...)

	buf = append(buf, byte(e.Type))

	buf = wireEndian.AppendUint32(buf, e.Count)

	buf = append(buf, e.Payload...)

	return buf
}

// Decode parses a fragment blob into its ordered entries. It fails with
// errs.ErrCorruptFragment on truncation, an unknown type tag, a zero count
// on a non-tombstone entry, or trailing bytes that don't form a full entry.
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry

	off := 0
	for off < len(data) {
		e, n, err := decodeOne(data[off:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		off += n
	}

	return entries, nil
}

func decodeOne(data []byte) (Entry, int, error) {
	if len(data) < tombstoneFieldSize+keyLenFieldSize {
		return Entry{}, 0, fmt.Errorf("%w: truncated entry header", errs.ErrCorruptFragment)
	}

	off := 0
	tombstone := data[off] != 0
	off += tombstoneFieldSize

	keyLen := wireEndian.Uint32(data[off:])
	off += keyLenFieldSize

	if keyLen == 0 {
		return Entry{}, 0, fmt.Errorf("%w: zero-length key", errs.ErrCorruptFragment)
	}
	if uint64(off)+uint64(keyLen) > uint64(len(data)) {
		return Entry{}, 0, fmt.Errorf("%w: truncated key", errs.ErrCorruptFragment)
	}

	key := append([]byte(nil), data[off:off+int(keyLen)]...)
	off += int(keyLen)

	if off+typeFieldSize+countFieldSize > len(data) {
		return Entry{}, 0, fmt.Errorf("%w: truncated type/count", errs.ErrCorruptFragment)
	}

	typ := types.ValueType(data[off])
	off += typeFieldSize

	count := wireEndian.Uint32(data[off:])
	off += countFieldSize

	if tombstone {
		if typ != types.Char || count != 0 {
			return Entry{}, 0, fmt.Errorf("%w: malformed tombstone", errs.ErrCorruptFragment)
		}

		return Entry{Key: key, Type: types.Char, Count: 0, Tombstone: true}, off, nil
	}

	if !types.Valid(typ) {
		return Entry{}, 0, fmt.Errorf("%w: unknown type tag %d", errs.ErrCorruptFragment, typ)
	}
	if count == 0 {
		return Entry{}, 0, fmt.Errorf("%w: zero count on non-tombstone entry", errs.ErrCorruptFragment)
	}

	elemSize, _ := types.Size(typ)
	payloadLen := uint64(count) * uint64(elemSize)
	if uint64(off)+payloadLen > uint64(len(data)) {
		return Entry{}, 0, fmt.Errorf("%w: truncated payload", errs.ErrCorruptFragment)
	}

	payload := append([]byte(nil), data[off:uint64(off)+payloadLen]...)
	off += int(payloadLen)

	return Entry{Key: key, Type: typ, Count: count, Payload: payload}, off, nil
}
