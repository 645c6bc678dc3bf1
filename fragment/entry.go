// Package fragment implements the wire layout of a single metadata
// fragment: an ordered, append-only sequence of typed entries produced by
// one write session.
package fragment

import "github.com/arloliu/arraymeta/types"

// Entry is one (key, type, count, payload) quadruple, plus the tombstone bit
// that marks it as a deletion of key rather than a value.
//
// A tombstone entry always carries Type=types.Char, Count=0, Payload=nil;
// callers construct one with NewTombstone rather than setting the fields by
// hand.
type Entry struct {
	Key       []byte
	Type      types.ValueType
	Count     uint32
	Payload   []byte
	Tombstone bool
}

// NewTombstone returns a deletion marker for key.
func NewTombstone(key []byte) Entry {
	return Entry{Key: key, Type: types.Char, Count: 0, Tombstone: true}
}

// Clone returns a deep copy of e, so callers can hand out entries from a
// session snapshot without aliasing the snapshot's backing arrays.
func (e Entry) Clone() Entry {
	out := Entry{Type: e.Type, Count: e.Count, Tombstone: e.Tombstone}
	if e.Key != nil {
		out.Key = append([]byte(nil), e.Key...)
	}
	if e.Payload != nil {
		out.Payload = append([]byte(nil), e.Payload...)
	}

	return out
}
