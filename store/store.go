// Package store implements the in-memory metadata store: the snapshot
// built by folding an array's fragments, and the staged mutation set a
// WRITE session accumulates before it is flushed as one new fragment.
package store

import (
	"fmt"
	"sort"

	"github.com/arloliu/arraymeta/errs"
	"github.com/arloliu/arraymeta/fragment"
)

// Snapshot is the logical key/value state reconstructed by folding a
// sorted-by-filename sequence of fragments: for each key, the value is the
// last non-tombstoned entry, or the key is absent if the last entry for it
// was a tombstone.
//
// A Snapshot is built once and is read-only for the lifetime of the READ
// session that owns it; reopen discards it and builds a fresh one.
type Snapshot struct {
	byKey []fragment.Entry // sorted by raw key bytes, ascending
}

// Fold builds a Snapshot from fragmentsInOrder, a slice of decoded fragment
// entry lists already sorted oldest-first (by fragment filename). Within
// each fragment, a later entry for a key shadows an earlier one; across
// fragments, a later fragment shadows an earlier one. A tombstone removes
// the key from the result unless a later entry resurrects it.
func Fold(fragmentsInOrder [][]fragment.Entry) *Snapshot {
	live := make(map[string]fragment.Entry)

	for _, entries := range fragmentsInOrder {
		for _, e := range entries {
			live[string(e.Key)] = e
		}
	}

	byKey := make([]fragment.Entry, 0, len(live))
	for _, e := range live {
		if e.Tombstone {
			continue
		}
		byKey = append(byKey, e)
	}
	sort.Slice(byKey, func(i, j int) bool {
		return string(byKey[i].Key) < string(byKey[j].Key)
	})

	return &Snapshot{byKey: byKey}
}

// Get looks up key in the snapshot via binary search over the key-sorted
// slice GetByIndex also enumerates.
func (s *Snapshot) Get(key []byte) (fragment.Entry, bool) {
	lo, hi := 0, len(s.byKey)
	k := string(key)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case string(s.byKey[mid].Key) < k:
			lo = mid + 1
		case string(s.byKey[mid].Key) > k:
			hi = mid
		default:
			return s.byKey[mid].Clone(), true
		}
	}

	return fragment.Entry{}, false
}

// Num returns the number of keys present in the snapshot.
func (s *Snapshot) Num() uint64 {
	return uint64(len(s.byKey))
}

// GetByIndex returns the i-th key/value pair in lexicographic key order.
func (s *Snapshot) GetByIndex(i uint64) (fragment.Entry, error) {
	if i >= s.Num() {
		return fragment.Entry{}, fmt.Errorf("%w: index %d >= num %d", errs.ErrOutOfRange, i, s.Num())
	}

	return s.byKey[i].Clone(), nil
}

// Entries returns the snapshot's entries in key order, for the consolidator
// to re-encode as a single merged fragment.
func (s *Snapshot) Entries() []fragment.Entry {
	out := make([]fragment.Entry, len(s.byKey))
	for i, e := range s.byKey {
		out[i] = e.Clone()
	}

	return out
}
