package store

import "github.com/arloliu/arraymeta/fragment"

// Staged accumulates the mutations of one WRITE session in insertion order,
// collapsing repeated put/delete for the same key down to the last write
// while keeping the position of that key's first mutation, so the emitted
// fragment has a stable, deterministic entry order and only one entry per
// key.
type Staged struct {
	order []string
	byKey map[string]fragment.Entry
}

// NewStaged returns an empty staged mutation set.
func NewStaged() *Staged {
	return &Staged{byKey: make(map[string]fragment.Entry)}
}

// Put stages key with a value entry, overwriting any previous staged
// mutation for key within this session.
func (s *Staged) Put(e fragment.Entry) {
	k := string(e.Key)
	if _, exists := s.byKey[k]; !exists {
		s.order = append(s.order, k)
	}
	s.byKey[k] = e
}

// Delete stages a tombstone for key, overwriting any previous staged
// mutation for key within this session. This is idempotent: deleting a key
// that was never put, or was already deleted, still records the tombstone
// and the caller sees success.
func (s *Staged) Delete(key []byte) {
	s.Put(fragment.NewTombstone(key))
}

// Empty reports whether no mutation has been staged.
func (s *Staged) Empty() bool {
	return len(s.order) == 0
}

// Entries returns the staged mutations as a fragment entry list, in the
// order each key was first touched during this session.
func (s *Staged) Entries() []fragment.Entry {
	out := make([]fragment.Entry, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}

	return out
}
