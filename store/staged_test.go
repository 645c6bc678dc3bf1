package store

import (
	"testing"

	"github.com/arloliu/arraymeta/fragment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaged_Empty(t *testing.T) {
	s := NewStaged()
	assert.True(t, s.Empty())

	s.Put(valueEntry("a", 1))
	assert.False(t, s.Empty())
}

func TestStaged_Put_OverwritesSameKey(t *testing.T) {
	s := NewStaged()
	s.Put(valueEntry("a", 1))
	s.Put(valueEntry("a", 2))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []byte{2}, entries[0].Payload)
}

func TestStaged_Put_PreservesFirstTouchOrder(t *testing.T) {
	s := NewStaged()
	s.Put(valueEntry("z", 1))
	s.Put(valueEntry("a", 1))
	s.Put(valueEntry("z", 2)) // re-touch z, should not move its position

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "z", string(entries[0].Key))
	assert.Equal(t, "a", string(entries[1].Key))
	assert.Equal(t, []byte{2}, entries[0].Payload)
}

func TestStaged_Delete_IsIdempotent(t *testing.T) {
	s := NewStaged()
	s.Delete([]byte("never-existed"))
	s.Delete([]byte("never-existed"))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Tombstone)
}

func TestStaged_Delete_OverwritesPut(t *testing.T) {
	s := NewStaged()
	s.Put(valueEntry("a", 1))
	s.Delete([]byte("a"))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Tombstone)
}

func TestStaged_Entries_EmptyWhenUntouched(t *testing.T) {
	s := NewStaged()
	assert.Equal(t, []fragment.Entry{}, s.Entries())
}
