package fragment

import (
	"errors"
	"testing"

	"github.com/arloliu/arraymeta/errs"
	"github.com/arloliu/arraymeta/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	entries := []Entry{
		{Key: []byte("a"), Type: types.Int32, Count: 1, Payload: []byte{1, 2, 3, 4}},
		{Key: []byte("utf8-key-\xc3\xa9"), Type: types.Float64, Count: 2, Payload: make([]byte, 16)},
		NewTombstone([]byte("deleted")),
	}

	data := Encode(entries)
	decoded, err := Decode(data)
	require.NoError(t, err)

	// cmp.Diff walks the full entry slice field-by-field, including the raw
	// key/payload byte slices, so a mismatch anywhere prints exactly where
	// the round trip diverged rather than just which testify assertion failed.
	if diff := cmp.Diff(entries, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Empty(t *testing.T) {
	data := Encode(nil)
	assert.Empty(t, data)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecode_TruncatedHeader(t *testing.T) {
	_, err := Decode([]byte{0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCorruptFragment))
}

func TestDecode_ZeroLengthKey(t *testing.T) {
	data := Encode([]Entry{{Key: []byte("x"), Type: types.Int8, Count: 1, Payload: []byte{1}}})
	// Overwrite the key length field (bytes 1..4) with zero.
	data[1], data[2], data[3], data[4] = 0, 0, 0, 0

	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCorruptFragment))
}

func TestDecode_TruncatedKey(t *testing.T) {
	full := Encode([]Entry{{Key: []byte("hello"), Type: types.Int8, Count: 1, Payload: []byte{1}}})
	_, err := Decode(full[:6]) // header claims a 5-byte key, only 1 byte follows
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCorruptFragment))
}

func TestDecode_UnknownTypeTag(t *testing.T) {
	data := Encode([]Entry{{Key: []byte("x"), Type: types.Int8, Count: 1, Payload: []byte{1}}})
	typeOffset := tombstoneFieldSize + keyLenFieldSize + 1 // past the 1-byte key
	data[typeOffset] = 250

	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCorruptFragment))
}

func TestDecode_ZeroCountOnValue(t *testing.T) {
	data := Encode([]Entry{{Key: []byte("x"), Type: types.Int8, Count: 1, Payload: []byte{1}}})
	countOffset := tombstoneFieldSize + keyLenFieldSize + 1 + typeFieldSize
	data[countOffset], data[countOffset+1], data[countOffset+2], data[countOffset+3] = 0, 0, 0, 0

	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCorruptFragment))
}

func TestDecode_TruncatedPayload(t *testing.T) {
	full := Encode([]Entry{{Key: []byte("x"), Type: types.Int64, Count: 1, Payload: make([]byte, 8)}})
	_, err := Decode(full[:len(full)-1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCorruptFragment))
}

func TestDecode_MalformedTombstone(t *testing.T) {
	// A tombstone entry whose type/count fields don't match the Type=Char,
	// Count=0 convention is rejected rather than silently accepted.
	data := Encode([]Entry{{Key: []byte("x"), Type: types.Int32, Count: 1, Payload: []byte{1, 2, 3, 4}}})
	data[0] = 1 // flip the tombstone bit without clearing type/count

	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCorruptFragment))
}

func TestEncode_PreservesInsertionOrder(t *testing.T) {
	entries := []Entry{
		{Key: []byte("z"), Type: types.Int8, Count: 1, Payload: []byte{1}},
		{Key: []byte("a"), Type: types.Int8, Count: 1, Payload: []byte{2}},
		{Key: []byte("m"), Type: types.Int8, Count: 1, Payload: []byte{3}},
	}

	decoded, err := Decode(Encode(entries))
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.Equal(t, "z", string(decoded[0].Key))
	assert.Equal(t, "a", string(decoded[1].Key))
	assert.Equal(t, "m", string(decoded[2].Key))
}
