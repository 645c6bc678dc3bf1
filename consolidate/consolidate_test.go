package consolidate

import (
	"context"
	"errors"
	"testing"

	"github.com/arloliu/arraymeta/crypto"
	"github.com/arloliu/arraymeta/errs"
	"github.com/arloliu/arraymeta/internal/clock"
	"github.com/arloliu/arraymeta/session"
	"github.com/arloliu/arraymeta/storagefmt"
	"github.com/arloliu/arraymeta/types"
	"github.com/arloliu/arraymeta/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntries(t *testing.T, backend vfs.VFS, clk clock.Clock, uri string, entries map[string]byte) {
	t.Helper()
	w, err := session.Alloc(uri, session.WithVFS(backend), session.WithClock(clk))
	require.NoError(t, err)
	require.NoError(t, w.Open(context.Background(), session.Write))
	for k, v := range entries {
		require.NoError(t, w.Put([]byte(k), types.Uint8, 1, []byte{v}))
	}
	require.NoError(t, w.Close(context.Background()))
}

func TestConsolidate_MergesMultipleFragmentsIntoOne(t *testing.T) {
	ctx := context.Background()
	backend := vfs.NewMemFS()
	fake := clock.NewFake(1000)

	writeEntries(t, backend, fake, "arr", map[string]byte{"a": 1, "b": 2})
	fake.Advance(10)
	writeEntries(t, backend, fake, "arr", map[string]byte{"c": 3})
	fake.Advance(10)
	writeEntries(t, backend, fake, "arr", map[string]byte{"d": 4, "e": 5})

	names, err := backend.ListDir(ctx, "arr/__meta")
	require.NoError(t, err)
	require.Len(t, names, 3)

	fake.Advance(10)
	require.NoError(t, Consolidate(ctx, "arr", WithVFS(backend), WithClock(fake)))

	names, err = backend.ListDir(ctx, "arr/__meta")
	require.NoError(t, err)
	assert.Len(t, names, 1, "consolidation must leave exactly one fragment behind")

	r, err := session.Alloc("arr", session.WithVFS(backend))
	require.NoError(t, err)
	require.NoError(t, r.Open(ctx, session.Read))

	num, err := r.Num()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), num)
}

func TestConsolidate_CollapsesTombstones(t *testing.T) {
	ctx := context.Background()
	backend := vfs.NewMemFS()
	fake := clock.NewFake(1000)

	writeEntries(t, backend, fake, "arr", map[string]byte{"a": 1, "b": 2})
	fake.Advance(10)

	w, err := session.Alloc("arr", session.WithVFS(backend), session.WithClock(fake))
	require.NoError(t, err)
	require.NoError(t, w.Open(ctx, session.Write))
	require.NoError(t, w.Delete([]byte("a")))
	require.NoError(t, w.Close(ctx))

	fake.Advance(10)
	require.NoError(t, Consolidate(ctx, "arr", WithVFS(backend), WithClock(fake)))

	r, err := session.Alloc("arr", session.WithVFS(backend))
	require.NoError(t, err)
	require.NoError(t, r.Open(ctx, session.Read))

	num, err := r.Num()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), num, "tombstoned key must not survive consolidation")

	_, ok, err := r.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsolidate_NothingToDoIsNotAnError(t *testing.T) {
	ctx := context.Background()
	backend := vfs.NewMemFS()

	err := Consolidate(ctx, "arr", WithVFS(backend))
	require.NoError(t, err)
}

func TestConsolidate_WithCompression_RoundTripsThroughSession(t *testing.T) {
	ctx := context.Background()
	backend := vfs.NewMemFS()
	fake := clock.NewFake(1000)

	writeEntries(t, backend, fake, "arr", map[string]byte{"a": 1, "b": 2, "c": 3})
	fake.Advance(10)

	require.NoError(t, Consolidate(ctx, "arr", WithVFS(backend), WithClock(fake), WithCompression(storagefmt.Zstd{})))

	r, err := session.Alloc("arr", session.WithVFS(backend))
	require.NoError(t, err)
	require.NoError(t, r.Open(ctx, session.Read))

	num, err := r.Num()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), num)
}

func testKey() []byte {
	return []byte("01234567890123456789012345678901")
}

func TestConsolidate_EncryptedArray_RequiresKey(t *testing.T) {
	ctx := context.Background()
	backend := vfs.NewMemFS()
	fake := clock.NewFake(1000)
	key := testKey()

	w, err := session.Alloc("arr", session.WithVFS(backend), session.WithClock(fake))
	require.NoError(t, err)
	require.NoError(t, w.OpenWithKey(ctx, session.Write, crypto.AlgorithmAES256GCM, key))
	require.NoError(t, w.Put([]byte("a"), types.Uint8, 1, []byte{1}))
	require.NoError(t, w.Close(ctx))

	fake.Advance(10)

	err = Consolidate(ctx, "arr", WithVFS(backend), WithClock(fake))
	require.Error(t, err, "consolidating an encrypted array without the key must fail")
	assert.True(t, errors.Is(err, errs.ErrEncryptionMismatch), "got %v, want errs.ErrEncryptionMismatch", err)
	assert.Equal(t, errs.KindEncryptionMismatch, errs.Classify(err))

	require.NoError(t, Consolidate(ctx, "arr", WithVFS(backend), WithClock(fake), WithKey(crypto.AlgorithmAES256GCM, key)))

	r, err := session.Alloc("arr", session.WithVFS(backend))
	require.NoError(t, err)
	require.NoError(t, r.OpenWithKey(ctx, session.Read, crypto.AlgorithmAES256GCM, key))

	e, ok, err := r.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, e.Payload)
}

func TestConsolidate_IdempotentReconsolidationProducesSameContent(t *testing.T) {
	ctx := context.Background()
	backend := vfs.NewMemFS()
	fake := clock.NewFake(1000)

	writeEntries(t, backend, fake, "arr", map[string]byte{"a": 1, "b": 2})
	fake.Advance(10)
	require.NoError(t, Consolidate(ctx, "arr", WithVFS(backend), WithClock(fake)))

	names1, err := backend.ListDir(ctx, "arr/__meta")
	require.NoError(t, err)
	require.Len(t, names1, 1)
	data1, err := backend.ReadFile(ctx, "arr/__meta/"+names1[0])
	require.NoError(t, err)

	fake.Advance(10)
	require.NoError(t, Consolidate(ctx, "arr", WithVFS(backend), WithClock(fake)))

	names2, err := backend.ListDir(ctx, "arr/__meta")
	require.NoError(t, err)
	require.Len(t, names2, 1)
	data2, err := backend.ReadFile(ctx, "arr/__meta/"+names2[0])
	require.NoError(t, err)

	assert.Equal(t, data1, data2, "re-consolidating with no intervening writes must produce byte-identical content")
}
