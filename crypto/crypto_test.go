package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/arloliu/arraymeta/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key32(fill byte) []byte {
	k := make([]byte, KeySize)
	for i := range k {
		k[i] = fill
	}
	return k
}

func TestNew_RejectsBadAlgorithm(t *testing.T) {
	_, err := New(AlgorithmUnspecified, key32(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrEncryptionMismatch))
}

func TestNew_RejectsBadKeyLength(t *testing.T) {
	_, err := New(AlgorithmAES256GCM, make([]byte, 16))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrEncryptionMismatch))
}

func TestFilter_SealOpen_RoundTrip(t *testing.T) {
	f, err := New(AlgorithmAES256GCM, key32(7))
	require.NoError(t, err)

	plaintext := []byte("fragment bytes go here")
	sealed, err := f.Seal(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)

	opened, err := f.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestFilter_Seal_NoncesDiffer(t *testing.T) {
	f, err := New(AlgorithmAES256GCM, key32(7))
	require.NoError(t, err)

	a, err := f.Seal([]byte("same plaintext"))
	require.NoError(t, err)
	b, err := f.Seal([]byte("same plaintext"))
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a, b), "two seals of the same plaintext must not be identical")
}

func TestFilter_Open_WrongKeyFails(t *testing.T) {
	f1, err := New(AlgorithmAES256GCM, key32(1))
	require.NoError(t, err)
	f2, err := New(AlgorithmAES256GCM, key32(2))
	require.NoError(t, err)

	sealed, err := f1.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = f2.Open(sealed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAuthenticationFailed))
}

func TestFilter_Open_TruncatedFails(t *testing.T) {
	f, err := New(AlgorithmAES256GCM, key32(1))
	require.NoError(t, err)

	_, err = f.Open([]byte("short"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAuthenticationFailed))
}

func TestFilter_Open_TamperedCiphertextFails(t *testing.T) {
	f, err := New(AlgorithmAES256GCM, key32(1))
	require.NoError(t, err)

	sealed, err := f.Seal([]byte("integrity matters"))
	require.NoError(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = f.Open(tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAuthenticationFailed))
}

func TestNilFilter_IsIdentity(t *testing.T) {
	var f *Filter

	data := []byte("passthrough")

	sealed, err := f.Seal(data)
	require.NoError(t, err)
	assert.Equal(t, data, sealed)

	opened, err := f.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, data, opened)
}

func TestNoOp_ReturnsNilFilter(t *testing.T) {
	assert.Nil(t, NoOp())
}
