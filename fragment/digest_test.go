package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigest_Deterministic(t *testing.T) {
	data := []byte("some fragment bytes")
	assert.Equal(t, Digest(data), Digest(data))
}

func TestDigest_DiffersOnChange(t *testing.T) {
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
}

func TestDigest_Empty(t *testing.T) {
	assert.Equal(t, Digest(nil), Digest([]byte{}))
}
