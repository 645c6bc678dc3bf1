// Package crypto implements the whole-file authenticated symmetric
// encryption-at-rest filter wrapped around every fragment file when a
// session is opened with a key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/arloliu/arraymeta/errs"
)

// Algorithm identifies an encryption scheme. AES_256_GCM is the only
// algorithm this version of the filter implements; other values are
// reserved for forward compatibility and are rejected at filter
// construction.
type Algorithm uint8

const (
	AlgorithmUnspecified Algorithm = iota
	AlgorithmAES256GCM
)

// KeySize is the required key length in bytes for AlgorithmAES256GCM.
const KeySize = 32

// nonceSize is the GCM standard nonce length; the authentication tag is
// appended by cipher.AEAD.Seal and is not sized separately here.
const nonceSize = 12

// Filter wraps a byte stream with whole-file AES-256-GCM encryption. A nil
// Filter (see NoOp) is the identity transform used by unkeyed sessions.
type Filter struct {
	aead cipher.AEAD
}

// New constructs a Filter from a 32-byte AES-256-GCM key. Any other key
// length or algorithm is rejected with errs.ErrEncryptionMismatch.
func New(alg Algorithm, key []byte) (*Filter, error) {
	if alg != AlgorithmAES256GCM {
		return nil, fmt.Errorf("%w: unsupported algorithm %d", errs.ErrEncryptionMismatch, alg)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", errs.ErrEncryptionMismatch, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEncryptionMismatch, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEncryptionMismatch, err)
	}

	return &Filter{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce || ciphertext || tag.
func (f *Filter) Seal(plaintext []byte) ([]byte, error) {
	if f == nil {
		return plaintext, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: generating nonce: %w", err)
	}

	out := make([]byte, 0, nonceSize+len(plaintext)+f.aead.Overhead())
	out = append(out, nonce...)
	out = f.aead.Seal(out, nonce, plaintext, nil)

	return out, nil
}

// Open verifies and decrypts data previously produced by Seal. Tag
// verification failure surfaces as errs.ErrAuthenticationFailed.
func (f *Filter) Open(data []byte) ([]byte, error) {
	if f == nil {
		return data, nil
	}

	if len(data) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce", errs.ErrAuthenticationFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := f.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrAuthenticationFailed, err)
	}

	return plaintext, nil
}

// NoOp returns the identity filter used by unkeyed sessions: Seal and Open
// both pass data through unchanged.
func NoOp() *Filter {
	return nil
}
