// Package arraymeta provides the array metadata subsystem of a
// multi-dimensional array storage engine: a user-facing key/value
// side-channel attached to each array, backed by a time-stamped,
// append-only log of write-session fragments under the array's metadata
// directory.
//
// # Core model
//
//   - Callers attach, look up, enumerate, overwrite, and delete small typed
//     values (scalars or short vectors of primitive types) identified by
//     UTF-8 string keys.
//   - Every write session produces one immutable fragment; reads fold a
//     time-ordered sequence of fragments into a logical snapshot.
//   - Consolidate fuses many small fragments into one, dropping shadowed
//     entries and tombstones.
//   - An optional per-array AES-256-GCM key encrypts every fragment at
//     rest.
//
// # Basic usage
//
//	back := vfs.NewLocalFS("/var/lib/arrays")
//	s, _ := arraymeta.Alloc("my-array", session.WithVFS(back))
//
//	_ = s.Open(ctx, session.Write)
//	_ = s.Put([]byte("aaa"), types.Int32, 1, int32Bytes(5))
//	_ = s.Close(ctx)
//
//	s2, _ := arraymeta.Alloc("my-array", session.WithVFS(back))
//	_ = s2.Open(ctx, session.Read)
//	entry, ok, _ := s2.Get([]byte("aaa"))
//
// # Package structure
//
// This package provides convenient top-level wrappers around session and
// consolidate. For fine-grained control
// (custom VFS backends, compression codecs, fake clocks for tests), use
// those packages directly.
package arraymeta

import (
	"context"

	"github.com/arloliu/arraymeta/consolidate"
	"github.com/arloliu/arraymeta/crypto"
	"github.com/arloliu/arraymeta/session"
)

// Mode, Read, and Write re-export session's mode type so most callers never
// need to import the session package directly.
type Mode = session.Mode

const (
	Read  = session.Read
	Write = session.Write
)

// Session re-exports session.Session, the array session handle.
type Session = session.Session

// Alloc allocates a session handle for the array at uri. No I/O is
// performed until Open, OpenAt, or OpenWithKey.
func Alloc(uri string, opts ...session.Option) (*Session, error) {
	return session.Alloc(uri, opts...)
}

// Open opens s in mode with T = now.
func Open(ctx context.Context, s *Session, mode Mode) error {
	return s.Open(ctx, mode)
}

// OpenAt opens s as a READ session at a caller-chosen snapshot timestamp.
func OpenAt(ctx context.Context, s *Session, tsMillis int64) error {
	return s.OpenAt(ctx, Read, tsMillis)
}

// OpenWithKey opens s in mode, attaching an AES-256-GCM key to all
// subsequent fragment reads/writes.
func OpenWithKey(ctx context.Context, s *Session, mode Mode, key []byte) error {
	return s.OpenWithKey(ctx, mode, crypto.AlgorithmAES256GCM, key)
}

// Reopen re-lists and re-folds s's fragments at a fresh T = now.
func Reopen(ctx context.Context, s *Session) error {
	return s.Reopen(ctx)
}

// Close flushes staged mutations (WRITE) as one new fragment, or releases
// the session (READ).
func Close(ctx context.Context, s *Session) error {
	return s.Close(ctx)
}

// Consolidate fuses every fragment of the unencrypted array at uri into
// one.
func Consolidate(ctx context.Context, uri string, opts ...consolidate.Option) error {
	return consolidate.Consolidate(ctx, uri, opts...)
}

// ConsolidateWithKey fuses every fragment of an encrypted array at uri into
// one, re-encrypting the merged fragment with the same key.
func ConsolidateWithKey(ctx context.Context, uri string, key []byte, opts ...consolidate.Option) error {
	opts = append(opts, consolidate.WithKey(crypto.AlgorithmAES256GCM, key))

	return consolidate.Consolidate(ctx, uri, opts...)
}
