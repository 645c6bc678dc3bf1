// Package session implements the array session state machine: the
// Allocated → Opened(mode, T) → Closed lifecycle that brackets every
// metadata operation, mode enforcement, timestamp selection, fragment
// discovery, and fragment commit on close.
package session

import (
	"context"
	"fmt"
	"sort"

	"github.com/arloliu/arraymeta/crypto"
	"github.com/arloliu/arraymeta/errs"
	"github.com/arloliu/arraymeta/fragment"
	"github.com/arloliu/arraymeta/internal/clock"
	"github.com/arloliu/arraymeta/internal/options"
	"github.com/arloliu/arraymeta/storagefmt"
	"github.com/arloliu/arraymeta/store"
	"github.com/arloliu/arraymeta/types"
	"github.com/arloliu/arraymeta/vfs"
	"go.uber.org/zap"
)

const metaDirName = "__meta"

// Session is a handle bracketing a sequence of metadata operations by
// open/close, bound to a mode and (for READ) a snapshot timestamp, and
// (optionally) an encryption key.
//
// A Session is not safe for concurrent use from multiple goroutines without
// external synchronization — callers run multiple sessions concurrently on
// different threads instead of sharing one handle.
type Session struct {
	uri string

	vfsBackend vfs.VFS
	clk        clock.Clock
	logger     *zap.Logger

	mode   Mode
	state  state
	ts     int64
	filter *crypto.Filter

	snapshot *store.Snapshot // READ only, built at open/reopen
	staged   *store.Staged   // WRITE only
}

// Alloc allocates a session handle for the array at uri. No I/O is
// performed until Open/OpenAt/OpenWithKey.
func Alloc(uri string, opts ...Option) (*Session, error) {
	s := &Session{uri: uri, state: stateAllocated, logger: zap.NewNop(), clk: clock.System()}

	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}
	if s.vfsBackend == nil {
		return nil, fmt.Errorf("%w: session requires a VFS backend (session.WithVFS)", errs.ErrInvalidArgument)
	}

	return s, nil
}

func (s *Session) metaDir() string {
	return s.uri + "/" + metaDirName
}

// Open transitions Allocated → Opened(mode, T) with T = now. For Write it
// initializes an empty staged mutation set; for Read it lists, filters, and
// folds the array's fragments as of T.
func (s *Session) Open(ctx context.Context, mode Mode) error {
	if s.state != stateAllocated {
		return fmt.Errorf("%w: session already opened or closed", errs.ErrInvalidMode)
	}

	return s.open(ctx, mode, s.clk.NowMillis())
}

// OpenAt opens a READ session at a caller-chosen snapshot timestamp:
// fragments with filename timestamp strictly greater than tsMillis are
// excluded even if already present on disk. mode must be Read.
func (s *Session) OpenAt(ctx context.Context, mode Mode, tsMillis int64) error {
	if s.state != stateAllocated {
		return fmt.Errorf("%w: session already opened or closed", errs.ErrInvalidMode)
	}
	if mode != Read {
		return fmt.Errorf("%w: open_at is only valid for READ", errs.ErrInvalidArgument)
	}

	return s.open(ctx, mode, tsMillis)
}

// OpenWithKey opens a session exactly like Open, additionally attaching key
// to all subsequent VFS/crypto access. alg must be crypto.AlgorithmAES256GCM
// and key must be crypto.KeySize bytes.
func (s *Session) OpenWithKey(ctx context.Context, mode Mode, alg crypto.Algorithm, key []byte) error {
	if s.state != stateAllocated {
		return fmt.Errorf("%w: session already opened or closed", errs.ErrInvalidMode)
	}

	filter, err := crypto.New(alg, key)
	if err != nil {
		return err
	}
	s.filter = filter

	return s.open(ctx, mode, s.clk.NowMillis())
}

func (s *Session) open(ctx context.Context, mode Mode, ts int64) error {
	s.mode = mode
	s.ts = ts

	switch mode {
	case Write:
		s.staged = store.NewStaged()
	case Read:
		snap, err := s.buildSnapshot(ctx, ts)
		if err != nil {
			return err
		}
		s.snapshot = snap
	default:
		return fmt.Errorf("%w: unknown mode %v", errs.ErrInvalidArgument, mode)
	}

	s.state = stateOpened

	return nil
}

// Reopen re-lists and re-folds the array's fragments at a fresh T = now,
// preserving the session handle. Valid only for an Opened READ session.
func (s *Session) Reopen(ctx context.Context) error {
	if s.state != stateOpened || s.mode != Read {
		return fmt.Errorf("%w: reopen requires an opened READ session", errs.ErrInvalidMode)
	}

	snap, err := s.buildSnapshot(ctx, s.clk.NowMillis())
	if err != nil {
		return err
	}
	s.ts = s.clk.NowMillis()
	s.snapshot = snap

	return nil
}

// Close flushes staged mutations (WRITE) as one new fragment, or simply
// releases the session (READ). A failed close on WRITE leaves the array's
// on-disk state unchanged: the partially written temp fragment is removed
// by vfs.Publish before the error is returned.
func (s *Session) Close(ctx context.Context) error {
	if s.state != stateOpened {
		return fmt.Errorf("%w: session not open", errs.ErrInvalidMode)
	}

	if s.mode == Write && !s.staged.Empty() {
		if err := s.flush(ctx); err != nil {
			return err
		}
	}

	s.state = stateClosed
	s.snapshot = nil
	s.staged = nil

	return nil
}

func (s *Session) flush(ctx context.Context) error {
	data := fragment.Encode(s.staged.Entries())

	// Per-write fragments are never compressed (only consolidation opts
	// into that), but they still carry the envelope's tag byte so every
	// fragment in the metadata directory shares one self-describing format.
	enveloped, err := storagefmt.Wrap(storagefmt.NoOp{}, data)
	if err != nil {
		return err
	}

	sealed, err := s.filter.Seal(enveloped)
	if err != nil {
		return err
	}

	name, err := fragment.BuildName(s.ts)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
	}

	if err := s.vfsBackend.CreateDir(ctx, s.metaDir()); err != nil {
		return err
	}

	return vfs.Publish(ctx, s.vfsBackend, s.metaDir(), name, sealed, s.logger)
}

// Put stages a (key, type, count, payload) entry for the next Close.
// Repeated calls for the same key within this session overwrite the staged
// entry; only the last write is emitted.
func (s *Session) Put(key []byte, typ types.ValueType, count uint32, payload []byte) error {
	if s.state != stateOpened || s.mode != Write {
		return fmt.Errorf("%w: put requires an opened WRITE session", errs.ErrInvalidMode)
	}
	if len(key) == 0 {
		return fmt.Errorf("%w: key must not be empty", errs.ErrInvalidArgument)
	}
	if count == 0 {
		return fmt.Errorf("%w: count must be > 0", errs.ErrInvalidArgument)
	}
	if typ == types.Any || !types.Valid(typ) {
		return fmt.Errorf("%w: type must not be ANY", errs.ErrInvalidArgument)
	}
	if payload == nil {
		return fmt.Errorf("%w: payload must not be nil when count > 0", errs.ErrInvalidArgument)
	}

	elemSize, _ := types.Size(typ)
	if want := int(count) * elemSize; len(payload) != want {
		return fmt.Errorf("%w: payload is %d bytes, want %d for count=%d type=%v",
			errs.ErrInvalidArgument, len(payload), want, count, typ)
	}

	s.staged.Put(fragment.Entry{
		Key:     append([]byte(nil), key...),
		Type:    typ,
		Count:   count,
		Payload: append([]byte(nil), payload...),
	})

	return nil
}

// Delete stages a tombstone for key. Deleting a key that is not present in
// the snapshot or staged set is not an error (idempotent delete).
func (s *Session) Delete(key []byte) error {
	if s.state != stateOpened || s.mode != Write {
		return fmt.Errorf("%w: delete requires an opened WRITE session", errs.ErrInvalidMode)
	}
	if len(key) == 0 {
		return fmt.Errorf("%w: key must not be empty", errs.ErrInvalidArgument)
	}

	s.staged.Delete(append([]byte(nil), key...))

	return nil
}

// Get looks up key in the snapshot captured at open/reopen time. Staged
// mutations of a WRITE session are never visible via Get (reads and writes
// are separated by mode).
func (s *Session) Get(key []byte) (fragment.Entry, bool, error) {
	if s.state != stateOpened || s.mode != Read {
		return fragment.Entry{}, false, fmt.Errorf("%w: get requires an opened READ session", errs.ErrInvalidMode)
	}

	e, ok := s.snapshot.Get(key)

	return e, ok, nil
}

// Num returns the number of keys in the snapshot.
func (s *Session) Num() (uint64, error) {
	if s.state != stateOpened || s.mode != Read {
		return 0, fmt.Errorf("%w: num requires an opened READ session", errs.ErrInvalidMode)
	}

	return s.snapshot.Num(), nil
}

// GetByIndex enumerates the snapshot's keys in lexicographic order of raw
// key bytes.
func (s *Session) GetByIndex(i uint64) (fragment.Entry, error) {
	if s.state != stateOpened || s.mode != Read {
		return fragment.Entry{}, fmt.Errorf("%w: get_by_index requires an opened READ session", errs.ErrInvalidMode)
	}

	return s.snapshot.GetByIndex(i)
}

// buildSnapshot lists the metadata directory, keeps fragments with filename
// timestamp <= ts, reads+decrypts+decodes them concurrently, and folds them
// in fold order (oldest fragment first, by filename).
func (s *Session) buildSnapshot(ctx context.Context, ts int64) (*store.Snapshot, error) {
	names, err := s.vfsBackend.ListDir(ctx, s.metaDir())
	if err != nil {
		return nil, err
	}

	var eligible []string
	for _, name := range names {
		fts, ok := fragment.ParseName(name)
		if !ok {
			continue
		}
		if fts <= ts {
			eligible = append(eligible, name)
		}
	}
	sort.Strings(eligible) // lexicographic == fold order (zero-padded ts, then suffix)

	raw, err := vfs.ReadAll(ctx, s.vfsBackend, s.metaDir(), eligible)
	if err != nil {
		return nil, err
	}

	ordered := make([][]fragment.Entry, len(eligible))
	for i, name := range eligible {
		enveloped, err := s.filter.Open(raw[name])
		if err != nil {
			return nil, fmt.Errorf("%w: fragment %s: %w", errs.ErrEncryptionMismatch, name, err)
		}

		plaintext, err := storagefmt.Unwrap(enveloped)
		if err != nil {
			if s.filter == nil {
				return nil, fmt.Errorf("%w: fragment %s appears encrypted: %v", errs.ErrEncryptionMismatch, name, err)
			}

			return nil, fmt.Errorf("%w: %v", errs.ErrCorruptFragment, err)
		}

		entries, err := fragment.Decode(plaintext)
		if err != nil {
			if s.filter == nil {
				return nil, fmt.Errorf("%w: fragment %s appears encrypted: %v", errs.ErrEncryptionMismatch, name, err)
			}

			return nil, err
		}
		ordered[i] = entries
	}

	return store.Fold(ordered), nil
}
