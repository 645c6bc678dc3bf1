// Package consolidate implements fragment compaction: fold every
// discoverable fragment of an array into one, write it atomically, and
// unlink the fragments it superseded.
package consolidate

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
	"github.com/arloliu/arraymeta/vfs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const metaDirName = "__meta"

type config struct {
	vfsBackend vfs.VFS
	clk        clock.Clock
	logger     *zap.Logger
	codec      storagefmt.Tagged
	alg        crypto.Algorithm
	key        []byte
}

// Option configures a Consolidate call.
type Option = options.Option[*config]

// WithVFS attaches the backend to consolidate through. Required.
func WithVFS(v vfs.VFS) Option {
	return options.NoError(func(c *config) { c.vfsBackend = v })
}

// WithClock overrides the time source used to pick the consolidation
// snapshot cutoff T.
func WithClock(clk clock.Clock) Option {
	return options.NoError(func(c *config) { c.clk = clk })
}

// WithLogger attaches a logger for consolidation lifecycle diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) { c.logger = logger })
}

// WithKey attaches the encryption key required to consolidate an encrypted
// array; without it, consolidating an encrypted array fails with
// errs.ErrEncryptionMismatch.
func WithKey(alg crypto.Algorithm, key []byte) Option {
	return options.NoError(func(c *config) {
		c.alg = alg
		c.key = key
	})
}

// WithCompression compresses the consolidated fragment's bytes with codec
// before it is (optionally) encrypted and published. The codec's tag is
// recorded as a leading envelope byte so any reader can decompress it
// without being separately configured with the same codec. Off by default.
func WithCompression(codec storagefmt.Tagged) Option {
	return options.NoError(func(c *config) { c.codec = codec })
}

// Consolidate fuses every fragment of the array at uri, discoverable as of
// a fresh snapshot timestamp T, into one merged fragment: entries in
// lexicographic key order, with tombstones collapsed away (they have no
// successor left to delete). The new fragment is written durably before any
// predecessor (timestamp <= T) is unlinked, so a crash mid-consolidation
// leaves at worst an extra file, never a corrupted snapshot.
//
// Running Consolidate twice with no intervening writes produces a
// byte-identical fragment, since the key order is deterministic. With
// WithKey, each run seals under a fresh random nonce, so only the
// plaintext is identical.
func Consolidate(ctx context.Context, uri string, opts ...Option) error {
	cfg := &config{logger: zap.NewNop(), clk: clock.System(), codec: storagefmt.NoOp{}}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}
	if cfg.vfsBackend == nil {
		return fmt.Errorf("%w: consolidate requires a VFS backend (consolidate.WithVFS)", errs.ErrInvalidArgument)
	}

	var filter *crypto.Filter
	if cfg.key != nil {
		f, err := crypto.New(cfg.alg, cfg.key)
		if err != nil {
			return err
		}
		filter = f
	}

	dir := uri + "/" + metaDirName
	ts := cfg.clk.NowMillis()

	names, err := cfg.vfsBackend.ListDir(ctx, dir)
	if err != nil {
		return err
	}

	var predecessors []string
	for _, name := range names {
		fts, ok := fragment.ParseName(name)
		if ok && fts <= ts {
			predecessors = append(predecessors, name)
		}
	}
	sort.Strings(predecessors)

	if len(predecessors) == 0 {
		cfg.logger.Debug("nothing to consolidate", zap.String("uri", uri))

		return nil
	}

	raw, err := vfs.ReadAll(ctx, cfg.vfsBackend, dir, predecessors)
	if err != nil {
		return err
	}

	ordered := make([][]fragment.Entry, len(predecessors))
	for i, name := range predecessors {
		enveloped, err := filter.Open(raw[name])
		if err != nil {
			return err
		}

		plaintext, err := storagefmt.Unwrap(enveloped)
		if err != nil {
			if cfg.key == nil {
				return fmt.Errorf("%w: fragment %s appears encrypted: %v", errs.ErrEncryptionMismatch, name, err)
			}

			return fmt.Errorf("%w: %v", errs.ErrCorruptFragment, err)
		}

		entries, err := fragment.Decode(plaintext)
		if err != nil {
			if cfg.key == nil {
				return fmt.Errorf("%w: fragment %s appears encrypted: %v", errs.ErrEncryptionMismatch, name, err)
			}

			return err
		}
		ordered[i] = entries
	}

	snap := store.Fold(ordered)
	merged := fragment.Encode(snap.Entries())

	enveloped, err := storagefmt.Wrap(cfg.codec, merged)
	if err != nil {
		return fmt.Errorf("consolidate: compressing merged fragment: %w", err)
	}

	sealed, err := filter.Seal(enveloped)
	if err != nil {
		return err
	}

	name, err := fragment.BuildName(ts)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
	}

	if err := vfs.Publish(ctx, cfg.vfsBackend, dir, name, sealed, cfg.logger); err != nil {
		return err
	}

	cfg.logger.Info("consolidated fragments",
		zap.String("uri", uri), zap.Int("predecessors", len(predecessors)), zap.Uint64("keys", snap.Num()))

	// The new fragment is durable on the backend before any predecessor is
	// removed, so a crash here leaves at worst an extra file: the fold
	// still reconstructs the correct snapshot from surviving predecessors,
	// or from the merged fragment alone once all are gone.
	var unlinkErr error
	for _, name := range predecessors {
		if err := cfg.vfsBackend.RemoveFile(ctx, dir+"/"+name); err != nil {
			unlinkErr = multierr.Append(unlinkErr, err)
		}
	}
	if unlinkErr != nil {
		return fmt.Errorf("%w: removing consolidated predecessors: %v", errs.ErrIoFailure, unlinkErr)
	}

	return nil
}
