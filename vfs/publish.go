package vfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/arraymeta/errs"
	"github.com/arloliu/arraymeta/fragment"
	"go.uber.org/zap"
)

// Publish durably writes data under finalName in dir, publishing it
// atomically so no reader ever observes a partial file: it writes to a
// sibling temp name first, then renames into place. Backends that can't
// rename (most object stores) report ErrRenameUnsupported, in which case
// Publish falls back to writing data directly at the final name — the
// backend's WriteFile is required to be atomic create-or-replace on its own.
//
// After every WriteFile, Publish reads the write back and compares its
// fragment.Digest against the one computed over data: a short or garbled
// write — a backend that silently truncates, or a write that raced with a
// concurrent reader of the same temp path — is caught here, before the
// bytes are ever renamed into a name readers observe, rather than surfacing
// later as a corrupt-fragment decode failure.
//
// On any failure after the temp file was created, Publish best-effort
// removes it so a failed close leaves no partial file behind.
func Publish(ctx context.Context, v VFS, dir, finalName string, data []byte, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	finalPath := dir + "/" + finalName
	tempPath := dir + "/." + finalName + ".tmp"
	want := fragment.Digest(data)

	if err := v.WriteFile(ctx, tempPath, data); err != nil {
		return fmt.Errorf("%w: writing temp fragment: %v", errs.ErrIoFailure, err)
	}
	if err := verifyWrite(ctx, v, tempPath, want); err != nil {
		_ = v.RemoveFile(ctx, tempPath)

		return err
	}

	err := v.Rename(ctx, tempPath, finalPath)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRenameUnsupported):
		logger.Debug("backend has no atomic rename, publishing fragment directly", zap.String("path", finalPath))

		if werr := v.WriteFile(ctx, finalPath, data); werr != nil {
			_ = v.RemoveFile(ctx, tempPath)

			return fmt.Errorf("%w: publishing fragment without rename: %v", errs.ErrIoFailure, werr)
		}
		if verr := verifyWrite(ctx, v, finalPath, want); verr != nil {
			_ = v.RemoveFile(ctx, tempPath)
			_ = v.RemoveFile(ctx, finalPath)

			return verr
		}

		_ = v.RemoveFile(ctx, tempPath)

		return nil
	default:
		_ = v.RemoveFile(ctx, tempPath)

		return fmt.Errorf("%w: renaming fragment into place: %v", errs.ErrIoFailure, err)
	}
}

// verifyWrite reads path back and compares its digest against want, so a
// short or partial write is caught before the bytes are published under a
// name readers will observe.
func verifyWrite(ctx context.Context, v VFS, path string, want uint64) error {
	got, err := v.ReadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: verifying write of %s: %v", errs.ErrIoFailure, path, err)
	}
	if fragment.Digest(got) != want {
		return fmt.Errorf("%w: %s: write verification failed, digest mismatch", errs.ErrIoFailure, path)
	}

	return nil
}
