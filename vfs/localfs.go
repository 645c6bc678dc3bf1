package vfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arloliu/arraymeta/errs"
	"github.com/natefinch/atomic"
)

// LocalFS is the POSIX/Windows VFS backend: plain files under root on the
// local disk, with WriteFile published atomically via natefinch/atomic's
// write-temp-then-rename helper so a reader never observes a partial file.
type LocalFS struct {
	root string
}

var _ VFS = (*LocalFS)(nil)

// NewLocalFS returns a backend rooted at root. root must already exist.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *LocalFS) CreateDir(_ context.Context, path string) error {
	if err := os.MkdirAll(l.resolve(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating dir %s: %v", errs.ErrIoFailure, path, err)
	}

	return nil
}

func (l *LocalFS) ListDir(_ context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(l.resolve(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listing dir %s: %v", errs.ErrIoFailure, path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}

	return names, nil
}

func (l *LocalFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errs.ErrIoFailure, path, err)
	}

	return data, nil
}

// WriteFile publishes data at path atomically: readers either see the old
// contents (or nothing) or the complete new contents, never a partial
// write.
func (l *LocalFS) WriteFile(_ context.Context, path string, data []byte) error {
	if err := atomic.WriteFile(l.resolve(path), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: writing %s: %v", errs.ErrIoFailure, path, err)
	}

	return nil
}

func (l *LocalFS) Rename(_ context.Context, from, to string) error {
	if err := os.Rename(l.resolve(from), l.resolve(to)); err != nil {
		return fmt.Errorf("%w: renaming %s to %s: %v", errs.ErrIoFailure, from, to, err)
	}

	return nil
}

func (l *LocalFS) RemoveFile(_ context.Context, path string) error {
	err := os.Remove(l.resolve(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %v", errs.ErrIoFailure, path, err)
	}

	return nil
}

func (l *LocalFS) FileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", errs.ErrIoFailure, path, err)
	}

	return true, nil
}
