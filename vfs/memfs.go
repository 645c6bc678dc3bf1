package vfs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/arloliu/arraymeta/errs"
)

// MemFS is an in-memory VFS backend. It is the seam the test suite drives
// through instead of touching a real filesystem, and supports atomic
// rename, matching the local-disk backend's behavior.
type MemFS struct {
	mu    sync.Mutex
	files map[string][]byte
}

var _ VFS = (*MemFS)(nil)

// NewMemFS returns an empty in-memory backend.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) CreateDir(_ context.Context, _ string) error {
	// MemFS has no real directories; paths are flat keys and any prefix is
	// implicitly a directory.
	return nil
}

func (m *MemFS) ListDir(_ context.Context, path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(path, "/") + "/"

	var names []string
	for full := range m.files {
		rest, ok := strings.CutPrefix(full, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)

	return names, nil
}

func (m *MemFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such file", errs.ErrIoFailure, path)
	}

	return append([]byte(nil), data...), nil
}

func (m *MemFS) WriteFile(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = append([]byte(nil), data...)

	return nil
}

func (m *MemFS) Rename(_ context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[from]
	if !ok {
		return fmt.Errorf("%w: rename: %s: no such file", errs.ErrIoFailure, from)
	}

	m.files[to] = data
	delete(m.files, from)

	return nil
}

func (m *MemFS) RemoveFile(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.files, path)

	return nil
}

func (m *MemFS) FileExists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.files[path]

	return ok, nil
}
