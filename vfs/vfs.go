// Package vfs defines the filesystem capability the array metadata core
// calls through, and provides two concrete backends: an in-memory one for
// tests and a local-disk one for production use. The schema/tile-layout
// engine's other backends (S3-compatible object storage, HDFS) implement
// the same interface but live outside this module — see DESIGN.md for why
// they aren't vendored here.
package vfs

import "context"

// VFS is the capability interface required by the metadata core: whole-file
// and directory operations over POSIX, Windows, S3-compatible, or HDFS
// backends. Implementations are not required to support Rename; backends
// without atomic rename (most object stores) should make WriteFile atomic
// at the final key instead, and report ErrRenameUnsupported so callers fall
// back to a direct write at the final name.
type VFS interface {
	// CreateDir creates path and any missing parents. It is a no-op if path
	// already exists.
	CreateDir(ctx context.Context, path string) error

	// ListDir returns the base names of entries directly under path. It
	// returns an empty slice, not an error, for a directory that does not
	// yet exist.
	ListDir(ctx context.Context, path string) ([]string, error)

	// ReadFile returns the full contents of path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile atomically creates or replaces path with data.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Rename atomically moves from to to. Backends that cannot support this
	// return ErrRenameUnsupported.
	Rename(ctx context.Context, from, to string) error

	// RemoveFile deletes path. Removing a file that does not exist is not
	// an error.
	RemoveFile(ctx context.Context, path string) error

	// FileExists reports whether path names an existing file.
	FileExists(ctx context.Context, path string) (bool, error)
}

// ErrRenameUnsupported is returned by Rename on a backend that cannot move
// a file atomically (e.g. most object stores); callers fall back to
// publishing directly at the final name via WriteFile.
var ErrRenameUnsupported = vfsError("vfs: rename not supported by this backend")

type vfsError string

func (e vfsError) Error() string { return string(e) }
