package session

import (
	"github.com/arloliu/arraymeta/internal/clock"
	"github.com/arloliu/arraymeta/internal/options"
	"github.com/arloliu/arraymeta/vfs"
	"go.uber.org/zap"
)

// Option configures a Session at Alloc time.
type Option = options.Option[*Session]

// WithVFS attaches the backend a session reads and writes fragments
// through. Required; Alloc fails without one.
func WithVFS(v vfs.VFS) Option {
	return options.NoError(func(s *Session) { s.vfsBackend = v })
}

// WithClock overrides the session's time source, e.g. with clock.NewFake in
// tests that assert on fragment fold order without sleeping between
// sessions.
func WithClock(c clock.Clock) Option {
	return options.NoError(func(s *Session) { s.clk = c })
}

// WithLogger attaches a logger for fragment-publish diagnostics (the
// no-rename fallback in vfs.Publish). Defaults to a no-op logger, keeping
// the core silent unless a caller opts in.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(s *Session) { s.logger = logger })
}
