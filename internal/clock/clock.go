// Package clock provides the monotonic-ish millisecond wall time used to
// name fragments and to pick a session's open-at timestamp.
//
// Production code should use System(). Tests that depend on fragment
// ordering use NewFake so they can advance time deterministically instead of
// sleeping between sessions.
package clock

import "time"

// Clock returns the current wall time in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

type systemClock struct{}

// System returns the process-wide wall clock.
func System() Clock { return systemClock{} }

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Fake is a Clock with a settable, monotonically-advanceable time, for tests
// that assert on fragment fold order without interposing real sleeps.
type Fake struct {
	millis int64
}

// NewFake returns a Fake clock starting at startMillis.
func NewFake(startMillis int64) *Fake {
	return &Fake{millis: startMillis}
}

func (f *Fake) NowMillis() int64 {
	return f.millis
}

// Advance moves the fake clock forward by delta milliseconds and returns the
// new value. A negative delta is rejected by panicking, since a clock never
// runs backwards in this subsystem.
func (f *Fake) Advance(delta int64) int64 {
	if delta < 0 {
		panic("clock: negative advance")
	}

	f.millis += delta

	return f.millis
}

// Set pins the fake clock to an exact value, e.g. to reproduce a specific
// timestamp collision between two sessions.
func (f *Fake) Set(millis int64) {
	f.millis = millis
}
