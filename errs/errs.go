// Package errs defines the sentinel errors returned by the array metadata
// subsystem. Callers classify a returned error with errors.Is against these
// values, or with Kind for the coarse-grained status used at API boundaries.
package errs

import "errors"

var (
	// ErrInvalidArgument is returned for malformed call arguments: empty key,
	// zero count, the ANY type tag, a nil value with non-zero count, or
	// open_at on a WRITE session. An out-of-range index is ErrOutOfRange.
	ErrInvalidArgument = errors.New("arraymeta: invalid argument")

	// ErrInvalidMode is returned when an operation is used against a session
	// in the wrong mode (e.g. Put on a READ session) or before the session
	// has been opened.
	ErrInvalidMode = errors.New("arraymeta: invalid mode for operation")

	// ErrEncryptionMismatch is returned when an array is opened without a
	// key (or the wrong key/algorithm) when one is required, or when
	// consolidation is attempted without the key an encrypted array needs.
	ErrEncryptionMismatch = errors.New("arraymeta: encryption key mismatch")

	// ErrAuthenticationFailed is returned when GCM tag verification fails
	// while decrypting a fragment.
	ErrAuthenticationFailed = errors.New("arraymeta: authentication failed")

	// ErrCorruptFragment is returned when the fragment codec observes a
	// wire-format invariant violation: truncation, an unknown type tag, a
	// zero count on a non-tombstone entry, or trailing bytes.
	ErrCorruptFragment = errors.New("arraymeta: corrupt fragment")

	// ErrIoFailure wraps a failure surfaced verbatim from the VFS adapter.
	ErrIoFailure = errors.New("arraymeta: io failure")

	// ErrOutOfRange is returned when an enumeration index is at or beyond
	// the snapshot's key count.
	ErrOutOfRange = errors.New("arraymeta: index out of range")
)

// Kind is a coarse classification of an error, mirroring the ternary
// OK/ERR(kind)/OOM status surface that language bindings without Go-style
// wrapped errors need to inspect. OOM deliberately has no Kind: Go signals
// allocation failure by panicking, not through a returned status.
type Kind uint8

const (
	KindNone Kind = iota
	KindInvalidArgument
	KindInvalidMode
	KindEncryptionMismatch
	KindAuthenticationFailed
	KindCorruptFragment
	KindIoFailure
	KindOutOfRange
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidMode:
		return "InvalidMode"
	case KindEncryptionMismatch:
		return "EncryptionMismatch"
	case KindAuthenticationFailed:
		return "AuthenticationFailed"
	case KindCorruptFragment:
		return "CorruptFragment"
	case KindIoFailure:
		return "IoFailure"
	case KindOutOfRange:
		return "OutOfRange"
	default:
		return "Unknown"
	}
}

// Classify maps err to its Kind by walking the error chain with errors.Is.
// It returns KindNone for a nil error and KindUnknown for an error that does
// not wrap one of the sentinels in this package.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrInvalidMode):
		return KindInvalidMode
	case errors.Is(err, ErrEncryptionMismatch):
		return KindEncryptionMismatch
	case errors.Is(err, ErrAuthenticationFailed):
		return KindAuthenticationFailed
	case errors.Is(err, ErrCorruptFragment):
		return KindCorruptFragment
	case errors.Is(err, ErrIoFailure):
		return KindIoFailure
	case errors.Is(err, ErrOutOfRange):
		return KindOutOfRange
	default:
		return KindUnknown
	}
}
