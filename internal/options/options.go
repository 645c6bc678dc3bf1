// Package options provides a small generic functional-options helper shared
// by session construction and consolidate calls, so both configure
// themselves the same way instead of growing bespoke "config struct"
// boilerplate per package.
package options

// Option configures a target of type T. It is the generic interface so the
// same helper works for session.Session, the consolidate config, and
// anything else that takes a variadic options list.
type Option[T any] interface {
	apply(T) error
}

// Func wraps a plain function as an Option.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an Option from a function that can fail, e.g. validating a
// key length before attaching it to a target.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an Option from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply runs opts against target in order, stopping at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
