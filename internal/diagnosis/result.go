package diagnosis

// Result is a tagged success-or-failure value for one gather slot.
// It replaces nil-on-error ambiguity with an explicit Ok/Err pair: a slot
// either holds a value or a classified failure, never both.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.ok
}

// Value returns the held value; the zero value when the result is a failure.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the held failure; nil when the result is a success.
func (r Result[T]) Err() error {
	return r.err
}
