// Package result provides the two-variant outcome type returned by every
// reminder read operation. Expected failures (not found, storage errors)
// travel as the error variant instead of crossing the repository boundary as
// Go errors or panics.
package result

import "fmt"

// Result holds either a success payload or an error message, never both.
// The zero value is an error with an empty message.
type Result[T any] struct {
	value T
	msg   string
	ok    bool
}

// Ok returns a success Result carrying v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err returns an error Result carrying msg. An empty msg stands for an error
// that had no message attached.
func Err[T any](msg string) Result[T] {
	return Result[T]{msg: msg}
}

// FromError converts err into an error Result using err.Error() as message.
func FromError[T any](err error) Result[T] {
	if err == nil {
		return Err[T]("")
	}
	return Err[T](err.Error())
}

// IsOk reports whether r is the success variant.
func (r Result[T]) IsOk() bool { return r.ok }

// Get returns the payload and true for a success, or the zero value and false.
func (r Result[T]) Get() (T, bool) {
	if !r.ok {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Message returns the error message and true for an error, or "" and false.
func (r Result[T]) Message() (string, bool) {
	if r.ok {
		return "", false
	}
	return r.msg, true
}

// Match calls exactly one of onOk or onErr depending on the variant.
func (r Result[T]) Match(onOk func(T), onErr func(msg string)) {
	if r.ok {
		onOk(r.value)
		return
	}
	onErr(r.msg)
}

// String implements fmt.Stringer.
func (r Result[T]) String() string {
	if r.ok {
		return fmt.Sprintf("Ok(%v)", r.value)
	}
	return fmt.Sprintf("Err(%q)", r.msg)
}

// Fold collapses r into a single value of type U.
func Fold[T, U any](r Result[T], onOk func(T) U, onErr func(msg string) U) U {
	if r.ok {
		return onOk(r.value)
	}
	return onErr(r.msg)
}

// Map transforms the payload of a success and passes errors through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Err[U](r.msg)
	}
	return Ok(fn(r.value))
}
