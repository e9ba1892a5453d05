// Package result provides a tagged success/failure value used by every
// collaborator contract. E is a closed set of string tags per operation.
package result

import "fmt"

type Result[T any, E ~string] struct {
	ok    bool
	data  T
	err   E
	cause error
}

func Ok[T any, E ~string](data T) Result[T, E] {
	return Result[T, E]{ok: true, data: data}
}

func Err[T any, E ~string](tag E) Result[T, E] {
	return Result[T, E]{err: tag}
}

// ErrWithCause keeps the underlying error for logging. It never changes the tag.
func ErrWithCause[T any, E ~string](tag E, cause error) Result[T, E] {
	return Result[T, E]{err: tag, cause: cause}
}

func (r Result[T, E]) Ok() bool { return r.ok }

func (r Result[T, E]) Data() T { return r.data }

func (r Result[T, E]) Err() E { return r.err }

func (r Result[T, E]) Cause() error { return r.cause }

// Unwrap returns the value and whether the result succeeded.
func (r Result[T, E]) Unwrap() (T, bool) {
	return r.data, r.ok
}

func (r Result[T, E]) String() string {
	if r.ok {
		return fmt.Sprintf("ok(%v)", r.data)
	}
	if r.cause != nil {
		return fmt.Sprintf("err(%s: %v)", r.err, r.cause)
	}
	return fmt.Sprintf("err(%s)", r.err)
}

// MapErr converts the failure tag of r, keeping the value and cause.
func MapErr[T any, E ~string, F ~string](r Result[T, E], f func(E) F) Result[T, F] {
	if r.ok {
		return Ok[T, F](r.data)
	}
	return Result[T, F]{err: f(r.err), cause: r.cause}
}
