// Package llm implements the structured-decision client: a provider-agnostic
// language model caller that returns schema-decoded decision objects.
package llm

import "errors"

// fatalError marks an error that retrying cannot fix (auth, bad request,
// unknown provider).
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// newFatal wraps err as non-retryable.
func newFatal(err error) error { return &fatalError{err: err} }

// isFatal reports whether retrying err is pointless.
func isFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
