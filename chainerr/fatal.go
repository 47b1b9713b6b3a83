package chainerr

import (
	goerrors "github.com/go-errors/errors"
)

// Fatal marks an invariant violation: a condition the core's own
// preconditions guarantee cannot happen (e.g. inserting the creator's vote
// into a proposal that was just allocated empty). It is not a panic -- the
// runtime that embeds this module provides transactional rollback, so the
// core reports the violation with a captured stack trace instead of
// terminating the process itself.
type Fatal struct {
	err *goerrors.Error
}

// NewFatal wraps msg with a stack trace captured at the call site.
func NewFatal(msg string) *Fatal {
	return &Fatal{err: goerrors.Wrap(msg, 1)}
}

// WrapFatal wraps an existing error as fatal, capturing a stack trace at
// the call site.
func WrapFatal(err error) *Fatal {
	return &Fatal{err: goerrors.Wrap(err, 1)}
}

func (f *Fatal) Error() string {
	return f.err.Error()
}

// ErrorStack returns the formatted error plus its stack trace, suitable for
// an operator-facing crash log.
func (f *Fatal) ErrorStack() string {
	return f.err.ErrorStack()
}

// Unwrap lets errors.Is/As see through to the underlying error.
func (f *Fatal) Unwrap() error {
	return f.err.Err
}
