// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrSequenceEmpty is returned when a single element was expected from
	// a stream that completed without emitting anything.
	ErrSequenceEmpty = errors.New("sequence contains no elements")

	// ErrMoreThanOneElement is returned by AsSingle when the source emits a
	// second element.
	ErrMoreThanOneElement = errors.New("sequence contains more than one element")

	// ErrZipBufferOverflow is returned by Zip when one source runs ahead of
	// the other by more than ZipParams.BufferSize unpaired items.
	ErrZipBufferOverflow = errors.New("zip: buffer overflow")
)

// PanicError is the error delivered when a production routine or a function
// given to an operator panics. Format it with "%+v" to include the stack of
// the panic.
type PanicError struct {
	Value any
	stack errors.StackTrace
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// newPanicError must be called from the deferred function that recovered,
// while the panicking frames are still on the stack.
func newPanicError(value any) *PanicError {
	st := errors.WithStack(fmt.Errorf("%v", value)).(stackTracer).StackTrace()
	return &PanicError{Value: value, stack: st}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StackTrace returns the stack at the point of the panic.
func (e *PanicError) StackTrace() errors.StackTrace {
	return e.stack
}

func (e *PanicError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, e.Error())
			e.stack.Format(s, verb)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Unwrap returns the panic value if it was an error (e.g. a runtime.Error).
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// try calls 'f' and converts a panic into a PanicError.
func try[A, B any](f func(A) (B, error), a A) (b B, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return f(a)
}

// try0 is try for functions without a result.
func try0(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	f()
	return nil
}
