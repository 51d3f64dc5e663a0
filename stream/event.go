// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"fmt"
)

// EventKind tags which variant an Event holds.
type EventKind int

const (
	KindNext EventKind = iota
	KindError
	KindCompleted
)

func (k EventKind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindCompleted:
		return "completed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one of Next(value), Error(err) or Completed. Error and Completed
// are terminal: nothing follows them on the same subscription.
type Event[T any] struct {
	kind  EventKind
	value T
	err   error
}

func NextEvent[T any](value T) Event[T] {
	return Event[T]{kind: KindNext, value: value}
}

func ErrorEvent[T any](err error) Event[T] {
	return Event[T]{kind: KindError, err: err}
}

func CompletedEvent[T any]() Event[T] {
	return Event[T]{kind: KindCompleted}
}

func (e Event[T]) Kind() EventKind { return e.kind }

// Value returns the value of a Next event, or the zero value.
func (e Event[T]) Value() T { return e.value }

// Err returns the error of an Error event, or nil.
func (e Event[T]) Err() error { return e.err }

func (e Event[T]) IsTerminal() bool { return e.kind != KindNext }

func (e Event[T]) String() string {
	switch e.kind {
	case KindNext:
		return fmt.Sprintf("next(%v)", e.value)
	case KindError:
		return fmt.Sprintf("error(%s)", e.err)
	}
	return e.kind.String()
}

// Dispatch delivers the event to the matching callback of 'observer'.
func (e Event[T]) Dispatch(observer Observer[T]) {
	switch e.kind {
	case KindNext:
		observer.OnNext(e.value)
	case KindError:
		observer.OnError(e.err)
	case KindCompleted:
		observer.OnCompleted()
	}
}
