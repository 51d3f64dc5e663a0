// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"
)

//
// Test helpers
//

func assertSlice[T comparable](t *testing.T, what string, expected []T, actual []T) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("assertSlice[%s]: expected %d items, got %d (%v)", what, len(expected), len(actual), actual)
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Fatalf("assertSlice[%s]: at index %d, expected %v, got %v", what, i, expected[i], actual[i])
		}
	}
}

func assertNil(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error in %s: %s", what, err)
	}
}

func checkCancelled(t *testing.T, what string, src Observable[int]) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := ToSlice(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("%s: expected Canceled error, got %v", what, err)
	}
	assertSlice(t, what, []int{}, result)
}

// recorder is an observer that records every event it receives. It fails the
// test if anything is delivered after a terminal event.
type recorder[T any] struct {
	t          *testing.T
	mu         sync.Mutex
	events     []Event[T]
	terminated chan struct{}
}

func newRecorder[T any](t *testing.T) *recorder[T] {
	return &recorder[T]{t: t, terminated: make(chan struct{})}
}

func (r *recorder[T]) OnNext(item T)     { r.record(NextEvent(item)) }
func (r *recorder[T]) OnError(err error) { r.record(ErrorEvent[T](err)) }
func (r *recorder[T]) OnCompleted()      { r.record(CompletedEvent[T]()) }

func (r *recorder[T]) record(ev Event[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.events); n > 0 && r.events[n-1].IsTerminal() {
		r.t.Errorf("recorder: %s delivered after terminal %s", ev, r.events[n-1])
		return
	}
	r.events = append(r.events, ev)
	if ev.IsTerminal() {
		close(r.terminated)
	}
}

func (r *recorder[T]) snapshot() []Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event[T](nil), r.events...)
}

func (r *recorder[T]) items() []T {
	items := []T{}
	for _, ev := range r.snapshot() {
		if ev.Kind() == KindNext {
			items = append(items, ev.Value())
		}
	}
	return items
}

// terminal returns the terminal event, if one has been received.
func (r *recorder[T]) terminal() (Event[T], bool) {
	evs := r.snapshot()
	if n := len(evs); n > 0 && evs[n-1].IsTerminal() {
		return evs[n-1], true
	}
	return Event[T]{}, false
}

func (r *recorder[T]) assertCompleted(what string) {
	r.t.Helper()
	ev, ok := r.terminal()
	if !ok || ev.Kind() != KindCompleted {
		r.t.Fatalf("%s: expected completion, got %v", what, r.snapshot())
	}
}

func (r *recorder[T]) assertError(what string, target error) {
	r.t.Helper()
	ev, ok := r.terminal()
	if !ok || ev.Kind() != KindError || !errors.Is(ev.Err(), target) {
		r.t.Fatalf("%s: expected error %q, got %v", what, target, r.snapshot())
	}
}

func (r *recorder[T]) assertNotTerminated(what string) {
	r.t.Helper()
	if ev, ok := r.terminal(); ok {
		r.t.Fatalf("%s: expected no terminal event, got %s", what, ev)
	}
}

// wait blocks until a terminal event has been received.
func (r *recorder[T]) wait(what string) {
	r.t.Helper()
	select {
	case <-r.terminated:
	case <-time.After(5 * time.Second):
		r.t.Fatalf("%s: timed out waiting for termination, got %v", what, r.snapshot())
	}
}

// assertPanicError checks that 'err' is a PanicError wrapping an integer
// division by zero.
func assertPanicError(t *testing.T, what string, err error) {
	t.Helper()
	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("%s: expected PanicError, got %v", what, err)
	}
	var rerr runtime.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("%s: expected runtime.Error, got %v", what, err)
	}
}
