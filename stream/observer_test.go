// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestUnhandledError(t *testing.T) {
	core, logs := zapobserver.New(zapcore.ErrorLevel)
	restore := SetUnhandledErrorHandler(LogUnhandledError(zap.New(core).Sugar()))
	defer restore()

	errLost := errors.New("nobody listens")

	// 1. no error callback: the error is logged
	SubscribeFuncs(Error[int](errLost), nil, nil, nil)
	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.ContextMap()["error"] != errLost.Error() {
		t.Fatalf("expected logged error %q, got %v", errLost, entry.ContextMap())
	}

	// 2. with an error callback nothing is logged
	var got error
	SubscribeFuncs(Error[int](errLost), nil, func(err error) { got = err }, nil)
	if logs.Len() != 1 || got != errLost {
		t.Fatalf("expected handled error, got %v with %d log entries", got, logs.Len())
	}
}

func TestSinkTerminalOnce(t *testing.T) {
	rec := newRecorder[int](t)
	misbehaving := FuncObservable[int](func(ctx context.Context, observer Observer[int]) {
		observer.OnNext(1)
		observer.OnCompleted()
		observer.OnError(errors.New("late"))
		observer.OnNext(2)
		observer.OnCompleted()
	})
	Subscribe[int](misbehaving, rec)
	rec.assertCompleted("terminal once")
	assertSlice(t, "terminal once", []int{1}, rec.items())
}

func TestEvent(t *testing.T) {
	var got []string
	obs := ObserverFuncs[int]{
		Next:      func(x int) { got = append(got, NextEvent(x).String()) },
		Error:     func(err error) { got = append(got, ErrorEvent[int](err).String()) },
		Completed: func() { got = append(got, CompletedEvent[int]().String()) },
	}
	NextEvent(1).Dispatch(obs)
	ErrorEvent[int](errors.New("x")).Dispatch(obs)
	CompletedEvent[int]().Dispatch(obs)

	if len(got) != 3 {
		t.Fatalf("expected 3 dispatches, got %v", got)
	}
	if NextEvent(1).IsTerminal() || !CompletedEvent[int]().IsTerminal() || !ErrorEvent[int](nil).IsTerminal() {
		t.Fatalf("unexpected IsTerminal")
	}
	if KindError.String() != "error" {
		t.Fatalf("unexpected kind name %q", KindError)
	}
}

//go:noinline
func explode() int {
	panic("exploded")
}

func TestPanicErrorStack(t *testing.T) {
	_, err := First(context.TODO(), Map(Just(1), func(int) int { return explode() }))
	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if perr.Value != "exploded" || perr.Unwrap() != nil {
		t.Fatalf("unexpected panic value %v", perr.Value)
	}
	if got := fmt.Sprintf("%v", perr); got != "panic: exploded" {
		t.Fatalf("unexpected message %q", got)
	}
	// The stack reaches down to the function that panicked.
	if verbose := fmt.Sprintf("%+v", perr); !strings.Contains(verbose, "stream.explode") {
		t.Fatalf("expected stack to include the panicking function, got:\n%s", verbose)
	}
}
