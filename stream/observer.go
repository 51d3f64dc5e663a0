// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/rxdemo/rxusers/logger"
)

// Observer is the consumer side of a stream.
type Observer[T any] interface {
	OnNext(item T)
	OnError(err error)
	OnCompleted()
}

// ObserverFuncs implements Observer with optional callbacks. A nil callback
// is a no-op, except for Error: an error without a handler is passed to the
// unhandled error handler so that it is never silently dropped.
type ObserverFuncs[T any] struct {
	Next      func(T)
	Error     func(error)
	Completed func()
}

func (o ObserverFuncs[T]) OnNext(item T) {
	if o.Next != nil {
		o.Next(item)
	}
}

func (o ObserverFuncs[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
		return
	}
	handleUnhandledError(err)
}

func (o ObserverFuncs[T]) OnCompleted() {
	if o.Completed != nil {
		o.Completed()
	}
}

// EventObserver implements Observer with a single dispatch function.
type EventObserver[T any] func(Event[T])

func (f EventObserver[T]) OnNext(item T)     { f(NextEvent(item)) }
func (f EventObserver[T]) OnError(err error) { f(ErrorEvent[T](err)) }
func (f EventObserver[T]) OnCompleted()      { f(CompletedEvent[T]()) }

//
// Unhandled errors
//

var (
	unhandledMu sync.RWMutex
	unhandled   = LogUnhandledError(logger.New(logger.WithName("stream")))
)

// LogUnhandledError returns an unhandled error handler that logs to 'log'.
func LogUnhandledError(log *zap.SugaredLogger) func(error) {
	return func(err error) {
		log.Errorw("unhandled error in observable", zap.Error(err))
	}
}

// SetUnhandledErrorHandler replaces the handler that receives errors for which
// the final subscriber supplied no error callback. The default handler logs
// them. The returned function restores the previous handler.
func SetUnhandledErrorHandler(handler func(error)) (restore func()) {
	unhandledMu.Lock()
	prev := unhandled
	unhandled = handler
	unhandledMu.Unlock()
	return func() {
		unhandledMu.Lock()
		unhandled = prev
		unhandledMu.Unlock()
	}
}

func handleUnhandledError(err error) {
	unhandledMu.RLock()
	handler := unhandled
	unhandledMu.RUnlock()
	handler(err)
}

//
// sink
//

// sink guards an observer: nothing is delivered after a terminal event or
// after 'ctx' is cancelled. 'onStop' runs once after the terminal event has
// been delivered and is used to cancel upstreams.
//
// Disposal never takes a lock held during delivery, so disposing from within
// a callback is safe.
type sink[T any] struct {
	ctx      context.Context
	observer Observer[T]
	stopped  atomic.Bool
	onStop   func()
}

func newSink[T any](ctx context.Context, observer Observer[T], onStop func()) *sink[T] {
	return &sink[T]{ctx: ctx, observer: observer, onStop: onStop}
}

// done is true when the sink no longer delivers anything.
func (s *sink[T]) done() bool {
	return s.stopped.Load() || s.ctx.Err() != nil
}

func (s *sink[T]) OnNext(item T) {
	if s.done() {
		return
	}
	s.observer.OnNext(item)
}

func (s *sink[T]) OnError(err error) {
	if s.ctx.Err() != nil || !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.observer.OnError(err)
	s.stop()
}

func (s *sink[T]) OnCompleted() {
	if s.ctx.Err() != nil || !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.observer.OnCompleted()
	s.stop()
}

func (s *sink[T]) stop() {
	if s.onStop != nil {
		s.onStop()
	}
}
