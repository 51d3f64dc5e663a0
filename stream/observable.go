// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
)

type Observable[T any] interface {
	// Observe runs the production routine of the stream, delivering events to
	// 'observer' until the stream terminates or 'ctx' is cancelled.
	//
	// Implementations of Observe() must maintain the following invariants:
	// - every call re-executes the production logic (cold stream). Nothing is
	//   buffered for observers that arrive late.
	// - events are delivered sequentially: any number of OnNext followed by at
	//   most one of OnError or OnCompleted, and nothing after that.
	// - once 'ctx' is cancelled no further events are delivered and any
	//   resources held for the subscription (timers, in-flight requests,
	//   upstream subscriptions) are released.
	// - failures of the production routine are delivered as a single OnError.
	//
	// Observe may return before the stream terminates if the production is
	// asynchronous. Observables do not spawn goroutines themselves, only the
	// scheduler-bound operators do (Delay, ObserveOn, SubscribeOn, Interval).
	Observe(ctx context.Context, observer Observer[T])
}

// FuncObservable wraps a function that implements Observe. Convenience when declaring
// a struct to implement Observe() is overkill.
type FuncObservable[T any] func(context.Context, Observer[T])

func (f FuncObservable[T]) Observe(ctx context.Context, observer Observer[T]) {
	f(ctx, observer)
}
