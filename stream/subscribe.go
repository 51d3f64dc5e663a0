// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"context"
)

// Subscribe starts the production routine of 'src' with 'observer' as the
// sink. Releasing the returned Disposable stops delivery to 'observer' and
// cancels any outstanding work of the subscription.
func Subscribe[T any](src Observable[T], observer Observer[T]) Disposable {
	return SubscribeContext(context.Background(), src, observer)
}

// SubscribeContext is Subscribe bound to 'ctx': cancelling 'ctx' has the same
// effect as disposing the subscription. Useful when the subscription must be
// cancellable from within a synchronous emission, before Subscribe returns.
func SubscribeContext[T any](ctx context.Context, src Observable[T], observer Observer[T]) Disposable {
	ctx, cancel := context.WithCancel(ctx)
	src.Observe(ctx, newSink(ctx, observer, cancel))
	return NewDisposable(cancel)
}

// SubscribeFuncs subscribes with individual callbacks, any of which may be nil.
// A nil 'onError' sends errors to the unhandled error handler.
func SubscribeFuncs[T any](src Observable[T], onNext func(T), onError func(error), onCompleted func()) Disposable {
	return Subscribe[T](src, ObserverFuncs[T]{
		Next:      onNext,
		Error:     onError,
		Completed: onCompleted,
	})
}
