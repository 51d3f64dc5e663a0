// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
	"time"
)

//
// Sources, e.g. operators that create new observables.
//

// Create creates an observable from a production routine. 'produce' is
// called once per subscription and emits to 'observer'. It may return a
// Disposable for the resources it holds (a running request, a registered
// callback); it is released when the subscription is disposed or the stream
// terminates. A panic in 'produce' is delivered as an error.
//
// Production may continue asynchronously after 'produce' returns, in which
// case it should stop once 'ctx' is cancelled.
func Create[T any](produce func(ctx context.Context, observer Observer[T]) Disposable) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)

			var resource Disposable
			if err := try0(func() { resource = produce(ctx, out) }); err != nil {
				out.OnError(err)
			}
			if resource != nil {
				context.AfterFunc(ctx, resource.Dispose)
			}
		})
}

// Just creates an observable with a single item.
func Just[T any](item T) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			if ctx.Err() != nil {
				return
			}
			observer.OnNext(item)
			observer.OnCompleted()
		})
}

// Of creates an observable of the given items.
func Of[T any](items ...T) Observable[T] {
	return FromSlice(items)
}

// Never creates an observable that never emits anything.
// Mainly meant for testing.
func Never[T any]() Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {})
}

// Error creates an observable that fails immediately with given error.
func Error[T any](err error) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			observer.OnError(err)
		})
}

// Empty creates an empty observable that completes immediately.
func Empty[T any]() Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			observer.OnCompleted()
		})
}

// FromSlice converts a slice into an Observable.
func FromSlice[T any](items []T) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			for _, item := range items {
				if ctx.Err() != nil {
					return
				}
				observer.OnNext(item)
			}
			observer.OnCompleted()
		})
}

// FromChannel creates an observable from a channel. The channel is consumed
// by the first observer. Observing blocks until the channel is closed or the
// subscription is disposed; use SubscribeOn to consume it in the background.
func FromChannel[T any](in <-chan T) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-in:
					if !ok {
						observer.OnCompleted()
						return
					}
					observer.OnNext(v)
				}
			}
		})
}

// FromFunction creates an observable that calls 'f' on each subscription and
// emits its result, or its error. The context passed to 'f' is cancelled
// when the subscription is disposed, which makes it suitable for wrapping a
// blocking fetch.
func FromFunction[T any](f func(context.Context) (T, error)) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			if ctx.Err() != nil {
				return
			}
			item, err := try(f, ctx)
			if err != nil {
				observer.OnError(err)
				return
			}
			observer.OnNext(item)
			observer.OnCompleted()
		})
}

// Defer calls 'factory' on every subscription to create the observable to
// subscribe to.
func Defer[T any](factory func() Observable[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			src, err := try(func(struct{}) (Observable[T], error) { return factory(), nil }, struct{}{})
			if err != nil {
				observer.OnError(err)
				return
			}
			src.Observe(ctx, observer)
		})
}

// Range creates an observable that emits integers in range from...to-1.
func Range(from, to int) Observable[int] {
	return FuncObservable[int](
		func(ctx context.Context, observer Observer[int]) {
			for i := from; i < to; i++ {
				if ctx.Err() != nil {
					return
				}
				observer.OnNext(i)
			}
			observer.OnCompleted()
		})
}

// Interval emits an increasing counter value every 'interval' period on
// 'scheduler'. It never completes.
func Interval(interval time.Duration, scheduler Scheduler) Observable[int] {
	return FuncObservable[int](
		func(ctx context.Context, observer Observer[int]) {
			var (
				current SerialDisposable
				tick    func()
				i       int
			)
			context.AfterFunc(ctx, current.Dispose)
			tick = func() {
				if ctx.Err() != nil {
					return
				}
				observer.OnNext(i)
				i++
				current.Set(scheduler.Schedule(tick, interval))
			}
			current.Set(scheduler.Schedule(tick, interval))
		})
}

// Timer emits 'item' once after 'delay' on 'scheduler' and completes.
func Timer[T any](delay time.Duration, scheduler Scheduler, item T) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			pending := scheduler.Schedule(func() {
				if ctx.Err() != nil {
					return
				}
				observer.OnNext(item)
				observer.OnCompleted()
			}, delay)
			context.AfterFunc(ctx, pending.Dispose)
		})
}
