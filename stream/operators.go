// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

// Map applies a function onto an observable. A panic in 'apply' is delivered
// as an error.
func Map[A, B any](src Observable[A], apply func(A) B) Observable[B] {
	return TryMap(src, func(a A) (B, error) { return apply(a), nil })
}

// TryMap applies a fallible function onto an observable. The first failure is
// delivered as an error, the source is cancelled and nothing else is emitted.
func TryMap[A, B any](src Observable[A], apply func(A) (B, error)) Observable[B] {
	return FuncObservable[B](
		func(ctx context.Context, observer Observer[B]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			src.Observe(
				ctx,
				ObserverFuncs[A]{
					Next: func(a A) {
						if out.done() {
							return
						}
						b, err := try(apply, a)
						if err != nil {
							out.OnError(err)
							return
						}
						out.OnNext(b)
					},
					Error:     out.OnError,
					Completed: out.OnCompleted,
				})
		})
}

// Filter keeps only the elements for which the filter function returns true.
func Filter[T any](src Observable[T], filter func(T) bool) Observable[T] {
	pred := func(x T) (bool, error) { return filter(x), nil }
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			src.Observe(
				ctx,
				ObserverFuncs[T]{
					Next: func(x T) {
						if out.done() {
							return
						}
						ok, err := try(pred, x)
						switch {
						case err != nil:
							out.OnError(err)
						case ok:
							out.OnNext(x)
						}
					},
					Error:     out.OnError,
					Completed: out.OnCompleted,
				})
		})
}

// FlatMap applies a function that returns an observable of Bs to the source observable of As.
// The observable from the function is flattened (hence FlatMap): all inner
// observables are observed concurrently and their items merged. Completes once
// the source and every inner observable have completed.
func FlatMap[A, B any](src Observable[A], apply func(A) Observable[B]) Observable[B] {
	return FuncObservable[B](
		func(ctx context.Context, observer Observer[B]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			ser := newSerializer[B](out)

			// The source counts as one active stream.
			active := 1
			complete := func(emit func(Event[B])) {
				active--
				if active == 0 {
					emit(CompletedEvent[B]())
				}
			}

			src.Observe(
				ctx,
				ObserverFuncs[A]{
					Next: func(a A) {
						if out.done() {
							return
						}
						inner, err := try(func(a A) (Observable[B], error) { return apply(a), nil }, a)
						if err != nil {
							ser.emit(ErrorEvent[B](err))
							return
						}
						ser.do(func(func(Event[B])) { active++ })
						inner.Observe(ctx, EventObserver[B](func(ev Event[B]) {
							ser.do(func(emit func(Event[B])) {
								if ev.Kind() == KindCompleted {
									complete(emit)
								} else {
									emit(ev)
								}
							})
						}))
					},
					Error:     func(err error) { ser.emit(ErrorEvent[B](err)) },
					Completed: func() { ser.do(complete) },
				})
		})
}

// FlatMapLatest is like FlatMap, but only the inner observable created from
// the latest source item is observed. The previous inner subscription is
// disposed before the new one is subscribed and anything it still emits is
// dropped.
//
// Completes when the source has completed and the latest inner observable has
// completed. An error from either the source or the current inner observable
// is delivered immediately and the inner subscription disposed.
func FlatMapLatest[A, B any](src Observable[A], apply func(A) Observable[B]) Observable[B] {
	return FuncObservable[B](
		func(ctx context.Context, observer Observer[B]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			ser := newSerializer[B](out)

			// Guarded by the serializer.
			var (
				generation  uint64
				innerActive bool
				outerDone   bool
			)

			var inner SerialDisposable
			context.AfterFunc(ctx, inner.Dispose)

			src.Observe(
				ctx,
				ObserverFuncs[A]{
					Next: func(a A) {
						if out.done() {
							return
						}
						next, err := try(func(a A) (Observable[B], error) { return apply(a), nil }, a)
						if err != nil {
							ser.emit(ErrorEvent[B](err))
							return
						}

						var gen uint64
						ser.do(func(func(Event[B])) {
							generation++
							gen = generation
							innerActive = true
						})

						innerCtx, innerCancel := context.WithCancel(ctx)
						inner.Set(NewDisposable(innerCancel))

						next.Observe(innerCtx, EventObserver[B](func(ev Event[B]) {
							ser.do(func(emit func(Event[B])) {
								if gen != generation {
									// Stale inner stream.
									return
								}
								switch ev.Kind() {
								case KindNext, KindError:
									emit(ev)
								case KindCompleted:
									innerActive = false
									if outerDone {
										emit(ev)
									}
								}
							})
						}))
					},
					Error: func(err error) {
						ser.emit(ErrorEvent[B](err))
					},
					Completed: func() {
						ser.do(func(emit func(Event[B])) {
							outerDone = true
							if !innerActive {
								emit(CompletedEvent[B]())
							}
						})
					},
				})
		})
}

// Flatten takes an observable of slices of T and returns an observable of T.
func Flatten[T any](src Observable[[]T]) Observable[T] {
	return FlatMap(
		src,
		func(items []T) Observable[T] {
			return FromSlice(items)
		})
}

// Reduce takes an initial state, and a function 'reduce' that is called on each element
// along with a state and returns an observable with a single result state produced
// by the last call to 'reduce'.
func Reduce[T, Result any](src Observable[T], init Result, reduce func(Result, T) Result) Observable[Result] {
	return FuncObservable[Result](
		func(ctx context.Context, observer Observer[Result]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			result := init
			step := func(x T) (Result, error) { return reduce(result, x), nil }
			src.Observe(
				ctx,
				ObserverFuncs[T]{
					Next: func(x T) {
						if out.done() {
							return
						}
						next, err := try(step, x)
						if err != nil {
							out.OnError(err)
							return
						}
						result = next
					},
					Error: out.OnError,
					Completed: func() {
						out.OnNext(result)
						out.OnCompleted()
					},
				})
		})
}

// Scan takes an initial state and a step function that is called on each element with the
// previous state and returns an observable of the states returned by the step function.
// E.g. Scan is like Reduce that emits the intermediate states.
func Scan[In, Out any](src Observable[In], init Out, step func(Out, In) Out) Observable[Out] {
	return FuncObservable[Out](
		func(ctx context.Context, observer Observer[Out]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			prev := init
			apply := func(x In) (Out, error) { return step(prev, x), nil }
			src.Observe(
				ctx,
				ObserverFuncs[In]{
					Next: func(x In) {
						if out.done() {
							return
						}
						next, err := try(apply, x)
						if err != nil {
							out.OnError(err)
							return
						}
						prev = next
						out.OnNext(prev)
					},
					Error:     out.OnError,
					Completed: out.OnCompleted,
				})
		})
}

// Concat takes one or more observable of the same type and emits the items from each of
// them in order.
func Concat[T any](srcs ...Observable[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			var observeFrom func(i int)
			observeFrom = func(i int) {
				if i == len(srcs) {
					observer.OnCompleted()
					return
				}
				srcs[i].Observe(
					ctx,
					ObserverFuncs[T]{
						Next:      observer.OnNext,
						Error:     observer.OnError,
						Completed: func() { observeFrom(i + 1) },
					})
			}
			observeFrom(0)
		})
}

// Merge multiple observables into one. Error from any one of the sources will
// cancel and complete the stream.
//
// Beware: items from sources that emit from different goroutines are
// delivered from those goroutines, one at a time.
func Merge[T any](srcs ...Observable[T]) Observable[T] {
	return FlatMap(
		FromSlice(srcs),
		func(src Observable[T]) Observable[T] { return src })
}

// Throttle limits the rate at which items are emitted. The emitting
// goroutine is blocked until the item may pass.
func Throttle[T any](src Observable[T], ratePerSecond float64, burst int) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			limiter := rate.NewLimiter(rate.Limit(ratePerSecond), burst)
			src.Observe(
				ctx,
				ObserverFuncs[T]{
					Next: func(item T) {
						if err := limiter.Wait(ctx); err != nil {
							return
						}
						observer.OnNext(item)
					},
					Error:     observer.OnError,
					Completed: observer.OnCompleted,
				})
		})
}

// Delay shifts every event emitted from source, terminal events included, by
// the given duration on 'scheduler'. The relative order of events is kept.
// Disposing the subscription cancels the emissions that are still pending.
func Delay[T any](src Observable[T], duration time.Duration, scheduler Scheduler) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			ser := newSerializer[T](out)

			var pending disposableSet
			context.AfterFunc(ctx, pending.Dispose)

			// Guarded by the serializer. Event number 'n' is queued[n-delivered].
			var (
				queued    []Event[T]
				enqueued  int
				delivered int
			)

			// The scheduled action for event 'seq' releases every event up to
			// and including it, so events come out in order even if the
			// scheduler runs the actions out of order.
			release := func(seq int) {
				ser.do(func(emit func(Event[T])) {
					for delivered <= seq && len(queued) > 0 {
						emit(queued[0])
						queued[0] = Event[T]{}
						queued = queued[1:]
						delivered++
					}
				})
			}

			schedule := func(ev Event[T]) {
				if ctx.Err() != nil {
					return
				}
				var seq int
				ser.do(func(func(Event[T])) {
					queued = append(queued, ev)
					seq = enqueued
					enqueued++
				})
				key := pending.reserve()
				pending.put(key, scheduler.Schedule(func() {
					pending.remove(key)
					if ctx.Err() == nil {
						release(seq)
					}
				}, duration))
			}

			src.Observe(ctx, EventObserver[T](schedule))
		})
}

// ObserveOn moves the delivery of all events onto 'scheduler', e.g. to run
// observers that touch UI state on the UI scheduler.
func ObserveOn[T any](src Observable[T], scheduler Scheduler) Observable[T] {
	return Delay(src, 0, scheduler)
}

// SubscribeOn runs the production routine of 'src' on 'scheduler'. Useful for
// sources that block while observing, e.g. blocking fetches or FromChannel.
func SubscribeOn[T any](src Observable[T], scheduler Scheduler) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			pending := scheduler.Schedule(func() {
				if ctx.Err() == nil {
					src.Observe(ctx, observer)
				}
			}, 0)
			context.AfterFunc(ctx, pending.Dispose)
		})
}

// Do calls the callbacks of 'tap' for every event before passing it on.
// A panic in 'tap' terminates the stream with an error. If the event was
// itself an error, both errors are delivered combined.
func Do[T any](src Observable[T], tap Observer[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			src.Observe(
				ctx,
				EventObserver[T](func(ev Event[T]) {
					if out.done() {
						return
					}
					if err := try0(func() { ev.Dispatch(tap) }); err != nil {
						out.OnError(multierr.Append(ev.Err(), err))
						return
					}
					ev.Dispatch(out)
				}))
		})
}

// OnNext calls the supplied function on each emitted item.
func OnNext[T any](src Observable[T], f func(T)) Observable[T] {
	return Do(src, ObserverFuncs[T]{Next: f, Error: func(error) {}})
}

// Take takes 'n' items from the source 'src' and then completes.
// The source is cancelled after the 'n'th item.
func Take[T any](n int, src Observable[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			if n <= 0 {
				out.OnCompleted()
				return
			}
			remaining := n
			src.Observe(ctx,
				ObserverFuncs[T]{
					Next: func(item T) {
						if remaining <= 0 {
							return
						}
						remaining--
						out.OnNext(item)
						if remaining == 0 {
							out.OnCompleted()
						}
					},
					Error:     out.OnError,
					Completed: out.OnCompleted,
				})
		})
}

// TakeWhile takes items from the source until 'pred' returns false after which
// the observable is completed.
func TakeWhile[T any](pred func(T) bool, src Observable[T]) Observable[T] {
	test := func(item T) (bool, error) { return pred(item), nil }
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			src.Observe(ctx,
				ObserverFuncs[T]{
					Next: func(item T) {
						if out.done() {
							return
						}
						ok, err := try(test, item)
						switch {
						case err != nil:
							out.OnError(err)
						case ok:
							out.OnNext(item)
						default:
							out.OnCompleted()
						}
					},
					Error:     out.OnError,
					Completed: out.OnCompleted,
				})
		})
}

// Skip skips the first 'n' items from the source.
func Skip[T any](n int, src Observable[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			skip := n
			src.Observe(ctx,
				ObserverFuncs[T]{
					Next: func(item T) {
						if skip > 0 {
							skip--
							return
						}
						observer.OnNext(item)
					},
					Error:     observer.OnError,
					Completed: observer.OnCompleted,
				})
		})
}

// AsSingle expects exactly one item from the source. It fails with
// ErrSequenceEmpty if the source completes without items, and with
// ErrMoreThanOneElement as soon as a second item arrives.
func AsSingle[T any](src Observable[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			var (
				item  T
				found bool
			)
			src.Observe(ctx,
				ObserverFuncs[T]{
					Next: func(x T) {
						if found {
							out.OnError(ErrMoreThanOneElement)
							return
						}
						item, found = x, true
					},
					Error: out.OnError,
					Completed: func() {
						if !found {
							out.OnError(ErrSequenceEmpty)
							return
						}
						out.OnNext(item)
						out.OnCompleted()
					},
				})
		})
}

// Materialize turns every event of the source into an item, followed by
// completion. The source's terminal event is the last item.
func Materialize[T any](src Observable[T]) Observable[Event[T]] {
	return FuncObservable[Event[T]](
		func(ctx context.Context, observer Observer[Event[T]]) {
			src.Observe(ctx,
				EventObserver[T](func(ev Event[T]) {
					observer.OnNext(ev)
					if ev.IsTerminal() {
						observer.OnCompleted()
					}
				}))
		})
}

// Dematerialize is the inverse of Materialize.
func Dematerialize[T any](src Observable[Event[T]]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			src.Observe(ctx,
				ObserverFuncs[Event[T]]{
					Next:      func(ev Event[T]) { ev.Dispatch(out) },
					Error:     out.OnError,
					Completed: out.OnCompleted,
				})
		})
}
