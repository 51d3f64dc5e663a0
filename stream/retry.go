// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/multierr"
)

//
// Retrying and error handling
//

// RetryFunc decides whether the processing should be retried for the given error
type RetryFunc func(err error) bool

func (f RetryFunc) call(err error) (bool, error) {
	return f(err), nil
}

// Retry resubscribes to the observable if it completes with an error.
func Retry[T any](src Observable[T], shouldRetry RetryFunc) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			var observe func()
			observe = func() {
				src.Observe(
					ctx,
					ObserverFuncs[T]{
						Next: observer.OnNext,
						Error: func(err error) {
							if ctx.Err() != nil {
								return
							}
							retry, perr := try(shouldRetry.call, err)
							if perr != nil {
								observer.OnError(multierr.Append(err, perr))
								return
							}
							if retry {
								observe()
								return
							}
							observer.OnError(err)
						},
						Completed: observer.OnCompleted,
					})
			}
			observe()
		})
}

// RetryWithBackoff resubscribes to the observable after a failure, waiting on
// 'scheduler' for the interval given by the backoff policy. 'newBackOff' is
// called once per subscription. The error is delivered once the policy
// returns backoff.Stop. The policy is reset whenever an item is received.
func RetryWithBackoff[T any](src Observable[T], newBackOff func() backoff.BackOff, scheduler Scheduler) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			policy := newBackOff()
			policy.Reset()

			var (
				pending SerialDisposable
				observe func()
			)
			context.AfterFunc(ctx, pending.Dispose)

			observe = func() {
				src.Observe(
					ctx,
					ObserverFuncs[T]{
						Next: func(item T) {
							policy.Reset()
							observer.OnNext(item)
						},
						Error: func(err error) {
							wait, perr := try(nextBackOff, policy)
							if perr != nil {
								observer.OnError(multierr.Append(err, perr))
								return
							}
							if ctx.Err() != nil || wait == backoff.Stop {
								observer.OnError(err)
								return
							}
							pending.Set(scheduler.Schedule(func() {
								if ctx.Err() == nil {
									observe()
								}
							}, wait))
						},
						Completed: observer.OnCompleted,
					})
			}
			observe()
		})
}

func nextBackOff(policy backoff.BackOff) (time.Duration, error) {
	return policy.NextBackOff(), nil
}

// AlwaysRetry always asks for a retry regardless of the error.
func AlwaysRetry(err error) bool {
	return true
}

// BackoffRetry retries with an exponential backoff. It sleeps on the
// goroutine that delivered the error.
func BackoffRetry(shouldRetry RetryFunc, minBackoff, maxBackoff time.Duration) RetryFunc {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = minBackoff
	policy.MaxInterval = maxBackoff
	policy.MaxElapsedTime = 0
	policy.RandomizationFactor = 0
	policy.Reset()
	return func(err error) bool {
		time.Sleep(policy.NextBackOff())
		return shouldRetry(err)
	}
}

// LimitRetries limits the number of retries with the given retry method.
// e.g. LimitRetries(BackoffRetry(AlwaysRetry, time.Millisecond, time.Second), 5)
func LimitRetries(shouldRetry RetryFunc, numRetries int) RetryFunc {
	return func(err error) bool {
		if numRetries <= 0 {
			return false
		}
		numRetries--
		return shouldRetry(err)
	}
}

// CatchError recovers from an error of the source by continuing with the
// observable returned by 'handler'.
func CatchError[T any](src Observable[T], handler func(error) Observable[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, observer Observer[T]) {
			src.Observe(
				ctx,
				ObserverFuncs[T]{
					Next: observer.OnNext,
					Error: func(err error) {
						fallback, herr := try(func(err error) (Observable[T], error) { return handler(err), nil }, err)
						if herr != nil {
							observer.OnError(herr)
							return
						}
						fallback.Observe(ctx, observer)
					},
					Completed: observer.OnCompleted,
				})
		})
}

// CatchErrorJustReturn replaces an error of the source with 'fallback'
// followed by completion.
func CatchErrorJustReturn[T any](src Observable[T], fallback T) Observable[T] {
	return CatchError(src, func(error) Observable[T] { return Just(fallback) })
}
