// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
	"sync"
)

//
// Sinks: operators that run an observable and send the output somewhere.
// These block until the stream terminates or 'ctx' is cancelled.
//

// observeSync subscribes to 'src' and waits for it to terminate. 'next' returns
// false to stop observing early, in which case nil is returned.
func observeSync[T any](ctx context.Context, src Observable[T], next func(T) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	var once sync.Once
	finish := func(err error) {
		once.Do(func() { result <- err })
	}

	SubscribeContext(ctx, src, ObserverFuncs[T]{
		Next: func(item T) {
			if !next(item) {
				finish(nil)
				cancel()
			}
		},
		Error:     finish,
		Completed: func() { finish(nil) },
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		select {
		case err := <-result:
			return err
		default:
			return ctx.Err()
		}
	}
}

// ToSlice converts an Observable into a slice.
func ToSlice[T any](ctx context.Context, src Observable[T]) ([]T, error) {
	var (
		mu    sync.Mutex
		items = make([]T, 0)
	)
	err := observeSync(ctx, src, func(item T) bool {
		mu.Lock()
		items = append(items, item)
		mu.Unlock()
		return true
	})
	mu.Lock()
	defer mu.Unlock()
	return append(make([]T, 0, len(items)), items...), err
}

// First returns the first item from 'src' observable and then closes it.
// Returns ErrSequenceEmpty if 'src' completes without emitting.
func First[T any](ctx context.Context, src Observable[T]) (item T, err error) {
	var (
		mu    sync.Mutex
		found bool
	)
	err = observeSync(ctx, src, func(x T) bool {
		mu.Lock()
		defer mu.Unlock()
		if !found {
			item, found = x, true
		}
		return false
	})
	mu.Lock()
	defer mu.Unlock()
	if err == nil && !found {
		err = ErrSequenceEmpty
	}
	return
}

// Discard discards all items from 'src' and returns an error if any.
func Discard[T any](ctx context.Context, src Observable[T]) error {
	return observeSync(ctx, src, func(T) bool { return true })
}

// ToChannels converts an observable into an item channel and error channel.
// When the source closes both channels are closed and an error (which may be nil)
// is always sent to the error channel.
func ToChannels[T any](ctx context.Context, src Observable[T]) (<-chan T, <-chan error) {
	out := make(chan T, 1)
	errs := make(chan error, 1)
	go func() {
		// 'closed' guards against a late item racing with closing 'out'
		// after cancellation.
		var (
			mu     sync.Mutex
			closed bool
		)
		errs <- observeSync(
			ctx,
			src,
			func(item T) bool {
				mu.Lock()
				defer mu.Unlock()
				if closed {
					return false
				}
				select {
				case out <- item:
					return true
				case <-ctx.Done():
					return false
				}
			})
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
		close(errs)
	}()
	return out, errs
}
