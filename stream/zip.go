// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
)

// Tuple2 is a pair of items emitted by Zip2.
type Tuple2[V1, V2 any] struct {
	V1 V1
	V2 V2
}

type ZipParams struct {
	// BufferSize is the maximum number of unpaired items buffered per source.
	// A source running further ahead fails the stream with ErrZipBufferOverflow.
	BufferSize int
}

var DefaultZipParams = ZipParams{BufferSize: 1024}

// Zip2 takes two observables and merges them into an observable of pairs
func Zip2[V1, V2 any](src1 Observable[V1], src2 Observable[V2]) Observable[Tuple2[V1, V2]] {
	return ZipWith(src1, src2, func(v1 V1, v2 V2) Tuple2[V1, V2] {
		return Tuple2[V1, V2]{V1: v1, V2: v2}
	})
}

// ZipWith pairs the items of two observables with DefaultZipParams and
// combines each pair with 'combine'.
func ZipWith[V1, V2, R any](src1 Observable[V1], src2 Observable[V2], combine func(V1, V2) R) Observable[R] {
	return ZipWithParams(DefaultZipParams, src1, src2, combine)
}

// ZipWithParams pairs items strictly in arrival order: the n'th item of
// 'src1' with the n'th item of 'src2'. Unpaired items are buffered up to
// 'params.BufferSize' per source.
//
// Completes as soon as one of the sources has completed and has no buffered
// items left to pair. An error from either source is delivered immediately.
func ZipWithParams[V1, V2, R any](params ZipParams, src1 Observable[V1], src2 Observable[V2], combine func(V1, V2) R) Observable[R] {
	if params.BufferSize <= 0 {
		params.BufferSize = DefaultZipParams.BufferSize
	}
	type pair struct {
		v1 V1
		v2 V2
	}
	combinePair := func(p pair) (R, error) { return combine(p.v1, p.v2), nil }

	return FuncObservable[R](
		func(ctx context.Context, observer Observer[R]) {
			ctx, cancel := context.WithCancel(ctx)
			out := newSink(ctx, observer, cancel)
			ser := newSerializer[R](out)

			// Guarded by the serializer.
			var (
				v1s          []V1
				v2s          []V2
				done1, done2 bool
				finished     bool
			)

			// step pairs what can be paired and decides whether the stream
			// is over.
			step := func(emit func(Event[R])) {
				for len(v1s) > 0 && len(v2s) > 0 {
					r, err := try(combinePair, pair{v1s[0], v2s[0]})
					if err != nil {
						finished = true
						emit(ErrorEvent[R](err))
						return
					}
					var zero1 V1
					var zero2 V2
					v1s[0], v2s[0] = zero1, zero2
					v1s, v2s = v1s[1:], v2s[1:]
					emit(NextEvent(r))
				}
				switch {
				case len(v1s) > params.BufferSize || len(v2s) > params.BufferSize:
					finished = true
					emit(ErrorEvent[R](ErrZipBufferOverflow))
				case (done1 && len(v1s) == 0) || (done2 && len(v2s) == 0):
					finished = true
					emit(CompletedEvent[R]())
				}
			}

			fail := func(err error) {
				ser.do(func(emit func(Event[R])) {
					if !finished {
						finished = true
						emit(ErrorEvent[R](err))
					}
				})
			}

			src1.Observe(ctx, ObserverFuncs[V1]{
				Next: func(v V1) {
					ser.do(func(emit func(Event[R])) {
						if !finished {
							v1s = append(v1s, v)
							step(emit)
						}
					})
				},
				Error: fail,
				Completed: func() {
					ser.do(func(emit func(Event[R])) {
						if !finished {
							done1 = true
							step(emit)
						}
					})
				},
			})

			src2.Observe(ctx, ObserverFuncs[V2]{
				Next: func(v V2) {
					ser.do(func(emit func(Event[R])) {
						if !finished {
							v2s = append(v2s, v)
							step(emit)
						}
					})
				},
				Error: fail,
				Completed: func() {
					ser.do(func(emit func(Event[R])) {
						if !finished {
							done2 = true
							step(emit)
						}
					})
				},
			})
		})
}
