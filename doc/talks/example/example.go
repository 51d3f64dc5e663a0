// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"context"
	"fmt"

	"github.com/rxdemo/rxusers/stream"
)

type singleIntegerObservable int

func (num singleIntegerObservable) Observe(ctx context.Context, observer stream.Observer[int]) {
	if ctx.Err() != nil {
		observer.OnError(ctx.Err())
		return
	}
	observer.OnNext(int(num))
	observer.OnCompleted()
}

func main() {
	var ten stream.Observable[int] = singleIntegerObservable(10)

	// The 'Map' operator takes a stream and a function and applies
	// the function to each element.
	twenty := stream.Map(
		ten,
		func(x int) int { return x * 2 },
	)

	stream.Subscribe(twenty, stream.ObserverFuncs[int]{
		Next:      func(x int) { fmt.Printf("%d\n", x) },
		Error:     func(err error) { fmt.Printf("error: %s\n", err) },
		Completed: func() { fmt.Println("done") },
	})
}
