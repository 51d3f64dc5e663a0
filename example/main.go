// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	rxhttp "github.com/rxdemo/rxusers/sources/http"
	"github.com/rxdemo/rxusers/stream"
)

func main() {
	// Create a context in which to execute the requests.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Start a local HTTP server to test against.
	url, srv, err := startHTTPServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	defer srv.Shutdown(context.Background())

	lines := numberLines(url, time.Second, stream.NewDeferredScheduler())

	// Print each line to stdout until the context expires.
	err = stream.Discard(ctx, stream.OnNext(lines, func(line string) {
		fmt.Println(line)
	}))
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// numberLines merges the /hex, /oct and /dec streams of the server at 'url'
// and inserts a dividing line every 'divider' period.
func numberLines(url string, divider time.Duration, sch stream.Scheduler) stream.Observable[string] {
	// Reading a stream blocks, so each one is read on its own goroutine.
	lines := stream.Merge(
		stream.SubscribeOn(httpGetByLine(url+"/hex"), sch),
		stream.SubscribeOn(httpGetByLine(url+"/oct"), sch),
		stream.SubscribeOn(httpGetByLine(url+"/dec"), sch),
		stream.Map(stream.Interval(divider, sch), func(_ int) string { return "-------" }),
	)

	// On errors resubscribe after a second, at most 3 times in a row.
	return stream.RetryWithBackoff(lines, func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 3)
	}, sch)
}

func httpGetByLine(url string) stream.Observable[string] {
	return rxhttp.Lines(rxhttp.Get(url))
}
