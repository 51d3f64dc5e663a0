// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

// Package http wraps net/http requests as observables. Each subscription
// performs the request anew, and disposing the subscription cancels a request
// that is still in flight.
package http

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rxdemo/rxusers/stream"
)

type request struct {
	*http.Request
	client *http.Client
}

type Option func(*request)

func WithBasicAuth(username, password string) Option {
	return func(req *request) {
		req.SetBasicAuth(username, password)
	}
}

// WithBody sets the request body. The body is read on every subscription, so
// readers that cannot be re-read should only be used with single-use
// observables.
func WithBody(body io.Reader) Option {
	return func(req *request) {
		rc, ok := body.(io.ReadCloser)
		if !ok && body != nil {
			rc = io.NopCloser(body)
		}
		req.Body = rc
		req.ContentLength = 0
		req.GetBody = nil
	}
}

func WithHeader(key, value string) Option {
	return func(req *request) {
		req.Header.Add(key, value)
	}
}

// WithClient performs the request with 'client' instead of
// http.DefaultClient.
func WithClient(client *http.Client) Option {
	return func(req *request) {
		req.client = client
	}
}

// StatusError is the error for a response with a non-2xx status code.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

func do(method, url string, body []byte, options []Option) stream.Observable[*http.Response] {
	return stream.FromFunction(
		func(ctx context.Context) (*http.Response, error) {
			var bodyReader io.Reader
			if body != nil {
				bodyReader = bytes.NewReader(body)
			}
			httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
			if err != nil {
				return nil, err
			}
			req := &request{Request: httpReq, client: http.DefaultClient}
			for _, opt := range options {
				opt(req)
			}
			resp, err := req.client.Do(req.Request)
			if err != nil {
				return nil, err
			}
			// Disposed while the response arrived: nobody will read it.
			if ctx.Err() != nil {
				resp.Body.Close()
				return nil, ctx.Err()
			}
			return resp, nil
		})
}

// Get returns an observable that performs a GET request on each subscription
// and emits the response.
func Get(url string, options ...Option) stream.Observable[*http.Response] {
	return do(http.MethodGet, url, nil, options)
}

// Post returns an observable that performs a POST request with 'body' on each
// subscription and emits the response.
func Post(url string, body []byte, options ...Option) stream.Observable[*http.Response] {
	if body == nil {
		body = []byte{}
	}
	return do(http.MethodPost, url, body, options)
}

// ResponseBody reads and closes the body of each response. A response with a
// non-2xx status becomes a *StatusError.
//
// Every response received is closed, even after the subscription has been
// disposed, so 'in' should be a Get or Post observable or otherwise pass the
// responses on without dropping them.
func ResponseBody(in stream.Observable[*http.Response]) stream.Observable[[]byte] {
	return consume(in, func(ctx context.Context, resp *http.Response, observer stream.Observer[[]byte]) error {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &StatusError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       body,
			}
		}
		observer.OnNext(body)
		return nil
	})
}

// Lines streams the body of each response line by line. The body is closed
// once it has been read or the subscription is disposed.
func Lines(in stream.Observable[*http.Response]) stream.Observable[string] {
	return consume(in, func(ctx context.Context, resp *http.Response, observer stream.Observer[string]) error {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return nil
			}
			observer.OnNext(scanner.Text())
		}
		return scanner.Err()
	})
}

// consume calls 'read' on each response and closes its body afterwards. The
// responses are received without a disposal check so that none is dropped
// with its body still open.
func consume[T any](in stream.Observable[*http.Response], read func(context.Context, *http.Response, stream.Observer[T]) error) stream.Observable[T] {
	return stream.FuncObservable[T](
		func(ctx context.Context, observer stream.Observer[T]) {
			failed := false
			in.Observe(ctx, stream.ObserverFuncs[*http.Response]{
				Next: func(resp *http.Response) {
					defer resp.Body.Close()
					if failed || ctx.Err() != nil {
						return
					}
					if err := read(ctx, resp, observer); err != nil {
						failed = true
						observer.OnError(err)
					}
				},
				Error: func(err error) {
					if !failed {
						failed = true
						observer.OnError(err)
					}
				},
				Completed: func() {
					if !failed {
						observer.OnCompleted()
					}
				},
			})
		})
}
