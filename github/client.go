// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

// Package github loads users and their avatars from the GitHub REST API as
// cold observables.
package github

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rxdemo/rxusers/logger"
	rxhttp "github.com/rxdemo/rxusers/sources/http"
	"github.com/rxdemo/rxusers/stream"
)

const DefaultBaseURL = "https://api.github.com"

const (
	endpointUsers  = "users"
	endpointAvatar = "avatar"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	log        *zap.SugaredLogger
	registerer prometheus.Registerer
	scheduler  stream.Scheduler
	limiter    *rate.Limiter

	requests *prometheus.CounterVec
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithToken authenticates requests with a personal access token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRegisterer registers the client's request counter.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registerer = reg
	}
}

// WithScheduler sets the scheduler requests are performed on. Defaults to a
// deferred scheduler so that subscribing never blocks on I/O.
func WithScheduler(sch stream.Scheduler) Option {
	return func(c *Client) {
		c.scheduler = sch
	}
}

// WithRateLimit limits the request rate. Requests wait for their turn.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		scheduler:  stream.NewDeferredScheduler(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.New(logger.WithName("github"))
	}

	c.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rxusers",
		Subsystem: "github",
		Name:      "requests_total",
		Help:      "Number of GitHub API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	if c.registerer != nil {
		if err := c.registerer.Register(c.requests); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				c.requests = are.ExistingCollector.(*prometheus.CounterVec)
			} else {
				c.log.Warnw("cannot register metrics", zap.Error(err))
			}
		}
	}
	return c
}

// LoadUsers fetches the first page of users.
func (c *Client) LoadUsers() stream.Observable[[]User] {
	return c.LoadUsersSince(0)
}

// LoadUsersSince fetches the users with an ID greater than 'since'.
func (c *Client) LoadUsersSince(since int64) stream.Observable[[]User] {
	u := c.baseURL + "/users"
	if since > 0 {
		u += "?" + url.Values{"since": {strconv.FormatInt(since, 10)}}.Encode()
	}
	return stream.SubscribeOn(
		stream.TryMap(c.get(endpointUsers, u), DecodeUsers),
		c.scheduler)
}

// LoadAvatar fetches the image at 'avatarURL'.
func (c *Client) LoadAvatar(avatarURL string) stream.Observable[[]byte] {
	return stream.SubscribeOn(c.get(endpointAvatar, avatarURL), c.scheduler)
}

func (c *Client) get(endpoint, u string) stream.Observable[[]byte] {
	opts := []rxhttp.Option{
		rxhttp.WithClient(c.httpClient),
		rxhttp.WithHeader("Accept", "application/vnd.github+json"),
	}
	if c.token != "" {
		opts = append(opts, rxhttp.WithHeader("Authorization", "Bearer "+c.token))
	}

	fetch := rxhttp.ResponseBody(rxhttp.Get(u, opts...))
	body := fetch
	if c.limiter != nil {
		body = stream.FlatMap(
			stream.FromFunction(func(ctx context.Context) (struct{}, error) {
				return struct{}{}, c.limiter.Wait(ctx)
			}),
			func(struct{}) stream.Observable[[]byte] { return fetch })
	}

	body = stream.CatchError(body, func(err error) stream.Observable[[]byte] {
		return stream.Error[[]byte](errors.Wrapf(err, "GET %s", u))
	})

	return stream.Do(body, stream.ObserverFuncs[[]byte]{
		Next: func(b []byte) {
			c.requests.WithLabelValues(endpoint, "success").Inc()
			c.log.Debugw("request done", "url", u, "bytes", len(b))
		},
		Error: func(err error) {
			c.requests.WithLabelValues(endpoint, outcome(err)).Inc()
			c.log.Warnw("request failed", "url", u, zap.Error(err))
		},
	})
}

func outcome(err error) string {
	var serr *rxhttp.StatusError
	if errors.As(err, &serr) {
		return strconv.Itoa(serr.StatusCode)
	}
	return "error"
}
