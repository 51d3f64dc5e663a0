// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"context"
	"sync"
)

// Subject is a hot observable that is also an observer: events pushed into it
// are delivered to every current subscriber. Subscribers only see events
// emitted after they subscribed, except that a subject created with
// NewBehaviorSubject first replays the latest item. A terminated subject
// delivers its terminal event to new subscribers.
//
// Like any observer, a Subject must not be fed concurrently.
type Subject[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	observers []subjectObserver[T]
	terminal  *Event[T]

	replayLatest bool
	hasLatest    bool
	latest       T
}

type subjectObserver[T any] struct {
	id  uint64
	out *serializer[T]
}

// NewSubject creates a subject that only delivers future events.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// NewBehaviorSubject creates a subject that replays the latest item, starting
// with 'initial', to new subscribers.
func NewBehaviorSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{replayLatest: true, hasLatest: true, latest: initial}
}

func (s *Subject[T]) Observe(ctx context.Context, observer Observer[T]) {
	s.mu.Lock()
	if s.terminal != nil {
		ev := *s.terminal
		s.mu.Unlock()
		ev.Dispatch(observer)
		return
	}
	id := s.nextID
	s.nextID++
	out := newSerializer[T](newSink(ctx, observer, nil))
	// The replayed item is queued before the observer becomes visible to
	// OnNext, so newer items are delivered after it.
	replay := s.replayLatest && s.hasLatest
	if replay {
		out.hold(NextEvent(s.latest))
	}
	s.observers = append(s.observers, subjectObserver[T]{id, out})
	s.mu.Unlock()

	context.AfterFunc(ctx, func() { s.remove(id) })
	if replay {
		out.release()
	}
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Subject[T]) snapshot() []subjectObserver[T] {
	return append([]subjectObserver[T](nil), s.observers...)
}

func (s *Subject[T]) OnNext(item T) {
	s.mu.Lock()
	if s.terminal != nil {
		s.mu.Unlock()
		return
	}
	if s.replayLatest {
		s.latest, s.hasLatest = item, true
	}
	observers := s.snapshot()
	s.mu.Unlock()

	ev := NextEvent(item)
	for _, o := range observers {
		o.out.emit(ev)
	}
}

func (s *Subject[T]) OnError(err error) {
	s.terminate(ErrorEvent[T](err))
}

func (s *Subject[T]) OnCompleted() {
	s.terminate(CompletedEvent[T]())
}

func (s *Subject[T]) terminate(ev Event[T]) {
	s.mu.Lock()
	if s.terminal != nil {
		s.mu.Unlock()
		return
	}
	s.terminal = &ev
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, o := range observers {
		o.out.emit(ev)
	}
}

// Value returns the latest item of a behavior subject.
func (s *Subject[T]) Value() (item T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// HasObservers reports whether anyone is subscribed.
func (s *Subject[T]) HasObservers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers) > 0
}

type MulticastParams struct {
	// EmitLatest if set will emit the latest seen item when new observer
	// subscribes.
	EmitLatest bool
}

var DefaultMulticastParams = MulticastParams{EmitLatest: false}

// Multicast creates a publish-subscribe observable that "multicasts" items
// from the 'src' observable to subscribers.
//
// Returns the shared observable and a function to connect it to the source.
// Observers can subscribe both before and after the source has been connected,
// but miss the items emitted before they subscribed. Disposing the returned
// Disposable, or cancelling 'ctx', disconnects from the source.
func Multicast[T any](params MulticastParams, src Observable[T]) (mcast Observable[T], connect func(context.Context) Disposable) {
	subject := &Subject[T]{replayLatest: params.EmitLatest}
	connect = func(ctx context.Context) Disposable {
		return SubscribeContext[T](ctx, src, subject)
	}
	return subject, connect
}
