// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"sync"
)

// serializer funnels events produced from several goroutines (inner streams,
// zipped sources, scheduled actions) into one observer, one at a time and in
// the order they were emitted.
//
// State that decides what to emit is kept under the serializer lock via do(),
// so the order of state transitions is the order of delivery. Delivery
// happens outside the lock by whichever goroutine found the queue idle, so an
// observer may re-enter do() (e.g. by disposing or emitting upstream) without
// deadlocking.
type serializer[T any] struct {
	mu       sync.Mutex
	queue    []Event[T]
	draining bool
	out      Observer[T]
}

func newSerializer[T any](out Observer[T]) *serializer[T] {
	return &serializer[T]{out: out}
}

// do runs 'update' under the lock and then delivers whatever it emitted.
func (s *serializer[T]) do(update func(emit func(Event[T]))) {
	s.mu.Lock()
	update(func(ev Event[T]) {
		s.queue = append(s.queue, ev)
	})
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.drainLocked()
}

// hold queues 'ev' and marks the serializer as draining without delivering
// anything. Events emitted meanwhile are queued behind 'ev' until release()
// is called. Only valid before the serializer is shared.
func (s *serializer[T]) hold(ev Event[T]) {
	s.queue = append(s.queue, ev)
	s.draining = true
}

// release delivers the events queued since hold().
func (s *serializer[T]) release() {
	s.mu.Lock()
	s.drainLocked()
}

// drainLocked delivers the queue. Called with the lock held and draining
// set; returns with the lock released.
func (s *serializer[T]) drainLocked() {
	for len(s.queue) > 0 {
		ev := s.queue[0]
		s.queue[0] = Event[T]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()
		ev.Dispatch(s.out)
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// emit delivers a single event.
func (s *serializer[T]) emit(ev Event[T]) {
	s.do(func(emit func(Event[T])) { emit(ev) })
}
