// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

// Package bind connects streams to display state: a Property holds the value
// currently shown by a widget, and a List holds the rows of a list widget.
package bind

import (
	"sync"

	"github.com/rxdemo/rxusers/stream"
)

// Property is a value that is observed as it changes, e.g. the text of a
// label. Observers of Changes() first receive the current value.
type Property[T any] struct {
	// emitMu orders the notifications, mu guards the value.
	emitMu sync.Mutex
	mu     sync.RWMutex
	value  T
	closed bool

	changes *stream.Subject[T]
}

func NewProperty[T any](init T) *Property[T] {
	return &Property[T]{
		value:   init,
		changes: stream.NewBehaviorSubject(init),
	}
}

// Get retrieves the latest value
func (p *Property[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set replaces the value and notifies the observers. Must not be called from
// within an observer of the same property.
func (p *Property[T]) Set(v T) {
	p.Update(func(value *T) { *value = v })
}

// Update updates the value with a function that modifies
// it. Observers of the value are notified of the new value.
// Panics if called after Close().
func (p *Property[T]) Update(f func(*T)) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic("Property is closed")
	}
	f(&p.value)
	v := p.value
	p.mu.Unlock()

	p.changes.OnNext(v)
}

// Close the property. Any observers of it are completed.
func (p *Property[T]) Close() {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.changes.OnCompleted()
}

// Observer returns an observer that sets the property on each item.
// Completion leaves the last value in place.
func (p *Property[T]) Observer() stream.Observer[T] {
	return stream.ObserverFuncs[T]{Next: p.Set}
}

// Changes emits the current value followed by every change.
func (p *Property[T]) Changes() stream.Observable[T] {
	return p.changes
}

// Watch calls 'f' with the current value and on every change.
func (p *Property[T]) Watch(f func(T)) stream.Disposable {
	return stream.SubscribeFuncs(p.Changes(), f, nil, nil)
}

// BindTo drives 'p' from 'src'. Dispose the result to unbind.
func BindTo[T any](src stream.Observable[T], p *Property[T]) stream.Disposable {
	return stream.Subscribe(src, p.Observer())
}

// Drive prepares a stream for display: an error is replaced by 'fallback'
// and the events are delivered on 'scheduler', normally the UI scheduler.
func Drive[T any](src stream.Observable[T], fallback T, scheduler stream.Scheduler) stream.Observable[T] {
	return stream.ObserveOn(stream.CatchErrorJustReturn(src, fallback), scheduler)
}
