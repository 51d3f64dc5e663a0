// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"sync"

	"go.uber.org/atomic"
)

// Disposable releases a subscription or a resource registration.
// Dispose is idempotent and safe to call from any goroutine, including from
// within an observer callback of the subscription being disposed.
type Disposable interface {
	Dispose()
}

// NopDisposable is a Disposable with nothing to release.
var NopDisposable Disposable = nopDisposable{}

type nopDisposable struct{}

func (nopDisposable) Dispose() {}

// ActionDisposable runs an action on the first call to Dispose.
type ActionDisposable struct {
	disposed atomic.Bool
	action   func()
}

func NewDisposable(action func()) *ActionDisposable {
	return &ActionDisposable{action: action}
}

func (d *ActionDisposable) Dispose() {
	if d.disposed.CompareAndSwap(false, true) && d.action != nil {
		d.action()
	}
}

func (d *ActionDisposable) IsDisposed() bool {
	return d.disposed.Load()
}

// SerialDisposable holds a single replaceable disposable. Setting a new one
// disposes the previous one. Once the SerialDisposable itself is disposed
// anything set into it is disposed immediately.
type SerialDisposable struct {
	mu       sync.Mutex
	current  Disposable
	disposed bool
}

func (s *SerialDisposable) Set(d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		d.Dispose()
		return
	}
	prev := s.current
	s.current = d
	s.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
}

func (s *SerialDisposable) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
}

// disposableSet tracks disposables that remove themselves once done, e.g.
// pending scheduled actions. A key is reserved before scheduling so that an
// action completing before put() is not re-added.
type disposableSet struct {
	mu       sync.Mutex
	nextKey  uint64
	items    map[uint64]Disposable
	disposed bool
}

func (s *disposableSet) reserve() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[uint64]Disposable)
	}
	key := s.nextKey
	s.nextKey++
	s.items[key] = nil
	return key
}

func (s *disposableSet) put(key uint64, d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		d.Dispose()
		return
	}
	if _, ok := s.items[key]; ok {
		s.items[key] = d
	}
	s.mu.Unlock()
}

func (s *disposableSet) remove(key uint64) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

func (s *disposableSet) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	items := s.items
	s.items = nil
	s.mu.Unlock()

	for _, d := range items {
		if d != nil {
			d.Dispose()
		}
	}
}

// DisposableFunc adapts a function to Disposable. Unlike NewDisposable it does
// not guard against repeated calls.
type DisposableFunc func()

func (f DisposableFunc) Dispose() { f() }
