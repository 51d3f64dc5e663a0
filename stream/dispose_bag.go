// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"sync"
)

// DisposeBag owns a set of disposables and disposes all of them, exactly
// once, when the bag itself is disposed. The owner creates the bag in its
// setup and disposes it in its teardown.
//
// Members are disposed in no particular order. Inserting into a disposed bag
// disposes the inserted items immediately. The zero value is ready to use.
type DisposeBag struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

func NewDisposeBag() *DisposeBag {
	return &DisposeBag{}
}

func (b *DisposeBag) Insert(ds ...Disposable) {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		for _, d := range ds {
			d.Dispose()
		}
		return
	}
	b.items = append(b.items, ds...)
	b.mu.Unlock()
}

// Dispose disposes every member and clears the bag. Members are disposed
// outside the lock so they may insert into or dispose the bag themselves.
func (b *DisposeBag) Dispose() {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	b.disposed = true
	items := b.items
	b.items = nil
	b.mu.Unlock()

	for _, d := range items {
		d.Dispose()
	}
}

// Reset disposes the current members and makes the bag usable again.
func (b *DisposeBag) Reset() {
	b.Dispose()
	b.mu.Lock()
	b.disposed = false
	b.mu.Unlock()
}

func (b *DisposeBag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *DisposeBag) IsDisposed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disposed
}

// DisposedBy inserts 'd' into 'bag' and returns it.
func DisposedBy(d Disposable, bag *DisposeBag) Disposable {
	bag.Insert(d)
	return d
}
