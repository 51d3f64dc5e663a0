// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package bind

import (
	"sync"

	"github.com/samber/lo"

	"github.com/rxdemo/rxusers/stream"
)

// RowFunc configures the row at index 'row' for 'item'.
type RowFunc[T, R any] func(row int, item T) R

// List holds the rows of a list widget. Each batch of items received replaces
// all rows. Rows that implement stream.Disposable are disposed when they are
// replaced or the binding is disposed, releasing their own bindings.
type List[T, R any] struct {
	rowFunc RowFunc[T, R]

	mu      sync.RWMutex
	rows    []R
	reloads int

	reloaded *stream.Subject[[]R]
}

func NewList[T, R any](rowFunc RowFunc[T, R]) *List[T, R] {
	return &List[T, R]{
		rowFunc:  rowFunc,
		reloaded: stream.NewSubject[[]R](),
	}
}

// Bind reloads the list from each item of 'src'. Disposing the result stops
// the updates and disposes the current rows.
func (l *List[T, R]) Bind(src stream.Observable[[]T]) stream.Disposable {
	sub := stream.Subscribe(src, stream.ObserverFuncs[[]T]{Next: l.reload})
	return stream.NewDisposable(func() {
		sub.Dispose()
		l.mu.Lock()
		rows := l.rows
		l.rows = nil
		l.mu.Unlock()
		disposeRows(rows)
	})
}

func (l *List[T, R]) reload(items []T) {
	rows := lo.Map(items, func(item T, i int) R {
		return l.rowFunc(i, item)
	})

	l.mu.Lock()
	prev := l.rows
	l.rows = rows
	l.reloads++
	l.mu.Unlock()

	disposeRows(prev)
	l.reloaded.OnNext(append([]R(nil), rows...))
}

func disposeRows[R any](rows []R) {
	for _, row := range rows {
		if d, ok := any(row).(stream.Disposable); ok {
			d.Dispose()
		}
	}
}

// Rows returns a copy of the current rows.
func (l *List[T, R]) Rows() []R {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]R(nil), l.rows...)
}

func (l *List[T, R]) Row(i int) (row R, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.rows) {
		return row, false
	}
	return l.rows[i], true
}

func (l *List[T, R]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// Reloads is the number of times the rows have been replaced.
func (l *List[T, R]) Reloads() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reloads
}

// Reloaded emits the new rows after each reload.
func (l *List[T, R]) Reloaded() stream.Observable[[]R] {
	return l.reloaded
}
