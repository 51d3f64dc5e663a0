// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"container/list"
	"sync"
)

// actionQueue is an unbounded FIFO of scheduled actions consumed by a single
// run loop. Pop blocks until an action is available or the queue is closed.
type actionQueue struct {
	sync.Mutex

	// nonEmptyCond is used to wait for items when popping
	nonEmptyCond *sync.Cond

	queue  *list.List
	closed bool
}

func newActionQueue() *actionQueue {
	q := &actionQueue{
		queue: list.New(),
	}
	q.nonEmptyCond = sync.NewCond(q)
	return q
}

// Close wakes up the consumer. Actions still queued are dropped.
func (q *actionQueue) Close() {
	q.Lock()
	q.closed = true
	q.queue.Init()
	q.nonEmptyCond.Broadcast()
	q.Unlock()
}

// Push appends an action. Returns false if the queue is closed.
func (q *actionQueue) Push(item *scheduledItem) bool {
	q.Lock()
	defer q.Unlock()

	if q.closed {
		return false
	}
	q.queue.PushBack(item)
	q.nonEmptyCond.Signal()
	return true
}

func (q *actionQueue) Pop() (item *scheduledItem, ok bool) {
	q.Lock()
	defer q.Unlock()

	// If the queue is empty, wait until an item is pushed.
	for !q.closed && q.queue.Front() == nil {
		q.nonEmptyCond.Wait()
	}

	if q.closed {
		return nil, false
	}
	return q.queue.Remove(q.queue.Front()).(*scheduledItem), true
}

func (q *actionQueue) Len() int {
	q.Lock()
	defer q.Unlock()
	return q.queue.Len()
}
