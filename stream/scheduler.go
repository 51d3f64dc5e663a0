// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package stream

import (
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond"
	"go.uber.org/atomic"
)

// Scheduler decides in which execution context, and when, an action runs.
type Scheduler interface {
	// Schedule runs 'action' after 'delay' has elapsed. Disposing the returned
	// Disposable before the action has started prevents it from running.
	Schedule(action func(), delay time.Duration) Disposable
}

// scheduledItem is a cancellable scheduled action.
type scheduledItem struct {
	action    func()
	cancelled atomic.Bool
	timer     *time.Timer
}

func (i *scheduledItem) run() {
	if !i.cancelled.Load() {
		i.action()
	}
}

func (i *scheduledItem) Dispose() {
	i.cancelled.Store(true)
	if i.timer != nil {
		i.timer.Stop()
	}
}

//
// Immediate
//

// Immediate runs actions synchronously in the caller before Schedule returns,
// sleeping for the delay first.
var Immediate Scheduler = immediateScheduler{}

type immediateScheduler struct{}

func (immediateScheduler) Schedule(action func(), delay time.Duration) Disposable {
	if delay > 0 {
		time.Sleep(delay)
	}
	action()
	return NopDisposable
}

//
// Deferred
//

type deferredScheduler struct{}

// NewDeferredScheduler returns a scheduler that runs each action in its own
// goroutine once the delay has passed.
func NewDeferredScheduler() Scheduler {
	return deferredScheduler{}
}

func (deferredScheduler) Schedule(action func(), delay time.Duration) Disposable {
	item := &scheduledItem{action: action}
	item.timer = time.AfterFunc(max(delay, 0), item.run)
	return item
}

//
// Serial
//

// SerialScheduler runs actions one at a time, in the order they became due,
// on a single goroutine. It plays the role of a UI thread: observers that
// touch UI state are moved onto it with ObserveOn.
type SerialScheduler struct {
	queue *actionQueue
	done  chan struct{}
}

func NewSerialScheduler() *SerialScheduler {
	s := &SerialScheduler{
		queue: newActionQueue(),
		done:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *SerialScheduler) loop() {
	defer close(s.done)
	for {
		item, ok := s.queue.Pop()
		if !ok {
			return
		}
		item.run()
	}
}

func (s *SerialScheduler) Schedule(action func(), delay time.Duration) Disposable {
	item := &scheduledItem{action: action}
	if delay <= 0 {
		s.queue.Push(item)
	} else {
		item.timer = time.AfterFunc(delay, func() { s.queue.Push(item) })
	}
	return item
}

// Close stops the run loop. Actions not yet started are dropped.
func (s *SerialScheduler) Close() {
	s.queue.Close()
}

// Done is closed when the run loop has exited.
func (s *SerialScheduler) Done() <-chan struct{} {
	return s.done
}

//
// Pool
//

// PoolScheduler runs actions on a worker pool.
type PoolScheduler struct {
	pool *pond.WorkerPool
}

func NewPoolScheduler(pool *pond.WorkerPool) *PoolScheduler {
	return &PoolScheduler{pool: pool}
}

func (s *PoolScheduler) Schedule(action func(), delay time.Duration) Disposable {
	item := &scheduledItem{action: action}
	submit := func() {
		if !item.cancelled.Load() {
			s.submit(item.run)
		}
	}
	if delay <= 0 {
		submit()
	} else {
		item.timer = time.AfterFunc(delay, submit)
	}
	return item
}

// submit queues 'task' on the pool, waiting for room if the queue is full.
// Tasks arriving after the pool has stopped are dropped.
func (s *PoolScheduler) submit(task func()) {
	defer func() {
		// pond panics when the pool stops while a task is being submitted.
		if r := recover(); r != nil && !s.pool.Stopped() {
			panic(r)
		}
	}()
	if !s.pool.Stopped() && !s.pool.TrySubmit(task) {
		s.pool.Submit(task)
	}
}

//
// Virtual time
//

// VirtualScheduler runs actions against a virtual clock that only moves when
// AdvanceBy or Run is called. Actions run on the goroutine advancing the
// clock. Meant for deterministic tests of time-based operators.
type VirtualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	queue []*virtualItem
}

type virtualItem struct {
	scheduledItem
	due time.Duration
	seq uint64
}

func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{}
}

func (s *VirtualScheduler) Schedule(action func(), delay time.Duration) Disposable {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := &virtualItem{due: s.now + max(delay, 0), seq: s.seq}
	item.action = action
	s.seq++
	idx := sort.Search(len(s.queue), func(i int) bool {
		q := s.queue[i]
		return q.due > item.due || (q.due == item.due && q.seq > item.seq)
	})
	s.queue = append(s.queue, nil)
	copy(s.queue[idx+1:], s.queue[idx:])
	s.queue[idx] = item
	return &item.scheduledItem
}

// Now is the virtual time elapsed since the scheduler was created.
func (s *VirtualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AdvanceBy moves the clock forward by 'd', running every action that falls
// due, including ones scheduled by the actions themselves.
func (s *VirtualScheduler) AdvanceBy(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	s.advanceTo(target)
}

// Run runs until no actions are pending.
func (s *VirtualScheduler) Run() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		target := s.queue[len(s.queue)-1].due
		s.mu.Unlock()
		s.advanceTo(target)
	}
}

// Pending returns the number of actions waiting to run, cancelled ones
// included.
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *VirtualScheduler) advanceTo(target time.Duration) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].due > target {
			if target > s.now {
				s.now = target
			}
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.now = item.due
		s.mu.Unlock()

		// Run without the lock so that the action may schedule more.
		item.run()
	}
}
