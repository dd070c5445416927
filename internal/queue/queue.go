// Package queue provides a bounded FIFO ring that hands decoded records from
// the feed producer to the storage consumer. Producers never block: a full
// queue rejects the push and the caller sheds the rest of its batch.
// Consumers block on a condition variable while the queue is empty.
package queue

import (
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the number of records buffered between one feed cycle
// and the consumer.
const DefaultCapacity = 1024

var ErrCapacity = errors.New("queue capacity must be positive")

// Queue is a fixed-capacity circular buffer safe for any number of
// producers and consumers.
type Queue[T any] struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	buf      []T
	head     int // next slot to read
	count    int

	shutdown atomic.Bool
}

// New allocates a queue holding at most capacity items.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrCapacity
	}
	q := &Queue[T]{buf: make([]T, capacity)}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Push appends item without blocking. It returns false when the queue is
// full; the item is dropped and queued items are untouched.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	if q.count == len(q.buf) {
		q.mu.Unlock()
		return false
	}
	tail := q.head + q.count
	if tail >= len(q.buf) {
		tail -= len(q.buf)
	}
	q.buf[tail] = item
	q.count++
	q.mu.Unlock()

	q.nonEmpty.Signal()
	return true
}

// Pop removes the oldest item, blocking while the queue is empty. Once
// shutdown has been signaled it keeps returning queued items and reports
// false only after the queue has drained.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 {
		if q.shutdown.Load() {
			var zero T
			return zero, false
		}
		q.nonEmpty.Wait()
	}

	return q.takeLocked(), true
}

// TryPop removes the oldest item if one is available.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.takeLocked(), true
}

// takeLocked dequeues the head item. q.mu must be held and count > 0.
func (q *Queue[T]) takeLocked() T {
	item := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero
	q.head++
	if q.head == len(q.buf) {
		q.head = 0
	}
	q.count--
	return item
}

// SignalShutdown marks the queue as shut down and wakes every blocked
// consumer. Queued items stay deliverable. Safe to call more than once.
func (q *Queue[T]) SignalShutdown() {
	q.mu.Lock()
	q.shutdown.Store(true)
	q.mu.Unlock()
	q.nonEmpty.Broadcast()
}

// IsShutdown reports whether SignalShutdown has been called.
func (q *Queue[T]) IsShutdown() bool {
	return q.shutdown.Load()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}
