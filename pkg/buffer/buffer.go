package buffer

import (
	"sync"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// DropCallback is called for each item dropped by Clear or Close.
type DropCallback[T any] func(item T)

// Queue is a thread-safe unbounded FIFO queue. Enqueue never blocks;
// Dequeue blocks until an item is available or the queue is closed.
// Statistics are always collected; Prometheus metrics are optional via
// WithMetrics.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []T
	head     int // index of the next item to dequeue
	closed   bool
	stats    *Statistics
	metrics  *queueMetrics
	opts     *queueOptions[T]
}

// NewQueue creates an unbounded FIFO queue with the given options.
// Returns an error if metrics registration fails when metrics are requested.
func NewQueue[T any](options ...Option[T]) (*Queue[T], error) {
	opts := applyOptions(options...)

	var metrics *queueMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newQueueMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Queue", "NewQueue", "metrics registration")
		}
	}

	q := &Queue[T]{
		items:   make([]T, 0, opts.initialCapacity),
		stats:   NewStatistics(),
		metrics: metrics,
		opts:    opts,
	}
	q.notEmpty = sync.NewCond(&q.mu)

	return q, nil
}

// Enqueue appends an item to the queue. It never blocks; the backing slice
// grows as needed. Returns an invalid-class error after Close.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrClientClosed, "Queue", "Enqueue", "queue closed")
	}

	q.items = append(q.items, item)
	depth := len(q.items) - q.head

	q.stats.Enqueue()
	q.stats.UpdateDepth(int64(depth))
	if q.metrics != nil {
		q.metrics.recordEnqueue(depth)
	}

	q.notEmpty.Signal()

	return nil
}

// Dequeue removes and returns the oldest item, blocking until one is
// available. It returns the zero value and false once the queue is closed;
// items pending at Close are dropped, not drained.
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.head == len(q.items) {
		q.notEmpty.Wait()
	}

	var zero T
	if q.closed {
		return zero, false
	}

	return q.pop(), true
}

// TryDequeue removes and returns the oldest item without blocking.
// Returns the zero value and false if the queue is empty or closed.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.closed || q.head == len(q.items) {
		return zero, false
	}

	return q.pop(), true
}

// pop removes the head item. Caller must hold q.mu with at least one item
// present.
func (q *Queue[T]) pop() T {
	var zero T

	item := q.items[q.head]
	q.items[q.head] = zero // release for GC
	q.head++

	// Reclaim the consumed prefix once it dominates the backing slice.
	if q.head > 32 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		for i := n; i < len(q.items); i++ {
			q.items[i] = zero
		}
		q.items = q.items[:n]
		q.head = 0
	}

	depth := len(q.items) - q.head

	q.stats.Dequeue()
	q.stats.UpdateDepth(int64(depth))
	if q.metrics != nil {
		q.metrics.recordDequeue(depth)
	}

	return item
}

// Size returns the current number of items in the queue.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// IsEmpty returns true if the queue contains no items.
func (q *Queue[T]) IsEmpty() bool {
	return q.Size() == 0
}

// Clear removes all pending items. Removed items count as drops and are
// passed to the drop callback if one is set.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	dropped := q.detachPending()
	q.mu.Unlock()

	q.finishDrop(dropped)
}

// Close shuts down the queue. Pending items are dropped, blocked Dequeue
// callers wake up and return false, and subsequent Enqueue calls fail.
// Closing an already-closed queue is a no-op.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	dropped := q.detachPending()
	q.notEmpty.Broadcast()
	q.mu.Unlock()

	q.finishDrop(dropped)

	return nil
}

// detachPending removes all pending items and returns them. Caller must
// hold q.mu.
func (q *Queue[T]) detachPending() []T {
	if q.head == len(q.items) {
		return nil
	}

	dropped := make([]T, len(q.items)-q.head)
	copy(dropped, q.items[q.head:])

	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.items = q.items[:0]
	q.head = 0

	return dropped
}

// finishDrop records drops for detached items and runs the drop callback
// outside the lock.
func (q *Queue[T]) finishDrop(dropped []T) {
	if len(dropped) == 0 {
		return
	}

	q.stats.DropN(int64(len(dropped)))
	q.stats.UpdateDepth(0)
	if q.metrics != nil {
		q.metrics.recordDrops(len(dropped), 0)
	}

	if q.opts.dropCallback != nil {
		for _, item := range dropped {
			q.opts.dropCallback(item)
		}
	}
}

// Stats returns queue statistics.
func (q *Queue[T]) Stats() *Statistics {
	return q.stats
}
