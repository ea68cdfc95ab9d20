package collector

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO that tracks acknowledgements. Every pushed
// item stays unfinished until Done is called for it, so Join waits for
// items that were popped but are still being worked on.
type Queue[T any] struct {
	mu         sync.Mutex
	items      []T
	unfinished int
	drained    chan struct{}
	notify     func()
}

// NewQueue creates an empty queue. notify, if non-nil, is called after
// every push and acknowledgement, outside the lock.
func NewQueue[T any](notify func()) *Queue[T] {
	drained := make(chan struct{})
	close(drained)
	return &Queue[T]{drained: drained, notify: notify}
}

// Push appends items and marks each unfinished.
func (q *Queue[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	if q.unfinished == 0 {
		q.drained = make(chan struct{})
	}
	q.items = append(q.items, items...)
	q.unfinished += len(items)
	q.mu.Unlock()
	q.signal()
}

// TryPop removes the head item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return item, true
}

// PopN removes up to n items in one step. Concurrent callers never
// interleave, so batches are formed from contiguous runs of the queue.
func (q *Queue[T]) PopN(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || len(q.items) == 0 {
		return nil
	}
	n = min(n, len(q.items))
	out := make([]T, n)
	copy(out, q.items[:n])
	clear(q.items[:n])
	q.items = q.items[n:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return out
}

// PopAll removes every queued item.
func (q *Queue[T]) PopAll() []T {
	q.mu.Lock()
	out := q.items
	q.items = nil
	q.mu.Unlock()
	return out
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Unfinished returns the number of pushed items not yet acknowledged.
func (q *Queue[T]) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Done acknowledges n popped items. It panics if more items are
// acknowledged than were pushed.
func (q *Queue[T]) Done(n int) {
	if n <= 0 {
		return
	}
	q.mu.Lock()
	if n > q.unfinished {
		q.mu.Unlock()
		panic("collector: Queue.Done called more times than items were pushed")
	}
	q.unfinished -= n
	if q.unfinished == 0 {
		close(q.drained)
	}
	q.mu.Unlock()
	q.signal()
}

// Join blocks until every pushed item is acknowledged or ctx is done.
func (q *Queue[T]) Join(ctx context.Context) error {
	q.mu.Lock()
	drained := q.drained
	q.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) signal() {
	if q.notify != nil {
		q.notify()
	}
}
