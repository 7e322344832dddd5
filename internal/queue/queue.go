// Package queue is an in-memory FIFO shared by one producer side and a single consumer.
package queue

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrClosed = errors.New("queue: closed")
	// ErrWoken is returned by Get when the wake channel fired while the queue was empty.
	ErrWoken = errors.New("queue: woken while empty")
)

// Queue is safe for concurrent Put and Get. Put never blocks.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	// ready is closed and replaced whenever an item arrives.
	ready chan struct{}
}

func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{})}
}

// Put appends v and returns its 1-based position in the queue.
func (q *Queue[T]) Put(v T) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrClosed
	}
	q.items = append(q.items, v)
	close(q.ready)
	q.ready = make(chan struct{})
	return len(q.items), nil
}

// Get removes and returns the head, blocking while the queue is empty. It returns the
// context's error when ctx ends, ErrWoken when wake fires on an empty queue, and
// ErrClosed once the queue is closed and drained.
func (q *Queue[T]) Get(ctx context.Context, wake <-chan struct{}) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, ErrClosed
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-wake:
			if q.Len() == 0 {
				return zero, ErrWoken
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// CloseIfEmpty closes the queue only if nothing is waiting in it. Both the check and
// the close happen under one lock so a concurrent Put either lands before (and the
// close is refused) or fails with ErrClosed.
func (q *Queue[T]) CloseIfEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 {
		return false
	}
	q.closed = true
	return true
}

// Close refuses further Puts. Items already queued can still be taken with Get.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
