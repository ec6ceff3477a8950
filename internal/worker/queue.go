// Package worker implements the bounded background task queue, its single
// consumer loop, and the bulk price-update job body.
package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultQueueCapacity bounds the queue when no explicit capacity is given.
const DefaultQueueCapacity = 100

// Task is one deferred unit of work: the job's id plus its typed parameters.
// Tasks are plain values so they can be inspected in tests and logs; the
// executor owns the behaviour.
type Task struct {
	JobID   uuid.UUID
	Percent decimal.Decimal
}

// Queue is a FIFO, bounded, multi-producer single-consumer task queue.
// A full queue suspends producers (backpressure) rather than dropping work
// or growing without bound. The single-consumer discipline is enforced by
// construction: exactly one Worker drains the queue.
type Queue struct {
	tasks chan Task
}

// NewQueue creates a queue with the given capacity; non-positive values fall
// back to DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{tasks: make(chan Task, capacity)}
}

// Enqueue adds a task, blocking while the queue is full until space frees or
// ctx is cancelled. Safe for concurrent producers.
func (q *Queue) Enqueue(ctx context.Context, t Task) error {
	select {
	case q.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest task, blocking while the queue is empty until a
// task arrives or ctx is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case t := <-q.tasks:
		return t, nil
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// Len returns the number of queued tasks. Intended for observability; the
// value is immediately stale under concurrency.
func (q *Queue) Len() int {
	return len(q.tasks)
}
