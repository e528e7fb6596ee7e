// Package queue holds the pending commands of one form session.
//
// The queue is a bounded FIFO: commands are handed to the single consumer in
// arrival order, and a full queue refuses new commands instead of blocking
// the submitter.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/placar/internal/domain/model"
	"github.com/okian/placar/pkg/metrics"
)

const defaultQueueCapacity = 64

// Command is the payload flowing through the queue.
type Command = model.Command

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue appends a command. It returns ErrFull when the backlog is at
	// capacity and ErrStopped after Close.
	Enqueue(ctx context.Context, c Command) error

	// Dequeue returns the channel commands are delivered on, in order. It
	// is closed once the queue is closed and drained.
	Dequeue() <-chan Command

	// Len returns the current number of queued commands.
	Len() int

	// Close stops accepting commands.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	commands chan Command
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.commands = make(chan Command, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	return q
}

// Enqueue adds a command to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Command) error { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrStopped
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.commands <- c:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(1)
		metrics.UpdateQueueUtilization(float64(len(q.commands)) / float64(q.capacity))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue. Callers must report each
// received command with Done so the size gauge stays accurate.
func (q *InMemoryQueue) Dequeue() <-chan Command {
	return q.commands
}

// Done records that a dequeued command left the queue.
func (q *InMemoryQueue) Done() {
	metrics.RecordQueueDequeue()
	metrics.UpdateQueueSize(-1)
	metrics.UpdateQueueUtilization(float64(len(q.commands)) / float64(q.capacity))
}

// Len returns the current number of queued commands.
func (q *InMemoryQueue) Len() int {
	return len(q.commands)
}

// Close stops accepting commands. Queued commands stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.commands)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
