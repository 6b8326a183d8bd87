// Package queue holds the bounded command queue that feeds the dispatcher.
//
// Every state mutation in the app is expressed as a Command so that a single
// consumer can apply them in arrival order.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bullseye/pkg/metrics"
)

const defaultQueueCapacity = 64

// Command is a unit of work submitted to the dispatcher.
type Command struct {
	ID       string
	Name     string
	Run      func(ctx context.Context) error
	Enqueued time.Time

	// Done receives the result of Run exactly once. It is buffered so the
	// consumer never blocks on an abandoned submitter.
	Done chan error
}

// NewCommand builds a command with a fresh ID and result channel.
func NewCommand(name string, run func(ctx context.Context) error) Command {
	return Command{
		ID:       uuid.NewString(),
		Name:     name,
		Run:      run,
		Enqueued: time.Now(),
		Done:     make(chan error, 1),
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a command. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, c Command) bool

	// Dequeue returns a channel that receives commands in arrival order.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Command

	Len(ctx context.Context) int

	// Close stops accepting commands. Already queued commands stay readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	commands chan Command
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.commands = make(chan Command, q.capacity)
	metrics.UpdateCommandQueueSize(0)

	return q
}

// Enqueue adds a command to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Command) bool { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordCommandRejected()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.commands <- c:
		metrics.UpdateCommandQueueSize(len(q.commands))
		return true
	case <-ctx.Done():
		metrics.RecordCommandRejected()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordCommandRejected()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive commands as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Command {
	out := make(chan Command)
	go func() {
		defer close(out)
		for c := range q.commands {
			select {
			case out <- c:
				metrics.UpdateCommandQueueSize(len(q.commands))
			case <-ctx.Done():
				c.Done <- ctx.Err()
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued commands.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	n := len(q.commands)
	metrics.UpdateCommandQueueSize(n)
	return n
}

// Close stops the queue from accepting new commands.
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
