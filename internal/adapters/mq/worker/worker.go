// Package worker runs queued commands one at a time.
//
// The dispatcher is the app's single logical thread: every session mutation
// and every analytics fetch goes through it, so state transitions never
// interleave.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const slowCommandThreshold = 2 * time.Second

// Queue is the subset of queue.Queue the dispatcher consumes.
type Queue interface {
	Enqueue(ctx context.Context, c queue.Command) bool
	Dequeue(ctx context.Context) <-chan queue.Command
	Close() error
	IsClosed() bool
}

// Worker processes commands until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops accepting work and waits for queued commands to finish.
	Shutdown(ctx context.Context) error
}

// Dispatcher executes commands sequentially in arrival order.
type Dispatcher struct {
	queue Queue
	name  string

	done     chan struct{}
	doneOnce sync.Once

	logger logger.Logger
}

var _ Worker = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher reading from q.
func NewDispatcher(q Queue, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:  q,
		name:   "dispatcher",
		done:   make(chan struct{}),
		logger: logger.Get().Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.name != "dispatcher" {
		d.logger = d.logger.Named(d.name)
	}
	return d
}

// Run starts the dispatch loop. It returns when ctx is canceled or the
// queue is closed and drained.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.doneOnce.Do(func() { close(d.done) })

	commands := d.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-commands:
			if !ok {
				return
			}
			d.execute(ctx, c)
		}
	}
}

// Shutdown closes the queue and waits for the loop to drain it.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if err := d.queue.Close(); err != nil {
		d.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Post queues fn without waiting for it to run.
func (d *Dispatcher) Post(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	_, err := d.enqueue(ctx, name, fn)
	return err
}

// Submit queues fn and blocks until it has run. fn must not call Submit on
// the same dispatcher.
func (d *Dispatcher) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	c, err := d.enqueue(ctx, name, fn)
	if err != nil {
		return err
	}

	select {
	case err := <-c.Done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		// the loop may have finished this command right before exiting
		select {
		case err := <-c.Done:
			return err
		default:
			return queue.ErrStopped
		}
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, name string, fn func(ctx context.Context) error) (queue.Command, error) {
	if d.queue.IsClosed() {
		return queue.Command{}, queue.ErrStopped
	}
	c := queue.NewCommand(name, fn)
	if !d.queue.Enqueue(ctx, c) {
		if d.queue.IsClosed() {
			return queue.Command{}, queue.ErrStopped
		}
		if ctx.Err() != nil {
			return queue.Command{}, ctx.Err()
		}
		return queue.Command{}, queue.ErrBackpressure
	}
	return c, nil
}

func (d *Dispatcher) execute(ctx context.Context, c queue.Command) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	start := time.Now()
	err := d.run(ctx, c)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordErrorByComponent("dispatcher", c.Name)
		d.logger.Debug(ctx, "command failed",
			logger.String("command", c.Name),
			logger.String("id", c.ID),
			logger.Error(err),
		)
	}
	if elapsed > slowCommandThreshold {
		d.logger.Warn(ctx, "slow command",
			logger.String("command", c.Name),
			logger.Duration("elapsed", elapsed),
		)
	}
	c.Done <- err
}

func (d *Dispatcher) run(ctx context.Context, c queue.Command) (err error) { //nolint:gocritic // hugeParam
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "command panicked", logger.String("command", c.Name), logger.Any("panic", r))
			err = fmt.Errorf("command %s panicked: %v", c.Name, r)
		}
	}()
	return c.Run(ctx)
}
