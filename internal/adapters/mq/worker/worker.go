// Package worker runs the single consumer of a form session's command queue.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/placar/internal/adapters/mq/queue"
	"github.com/okian/placar/internal/domain/model"
	"github.com/okian/placar/pkg/logger"
	"github.com/okian/placar/pkg/metrics"
)

// Command abstracts what the dispatcher reads off the queue.
type Command = model.Command

// Handler applies one command to the session's form.
type Handler interface {
	Handle(ctx context.Context, cmd model.Command) (model.Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd model.Command) (model.Result, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, cmd model.Command) (model.Result, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	return f(ctx, cmd)
}

// Queue defines how the dispatcher receives commands.
type Queue interface {
	Dequeue() <-chan Command
	Done()
}

// Worker drains a queue until it is stopped.
type Worker interface {
	// Run starts the loop until ctx is canceled or the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the loop. Commands still queued are answered with
	// queue.ErrStopped.
	Shutdown(ctx context.Context) error
}

var _ Worker = (*Dispatcher)(nil)

// Dispatcher hands commands to a Handler one at a time, in queue order.
type Dispatcher struct {
	queue   Queue
	handler Handler
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewDispatcher creates a dispatcher with configuration options.
func NewDispatcher(q Queue, h Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    q,
		handler:  h,
		name:     "dispatcher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.name != "dispatcher" {
		d.logger = d.logger.Named(d.name)
	}
	return d
}

// Run starts the dispatch loop.
func (d *Dispatcher) Run(ctx context.Context) {
	metrics.AddWorkerActiveCount(1)
	defer func() {
		metrics.AddWorkerActiveCount(-1)
		close(d.done)
	}()

	commands := d.queue.Dequeue()
	for {
		// a pending shutdown wins over queued work
		select {
		case <-d.shutdown:
			d.drain(commands)
			return
		default:
		}

		select {
		case <-ctx.Done():
			d.drain(commands)
			return
		case <-d.shutdown:
			d.drain(commands)
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			d.queue.Done()
			d.process(ctx, cmd)
		}
	}
}

// Shutdown stops the loop and waits for the command in flight.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	select {
	case <-d.shutdown:
	default:
		close(d.shutdown)
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once the loop has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) process(ctx context.Context, cmd Command) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if !cmd.Enqueued.IsZero() {
			metrics.RecordCommandLatency(string(cmd.Kind), float64(time.Since(cmd.Enqueued).Microseconds())/1000)
		}
	}()

	res, err := d.handler.Handle(ctx, cmd)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "command_failed")
		d.logger.Warn(ctx, "command failed",
			logger.String("command_id", cmd.ID),
			logger.String("kind", string(cmd.Kind)),
			logger.Error(err),
		)
	}
	cmd.Respond(res, err)
}

// drain answers whatever is still buffered so no submitter waits forever.
func (d *Dispatcher) drain(commands <-chan Command) {
	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			d.queue.Done()
			cmd.Respond(model.Result{}, queue.ErrStopped)
		default:
			return
		}
	}
}
