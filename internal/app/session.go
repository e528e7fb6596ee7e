package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/placar/internal/adapters/mq/queue"
	"github.com/okian/placar/internal/adapters/mq/worker"
	"github.com/okian/placar/internal/adapters/surface"
	"github.com/okian/placar/internal/app/form"
	"github.com/okian/placar/internal/domain/dedupe"
	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/model"
	"github.com/okian/placar/pkg/logger"
	"github.com/okian/placar/pkg/metrics"
)

const (
	subscriberBuffer       = 16
	sessionShutdownTimeout = 5 * time.Second
	deliverBackoffMin      = 10 * time.Millisecond
	deliverBackoffMax      = 500 * time.Millisecond
)

// Event types pushed to session subscribers.
const (
	EventForm   = "form"
	EventAlert  = "alert"
	EventClosed = "closed"
)

// Event is a change of the live form pushed to every subscriber.
type Event struct {
	Type    string        `json:"type"`
	Message string        `json:"message,omitempty"`
	View    *surface.View `json:"form,omitempty"`
}

// Session is one live match-entry form. All writes go through its queue and
// are applied by a single dispatcher in arrival order.
type Session struct {
	id           string
	championship string
	created      time.Time
	touched      atomic.Int64

	form       *surface.Form
	controller *form.Controller
	queue      *queue.InMemoryQueue
	dispatcher worker.Worker
	deduper    dedupe.Deduper

	// last is the most recent applied result. Readers use it instead of the
	// controller, whose lock is held for the length of a confirmation prompt.
	last atomic.Pointer[model.Result]

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool

	cancel    context.CancelFunc
	closeOnce sync.Once
	logger    logger.Logger
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Created returns when the session was opened.
func (s *Session) Created() time.Time { return s.created }

// Touched returns the time of the last submitted command.
func (s *Session) Touched() time.Time { return time.Unix(0, s.touched.Load()) }

func (s *Session) touch() { s.touched.Store(time.Now().UnixNano()) }

// View copies what the operator currently sees.
func (s *Session) View() surface.View { return s.form.View() }

// Metadata returns the modality metadata the form was opened with.
func (s *Session) Metadata() match.Metadata { return s.controller.Metadata() }

// Current returns the last applied policy, state and snapshot without
// queueing. It never waits on a change in progress.
func (s *Session) Current() model.Result {
	if r := s.last.Load(); r != nil {
		return *r
	}
	return model.Result{Snapshot: match.Read(s.form.Value)}
}

func (s *Session) remember(res model.Result) { //nolint:gocritic // hugeParam: stored by copy
	s.last.Store(&model.Result{Policy: res.Policy, State: res.State, Snapshot: res.Snapshot})
}

// Pending returns the number of queued commands.
func (s *Session) Pending() int { return s.queue.Len() }

// Change submits a field write and waits for its result. An empty id skips
// duplicate detection; cf answers confirmation prompts for this change only.
func (s *Session) Change(ctx context.Context, id string, f match.Field, value string, cf guard.Confirmer) (model.Result, error) {
	cmd := model.NewCommand(model.FieldChanged)
	cmd.ID = id
	cmd.Field = f
	cmd.Value = value
	cmd.Confirmer = cf
	return s.Submit(ctx, cmd)
}

// Refresh re-derives and re-renders the form.
func (s *Session) Refresh(ctx context.Context) (model.Result, error) {
	return s.Submit(ctx, model.NewCommand(model.Refresh))
}

// Submit queues cmd and waits for the dispatcher's reply. A change id seen
// before returns the current state flagged Duplicate without re-applying.
func (s *Session) Submit(ctx context.Context, cmd model.Command) (model.Result, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	s.touch()

	if s.deduper.SeenAndRecord(ctx, cmd.ID) {
		metrics.RecordCommandDuplicate()
		s.logger.Debug(ctx, "duplicate change ignored", logger.String("command_id", cmd.ID))
		res := s.Current()
		res.Duplicate = true
		return res, nil
	}

	if cmd.Reply == nil {
		cmd.Reply = make(chan model.Reply, 1)
	}
	if cmd.Enqueued.IsZero() {
		cmd.Enqueued = time.Now()
	}

	if err := s.queue.Enqueue(ctx, cmd); err != nil {
		s.deduper.Unrecord(ctx, cmd.ID)
		switch {
		case errors.Is(err, queue.ErrFull):
			return model.Result{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, queue.ErrStopped):
			return model.Result{}, fmt.Errorf("%w: %w", ErrSessionClosed, err)
		default:
			return model.Result{}, err
		}
	}

	select {
	case r := <-cmd.Reply:
		if r.Err != nil || errors.Is(r.Result.Decision.Err, guard.ErrConfirmationRequired) {
			// let the client resubmit the same change with an answer
			s.deduper.Unrecord(ctx, cmd.ID)
		}
		if errors.Is(r.Err, queue.ErrStopped) {
			return r.Result, fmt.Errorf("%w: %w", ErrSessionClosed, r.Err)
		}
		return r.Result, r.Err
	case <-ctx.Done():
		return model.Result{}, ctx.Err()
	}
}

// deliver queues an internal command, waiting out a full queue with a
// doubling delay. It gives up only when the session closes or ctx ends.
func (s *Session) deliver(ctx context.Context, cmd model.Command) error { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	delay := deliverBackoffMin
	for attempt := 1; ; attempt++ {
		err := s.queue.Enqueue(ctx, cmd)
		if !errors.Is(err, queue.ErrFull) {
			return err
		}
		s.logger.Debug(ctx, "queue full, retrying internal command",
			logger.String("kind", string(cmd.Kind)), logger.Int("attempt", attempt))

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, deliverBackoffMax)
	}
}

// Subscribe registers for form events. The returned function unsubscribes.
// A subscriber that falls behind misses events rather than stalling the form.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// notify is the guard's Notifier: rejection messages become alerts.
func (s *Session) notify(_ context.Context, message string) {
	s.publish(Event{Type: EventAlert, Message: message})
}

// Handle runs one command on the controller and broadcasts the new view.
func (s *Session) Handle(ctx context.Context, cmd model.Command) (model.Result, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	res, err := s.controller.Handle(ctx, cmd)
	if err == nil && !res.Stale {
		s.remember(res)
		v := s.form.View()
		s.publish(Event{Type: EventForm, View: &v})
	}
	return res, err
}

// Close stops the dispatcher and releases subscribers. Later submissions
// fail with ErrSessionClosed.
func (s *Session) Close(ctx context.Context, reason string) error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.queue.Close()
		s.cancel()

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionShutdownTimeout)
		defer cancel()
		err = s.dispatcher.Shutdown(sctx)

		s.mu.Lock()
		s.closed = true
		for id, ch := range s.subs {
			select {
			case ch <- Event{Type: EventClosed, Message: reason}:
			default:
			}
			close(ch)
			delete(s.subs, id)
		}
		s.mu.Unlock()

		s.logger.Info(ctx, "session closed", logger.String("reason", reason))
	})
	return err
}
