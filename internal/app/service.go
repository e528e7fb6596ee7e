// Package service owns the live form sessions and the dependencies they
// share: modality metadata, the roster provider and the session store.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/placar/internal/adapters/mq/queue"
	"github.com/okian/placar/internal/adapters/mq/worker"
	"github.com/okian/placar/internal/adapters/repository"
	"github.com/okian/placar/internal/adapters/surface"
	"github.com/okian/placar/internal/app/form"
	"github.com/okian/placar/internal/domain/dedupe"
	"github.com/okian/placar/internal/domain/guard"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/model"
	"github.com/okian/placar/internal/domain/roster"
	"github.com/okian/placar/pkg/logger"
)

// Service implements the API dependencies for match-entry forms.
type Service struct {
	mu sync.RWMutex

	store    *repository.MemoryStore
	provider roster.Provider
	meta     match.Metadata

	queueSize     int
	dedupeSize    int
	idleTimeout   time.Duration
	maxAge        time.Duration
	sweepInterval time.Duration

	started bool
	logger  logger.Logger
}

// OpenRequest describes a new form. Metadata, when set, replaces the
// service's modality metadata for this form only.
type OpenRequest struct {
	Championship string
	Values       map[match.Field]string
	Metadata     *match.Metadata
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		provider:      roster.ProviderFunc(func(context.Context, string) ([]roster.Team, error) { return nil, nil }),
		queueSize:     64,
		dedupeSize:    1024,
		idleTimeout:   30 * time.Minute,
		maxAge:        12 * time.Hour,
		sweepInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the session store and its sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewMemoryStore(ctx,
		repository.WithIdleTimeout(s.idleTimeout),
		repository.WithMaxAge(s.maxAge),
		repository.WithSweepInterval(s.sweepInterval),
	)
	s.started = true
	s.logger.Info(ctx, "form service started",
		logger.Int("modalities", s.meta.Len()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("idleTimeout", s.idleTimeout),
	)
	return nil
}

// Stop closes every session.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(ctx); err != nil {
		s.logger.Warn(ctx, "closing sessions", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "form service stopped")
}

func (s *Service) sessions() (*repository.MemoryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Open creates a session, renders the form once and requests the roster of
// the championship, if any.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}

	meta := s.meta
	if req.Metadata != nil {
		meta = *req.Metadata
	}

	values := make(map[match.Field]string, len(req.Values)+1)
	for k, v := range req.Values {
		values[k] = v
	}
	if req.Championship != "" {
		values[match.FieldChampionship] = req.Championship
	}

	id := uuid.NewString()
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l := s.logger.Named("session").With(logger.String("session", id))

	sess := &Session{
		id:           id,
		championship: req.Championship,
		created:      time.Now(),
		form:         surface.New(values),
		queue:        queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize)),
		deduper:      dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize)),
		subs:         make(map[int]chan Event),
		cancel:       cancel,
		logger:       l,
	}
	sess.touch()

	g := guard.New(
		guard.WithNotifier(guard.NotifyFunc(sess.notify)),
		guard.WithLogger(l),
	)
	ctrl, err := form.New(sess.form.Bindings(), meta,
		form.WithGuard(g),
		form.WithRosterRequester(s.rosterRequester(sctx, sess)),
		form.WithLogger(l),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open form: %w", err)
	}
	sess.controller = ctrl
	sess.dispatcher = worker.NewDispatcher(sess.queue, sess, worker.WithName(id), worker.WithLogger(l))

	sess.remember(ctrl.Render(sctx))
	if values[match.FieldChampionship] != "" {
		ctrl.LoadRoster(sctx)
	}
	go sess.dispatcher.Run(sctx)

	if err := store.Put(ctx, sess); err != nil {
		_ = sess.Close(ctx, repository.ReasonShutdown)
		return nil, err
	}
	l.Info(ctx, "session opened", logger.String("championship", req.Championship))
	return sess, nil
}

// rosterRequester fetches in the background and feeds the response back
// through the session queue so it is applied in order with other commands.
// A full queue delays the response instead of dropping it; a response
// superseded meanwhile is discarded by its token.
func (s *Service) rosterRequester(ctx context.Context, sess *Session) form.RosterRequester {
	return func(_ context.Context, championshipID, token string) {
		go func() {
			teams, err := s.provider.Teams(ctx, championshipID)
			if ctx.Err() != nil {
				return
			}
			cmd := model.Command{
				Kind:         model.RosterLoaded,
				Championship: championshipID,
				Token:        token,
				Teams:        teams,
				FetchErr:     err,
				Enqueued:     time.Now(),
			}
			if qerr := sess.deliver(ctx, cmd); qerr != nil && ctx.Err() == nil {
				sess.logger.Warn(ctx, "dropping roster response", logger.Error(qerr))
			}
		}()
	}
}

// Session returns a live session.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, ok := got.(*Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close removes and closes a session.
func (s *Service) Close(ctx context.Context, id string) error {
	store, err := s.sessions()
	if err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

// Sweep expires idle and over-age sessions now.
func (s *Service) Sweep(ctx context.Context) int {
	store, err := s.sessions()
	if err != nil {
		return 0
	}
	return store.Sweep(ctx)
}

// Metadata returns the modality metadata offered to new forms.
func (s *Service) Metadata() match.Metadata { return s.meta }

// Teams looks up a championship roster directly.
func (s *Service) Teams(ctx context.Context, championshipID string) ([]roster.Team, error) {
	return s.provider.Teams(ctx, championshipID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started, store := s.started, s.store
	s.mu.RUnlock()

	stats := map[string]any{
		"started":    started,
		"modalities": s.meta.Len(),
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
	}
	if !started {
		return stats
	}

	sessions := store.List(ctx)
	queued := 0
	for _, sess := range sessions {
		if fs, ok := sess.(*Session); ok {
			queued += fs.Pending()
		}
	}
	stats["sessions"] = len(sessions)
	stats["queuedCommands"] = queued
	return stats
}
