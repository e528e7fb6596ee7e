// Package repository keeps the live form sessions.
package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/placar/pkg/metrics"
)

// Expiry reasons reported to metrics and to Close.
const (
	ReasonIdle     = "idle"
	ReasonMaxAge   = "max_age"
	ReasonDeleted  = "deleted"
	ReasonShutdown = "shutdown"
)

// Session is what the store tracks. Close releases the session's queue and
// dispatcher; it is called exactly once, after removal from the store.
type Session interface {
	ID() string
	Created() time.Time
	Touched() time.Time
	Close(ctx context.Context, reason string) error
}

// Store provides access to live sessions.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) []Session
	Len(ctx context.Context) int
}

// MemoryStore is an in-process Store with idle and max-age expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	closed   bool

	idleTimeout   time.Duration
	maxAge        time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs a store and starts its sweeper, which stops when
// ctx ends or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:      make(map[string]Session),
		idleTimeout:   30 * time.Minute,
		maxAge:        12 * time.Hour,
		sweepInterval: time.Minute,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateActiveSessions(0)
	s.startSweeper(ctx)
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Put registers a new session.
func (s *MemoryStore) Put(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.sessions[sess.ID()]; ok {
		metrics.RecordErrorByComponent("repository", "duplicate_session")
		return ErrSessionExists
	}
	s.sessions[sess.ID()] = sess
	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

// Get returns a live session.
func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes and closes a session.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	sess, ok := s.remove(id)
	if !ok {
		return ErrSessionNotFound
	}
	metrics.RecordSessionExpired(ReasonDeleted)
	return sess.Close(ctx, ReasonDeleted)
}

// List returns the live sessions ordered by creation time.
func (s *MemoryStore) List(_ context.Context) []Session {
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Session) int {
		if c := a.Created().Compare(b.Created()); c != 0 {
			return c
		}
		if a.ID() < b.ID() {
			return -1
		}
		return 1
	})
	return out
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes every expired session and returns how many it removed.
func (s *MemoryStore) Sweep(ctx context.Context) int {
	now := s.now()
	type expired struct {
		sess   Session
		reason string
	}
	var victims []expired

	s.mu.Lock()
	for id, sess := range s.sessions {
		reason := ""
		switch {
		case now.Sub(sess.Created()) > s.maxAge:
			reason = ReasonMaxAge
		case now.Sub(sess.Touched()) > s.idleTimeout:
			reason = ReasonIdle
		default:
			continue
		}
		delete(s.sessions, id)
		victims = append(victims, expired{sess: sess, reason: reason})
	}
	metrics.UpdateActiveSessions(len(s.sessions))
	s.mu.Unlock()

	for _, v := range victims {
		metrics.RecordSessionExpired(v.reason)
		if err := v.sess.Close(ctx, v.reason); err != nil {
			metrics.RecordErrorByComponent("repository", "close_failed")
		}
	}
	return len(victims)
}

// Close stops the sweeper and closes every remaining session.
func (s *MemoryStore) Close(ctx context.Context) error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()

	s.mu.Lock()
	s.closed = true
	rest := s.sessions
	s.sessions = make(map[string]Session)
	metrics.UpdateActiveSessions(0)
	s.mu.Unlock()

	var first error
	for _, sess := range rest {
		metrics.RecordSessionExpired(ReasonShutdown)
		if err := sess.Close(ctx, ReasonShutdown); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *MemoryStore) remove(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.UpdateActiveSessions(len(s.sessions))
	}
	return sess, ok
}
