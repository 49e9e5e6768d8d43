// Package store holds validated telemetry tables for the lifetime of a
// dashboard session. Storage is in-memory only: a session owns exactly one
// (table, report) pair, is looked up by a generated id, and disappears when
// it expires or is replaced. Nothing is persisted across restarts.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qyrowren/flightdeck/internal/telemetry"
)

// ErrNotFound is returned when a session id is unknown or already expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 30 * time.Minute

// DefaultSweepInterval is how often expired sessions are collected.
const DefaultSweepInterval = time.Minute

// Session is one uploaded file's validated output.
type Session struct {
	ID        string
	FileName  string
	CreatedAt time.Time
	Table     *telemetry.Table
	Report    telemetry.Report

	lastAccess time.Time
}

// Store is a TTL-bounded, concurrency-safe session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a store whose sessions expire ttl after their last access, and
// starts the background sweep. Close releases the sweeper.
func New(ttl, sweepInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweep(sweepInterval)
	return s
}

// Put registers a validated table under a fresh session id.
func (s *Store) Put(fileName string, table *telemetry.Table, report telemetry.Report) *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.NewString(),
		FileName:   fileName,
		CreatedAt:  now,
		Table:      table,
		Report:     report,
		lastAccess: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session and refreshes its expiry clock.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	sess.lastAccess = time.Now()
	return sess, nil
}

// Delete discards a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background sweeper. Idempotent.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.expire(now)
		}
	}
}

func (s *Store) expire(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastAccess) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
