// Package session owns the mapping from session id to dialog state. Distinct
// sessions never contend; all transitions for one id are serialized behind a
// per-slot mutex, so a double-tap on a menu button cannot interleave two
// read-modify-write cycles.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itpurple/stylist/internal/domain"
)

type entry struct {
	mu       sync.Mutex
	sess     *domain.Session
	lastSeen time.Time
}

// Store is an in-memory session store. Sessions do not survive a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// slot returns the locked entry for id, creating it if needed. The caller
// must release entry.mu. The re-check after locking guards against a sweep
// removing the entry while we waited on it.
func (s *Store) slot(id string) *entry {
	for {
		s.mu.Lock()
		e, ok := s.sessions[id]
		if !ok {
			e = &entry{}
			s.sessions[id] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		s.mu.Lock()
		current := s.sessions[id]
		s.mu.Unlock()
		if current == e {
			return e
		}
		e.mu.Unlock()
	}
}

// Do runs fn with exclusive access to the session for id. fn receives nil
// when the id has not been seen; whatever fn returns becomes the stored
// session, and returning nil removes the slot. fn must not start blocking
// I/O: the slot stays locked for its whole duration.
func (s *Store) Do(id string, fn func(sess *domain.Session) (*domain.Session, error)) error {
	e := s.slot(id)
	defer e.mu.Unlock()

	sess, err := fn(e.sess)
	if err != nil {
		return err
	}
	e.sess = sess
	e.lastSeen = time.Now()

	if sess == nil {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}
	return nil
}

// Delete drops the session for id, if any.
func (s *Store) Delete(id string) {
	e := s.slot(id)
	defer e.mu.Unlock()
	e.sess = nil
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SweepIdle removes sessions idle longer than ttl and returns how many were
// dropped.
func (s *Store) SweepIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	var stale []string
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	removed := 0
	for _, id := range stale {
		e := s.slot(id)
		if !e.lastSeen.Before(cutoff) {
			// Touched while we were sweeping.
			e.mu.Unlock()
			continue
		}
		e.sess = nil
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		e.mu.Unlock()
		removed++
	}
	return removed
}

const sweepInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically drops idle
// sessions until ctx is cancelled.
func StartTTLWorker(ctx context.Context, store *Store, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session TTL worker started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if removed := store.SweepIdle(ttl); removed > 0 {
					slog.Info("Dropped idle sessions", "count", removed)
				}
			case <-ctx.Done():
				slog.Info("Session TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
