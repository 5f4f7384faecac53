// Package pending holds per-phone in-flight interaction state for staff
// flows (document uploads, CSV imports). State is in-memory and deliberately
// lost on restart; every stored value carries a TTL so an abandoned flow
// cannot wedge a phone.
package pending

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long an interaction may sit unanswered before it is
// cleared and the owner notified.
const DefaultTTL = 30 * time.Minute

// ExpiredFunc is invoked (on its own goroutine) when a pending interaction
// times out, so the owner can be told their flow was discarded.
type ExpiredFunc func(phone string, value any)

type entry struct {
	value   any
	expires time.Time
	timer   *time.Timer
}

// Store keeps at most one pending interaction per phone.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*entry
	ttl       time.Duration
	onExpired ExpiredFunc
}

// NewStore creates a store with the given TTL; ttl <= 0 uses DefaultTTL.
func NewStore(ttl time.Duration, onExpired ExpiredFunc) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries:   make(map[string]*entry),
		ttl:       ttl,
		onExpired: onExpired,
	}
}

// Set stores a pending interaction for a phone, replacing any previous one
// and restarting its TTL.
func (s *Store) Set(phone string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[phone]; ok {
		old.timer.Stop()
	}

	e := &entry{value: value, expires: time.Now().Add(s.ttl)}
	e.timer = time.AfterFunc(s.ttl, func() { s.expire(phone, e) })
	s.entries[phone] = e
}

// Get returns the pending interaction for a phone, if any.
func (s *Store) Get(phone string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[phone]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Clear removes the pending interaction for a phone.
func (s *Store) Clear(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[phone]; ok {
		e.timer.Stop()
		delete(s.entries, phone)
	}
}

func (s *Store) expire(phone string, e *entry) {
	s.mu.Lock()
	current, ok := s.entries[phone]
	if !ok || current != e {
		// Replaced or cleared since the timer was armed.
		s.mu.Unlock()
		return
	}
	delete(s.entries, phone)
	s.mu.Unlock()

	if s.onExpired != nil {
		s.onExpired(phone, e.value)
	}
}

// Locks serializes message handling per phone. Different phones never
// contend; two messages from the same phone are handled one at a time.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*phoneLock
}

type phoneLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty lock set.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*phoneLock)}
}

// Acquire blocks until the phone's lock is held or the context is done.
// The returned release function must be called exactly once.
func (l *Locks) Acquire(ctx context.Context, phone string) (func(), error) {
	l.mu.Lock()
	pl, ok := l.locks[phone]
	if !ok {
		pl = &phoneLock{}
		l.locks[phone] = pl
	}
	pl.refs++
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		pl.mu.Lock()
		close(done)
	}()

	select {
	case <-done:
		return func() { l.release(phone, pl) }, nil
	case <-ctx.Done():
		go func() {
			<-done
			l.release(phone, pl)
		}()
		return nil, ctx.Err()
	}
}

func (l *Locks) release(phone string, pl *phoneLock) {
	pl.mu.Unlock()

	l.mu.Lock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, phone)
	}
	l.mu.Unlock()
}
