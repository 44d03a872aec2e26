package payment

import (
	"context"
	"sync"
	"time"
)

// DefaultSessionTTL is how long a checkout attempt stays resumable. Expired
// attempts are swept; the user starts over.
const DefaultSessionTTL = 15 * time.Minute

// SessionStore holds in-flight checkout attempts in memory, keyed by display
// token. Attempts are ephemeral by design: only submitted transactions are
// persisted.
type SessionStore struct {
	mu       sync.RWMutex
	attempts map[DisplayToken]*Attempt
	ttl      time.Duration
}

// NewSessionStore creates a new session store
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		attempts: make(map[DisplayToken]*Attempt),
		ttl:      ttl,
	}
}

// Put stores an attempt
func (s *SessionStore) Put(a *Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[a.Token] = a
}

// Get retrieves a live attempt by token
func (s *SessionStore) Get(token DisplayToken) (*Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attempts[token]
	if !ok || time.Since(a.CreatedAt) > s.ttl {
		return nil, false
	}
	return a, true
}

// Sweep runs periodic expiry of stale attempts until the context is done
func (s *SessionStore) Sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expire()
		}
	}
}

func (s *SessionStore) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, a := range s.attempts {
		if time.Since(a.CreatedAt) > s.ttl {
			delete(s.attempts, token)
		}
	}
}
