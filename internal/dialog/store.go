// Package dialog holds the transient per-customer conversation state between
// turns. State here is disposable: an abandoned dialog simply expires, and
// nothing durable is lost because orders are only created once the checkout
// dialog completes.
package dialog

import (
	"sync"
	"time"

	"screenfix/internal/domain"
)

const defaultTTL = 15 * time.Minute

type record struct {
	state   domain.DialogState
	expires time.Time
}

type Store struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[int64]record
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{ttl: ttl, m: make(map[int64]record)}
}

// Get returns the customer's current dialog state, or the zero state when
// none is stored or the stored one has expired.
func (s *Store) Get(customerID int64) domain.DialogState {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[customerID]
	if !ok {
		return domain.DialogState{}
	}
	if time.Now().After(rec.expires) {
		delete(s.m, customerID)
		return domain.DialogState{}
	}
	return rec.state
}

func (s *Store) Put(customerID int64, state domain.DialogState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Step == domain.StepNone {
		delete(s.m, customerID)
		return
	}
	s.m[customerID] = record{state: state, expires: time.Now().Add(s.ttl)}
}

func (s *Store) Clear(customerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, customerID)
}
