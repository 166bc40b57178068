package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopmate/backend/internal/domain"
)

// sessionItem represents a single session with sliding expiration
type sessionItem struct {
	Index      *domain.PriceIndex
	Expiration time.Time
}

// SessionStore is a thread-safe in-memory store of per-session price indexes
// with TTL support. Every read extends the session's lifetime.
type SessionStore struct {
	catalog *domain.Catalog
	ttl     time.Duration
	now     func() time.Time

	data  map[string]sessionItem
	mutex sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a session store and starts the cleanup goroutine;
// call Close to stop it.
func NewSessionStore(catalog *domain.Catalog, ttl time.Duration) *SessionStore {
	return newSessionStore(catalog, ttl, time.Now, 10*time.Minute)
}

func newSessionStore(catalog *domain.Catalog, ttl time.Duration, now func() time.Time, cleanupEvery time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	store := &SessionStore{
		catalog: catalog,
		ttl:     ttl,
		now:     now,
		data:    make(map[string]sessionItem),
		stop:    make(chan struct{}),
	}

	go store.cleanupExpired(cleanupEvery)

	return store
}

// Create starts a new session with an empty price index
func (s *SessionStore) Create(ctx context.Context) (string, *domain.PriceIndex, error) {
	id := uuid.NewString()
	index := domain.NewPriceIndex(s.catalog)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[id] = sessionItem{Index: index, Expiration: s.now().Add(s.ttl)}
	return id, index, nil
}

// Get returns the session's price index and extends its lifetime
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.PriceIndex, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, exists := s.data[id]
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	// Check if expired
	now := s.now()
	if now.After(item.Expiration) {
		delete(s.data, id)
		return nil, domain.ErrSessionNotFound
	}

	item.Expiration = now.Add(s.ttl)
	s.data[id] = item
	return item.Index, nil
}

// Delete removes a session
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, id)
	return nil
}

// Size returns the current number of sessions (for debugging/monitoring)
func (s *SessionStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Close stops the cleanup goroutine
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// cleanupExpired removes expired sessions periodically
func (s *SessionStore) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *SessionStore) removeExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for id, item := range s.data {
		if now.After(item.Expiration) {
			delete(s.data, id)
		}
	}
}
