package session

import (
	"context"
	"sync"
	"time"
)

// entry is a tenant binding with expiration
type entry struct {
	tenantID  string
	expiresAt time.Time
}

// MemoryStore implements Store using an in-memory map. Suitable for
// single-instance deployments and testing.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryStore creates an in-memory session store. It starts a background
// goroutine to clean up expired bindings.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// GetTenant returns the tenant ID bound to the session token
func (s *MemoryStore) GetTenant(ctx context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[token]
	if !exists || time.Now().After(e.expiresAt) {
		return "", ErrSessionNotFound
	}
	return e.tenantID, nil
}

// BindTenant binds a tenant ID to a session token for the given TTL
func (s *MemoryStore) BindTenant(ctx context.Context, token, tenantID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = entry{
		tenantID:  tenantID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Release removes the binding for a session token
func (s *MemoryStore) Release(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, token)
	return nil
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// cleanupLoop periodically removes expired bindings
func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, token)
		}
	}
}
