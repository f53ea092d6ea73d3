package jwt

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocations is an in-process RevocationStore. Entries are dropped
// once the token they describe has expired.
type MemoryRevocations struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

// NewMemoryRevocations creates an empty in-memory revocation store.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time)}
}

// Revoke records tokenID as revoked until the given time.
func (s *MemoryRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = until
	return nil
}

// IsRevoked reports whether tokenID is currently revoked.
func (s *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.revoked[tokenID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		s.mu.Lock()
		delete(s.revoked, tokenID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Cleanup removes expired entries.
func (s *MemoryRevocations) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, until := range s.revoked {
		if now.After(until) {
			delete(s.revoked, id)
		}
	}
}

// Len returns the number of tracked revocations, expired or not.
func (s *MemoryRevocations) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revoked)
}
