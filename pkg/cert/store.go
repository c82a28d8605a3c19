// Package cert persists printer trust certificates keyed by printer
// identity.
package cert

import (
	"sync"
)

// Store holds one trust certificate per printer identity.
// Implementations must be safe for concurrent access; multiple jobs may
// resolve different printers at the same time.
type Store interface {
	// Get returns the stored certificate, or nil when none exists.
	Get(uuid string) []byte

	// Put stores a certificate, replacing any previous one.
	Put(uuid string, cert []byte) error

	// Remove forgets the certificate for an identity.
	Remove(uuid string) error
}

// MemoryStore keeps certificates in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	certs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{certs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(uuid string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[uuid]
	if !ok {
		return nil
	}
	out := make([]byte, len(cert))
	copy(out, cert)
	return out
}

func (s *MemoryStore) Put(uuid string, cert []byte) error {
	stored := make([]byte, len(cert))
	copy(stored, cert)
	s.mu.Lock()
	s.certs[uuid] = stored
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(uuid string) error {
	s.mu.Lock()
	delete(s.certs, uuid)
	s.mu.Unlock()
	return nil
}
