package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data    Data
	expires time.Time
}

// MemoryStore keeps sessions in process. Expired entries are dropped when
// loaded and swept on every save.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Data, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Data{}, false, nil
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, id)
		return Data{}, false, nil
	}
	return entry.data, true, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, key)
		}
	}
	s.entries[id] = memoryEntry{data: data, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[id]; ok {
		entry.expires = s.now().Add(s.ttl)
		s.entries[id] = entry
	}
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}
