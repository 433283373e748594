package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*memoryEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

// WithClock replaces the time source. Tests only.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Load(_ context.Context, id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(id)
	if e == nil {
		return Snapshot{}, nil
	}
	return Snapshot{User: e.values[KeyUser], IsLoggedIn: e.values[KeyIsLoggedIn]}, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, snap Snapshot) error {
	if id == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.touch(id)
	e.values[KeyUser] = snap.User
	e.values[KeyIsLoggedIn] = snap.IsLoggedIn
	return nil
}

func (s *MemoryStore) Purge(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) LoadView(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(id)
	if e == nil {
		return "", nil
	}
	return e.values[KeyDashboardView], nil
}

func (s *MemoryStore) SaveView(_ context.Context, id string, raw string) error {
	if id == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(id).values[KeyDashboardView] = raw
	return nil
}

// Len reports the number of unexpired sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id := range s.entries {
		if s.live(id) != nil {
			n++
		}
	}
	return n
}

// live returns the entry of id, dropping it when expired. Caller holds mu.
func (s *MemoryStore) live(id string) *memoryEntry {
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	if s.ttl > 0 && !s.now().Before(e.expiresAt) {
		delete(s.entries, id)
		return nil
	}
	return e
}

// touch returns the entry of id, creating it, and extends its expiry. Caller holds mu.
func (s *MemoryStore) touch(id string) *memoryEntry {
	e := s.live(id)
	if e == nil {
		e = &memoryEntry{values: make(map[string]string, 3)}
		s.entries[id] = e
	}
	e.expiresAt = s.now().Add(s.ttl)
	return e
}
