package state

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record

	// FailNext, when set, makes the next mutating call return a
	// StoreError wrapping it. Used to exercise abort paths in tests.
	FailNext error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Seed inserts records directly, bypassing failure injection.
func (s *MemoryStore) Seed(recs ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.records[rec.Name] = rec
	}
}

// Load returns a copy of all records.
func (s *MemoryStore) Load(context.Context) (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Record, len(s.records))
	for name, rec := range s.records {
		out[name] = rec
	}
	return out, nil
}

// Get returns the record for a logical name.
func (s *MemoryStore) Get(_ context.Context, name string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[name]
	return rec, ok, nil
}

// Save replaces the record for rec.Name.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	s.records[rec.Name] = rec
	return nil
}

// Delete removes the record for a logical name.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	delete(s.records, name)
	return nil
}

func (s *MemoryStore) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}
