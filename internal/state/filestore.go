package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists one JSON file per record under a state directory.
// Writes go to a temporary file first and are renamed into place, so a
// record is always either the old version or the new one.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore opens (creating if needed) a state directory.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// lock returns the per-name mutex, creating it on first use. Serializing
// per name prevents lost updates when retries race the main apply path.
func (s *FileStore) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads every record in the state directory.
func (s *FileStore) Load(ctx context.Context) (map[string]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}

	records := make(map[string]Record)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		rec, ok, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			records[name] = rec
		}
	}
	return records, nil
}

// Get reads a single record.
func (s *FileStore) Get(_ context.Context, name string) (Record, bool, error) {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, &StoreError{Op: "get", Err: err}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, &StoreError{Op: "get", Err: fmt.Errorf("corrupt record %q: %w", name, err)}
	}
	return rec, true, nil
}

// Save atomically replaces the record for rec.Name.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	l := s.lock(rec.Name)
	l.Lock()
	defer l.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, rec.Name+".*.tmp")
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StoreError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StoreError{Op: "save", Err: err}
	}
	if err := os.Rename(tmpName, s.path(rec.Name)); err != nil {
		os.Remove(tmpName)
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

// Delete removes the record for a logical name.
func (s *FileStore) Delete(_ context.Context, name string) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}
