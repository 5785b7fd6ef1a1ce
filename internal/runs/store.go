package runs

import (
	"fmt"
	"sync"
)

// Store keeps runs in memory and is safe for concurrent use. Each new run
// for a session supersedes nothing implicitly; callers hold run IDs and a
// completed run's result stands until the process exits.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewStore creates an empty in-memory run store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*Run)}
}

// Save inserts or replaces a run.
func (s *Store) Save(run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy so later mutations by the caller don't leak in.
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

// Get retrieves a run by ID.
func (s *Store) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", id)
	}

	cp := *run
	return &cp, nil
}

// SetProgress records that the worker is about to process file index
// (zero-based) of total, i.e. index files are already done.
func (s *Store) SetProgress(id string, index, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run, ok := s.runs[id]; ok {
		run.FilesDone = index
		run.FilesTotal = total
	}
}
