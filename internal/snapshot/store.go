package snapshot

import (
	"log"
	"sync"

	"LeverageLab/internal/model"
)

// Store keeps the latest run snapshot in memory and mirrors it to disk.
type Store struct {
	mu       sync.Mutex
	snap     *model.Snapshot
	filePath string
}

// NewStore creates a Store, loading any previous snapshot from disk.
// An empty filePath keeps the snapshot in memory only.
func NewStore(filePath string) (*Store, error) {
	s := &Store{filePath: filePath}
	if filePath == "" {
		return s, nil
	}
	snap, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	s.snap = snap
	return s, nil
}

// Latest returns a copy of the last snapshot, or nil if no run completed yet.
func (s *Store) Latest() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil
	}
	cp := *s.snap
	return &cp
}

// Update replaces the snapshot and persists it.
func (s *Store) Update(snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap
	if s.filePath == "" {
		return nil
	}
	if err := SaveState(s.filePath, snap); err != nil {
		log.Printf("[ERROR] save snapshot: %v", err)
		return err
	}
	return nil
}
