package project

import (
	"context"
	"sync"

	"canvasmind/internal/types"
)

// MemoryStore is an in-process ProjectPersistence. It outlives working-set
// eviction, which makes it useful for tests and for runs without a database.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]map[string]*types.Project // session -> id -> project
	saves    int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]map[string]*types.Project)}
}

// LoadProjects returns copies of the session's projects in no particular order.
func (s *MemoryStore) LoadProjects(ctx context.Context, sessionID string) ([]*types.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*types.Project
	for _, p := range s.projects[sessionID] {
		out = append(out, p.Clone())
	}
	return out, nil
}

// SaveProject upserts a copy of the project. Snapshots older than the stored
// revision are ignored.
func (s *MemoryStore) SaveProject(ctx context.Context, project *types.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bySession, ok := s.projects[project.SessionID]
	if !ok {
		bySession = make(map[string]*types.Project)
		s.projects[project.SessionID] = bySession
	}
	if stored, ok := bySession[project.ID]; ok && stored.Revision > project.Revision {
		return nil
	}
	bySession[project.ID] = project.Clone()
	s.saves++
	return nil
}

// Saves returns how many saves were applied.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
