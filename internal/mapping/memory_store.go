package mapping

import (
	"context"
	"sync"

	"github.com/hubforge/sync-core/internal/types"
)

// MemoryStore is an in-process Store used by engine-level tests and by
// the standalone CLI's --dry-run mode. Iteration order is insertion
// order, so the first matching row wins ties the same way the SQL-backed
// store's row order does.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []types.Mapping
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) FindByInternalID(_ context.Context, scope types.Scope, hubProjectID, internalID int) (*types.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.rows {
		m := s.rows[i]
		if m.Scope == scope && m.HubProjectID == hubProjectID && m.InternalID == internalID && m.Primary {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindByExternalKey(_ context.Context, scope types.Scope, hubProjectID int, externalKey string, onlyPrimary bool) (*types.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.rows {
		m := s.rows[i]
		if onlyPrimary && !m.Primary {
			continue
		}
		if m.Scope == scope && m.HubProjectID == hubProjectID && m.ExternalKey == externalKey {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) AddMappings(_ context.Context, mappings []types.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, mappings...)
	return nil
}

func (s *MemoryStore) All(_ context.Context, scope types.Scope, hubProjectID int) ([]types.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Mapping
	for _, m := range s.rows {
		if m.Scope == scope && m.HubProjectID == hubProjectID {
			out = append(out, m)
		}
	}
	return out, nil
}
