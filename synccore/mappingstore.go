package synccore

import (
	"context"

	"github.com/hubforge/sync-core/internal/mapping"
)

// newMappingStore opens the SQL-backed store when cfg is non-nil, or
// falls back to an in-memory store (--dry-run, tests) otherwise.
func newMappingStore(ctx context.Context, cfg *mapping.Config) (mappingStore, error) {
	if cfg == nil {
		return memoryStore{mapping.NewMemoryStore()}, nil
	}
	return mapping.Open(ctx, cfg)
}

// memoryStore adapts *mapping.MemoryStore (which holds no closeable
// resource) to the mappingStore interface Plugin.Dispose expects.
type memoryStore struct {
	*mapping.MemoryStore
}

func (memoryStore) Close() error { return nil }
