// Package mapping implements the translation layer between Hub internal
// identifiers and Tracker external keys.
package mapping

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hubforge/sync-core/internal/types"
)

// Store persists Mapping rows. Implementations must honor: within a
// scope+project, FindByInternalID("primary entry") is unique; multiple
// non-primary aliases may share an internalId; FindByExternalKey returns
// the first match in iteration order, excluding non-primary entries when
// onlyPrimary is requested.
type Store interface {
	FindByInternalID(ctx context.Context, scope types.Scope, hubProjectID, internalID int) (*types.Mapping, error)
	FindByExternalKey(ctx context.Context, scope types.Scope, hubProjectID int, externalKey string, onlyPrimary bool) (*types.Mapping, error)
	AddMappings(ctx context.Context, mappings []types.Mapping) error
	All(ctx context.Context, scope types.Scope, hubProjectID int) ([]types.Mapping, error)
}

// HubUserLookup queries the Hub directly for a user record, bypassing the
// mapping store. Used only when autoMapUsers is enabled.
type HubUserLookup interface {
	FindUserByID(ctx context.Context, internalID int) (*types.User, error)
	FindUserByLogin(ctx context.Context, login string) (*types.User, error)
}

// Resolver is the sole user-lookup chokepoint: callers never query the
// Hub or the mapping store directly for user identity.
type Resolver struct {
	store        Store
	hubUsers     HubUserLookup
	autoMapUsers bool

	mu       sync.Mutex
	buffered []types.Mapping

	group singleflight.Group
}

// New builds a Resolver. hubUsers may be nil when autoMapUsers is false.
func New(store Store, hubUsers HubUserLookup, autoMapUsers bool) *Resolver {
	return &Resolver{store: store, hubUsers: hubUsers, autoMapUsers: autoMapUsers}
}

// FindByInternalID looks up a mapping by the Hub's numeric id.
func (r *Resolver) FindByInternalID(ctx context.Context, scope types.Scope, hubProjectID, internalID int) (*types.Mapping, error) {
	return r.store.FindByInternalID(ctx, scope, hubProjectID, internalID)
}

// FindByExternalKey looks up a mapping by the Tracker's external key.
// Concurrent lookups for the same (scope, hubProjectID, externalKey,
// onlyPrimary) within one checkpoint window are coalesced into a single
// store round-trip.
func (r *Resolver) FindByExternalKey(ctx context.Context, scope types.Scope, hubProjectID int, externalKey string, onlyPrimary bool) (*types.Mapping, error) {
	key := fmt.Sprintf("%s|%d|%s|%t", scope, hubProjectID, externalKey, onlyPrimary)
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.store.FindByExternalKey(ctx, scope, hubProjectID, externalKey, onlyPrimary)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*types.Mapping), nil
}

// FindUserByInternalID resolves a user by Hub id. When autoMapUsers is
// enabled this bypasses the mapping store entirely and queries the Hub,
// synthesizing a mapping in memory; otherwise it consults the scoped
// mapping store like any other lookup.
func (r *Resolver) FindUserByInternalID(ctx context.Context, internalID int) (*types.Mapping, error) {
	if r.autoMapUsers {
		u, err := r.hubUsers.FindUserByID(ctx, internalID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, nil
		}
		return &types.Mapping{Scope: types.ScopeUser, InternalID: u.InternalID, ExternalKey: u.Login, Primary: true}, nil
	}
	return r.FindByInternalID(ctx, types.ScopeUser, 0, internalID)
}

// FindUserByExternalKey resolves a user by Tracker login, symmetric to
// FindUserByInternalID.
func (r *Resolver) FindUserByExternalKey(ctx context.Context, login string) (*types.Mapping, error) {
	if r.autoMapUsers {
		u, err := r.hubUsers.FindUserByLogin(ctx, login)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, nil
		}
		return &types.Mapping{Scope: types.ScopeUser, InternalID: u.InternalID, ExternalKey: u.Login, Primary: true}, nil
	}
	return r.FindByExternalKey(ctx, types.ScopeUser, 0, login, false)
}

// AddMappings buffers new mappings in memory; they become visible to
// other resolver calls only after Flush. Mapping writes for newly
// created artifacts happen within the same checkpoint where they were
// created, before the next phase reads mappings again.
func (r *Resolver) AddMappings(mappings ...types.Mapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffered = append(r.buffered, mappings...)
}

// Flush writes buffered mappings to the store and clears the buffer. It
// is the engine's checkpoint operation.
func (r *Resolver) Flush(ctx context.Context) error {
	r.mu.Lock()
	pending := r.buffered
	r.buffered = nil
	r.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := r.store.AddMappings(ctx, pending); err != nil {
		// Put them back so a retried Flush doesn't lose data.
		r.mu.Lock()
		r.buffered = append(pending, r.buffered...)
		r.mu.Unlock()
		return fmt.Errorf("flush mappings: %w", err)
	}
	return nil
}

// Pending returns a copy of the currently buffered, unflushed mappings —
// used by tests and by the engine's diagnostics to verify the invariant
// that a mapping is visible via FindByInternalID immediately after flush.
func (r *Resolver) Pending() []types.Mapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Mapping, len(r.buffered))
	copy(out, r.buffered)
	return out
}
