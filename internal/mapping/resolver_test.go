package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/types"
)

func TestResolverFlushMakesMappingImmediatelyVisible(t *testing.T) {
	store := NewMemoryStore()
	r := New(store, nil, false)

	r.AddMappings(types.Mapping{
		Scope: types.ScopeArtifactIncident, HubProjectID: 7, InternalID: 42,
		ExternalKey: "DEMO-1", Primary: true,
	})
	require.Len(t, r.Pending(), 1)

	ctx := context.Background()
	require.NoError(t, r.Flush(ctx))
	require.Empty(t, r.Pending())

	m, err := r.FindByInternalID(ctx, types.ScopeArtifactIncident, 7, 42)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "DEMO-1", m.ExternalKey)
}

func TestResolverFindByExternalKeyPrefersPrimary(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.AddMappings(ctx, []types.Mapping{
		{Scope: types.ScopeUser, ExternalKey: "alice", InternalID: 5, Primary: false},
		{Scope: types.ScopeUser, ExternalKey: "alice", InternalID: 5, Primary: true},
	}))
	r := New(store, nil, false)

	m, err := r.FindByExternalKey(ctx, types.ScopeUser, 0, "alice", true)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.True(t, m.Primary)
}

func TestResolverFindByExternalKeyFirstMatchWhenNotPrimaryOnly(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.AddMappings(ctx, []types.Mapping{
		{Scope: types.ScopeUser, ExternalKey: "alice", InternalID: 5, Primary: false},
		{Scope: types.ScopeUser, ExternalKey: "alice", InternalID: 9, Primary: true},
	}))
	r := New(store, nil, false)

	m, err := r.FindByExternalKey(ctx, types.ScopeUser, 0, "alice", false)
	require.NoError(t, err)
	require.Equal(t, 5, m.InternalID) // first entry in iteration order wins
}

type fakeHubUsers struct {
	byID    map[int]*types.User
	byLogin map[string]*types.User
}

func (f *fakeHubUsers) FindUserByID(_ context.Context, id int) (*types.User, error) {
	return f.byID[id], nil
}

func (f *fakeHubUsers) FindUserByLogin(_ context.Context, login string) (*types.User, error) {
	return f.byLogin[login], nil
}

func TestResolverAutoMapUsersBypassesStore(t *testing.T) {
	store := NewMemoryStore() // deliberately empty
	hub := &fakeHubUsers{
		byID:    map[int]*types.User{5: {InternalID: 5, Login: "alice"}},
		byLogin: map[string]*types.User{"alice": {InternalID: 5, Login: "alice"}},
	}
	r := New(store, hub, true)
	ctx := context.Background()

	m, err := r.FindUserByInternalID(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "alice", m.ExternalKey)

	m2, err := r.FindUserByExternalKey(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 5, m2.InternalID)
}

func TestResolverAutoMapUsersDisabledUsesStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.AddMappings(ctx, []types.Mapping{
		{Scope: types.ScopeUser, InternalID: 5, ExternalKey: "alice", Primary: true},
	}))
	r := New(store, nil, false)

	m, err := r.FindUserByInternalID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "alice", m.ExternalKey)
}
