package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/types"
)

// newTestResolver builds an in-memory resolver pre-seeded with mapping rows,
// flushed so they're immediately visible to lookups.
func newTestResolver(t *testing.T, rows ...types.Mapping) *mapping.Resolver {
	t.Helper()
	store := mapping.NewMemoryStore()
	r := mapping.New(store, nil, false)
	r.AddMappings(rows...)
	require.NoError(t, r.Flush(context.Background()))
	return r
}

func statusMapping(hubID int, trackerID string) types.Mapping {
	return types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: statusBucket, InternalID: hubID, ExternalKey: trackerID, Primary: true}
}

func priorityMapping(hubID int, trackerID string) types.Mapping {
	return types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: priorityBucket, InternalID: hubID, ExternalKey: trackerID, Primary: true}
}

func incidentTypeMapping(hubID int, trackerID string) types.Mapping {
	return types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: incidentTypeBucket, InternalID: hubID, ExternalKey: trackerID, Primary: true}
}

func requirementTypeMapping(hubID int, trackerID string) types.Mapping {
	return types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: requirementTypeBucket, InternalID: hubID, ExternalKey: trackerID, Primary: true}
}

func userMapping(hubID int, login string) types.Mapping {
	return types.Mapping{Scope: types.ScopeUser, HubProjectID: 0, InternalID: hubID, ExternalKey: login, Primary: true}
}

func releaseMapping(hubProjectID, hubReleaseID int, trackerVersionID string) types.Mapping {
	return types.Mapping{Scope: types.ScopeArtifactRelease, HubProjectID: hubProjectID, InternalID: hubReleaseID, ExternalKey: trackerVersionID, Primary: true}
}

// fakeReleaseCreator records CreateRelease calls without touching a Hub.
type fakeReleaseCreator struct {
	nextID int
	calls  []types.Release
}

func (f *fakeReleaseCreator) CreateRelease(ctx context.Context, release types.Release) (int, error) {
	f.calls = append(f.calls, release)
	f.nextID++
	return f.nextID, nil
}
