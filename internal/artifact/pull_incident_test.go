package artifact

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

func TestTrackerIssueToHubIncidentAutoProvisionsReleaseFromFixVersions(t *testing.T) {
	r := newTestResolver(t,
		statusMapping(1, "3"),
		incidentTypeMapping(2, "1"),
		userMapping(5, "alice"),
	)
	creator := &fakeReleaseCreator{}
	deps := ArtifactPullDeps{
		Enums:                  r,
		Users:                  r,
		Releases:               r,
		ReleaseAPI:             creator,
		Metadata:               sampleCreateMetadata(),
		ProjectKey:             "DEMO",
		HubProjectID:           7,
		PersistReleaseMappings: true,
	}
	issue := trackerclient.Issue{
		Key: "DEMO-20",
		Fields: trackerclient.IssueFields{
			Summary:   "Crash after release",
			Status:    &trackerclient.NamedRef{ID: "3"},
			IssueType: &trackerclient.NamedRef{ID: "1"},
			Reporter:  &trackerclient.UserRef{Name: "alice"},
			FixVersions: []trackerclient.VersionRef{
				{ID: "9001", Name: "2024.07", ReleaseDate: "2024-07-15T00:00:00.000+0000"},
			},
			Raw: map[string]json.RawMessage{},
		},
	}

	incident, err := TrackerIssueToHubIncident(t.Context(), deps, issue, time.Now())
	require.NoError(t, err)
	require.NotNil(t, incident.ResolvedReleaseID)
	assert.Equal(t, 1, *incident.ResolvedReleaseID)
	require.Len(t, creator.calls, 1)
	assert.Equal(t, "2024.07", creator.calls[0].VersionNumber)

	pending := r.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, types.ScopeArtifactRelease, pending[0].Scope)
	assert.Equal(t, "9001", pending[0].ExternalKey)
}

func TestTrackerIssueToHubIncidentFailsOnUnmappedStatus(t *testing.T) {
	r := newTestResolver(t, incidentTypeMapping(2, "1"))
	deps := ArtifactPullDeps{
		Enums:        r,
		Users:        r,
		Releases:     r,
		ReleaseAPI:   &fakeReleaseCreator{},
		Metadata:     sampleCreateMetadata(),
		ProjectKey:   "DEMO",
		HubProjectID: 7,
	}
	issue := trackerclient.Issue{
		Key: "DEMO-21",
		Fields: trackerclient.IssueFields{
			Summary:   "x",
			Status:    &trackerclient.NamedRef{ID: "99"},
			IssueType: &trackerclient.NamedRef{ID: "1"},
			Raw:       map[string]json.RawMessage{},
		},
	}

	_, err := TrackerIssueToHubIncident(t.Context(), deps, issue, time.Now())
	require.Error(t, err)
}
