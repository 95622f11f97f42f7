package artifact

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/trackerclient"
)

func TestTrackerIssueToHubRequirementDefaultsOnUnmappedStatusAndType(t *testing.T) {
	r := newTestResolver(t, userMapping(9, "bob"))
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
		Key: "DEMO-11",
		Fields: trackerclient.IssueFields{
			Summary:   "As a user, I want...",
			Status:    &trackerclient.NamedRef{ID: "3", Name: "Open"},
			IssueType: &trackerclient.NamedRef{ID: "7", Name: "Story"},
			Reporter:  &trackerclient.UserRef{Name: "bob"},
			Raw:       map[string]json.RawMessage{},
		},
	}

	res, err := TrackerIssueToHubRequirement(t.Context(), deps, issue, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, res.StatusDefaulted)
	assert.True(t, res.TypeDefaulted)
	assert.Equal(t, DefaultRequirementStatusID, res.Requirement.StatusID)
	assert.Equal(t, DefaultRequirementTypeID, res.Requirement.TypeID)
	assert.Equal(t, 9, res.Requirement.AuthorID)
	assert.Equal(t, "As a user, I want...", res.Requirement.Name)
}

func TestTrackerIssueToHubRequirementUsesMappedStatusAndType(t *testing.T) {
	r := newTestResolver(t,
		statusMapping(5, "3"),
		requirementTypeMapping(6, "7"),
		userMapping(9, "bob"),
	)
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
		Key: "DEMO-11",
		Fields: trackerclient.IssueFields{
			Summary:   "Story",
			Status:    &trackerclient.NamedRef{ID: "3"},
			IssueType: &trackerclient.NamedRef{ID: "7"},
			Reporter:  &trackerclient.UserRef{Name: "bob"},
			Raw:       map[string]json.RawMessage{},
		},
	}

	res, err := TrackerIssueToHubRequirement(t.Context(), deps, issue, time.Now())
	require.NoError(t, err)
	assert.False(t, res.StatusDefaulted)
	assert.False(t, res.TypeDefaulted)
	assert.Equal(t, 5, res.Requirement.StatusID)
	assert.Equal(t, 6, res.Requirement.TypeID)
}
