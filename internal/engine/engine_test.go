package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/eventlog"
	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

// fakeHub is a minimal, programmable HubClient grounded on the pack's
// mockTracker pattern: canned data plus optional per-call errors.
type fakeHub struct {
	authErr      error
	authCalls    int
	connectErr   map[int]error
	incidents    map[int][]types.HubIncident
	updatedSince map[int][]types.HubIncident
	catalog      map[string][]hubclient.CustomProperty
	nextIncident int
	created      []types.HubIncident
	updated      []types.HubIncident
	urlDocuments []string

	// existingIncidents/existingRequirements seed GetIncident/GetRequirement
	// for tests exercising the comment-dedupe path. Unset ids return an
	// empty artifact (no existing comments), never an error.
	existingIncidents    map[int]types.HubIncident
	existingRequirements map[int]types.HubRequirement
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		connectErr:   make(map[int]error),
		incidents:    make(map[int][]types.HubIncident),
		updatedSince: make(map[int][]types.HubIncident),
		catalog:      make(map[string][]hubclient.CustomProperty),
	}
}

func (f *fakeHub) Authenticate(context.Context) error {
	f.authCalls++
	return f.authErr
}
func (f *fakeHub) ConnectToProject(_ context.Context, projectID int) error {
	return f.connectErr[projectID]
}
func (f *fakeHub) ListAllIncidents(_ context.Context, projectID int) ([]types.HubIncident, error) {
	return f.incidents[projectID], nil
}
func (f *fakeHub) ListIncidentsUpdatedSince(_ context.Context, projectID int, _ time.Time) ([]types.HubIncident, error) {
	return f.updatedSince[projectID], nil
}
func (f *fakeHub) CreateIncident(_ context.Context, incident types.HubIncident) (int, error) {
	f.nextIncident++
	incident.ID = f.nextIncident
	f.created = append(f.created, incident)
	return f.nextIncident, nil
}
func (f *fakeHub) UpdateIncident(_ context.Context, incident types.HubIncident) error {
	f.updated = append(f.updated, incident)
	return nil
}
func (f *fakeHub) GetIncident(_ context.Context, incidentID int) (*types.HubIncident, error) {
	incident := f.existingIncidents[incidentID]
	incident.ID = incidentID
	return &incident, nil
}
func (f *fakeHub) CreateRequirement(context.Context, types.HubRequirement) (int, error) {
	return 0, nil
}
func (f *fakeHub) UpdateRequirement(context.Context, types.HubRequirement) error { return nil }
func (f *fakeHub) GetRequirement(_ context.Context, requirementID int) (*types.HubRequirement, error) {
	requirement := f.existingRequirements[requirementID]
	requirement.ID = requirementID
	return &requirement, nil
}
func (f *fakeHub) FetchMappings(context.Context, types.Scope) ([]types.Mapping, error) {
	return nil, nil
}
func (f *fakeHub) FetchCustomPropertyCatalog(_ context.Context, _ int, artifactKind string) ([]hubclient.CustomProperty, error) {
	return f.catalog[artifactKind], nil
}
func (f *fakeHub) AddFileDocument(context.Context, int, string, string, []byte, string) error {
	return nil
}
func (f *fakeHub) AddURLDocument(_ context.Context, _ int, _ string, _, url string) error {
	f.urlDocuments = append(f.urlDocuments, url)
	return nil
}
func (f *fakeHub) CreateRelease(context.Context, types.Release) (int, error) { return 1, nil }

// fakeTracker is a minimal, programmable TrackerClient.
type fakeTracker struct {
	projectKey string
	metadata   *trackerclient.CreateMetadata
	components []trackerclient.NamedRef
	searchKeys []string
	issues     map[string]*trackerclient.Issue
	created    []map[string]interface{}
	nextKey    int
}

func newFakeTracker(projectKey string) *fakeTracker {
	return &fakeTracker{projectKey: projectKey, issues: make(map[string]*trackerclient.Issue)}
}

func (f *fakeTracker) Probe(context.Context) (json.RawMessage, error) {
	return json.RawMessage("{}"), nil
}
func (f *fakeTracker) GetCreateMetadata(context.Context, string) (*trackerclient.CreateMetadata, error) {
	return f.metadata, nil
}
func (f *fakeTracker) ListComponents(context.Context, string) ([]trackerclient.NamedRef, error) {
	return f.components, nil
}
func (f *fakeTracker) CreateIssue(_ context.Context, fields map[string]interface{}) (*trackerclient.Issue, error) {
	f.created = append(f.created, fields)
	f.nextKey++
	key := fmt.Sprintf("%s-%d", f.projectKey, f.nextKey)
	issue := &trackerclient.Issue{Key: key}
	f.issues[key] = issue
	return issue, nil
}
func (f *fakeTracker) UpdateIssue(context.Context, string, map[string]interface{}) error { return nil }
func (f *fakeTracker) GetIssueByKey(_ context.Context, key string) (*trackerclient.Issue, error) {
	return f.issues[key], nil
}
func (f *fakeTracker) SearchAll(context.Context, string, int) ([]string, error) {
	return f.searchKeys, nil
}
func (f *fakeTracker) AddAttachment(context.Context, string, string, []byte) error { return nil }
func (f *fakeTracker) FetchAttachmentContent(context.Context, string) ([]byte, error) {
	return nil, nil
}
func (f *fakeTracker) AddWebLink(context.Context, string, string, string) error { return nil }
func (f *fakeTracker) AddIssueLink(context.Context, string, string, string, string) error {
	return nil
}

func sampleMetadata(projectKey string) *trackerclient.CreateMetadata {
	return &trackerclient.CreateMetadata{
		Projects: []trackerclient.ProjectMeta{{
			Key: projectKey,
			IssueTypes: []trackerclient.IssueTypeMeta{{
				ID:   "10001",
				Name: "Bug",
				Fields: map[string]trackerclient.FieldMeta{
					"summary":   {Required: true, Name: "Summary"},
					"project":   {Required: true, Name: "Project"},
					"issuetype": {Required: true, Name: "Issue Type"},
				},
			}},
		}},
	}
}

// recordingSink is a no-op eventlog.Sink, grounded on
// eventlog_test.go's recordingSink.
type recordingSink struct{ entries []string }

func (r *recordingSink) Write(_ context.Context, _ eventlog.Severity, chunk string) error {
	r.entries = append(r.entries, chunk)
	return nil
}

func testLogger() *eventlog.Logger {
	return eventlog.New(&recordingSink{}, true)
}

func newMappingStore(t *testing.T, rows ...types.Mapping) *mapping.Resolver {
	t.Helper()
	store := mapping.NewMemoryStore()
	require.NoError(t, store.AddMappings(context.Background(), rows))
	return mapping.New(store, nil, false)
}

var errForced = errors.New("forced test error")

func TestExecuteProjectConnectFailureSkipsPairAndContinues(t *testing.T) {
	hub := newFakeHub()
	hub.connectErr[1] = errForced
	tracker := newFakeTracker("DEMO")

	projects := []types.ProjectPair{
		{HubProjectID: 1, TrackerProjectKey: "ONE"},
		{HubProjectID: 2, TrackerProjectKey: "DEMO"},
	}
	e := New(hub, tracker, newMappingStore(t), testLogger(), Options{}, projects)

	result := e.Execute(context.Background(), nil, time.Unix(0, 0))
	assert.Equal(t, Success, result.Outcome)
	// project 1 never reached ListAllIncidents since ConnectToProject failed.
	assert.Nil(t, hub.incidents[1])
}

// authFailsAfterN wraps fakeHub so Authenticate fails starting with the
// (failAfter+1)th call, to exercise the engine's reauth-failure path.
type authFailsAfterN struct {
	*fakeHub
	failAfter int
	calls     int
}

func (a *authFailsAfterN) Authenticate(ctx context.Context) error {
	a.calls++
	if a.calls > a.failAfter {
		return errForced
	}
	return a.fakeHub.Authenticate(ctx)
}

func TestExecuteReauthFailureAfterPushEndsRunWithError(t *testing.T) {
	hub := &authFailsAfterN{fakeHub: newFakeHub(), failAfter: 1}
	tracker := newFakeTracker("DEMO")
	projects := []types.ProjectPair{{HubProjectID: 2, TrackerProjectKey: "DEMO"}}
	e := New(hub, tracker, newMappingStore(t), testLogger(), Options{}, projects)

	result := e.Execute(context.Background(), nil, time.Unix(0, 0))
	assert.Equal(t, Error, result.Outcome)
	require.Error(t, result.Err)
}

func TestPushPhaseSkipsAlreadyMappedIncident(t *testing.T) {
	ctx := context.Background()
	hub := newFakeHub()
	hub.incidents[2] = []types.HubIncident{{ID: 42, Name: "Already pushed"}}
	tracker := newFakeTracker("DEMO")
	tracker.metadata = sampleMetadata("DEMO")

	mappings := newMappingStore(t, types.Mapping{
		Scope: types.ScopeArtifactIncident, HubProjectID: 2, InternalID: 42,
		ExternalKey: "DEMO-1", Primary: true,
	})

	e := New(hub, tracker, mappings, testLogger(), Options{}, nil)
	stats, err := e.pushPhase(ctx, types.ProjectPair{HubProjectID: 2, TrackerProjectKey: "DEMO"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Created)
	assert.Empty(t, tracker.created)
}

func TestPushPhaseSyncFlagGateExcludesUnflaggedIncident(t *testing.T) {
	ctx := context.Background()
	hub := newFakeHub()
	hub.incidents[2] = []types.HubIncident{
		{ID: 1, Name: "Not flagged"},
		{ID: 2, Name: "Flagged", CustomProperties: map[int]types.TypedValue{
			7: {Kind: types.KindList, ListValue: "Y"},
		}},
	}
	tracker := newFakeTracker("DEMO")
	tracker.metadata = sampleMetadata("DEMO")

	mappings := newMappingStore(t, types.Mapping{
		Scope: types.ScopeCustomPropertyValue, HubProjectID: -3, InternalID: 0, ExternalKey: "10001", Primary: true,
	})

	opts := Options{SyncFlagSlot: 7, SyncFlagYesValue: "Y"}
	e := New(hub, tracker, mappings, testLogger(), opts, nil)

	stats, err := e.pushPhase(ctx, types.ProjectPair{HubProjectID: 2, TrackerProjectKey: "DEMO"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Created)
	require.Len(t, tracker.created, 1)
}

func TestPushPhaseWindowUsesUpdatedSinceWhenConfigured(t *testing.T) {
	ctx := context.Background()
	hub := newFakeHub()
	hub.incidents[2] = []types.HubIncident{{ID: 1, Name: "All incidents (unwindowed)"}}
	hub.updatedSince[2] = []types.HubIncident{{ID: 2, Name: "Recently updated"}}
	tracker := newFakeTracker("DEMO")
	tracker.metadata = sampleMetadata("DEMO")

	mappings := newMappingStore(t, types.Mapping{
		Scope: types.ScopeCustomPropertyValue, HubProjectID: -3, InternalID: 0, ExternalKey: "10001", Primary: true,
	})

	e := New(hub, tracker, mappings, testLogger(), Options{PushWindow: true}, nil)

	since := time.Unix(1000, 0)
	stats, err := e.pushPhase(ctx, types.ProjectPair{HubProjectID: 2, TrackerProjectKey: "DEMO"}, &since)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	require.Len(t, tracker.created, 1)
	assert.Equal(t, "Recently updated", tracker.created[0]["summary"])

	// A nil lastSyncAt (first run) still pages every incident even with
	// PushWindow set, since there's no "since" to filter by.
	stats, err = e.pushPhase(ctx, types.ProjectPair{HubProjectID: 2, TrackerProjectKey: "DEMO"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	require.Len(t, tracker.created, 2)
	assert.Equal(t, "All incidents (unwindowed)", tracker.created[1]["summary"])
}

func TestPullPhaseOnlyCreateNewItemsInTrackerSkipsUnmappedIssue(t *testing.T) {
	ctx := context.Background()
	hub := newFakeHub()
	tracker := newFakeTracker("DEMO")
	tracker.metadata = sampleMetadata("DEMO")
	tracker.searchKeys = []string{"DEMO-9"}
	tracker.issues["DEMO-9"] = &trackerclient.Issue{
		Key: "DEMO-9",
		Fields: trackerclient.IssueFields{
			Summary:   "Unmapped",
			Status:    &trackerclient.NamedRef{ID: "3"},
			IssueType: &trackerclient.NamedRef{ID: "1"},
			Raw:       map[string]json.RawMessage{},
		},
	}

	mappings := newMappingStore(t,
		types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: -1, InternalID: 3, ExternalKey: "3", Primary: true},
		types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: -3, InternalID: 1, ExternalKey: "1", Primary: true},
	)

	opts := Options{OnlyCreateNewItemsInTracker: true}
	e := New(hub, tracker, mappings, testLogger(), opts, nil)

	stats, err := e.pullPhase(ctx, types.ProjectPair{HubProjectID: 2, TrackerProjectKey: "DEMO"}, nil, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Created)
	assert.Empty(t, hub.created)
}

func TestPullPhaseCreatesNewIncidentAndLinksBack(t *testing.T) {
	ctx := context.Background()
	hub := newFakeHub()
	tracker := newFakeTracker("DEMO")
	tracker.metadata = sampleMetadata("DEMO")
	tracker.searchKeys = []string{"DEMO-9"}
	tracker.issues["DEMO-9"] = &trackerclient.Issue{
		Key: "DEMO-9",
		Fields: trackerclient.IssueFields{
			Summary:   "New incident",
			Status:    &trackerclient.NamedRef{ID: "3"},
			IssueType: &trackerclient.NamedRef{ID: "1"},
			Raw:       map[string]json.RawMessage{},
		},
	}

	mappings := newMappingStore(t,
		types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: -1, InternalID: 3, ExternalKey: "3", Primary: true},
		types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: -3, InternalID: 1, ExternalKey: "1", Primary: true},
	)

	e := New(hub, tracker, mappings, testLogger(), Options{TrackerWebBaseURL: "https://tracker.example.com"}, nil)

	stats, err := e.pullPhase(ctx, types.ProjectPair{HubProjectID: 2, TrackerProjectKey: "DEMO"}, nil, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	require.Len(t, hub.created, 1)
	assert.Equal(t, "New incident", hub.created[0].Name)
	require.Len(t, hub.urlDocuments, 1)
	assert.Equal(t, "https://tracker.example.com/browse/DEMO-9", hub.urlDocuments[0])

	m, err := mappings.FindByExternalKey(ctx, types.ScopeArtifactIncident, 2, "DEMO-9", true)
	require.NoError(t, err)
	require.Nil(t, m) // not visible until the engine's next Flush checkpoint
	require.Len(t, mappings.Pending(), 1)
}

func TestPullPhaseUpdateIncidentDedupesCommentsAgainstExisting(t *testing.T) {
	ctx := context.Background()
	hub := newFakeHub()
	hub.existingIncidents = map[int]types.HubIncident{
		42: {ID: 42, Comments: []types.Comment{{Body: "already there"}}},
	}
	tracker := newFakeTracker("DEMO")
	tracker.metadata = sampleMetadata("DEMO")
	tracker.searchKeys = []string{"DEMO-9"}
	tracker.issues["DEMO-9"] = &trackerclient.Issue{
		Key: "DEMO-9",
		Fields: trackerclient.IssueFields{
			Summary:   "Existing incident",
			Status:    &trackerclient.NamedRef{ID: "3"},
			IssueType: &trackerclient.NamedRef{ID: "1"},
			Raw:       map[string]json.RawMessage{},
			Comment: &trackerclient.CommentPage{Comments: []trackerclient.Comment{
				{Body: json.RawMessage(`"already there"`), Created: "2026-01-01T00:00:00.000+0000"},
				{Body: json.RawMessage(`"brand new"`), Created: "2026-01-02T00:00:00.000+0000"},
			}},
		},
	}

	mappings := newMappingStore(t,
		types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: -1, InternalID: 3, ExternalKey: "3", Primary: true},
		types.Mapping{Scope: types.ScopeCustomPropertyValue, HubProjectID: -3, InternalID: 1, ExternalKey: "1", Primary: true},
		types.Mapping{Scope: types.ScopeArtifactIncident, HubProjectID: 2, InternalID: 42, ExternalKey: "DEMO-9", Primary: true},
	)

	e := New(hub, tracker, mappings, testLogger(), Options{}, nil)

	stats, err := e.pullPhase(ctx, types.ProjectPair{HubProjectID: 2, TrackerProjectKey: "DEMO"}, nil, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	require.Len(t, hub.updated, 1)
	require.Len(t, hub.updated[0].Comments, 2)
	assert.Equal(t, "already there", hub.updated[0].Comments[0].Body)
	assert.Equal(t, "brand new", hub.updated[0].Comments[1].Body)
}
