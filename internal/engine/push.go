package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hubforge/sync-core/internal/artifact"
	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
	"github.com/hubforge/sync-core/internal/valuetransform"
)

// pushPhase pages through every Hub incident (spec.md §4.5 push phase),
// gates each by its sync-flag custom property and mapping existence, and
// creates a Tracker issue for each one newly included. When
// Options.PushWindow is set and lastSyncAt is non-nil, pagination is
// additionally filtered to incidents updated since lastSyncAt
// (spec.md §9's resolved open question); otherwise every incident in the
// project is paged, as before.
func (e *Engine) pushPhase(ctx context.Context, pair types.ProjectPair, lastSyncAt *time.Time) (Stats, error) {
	var stats Stats
	ctx, span := engineTracer.Start(ctx, "engine.push_phase")
	defer span.End()

	var incidents []types.HubIncident
	var err error
	if e.Options.PushWindow && lastSyncAt != nil {
		incidents, err = e.Hub.ListIncidentsUpdatedSince(ctx, pair.HubProjectID, *lastSyncAt)
	} else {
		incidents, err = e.Hub.ListAllIncidents(ctx, pair.HubProjectID)
	}
	if err != nil {
		return stats, fmt.Errorf("list hub incidents: %w", err)
	}

	catalog, err := e.Hub.FetchCustomPropertyCatalog(ctx, pair.HubProjectID, ArtifactKindIncident)
	if err != nil {
		return stats, fmt.Errorf("fetch incident custom-property catalog: %w", err)
	}
	catalog = e.filterCatalog(catalog)

	projectCache := newPushProjectCache(e.Tracker)

	for _, incident := range incidents {
		if !e.includeInPush(incident) {
			stats.Skipped++
			continue
		}

		existing, err := e.Mappings.FindByInternalID(ctx, types.ScopeArtifactIncident, pair.HubProjectID, incident.ID)
		if err != nil {
			return stats, fmt.Errorf("lookup incident mapping for %d: %w", incident.ID, err)
		}
		if existing != nil {
			stats.Skipped++
			continue
		}

		projectKey := strings.ToUpper(e.resolveTrackerProjectKey(pair, incident, catalog))
		pc, err := projectCache.get(ctx, projectKey)
		if err != nil || pc == nil {
			_ = e.Log.Error(ctx, fmt.Sprintf("incident %d: unknown tracker project %q, skipping", incident.ID, projectKey))
			stats.Skipped++
			continue
		}

		stats.Pushed++
		if err := e.pushOneIncident(ctx, pair, incident, projectKey, pc, catalog); err != nil {
			_ = e.Log.Error(ctx, fmt.Sprintf("push incident %d failed: %v", incident.ID, err))
			stats.Errors++
			e.recordArtifact(ctx, "push", "error")
			continue
		}
		stats.Created++
		e.recordArtifact(ctx, "push", "created")
	}

	return stats, nil
}

// includeInPush applies the sync-flag gate (spec.md §4.5 push step 2,
// §8 property 3): an incident is opted in only when its sync-flag
// custom property currently holds the configured "yes" value.
func (e *Engine) includeInPush(incident types.HubIncident) bool {
	if e.Options.SyncFlagSlot == 0 {
		return true
	}
	flag, ok := incident.CustomProperties[e.Options.SyncFlagSlot]
	if !ok {
		return false
	}
	return flag.ListValue == e.Options.SyncFlagYesValue
}

func (e *Engine) resolveTrackerProjectKey(pair types.ProjectPair, incident types.HubIncident, catalog []hubclient.CustomProperty) string {
	if e.Options.ProjectKeyOverrideSlot != 0 {
		if prop, ok := incident.CustomProperties[e.Options.ProjectKeyOverrideSlot]; ok && prop.Text != "" {
			return prop.Text
		}
	}
	return pair.TrackerProjectKey
}

func (e *Engine) pushOneIncident(ctx context.Context, pair types.ProjectPair, incident types.HubIncident, projectKey string, pc *pushProjectEntry, catalog []hubclient.CustomProperty) error {
	deps := artifact.IncidentPushDeps{
		Enums:       e.Mappings,
		Users:       e.Mappings,
		Releases:    e.Mappings,
		Components:  pc.components,
		CustomProps: catalog,
		Metadata:    pc.metadata,
		ProjectKey:  projectKey,
	}

	payload, _, err := artifact.BuildIncidentCreatePayload(ctx, deps, pair.HubProjectID, incident)
	if err != nil {
		return fmt.Errorf("build create payload: %w", err)
	}

	issue, err := e.Tracker.CreateIssue(ctx, payload)
	if err != nil {
		return fmt.Errorf("create tracker issue: %w", err)
	}

	e.Mappings.AddMappings(types.Mapping{
		Scope:        types.ScopeArtifactIncident,
		HubProjectID: pair.HubProjectID,
		InternalID:   incident.ID,
		ExternalKey:  issue.Key,
		Primary:      true,
	})

	e.linkPushedIncident(ctx, pair, incident, issue)
	e.uploadPushedAttachments(ctx, issue.Key, incident.Attachments)
	e.linkIncidentAssociations(ctx, pair, incident, issue)
	e.writeBackIssueKey(ctx, incident, issue)

	return nil
}

// linkPushedIncident writes the cyclic cross-system links as two
// independent one-way writes (spec.md §9 "Cyclic linking"): a Tracker
// web-link back to the Hub artifact, and a Hub document linking to the
// new Tracker issue.
func (e *Engine) linkPushedIncident(ctx context.Context, pair types.ProjectPair, incident types.HubIncident, issue *trackerclient.Issue) {
	hubURL := hubclient.ResolveURL(fmt.Sprintf("~/Incident/%d", incident.ID), e.Options.HubWebBaseURL)
	if err := e.Tracker.AddWebLink(ctx, issue.Key, hubURL, fmt.Sprintf("Hub Incident: %s", incident.Name)); err != nil {
		_ = e.Log.Error(ctx, (&types.LinkCreationError{Kind: "web-link", Cause: err}).Error())
	}

	trackerURL := trackerclient.BuildExternalRef(e.Options.TrackerWebBaseURL, issue.Key)
	if err := e.Hub.AddURLDocument(ctx, incident.ID, ArtifactKindIncident, "Tracker Issue: "+issue.Key, trackerURL); err != nil {
		_ = e.Log.Error(ctx, (&types.LinkCreationError{Kind: "web-link", Cause: err}).Error())
	}
}

func (e *Engine) uploadPushedAttachments(ctx context.Context, issueKey string, attachments []types.Attachment) {
	for _, a := range attachments {
		if a.URL != "" {
			if err := e.Tracker.AddWebLink(ctx, issueKey, a.URL, a.Filename); err != nil {
				_ = e.Log.Error(ctx, (&types.LinkCreationError{Kind: "web-link", Cause: err}).Error())
			}
			continue
		}
		if err := e.Tracker.AddAttachment(ctx, issueKey, a.Filename, a.Data); err != nil {
			_ = e.Log.Error(ctx, (&types.AttachmentTransferError{Filename: a.Filename, Cause: err}).Error())
		}
	}
}

// linkIncidentAssociations mirrors intra-Hub incident-incident
// associations as Tracker issue-links of the configured link type.
// incident-requirement and incident-test-run associations are not
// represented in types.HubIncident (only IncidentAssociationIDs is) and
// so have no data to mirror from in this data model; see DESIGN.md.
func (e *Engine) linkIncidentAssociations(ctx context.Context, pair types.ProjectPair, incident types.HubIncident, issue *trackerclient.Issue) {
	if e.Options.IncidentLinkType == "" {
		return
	}
	for _, relatedID := range incident.IncidentAssociationIDs {
		related, err := e.Mappings.FindByInternalID(ctx, types.ScopeArtifactIncident, pair.HubProjectID, relatedID)
		if err != nil || related == nil {
			continue
		}
		if err := e.Tracker.AddIssueLink(ctx, e.Options.IncidentLinkType, issue.Key, related.ExternalKey, ""); err != nil {
			_ = e.Log.Error(ctx, (&types.LinkCreationError{Kind: "issue-link", Cause: err}).Error())
		}
	}
}

// writeBackIssueKey implements spec.md §4.5 push step 6: when
// Options.IssueKeySlot names a custom-property slot, write the newly
// assigned Tracker key into it and update the incident.
func (e *Engine) writeBackIssueKey(ctx context.Context, incident types.HubIncident, issue *trackerclient.Issue) {
	if e.Options.IssueKeySlot == 0 {
		return
	}
	if incident.CustomProperties == nil {
		incident.CustomProperties = make(map[int]types.TypedValue)
	}
	incident.CustomProperties[e.Options.IssueKeySlot] = types.TypedValue{Kind: types.KindText, Text: issue.Key}
	if err := e.Hub.UpdateIncident(ctx, incident); err != nil {
		_ = e.Log.Error(ctx, fmt.Sprintf("write back tracker key for incident %d: %v", incident.ID, err))
	}
}

// pushProjectEntry caches the per-Tracker-project state the push
// transform needs, since incidents can target different Tracker
// projects via the project-key-override custom property.
type pushProjectEntry struct {
	metadata   *trackerclient.CreateMetadata
	components valuetransform.ComponentLookup
}

type pushProjectCache struct {
	tracker TrackerClient
	entries map[string]*pushProjectEntry
}

func newPushProjectCache(tracker TrackerClient) *pushProjectCache {
	return &pushProjectCache{tracker: tracker, entries: make(map[string]*pushProjectEntry)}
}

func (c *pushProjectCache) get(ctx context.Context, projectKey string) (*pushProjectEntry, error) {
	if projectKey == "" {
		return nil, fmt.Errorf("empty tracker project key")
	}
	if entry, ok := c.entries[projectKey]; ok {
		return entry, nil
	}

	meta, err := c.tracker.GetCreateMetadata(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch create metadata for %s: %w", projectKey, err)
	}
	if meta == nil || len(meta.Projects) == 0 {
		return nil, nil
	}

	named, err := c.tracker.ListComponents(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("list components for %s: %w", projectKey, err)
	}
	byName := make(map[string]string, len(named))
	for _, n := range named {
		byName[n.Name] = n.ID
	}
	lookup := func(name string) (string, bool) {
		id, ok := byName[name]
		return id, ok
	}

	entry := &pushProjectEntry{metadata: meta, components: lookup}
	c.entries[projectKey] = entry
	return entry, nil
}
