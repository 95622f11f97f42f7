package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hubforge/sync-core/internal/artifact"
	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

const pullPageSize = 100

// errSkipped marks an artifact that onlyCreateNewItemsInTracker excluded;
// it is counted as Skipped rather than Errors.
var errSkipped = errors.New("skipped: only-create-new-in-tracker")

// pullPhase implements spec.md §4.5's pull phase: JQL-search issues
// updated since lastSyncAt, re-fetch each by key, and route each to the
// incident or requirement transformer before creating or updating the
// matching Hub artifact.
func (e *Engine) pullPhase(ctx context.Context, pair types.ProjectPair, lastSyncAt *time.Time, now time.Time) (Stats, error) {
	var stats Stats
	ctx, span := engineTracer.Start(ctx, "engine.pull_phase")
	defer span.End()

	jql := buildJQL(lastSyncAt, e.Options.TrackerTimezoneOffsetHours)
	keys, err := e.Tracker.SearchAll(ctx, jql, pullPageSize)
	if err != nil {
		return stats, fmt.Errorf("search tracker issues: %w", err)
	}

	metadata, err := e.Tracker.GetCreateMetadata(ctx, pair.TrackerProjectKey)
	if err != nil {
		return stats, fmt.Errorf("fetch create metadata for %s: %w", pair.TrackerProjectKey, err)
	}

	incidentCatalog, err := e.Hub.FetchCustomPropertyCatalog(ctx, pair.HubProjectID, ArtifactKindIncident)
	if err != nil {
		return stats, fmt.Errorf("fetch incident custom-property catalog: %w", err)
	}
	incidentCatalog = e.filterCatalog(incidentCatalog)

	requirementCatalog, err := e.Hub.FetchCustomPropertyCatalog(ctx, pair.HubProjectID, ArtifactKindRequirement)
	if err != nil {
		return stats, fmt.Errorf("fetch requirement custom-property catalog: %w", err)
	}
	requirementCatalog = e.filterCatalog(requirementCatalog)

	for _, key := range keys {
		issue, err := e.Tracker.GetIssueByKey(ctx, key)
		if err != nil {
			_ = e.Log.Error(ctx, fmt.Sprintf("fetch tracker issue %s failed, skipping: %v", key, err))
			stats.Errors++
			continue
		}

		var created bool
		if issue.Fields.IssueType != nil && e.Options.isRequirementIssueType(issue.Fields.IssueType.ID) {
			created, err = e.pullOneRequirement(ctx, pair, requirementCatalog, metadata, *issue, now)
		} else {
			created, err = e.pullOneIncident(ctx, pair, incidentCatalog, metadata, *issue, now)
		}

		if err != nil {
			if errors.Is(err, errSkipped) {
				stats.Skipped++
				continue
			}
			_ = e.Log.Error(ctx, fmt.Sprintf("pull tracker issue %s failed: %v", key, err))
			stats.Errors++
			e.recordArtifact(ctx, "pull", "error")
			continue
		}

		stats.Pulled++
		if created {
			stats.Created++
			e.recordArtifact(ctx, "pull", "created")
		} else {
			stats.Updated++
			e.recordArtifact(ctx, "pull", "updated")
		}
	}

	return stats, nil
}

// buildJQL renders spec.md §4.5 pull step 1. A nil lastSyncAt (first
// run) omits the updated filter and pulls every issue.
func buildJQL(lastSyncAt *time.Time, offsetHours int) string {
	if lastSyncAt == nil {
		return "order by updated asc"
	}
	return fmt.Sprintf("updated >= '%s' order by updated asc", trackerclient.FormatJQLTimestamp(*lastSyncAt, offsetHours))
}

func (e *Engine) pullDeps(pair types.ProjectPair, catalog []hubclient.CustomProperty, metadata *trackerclient.CreateMetadata) artifact.ArtifactPullDeps {
	return artifact.ArtifactPullDeps{
		Enums:                  e.Mappings,
		Users:                  e.Mappings,
		Releases:               e.Mappings,
		ReleaseAPI:             e.Hub,
		CustomProps:            catalog,
		Metadata:               metadata,
		ProjectKey:             pair.TrackerProjectKey,
		HubProjectID:           pair.HubProjectID,
		PersistReleaseMappings: e.Options.PersistAutoCreatedReleaseMappings,
		SeverityFieldKey:       e.Options.SeverityFieldKey,
		Log:                    e.Log,
	}
}

func (e *Engine) pullOneIncident(ctx context.Context, pair types.ProjectPair, catalog []hubclient.CustomProperty, metadata *trackerclient.CreateMetadata, issue trackerclient.Issue, now time.Time) (bool, error) {
	existing, err := e.Mappings.FindByExternalKey(ctx, types.ScopeArtifactIncident, pair.HubProjectID, issue.Key, true)
	if err != nil {
		return false, fmt.Errorf("lookup incident mapping for %s: %w", issue.Key, err)
	}
	isNew := existing == nil
	if isNew && e.Options.OnlyCreateNewItemsInTracker {
		return false, errSkipped
	}

	incident, err := artifact.TrackerIssueToHubIncident(ctx, e.pullDeps(pair, catalog, metadata), issue, now)
	if err != nil {
		return false, fmt.Errorf("transform tracker issue %s: %w", issue.Key, err)
	}
	if isNew {
		stubIncident(&incident, issue.Key)
	}
	incident.ProjectID = pair.HubProjectID

	if isNew {
		id, err := e.Hub.CreateIncident(ctx, incident)
		if err != nil {
			return false, fmt.Errorf("create hub incident for %s: %w", issue.Key, err)
		}
		incident.ID = id
		e.Mappings.AddMappings(types.Mapping{
			Scope:        types.ScopeArtifactIncident,
			HubProjectID: pair.HubProjectID,
			InternalID:   id,
			ExternalKey:  issue.Key,
			Primary:      true,
		})
		e.linkPulledArtifact(ctx, pair, id, ArtifactKindIncident, issue)
		e.reuploadAttachments(ctx, id, ArtifactKindIncident, issue)
		return true, nil
	}

	incident.ID = existing.InternalID
	incident.Comments = e.dedupeAgainstExistingIncident(ctx, incident.ID, incident.Comments)
	if err := e.Hub.UpdateIncident(ctx, incident); err != nil {
		return false, fmt.Errorf("update hub incident %d for %s: %w", incident.ID, issue.Key, err)
	}
	return false, nil
}

// dedupeAgainstExistingIncident fetches the Hub incident's current
// comment thread and returns it with only the genuinely new pulled
// comments appended (spec.md:226: no duplicate comments across runs). A
// fetch failure is logged and the pulled comments pass through
// unchanged rather than failing the whole update.
func (e *Engine) dedupeAgainstExistingIncident(ctx context.Context, incidentID int, pulled []types.Comment) []types.Comment {
	current, err := e.Hub.GetIncident(ctx, incidentID)
	if err != nil {
		_ = e.Log.Error(ctx, fmt.Sprintf("fetch hub incident %d for comment dedupe failed, comments may duplicate: %v", incidentID, err))
		return pulled
	}
	fresh := artifact.DedupeNewComments(current.Comments, pulled)
	return append(append([]types.Comment(nil), current.Comments...), fresh...)
}

func (e *Engine) pullOneRequirement(ctx context.Context, pair types.ProjectPair, catalog []hubclient.CustomProperty, metadata *trackerclient.CreateMetadata, issue trackerclient.Issue, now time.Time) (bool, error) {
	existing, err := e.Mappings.FindByExternalKey(ctx, types.ScopeArtifactRequirement, pair.HubProjectID, issue.Key, true)
	if err != nil {
		return false, fmt.Errorf("lookup requirement mapping for %s: %w", issue.Key, err)
	}
	isNew := existing == nil
	if isNew && e.Options.OnlyCreateNewItemsInTracker {
		return false, errSkipped
	}

	res, err := artifact.TrackerIssueToHubRequirement(ctx, e.pullDeps(pair, catalog, metadata), issue, now)
	if err != nil {
		return false, fmt.Errorf("transform tracker issue %s: %w", issue.Key, err)
	}
	if res.StatusDefaulted {
		_ = e.Log.Trace(ctx, fmt.Sprintf("requirement %s: tracker status had no hub mapping, defaulted", issue.Key))
	}
	if res.TypeDefaulted {
		_ = e.Log.Trace(ctx, fmt.Sprintf("requirement %s: tracker issue type had no hub mapping, defaulted", issue.Key))
	}

	requirement := res.Requirement
	if isNew {
		stubRequirement(&requirement, issue.Key)
	}
	requirement.ProjectID = pair.HubProjectID

	if isNew {
		id, err := e.Hub.CreateRequirement(ctx, requirement)
		if err != nil {
			return false, fmt.Errorf("create hub requirement for %s: %w", issue.Key, err)
		}
		requirement.ID = id
		e.Mappings.AddMappings(types.Mapping{
			Scope:        types.ScopeArtifactRequirement,
			HubProjectID: pair.HubProjectID,
			InternalID:   id,
			ExternalKey:  issue.Key,
			Primary:      true,
		})
		e.linkPulledArtifact(ctx, pair, id, ArtifactKindRequirement, issue)
		e.reuploadAttachments(ctx, id, ArtifactKindRequirement, issue)
		return true, nil
	}

	requirement.ID = existing.InternalID
	requirement.Comments = e.dedupeAgainstExistingRequirement(ctx, requirement.ID, requirement.Comments)
	if err := e.Hub.UpdateRequirement(ctx, requirement); err != nil {
		return false, fmt.Errorf("update hub requirement %d for %s: %w", requirement.ID, issue.Key, err)
	}
	return false, nil
}

// dedupeAgainstExistingRequirement is dedupeAgainstExistingIncident's
// requirement-scoped counterpart.
func (e *Engine) dedupeAgainstExistingRequirement(ctx context.Context, requirementID int, pulled []types.Comment) []types.Comment {
	current, err := e.Hub.GetRequirement(ctx, requirementID)
	if err != nil {
		_ = e.Log.Error(ctx, fmt.Sprintf("fetch hub requirement %d for comment dedupe failed, comments may duplicate: %v", requirementID, err))
		return pulled
	}
	fresh := artifact.DedupeNewComments(current.Comments, pulled)
	return append(append([]types.Comment(nil), current.Comments...), fresh...)
}

// stubIncident fills name/description with a placeholder when the
// source issue carried neither (spec.md §4.5 pull step 4).
func stubIncident(incident *types.HubIncident, issueKey string) {
	if incident.Name == "" {
		incident.Name = fmt.Sprintf("(no summary: %s)", issueKey)
	}
	if incident.Description == "" {
		incident.Description = "(no description)"
	}
}

func stubRequirement(requirement *types.HubRequirement, issueKey string) {
	if requirement.Name == "" {
		requirement.Name = fmt.Sprintf("(no summary: %s)", issueKey)
	}
	if requirement.Description == "" {
		requirement.Description = "(no description)"
	}
}

// linkPulledArtifact mirrors the push path's cyclic linking for a newly
// created Hub artifact: a Tracker web-link back to the Hub artifact, and
// a Hub document linking to the Tracker issue.
func (e *Engine) linkPulledArtifact(ctx context.Context, pair types.ProjectPair, hubID int, artifactKind string, issue trackerclient.Issue) {
	hubURL := hubclient.ResolveURL(fmt.Sprintf("~/%s/%d", artifactKind, hubID), e.Options.HubWebBaseURL)
	if err := e.Tracker.AddWebLink(ctx, issue.Key, hubURL, fmt.Sprintf("Hub %s: %s", artifactKind, issue.Fields.Summary)); err != nil {
		_ = e.Log.Error(ctx, (&types.LinkCreationError{Kind: "web-link", Cause: err}).Error())
	}

	trackerURL := trackerclient.BuildExternalRef(e.Options.TrackerWebBaseURL, issue.Key)
	if err := e.Hub.AddURLDocument(ctx, hubID, artifactKind, "Tracker Issue: "+issue.Key, trackerURL); err != nil {
		_ = e.Log.Error(ctx, (&types.LinkCreationError{Kind: "web-link", Cause: err}).Error())
	}
}

// reuploadAttachments fetches each Tracker attachment's content and
// re-uploads it as a Hub document, scoped to newly created artifacts
// only — re-running this on every update would re-upload the same file
// on every sync cycle.
func (e *Engine) reuploadAttachments(ctx context.Context, hubID int, artifactKind string, issue trackerclient.Issue) {
	for _, a := range issue.Fields.Attachment {
		data, err := e.Tracker.FetchAttachmentContent(ctx, a.Content)
		if err != nil {
			_ = e.Log.Error(ctx, (&types.AttachmentTransferError{Filename: a.Filename, Cause: err}).Error())
			continue
		}
		if err := e.Hub.AddFileDocument(ctx, hubID, artifactKind, a.Filename, data, a.MimeType); err != nil {
			_ = e.Log.Error(ctx, (&types.AttachmentTransferError{Filename: a.Filename, Cause: err}).Error())
		}
	}
}
