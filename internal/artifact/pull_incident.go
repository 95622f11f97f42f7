package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

// TrackerIssueToHubIncident converts a Tracker issue into a Hub incident.
// Status, priority, and issue type must already carry a recorded mapping —
// unlike requirements, incidents have no defaulting rule, so an unmapped
// status/type is reported as an error for the caller to warn and skip.
func TrackerIssueToHubIncident(ctx context.Context, deps ArtifactPullDeps, issue trackerclient.Issue, now time.Time) (types.HubIncident, error) {
	common, err := pullCommonFields(ctx, deps, issue, now)
	if err != nil {
		return types.HubIncident{}, err
	}

	if issue.Fields.Status == nil {
		return types.HubIncident{}, fmt.Errorf("tracker issue %s has no status", issue.Key)
	}
	statusID, ok, err := statusToHub(ctx, deps.Enums, issue.Fields.Status.ID)
	if err != nil {
		return types.HubIncident{}, fmt.Errorf("resolve hub status for tracker issue %s: %w", issue.Key, err)
	}
	if !ok {
		return types.HubIncident{}, fmt.Errorf("no hub status mapping for tracker status %s (issue %s)", issue.Fields.Status.ID, issue.Key)
	}

	if issue.Fields.IssueType == nil {
		return types.HubIncident{}, fmt.Errorf("tracker issue %s has no issue type", issue.Key)
	}
	typeID, ok, err := incidentTypeToHub(ctx, deps.Enums, issue.Fields.IssueType.ID)
	if err != nil {
		return types.HubIncident{}, fmt.Errorf("resolve hub incident type for tracker issue %s: %w", issue.Key, err)
	}
	if !ok {
		return types.HubIncident{}, fmt.Errorf("no hub incident type mapping for tracker issue type %s (issue %s)", issue.Fields.IssueType.ID, issue.Key)
	}

	incident := types.HubIncident{
		Name:              common.name,
		Description:       common.description,
		StatusID:          statusID,
		TypeID:            typeID,
		OwnerID:           common.ownerID,
		DetectedReleaseID: common.detectedReleaseID,
		ResolvedReleaseID: common.resolvedReleaseID,
		ComponentIDs:      common.componentIDs,
		CustomProperties:  common.customProperties,
		Comments:          common.comments,
		Attachments:       common.attachments,
	}

	if issue.Fields.Priority != nil {
		if priorityID, ok, err := priorityToHub(ctx, deps.Enums, issue.Fields.Priority.ID); err == nil && ok {
			incident.PriorityID = priorityID
		}
	}

	if issue.Fields.Reporter != nil && issue.Fields.Reporter.Name != "" {
		if m, err := deps.Users.FindUserByExternalKey(ctx, issue.Fields.Reporter.Name); err == nil && m != nil {
			incident.OpenerID = m.InternalID
		}
	}

	if deps.SeverityFieldKey != "" {
		if raw, ok := common.rawCustomFields[deps.SeverityFieldKey]; ok {
			if severityID, ok, err := ApplySeverityFromCustomField(ctx, deps.Enums, raw); err == nil && ok {
				incident.SeverityID = &severityID
			}
		}
	}

	return incident, nil
}
