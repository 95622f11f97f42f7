package artifact

import (
	"context"
	"time"

	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

// RequirementPullResult carries the converted requirement plus whether
// either its status or type fell back to the default, so the engine can
// log a warning per defaulted field.
type RequirementPullResult struct {
	Requirement     types.HubRequirement
	StatusDefaulted bool
	TypeDefaulted   bool
}

// TrackerIssueToHubRequirement converts a Tracker issue into a Hub
// requirement. Unlike incidents, an unmapped status or issue type falls
// back to DefaultRequirementStatusID/DefaultRequirementTypeID rather than
// failing the pull.
func TrackerIssueToHubRequirement(ctx context.Context, deps ArtifactPullDeps, issue trackerclient.Issue, now time.Time) (RequirementPullResult, error) {
	common, err := pullCommonFields(ctx, deps, issue, now)
	if err != nil {
		return RequirementPullResult{}, err
	}

	var res RequirementPullResult
	statusID := DefaultRequirementStatusID
	if issue.Fields.Status != nil {
		if id, ok, err := statusToHub(ctx, deps.Enums, issue.Fields.Status.ID); err == nil && ok {
			statusID = id
		} else {
			res.StatusDefaulted = true
		}
	} else {
		res.StatusDefaulted = true
	}

	typeID := DefaultRequirementTypeID
	if issue.Fields.IssueType != nil {
		if id, ok, err := requirementTypeToHub(ctx, deps.Enums, issue.Fields.IssueType.ID); err == nil && ok {
			typeID = id
		} else {
			res.TypeDefaulted = true
		}
	} else {
		res.TypeDefaulted = true
	}

	res.Requirement = types.HubRequirement{
		Name:              common.name,
		Description:       common.description,
		StatusID:          statusID,
		TypeID:            typeID,
		OwnerID:           common.ownerID,
		DetectedReleaseID: common.detectedReleaseID,
		ComponentIDs:      common.componentIDs,
		CustomProperties:  common.customProperties,
		Comments:          common.comments,
		Attachments:       common.attachments,
	}

	if issue.Fields.Reporter != nil && issue.Fields.Reporter.Name != "" {
		if m, err := deps.Users.FindUserByExternalKey(ctx, issue.Fields.Reporter.Name); err == nil && m != nil {
			res.Requirement.AuthorID = m.InternalID
		}
	}

	return res, nil
}
