package hubclient

import (
	"context"
	"time"

	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/types"
)

const incidentPageSize = 15

type retrieveIncidentsArgs struct {
	SessionToken string
	ProjectID    int
	StartRow     int
	PageSize     int
}

type retrieveIncidentsReply struct {
	Incidents []types.HubIncident
	HasMore   bool
}

// ListAllIncidents pages through every incident in a project, 15 per
// page with an empty filter sorted by name ascending, and returns the
// full accumulated set. The push phase gates each incident individually
// afterward (sync-flag custom property, mapping existence).
func (c *Client) ListAllIncidents(ctx context.Context, projectID int) ([]types.HubIncident, error) {
	var all []types.HubIncident
	startRow := 0
	for {
		var reply retrieveIncidentsReply
		err := c.call(ctx, "Incident_Retrieve", retrieveIncidentsArgs{
			SessionToken: c.sessionToken,
			ProjectID:    projectID,
			StartRow:     startRow,
			PageSize:     incidentPageSize,
		}, &reply)
		if err != nil {
			return nil, err
		}
		all = append(all, reply.Incidents...)
		startRow += len(reply.Incidents)
		if !reply.HasMore || len(reply.Incidents) == 0 {
			break
		}
	}
	return all, nil
}

type retrieveUpdatedArgs struct {
	SessionToken string
	ProjectID    int
	Since        time.Time
}

type retrieveUpdatedReply struct {
	Incidents []types.HubIncident
}

// ListIncidentsUpdatedSince is the conflict-detection helper's concrete
// incident-scoped query.
func (c *Client) ListIncidentsUpdatedSince(ctx context.Context, projectID int, since time.Time) ([]types.HubIncident, error) {
	var reply retrieveUpdatedReply
	err := c.call(ctx, "Incident_RetrieveUpdatedSince", retrieveUpdatedArgs{
		SessionToken: c.sessionToken,
		ProjectID:    projectID,
		Since:        since,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.Incidents, nil
}

// IncidentLister adapts Client to mapping.HubArtifactLister for the
// incident scope.
type IncidentLister struct{ *Client }

// ListUpdatedSince implements mapping.HubArtifactLister.
func (l IncidentLister) ListUpdatedSince(ctx context.Context, projectID int, since time.Time) ([]mapping.HubUpdatedArtifact, error) {
	incidents, err := l.ListIncidentsUpdatedSince(ctx, projectID, since)
	if err != nil {
		return nil, err
	}
	out := make([]mapping.HubUpdatedArtifact, len(incidents))
	for i, incident := range incidents {
		out[i] = mapping.HubUpdatedArtifact{InternalID: incident.ID, UpdatedAt: incident.LastUpdateDate}
	}
	return out, nil
}

type createIncidentArgs struct {
	SessionToken string
	Incident     types.HubIncident
}

type createIncidentReply struct {
	IncidentID      int
	ValidationFault *types.ValidationFault
}

// CreateIncident creates a new Hub incident. A non-nil ValidationFault in
// the reply is surfaced as an error; the caller (the engine's pull
// phase) is responsible for logging it and skipping the artifact.
func (c *Client) CreateIncident(ctx context.Context, incident types.HubIncident) (int, error) {
	var reply createIncidentReply
	err := c.call(ctx, "Incident_Create", createIncidentArgs{SessionToken: c.sessionToken, Incident: incident}, &reply)
	if err != nil {
		return 0, err
	}
	if reply.ValidationFault != nil {
		return 0, reply.ValidationFault
	}
	return reply.IncidentID, nil
}

type retrieveIncidentByIDArgs struct {
	SessionToken string
	IncidentID   int
}

type retrieveIncidentByIDReply struct {
	Incident *types.HubIncident
}

// GetIncident fetches one incident by its Hub internal id, including its
// existing comment thread, so the pull update path can dedupe newly
// pulled Tracker comments against what the Hub already has (spec.md:226).
func (c *Client) GetIncident(ctx context.Context, incidentID int) (*types.HubIncident, error) {
	var reply retrieveIncidentByIDReply
	err := c.call(ctx, "Incident_RetrieveById", retrieveIncidentByIDArgs{SessionToken: c.sessionToken, IncidentID: incidentID}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.Incident, nil
}

type updateIncidentArgs struct {
	SessionToken string
	Incident     types.HubIncident
}

type updateIncidentReply struct {
	ValidationFault *types.ValidationFault
}

// UpdateIncident updates an existing Hub incident in place.
func (c *Client) UpdateIncident(ctx context.Context, incident types.HubIncident) error {
	var reply updateIncidentReply
	err := c.call(ctx, "Incident_Update", updateIncidentArgs{SessionToken: c.sessionToken, Incident: incident}, &reply)
	if err != nil {
		return err
	}
	if reply.ValidationFault != nil {
		return reply.ValidationFault
	}
	return nil
}

type createRequirementArgs struct {
	SessionToken string
	Requirement  types.HubRequirement
}

type createRequirementReply struct {
	RequirementID   int
	ValidationFault *types.ValidationFault
}

// CreateRequirement creates a new Hub requirement.
func (c *Client) CreateRequirement(ctx context.Context, requirement types.HubRequirement) (int, error) {
	var reply createRequirementReply
	err := c.call(ctx, "Requirement_Create", createRequirementArgs{SessionToken: c.sessionToken, Requirement: requirement}, &reply)
	if err != nil {
		return 0, err
	}
	if reply.ValidationFault != nil {
		return 0, reply.ValidationFault
	}
	return reply.RequirementID, nil
}

type retrieveRequirementByIDArgs struct {
	SessionToken  string
	RequirementID int
}

type retrieveRequirementByIDReply struct {
	Requirement *types.HubRequirement
}

// GetRequirement fetches one requirement by its Hub internal id, the
// requirement-scoped counterpart to GetIncident.
func (c *Client) GetRequirement(ctx context.Context, requirementID int) (*types.HubRequirement, error) {
	var reply retrieveRequirementByIDReply
	err := c.call(ctx, "Requirement_RetrieveById", retrieveRequirementByIDArgs{SessionToken: c.sessionToken, RequirementID: requirementID}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.Requirement, nil
}

type updateRequirementArgs struct {
	SessionToken string
	Requirement  types.HubRequirement
}

type updateRequirementReply struct {
	ValidationFault *types.ValidationFault
}

// UpdateRequirement updates an existing Hub requirement in place.
func (c *Client) UpdateRequirement(ctx context.Context, requirement types.HubRequirement) error {
	var reply updateRequirementReply
	err := c.call(ctx, "Requirement_Update", updateRequirementArgs{SessionToken: c.sessionToken, Requirement: requirement}, &reply)
	if err != nil {
		return err
	}
	if reply.ValidationFault != nil {
		return reply.ValidationFault
	}
	return nil
}
