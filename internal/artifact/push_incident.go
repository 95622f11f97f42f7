package artifact

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
	"github.com/hubforge/sync-core/internal/valuetransform"
)

// IncidentPushDeps bundles everything BuildIncidentCreatePayload needs to
// resolve a Hub incident's field identities against the Tracker side.
type IncidentPushDeps struct {
	Enums       MappingLookup
	Users       UserReverseLookup
	Releases    MappingLookup
	Components  valuetransform.ComponentLookup // Tracker component name -> id, for custom-property Component sentinels
	CustomProps []hubclient.CustomProperty
	Metadata    *trackerclient.CreateMetadata
	ProjectKey  string
}

// BuildIncidentCreatePayload projects a Hub incident onto a Tracker
// create-issue field map, shaped against the target issue type's
// create-metadata. Returns the shaped payload and the resolved Tracker
// issue type id (the caller needs it to call trackerclient.CreateIssue and
// to know which issue type the metadata lookup used).
func BuildIncidentCreatePayload(ctx context.Context, deps IncidentPushDeps, hubProjectID int, incident types.HubIncident) (map[string]interface{}, string, error) {
	issueTypeID, ok, err := incidentTypeToTracker(ctx, deps.Enums, incident.TypeID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve tracker issue type for hub type %d: %w", incident.TypeID, err)
	}
	if !ok {
		return nil, "", fmt.Errorf("no tracker issue type mapping for hub incident type id %d", incident.TypeID)
	}

	fixed := map[string]interface{}{
		"issuetype": map[string]string{"id": issueTypeID},
		"project":   map[string]string{"key": deps.ProjectKey},
		"summary":   incident.Name,
	}
	if incident.Description != "" {
		fixed["description"] = trackerclient.DescriptionFromPlainText(htmlToPlainText(incident.Description))
	}
	if priorityID, ok, _ := priorityToTracker(ctx, deps.Enums, incident.PriorityID); ok {
		fixed["priority"] = map[string]string{"id": priorityID}
	}
	if login, ok, _ := resolveTrackerLogin(ctx, deps.Users, incident.OpenerID); ok {
		fixed["reporter"] = map[string]string{"name": login}
	}
	if incident.OwnerID != nil {
		if login, ok, _ := resolveTrackerLogin(ctx, deps.Users, *incident.OwnerID); ok {
			fixed["assignee"] = map[string]string{"name": login}
		}
	}

	componentNames := resolveComponentNames(ctx, deps.Enums, hubProjectID, incident.ComponentIDs)
	if len(componentNames) > 0 {
		fixed["components"] = toComponentRefs(componentNames)
	}

	if incident.DetectedReleaseID != nil {
		if m, err := deps.Releases.FindByInternalID(ctx, types.ScopeArtifactRelease, hubProjectID, *incident.DetectedReleaseID); err == nil && m != nil {
			fixed["versions"] = []map[string]string{{"id": m.ExternalKey}}
		}
	}
	if incident.ResolvedReleaseID != nil {
		if m, err := deps.Releases.FindByInternalID(ctx, types.ScopeArtifactRelease, hubProjectID, *incident.ResolvedReleaseID); err == nil && m != nil {
			fixed["fixVersions"] = []map[string]string{{"id": m.ExternalKey}}
		}
	}

	custom := map[string]interface{}{}
	if err := applyPushedCustomProperties(ctx, deps.Enums, deps.Components, hubProjectID, deps.CustomProps, incident.CustomProperties, fixed, custom); err != nil {
		return nil, "", err
	}

	shaped, err := valuetransform.ShapePayload(deps.Metadata, deps.ProjectKey, issueTypeID, fixed, custom)
	if err != nil {
		return nil, "", err
	}
	return shaped, issueTypeID, nil
}

func resolveTrackerLogin(ctx context.Context, users UserReverseLookup, hubUserID int) (string, bool, error) {
	m, err := users.FindUserByInternalID(ctx, hubUserID)
	if err != nil || m == nil {
		return "", false, err
	}
	return m.ExternalKey, true, nil
}

// applyPushedCustomProperties walks the project's custom-property catalog,
// running each populated slot through valuetransform.PushValue and folding
// the result into either the fixed-field map (components, resolution,
// security level) or the outbound customfield_* map.
func applyPushedCustomProperties(
	ctx context.Context,
	enums MappingLookup,
	components valuetransform.ComponentLookup,
	hubProjectID int,
	catalog []hubclient.CustomProperty,
	values map[int]types.TypedValue,
	fixed map[string]interface{},
	custom map[string]interface{},
) error {
	_, componentsAlreadySet := fixed["components"]

	for _, cp := range catalog {
		value, ok := values[int(cp.Slot)]
		if !ok || value.IsZero() {
			continue
		}
		slot := valuetransform.HubSlot{Slot: cp.Slot, Kind: cp.Kind, ExternalKey: cp.ExternalKey}
		result, err := valuetransform.PushValue(ctx, enums, hubProjectID, slot, value, components)
		if err != nil {
			return fmt.Errorf("push custom property slot %d: %w", cp.Slot, err)
		}

		switch {
		case len(result.Components) > 0:
			if componentsAlreadySet {
				continue
			}
			fixed["components"] = componentRefsByID(result.Components)
		case result.Resolution != "":
			fixed["resolution"] = map[string]string{"id": result.Resolution}
		case result.SecurityLevel != 0:
			fixed["security"] = map[string]string{"id": strconv.Itoa(result.SecurityLevel)}
		case result.HasCustomField:
			custom[result.CustomFieldKey] = result.CustomFieldVal
		}
	}
	return nil
}

func componentRefsByID(ids []string) []map[string]string {
	refs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, map[string]string{"id": id})
	}
	return refs
}

