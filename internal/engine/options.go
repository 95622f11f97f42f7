package engine

// Artifact-kind strings the Hub RPC surface expects on its
// custom-property-catalog, comment, and document operations.
const (
	ArtifactKindIncident    = "Incident"
	ArtifactKindRequirement = "Requirement"
)

// Options carries every engine behavior toggle: the Host Contract's
// custom01..custom05 (spec.md §6.1) plus the open-question decisions
// resolved in DESIGN.md as named configuration rather than guessed
// defaults.
type Options struct {
	// AutoMapUsers enables the resolver's Hub-lookup user-mapping bypass
	// (spec.md §9 "User-mapping bypass").
	AutoMapUsers bool

	// SeverityFieldKey is custom01: the Tracker custom-field wire key
	// ("customfield_NNNNN") to mirror into the Hub's severityId. Empty
	// disables severity mirroring.
	SeverityFieldKey string

	// PropagateSecurityLevel is custom02: enables Tracker
	// security-level propagation through the SecurityLevel sentinel.
	PropagateSecurityLevel bool

	// OnlyCreateNewItemsInTracker is custom03: restricts new artifacts
	// to the Hub->Tracker flow only — the pull phase never creates a
	// Hub artifact for a Tracker issue with no existing mapping.
	OnlyCreateNewItemsInTracker bool

	// RequirementIssueTypes is custom04: the set of Tracker issueTypeId
	// values that route to the requirement transformer rather than the
	// incident transformer.
	RequirementIssueTypes map[string]bool

	// IncidentLinkType is custom05: the Tracker issue-link type name
	// used to mirror intra-Hub incident-incident associations.
	IncidentLinkType string

	// PushWindow, when true, additionally filters the push-phase
	// incident page by lastSyncAt; when false (default, matching the
	// source's literal current behavior) every incident is paged and
	// filtered by the mapping-existence check only. See spec.md §9.
	PushWindow bool

	// PersistAutoCreatedReleaseMappings gates whether an
	// auto-provisioned release's new mapping is buffered for the next
	// flush checkpoint. The zero value is false, and neither synccore nor
	// cmd/synccli sets it, so no such mapping is recorded unless the host
	// enables it (see DESIGN.md open-question decision #2).
	PersistAutoCreatedReleaseMappings bool

	// TrackerTimezoneOffsetHours converts lastSyncAt (UTC) into the
	// Tracker user's local time for JQL formatting (spec.md §4.5 pull
	// phase step 1; §9 "JQL timezone").
	TrackerTimezoneOffsetHours int

	// SyncFlagSlot is the Hub custom-property slot holding the
	// list-typed "sync flag" gating which incidents the push phase
	// includes.
	SyncFlagSlot int

	// SyncFlagYesValue is the list option value that opts an incident
	// into the push phase. spec.md describes the gate positionally
	// ("first/second list option name is Y/N"); this Hub client's
	// custom-property catalog carries no per-property option-name list
	// to resolve that position against (hubclient.CustomProperty has no
	// AllowedValues field), so the gate is expressed directly as the
	// option value meaning "yes" instead. See DESIGN.md.
	SyncFlagYesValue string

	// ProjectKeyOverrideSlot is the Hub custom-property slot holding
	// the text-typed "Tracker project key" override. Zero means no
	// override slot is configured.
	ProjectKeyOverrideSlot int

	// IssueKeySlot, when non-zero, names the custom-property slot the
	// push phase writes the newly assigned Tracker key into (the
	// JiraIssueKey sentinel in the catalog, spec.md §4.5 push step 6).
	IssueKeySlot int

	// HubWebBaseURL resolves the Hub's "~" web-server URL placeholder
	// (hubclient.ResolveURL) when composing the link written back onto
	// a newly pushed incident's Tracker issue.
	HubWebBaseURL string

	// TrackerWebBaseURL is the Tracker's browse-URL base, used to
	// compose the Hub-side document link to a newly created issue
	// ("<trackerBase>/browse/DEMO-N").
	TrackerWebBaseURL string
}

func (o Options) isRequirementIssueType(trackerIssueTypeID string) bool {
	return o.RequirementIssueTypes[trackerIssueTypeID]
}
