package artifact

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
	"github.com/hubforge/sync-core/internal/valuetransform"
)

// ArtifactPullDeps bundles everything the pull-side transformers need to
// resolve a Tracker issue's field identities against the Hub side.
type ArtifactPullDeps struct {
	Enums        MappingLookup
	Users        UserLookup
	Releases     MappingWriter
	ReleaseAPI   ReleaseCreator
	CustomProps  []hubclient.CustomProperty
	Metadata     *trackerclient.CreateMetadata
	ProjectKey   string
	HubProjectID int

	// PersistReleaseMappings gates whether an auto-provisioned release's
	// new mapping is buffered for the engine's next flush checkpoint.
	PersistReleaseMappings bool

	// SeverityFieldKey is the wire key ("customfield_NNNNN") of the
	// Tracker field configured as the severity mirror. Empty when the
	// project carries no severity mirror field.
	SeverityFieldKey string

	// Log records the MappingMissing/UnknownFieldShape warnings spec.md §7
	// documents for this path. Nil is tolerated (no-op) for callers, such
	// as existing unit tests, that don't care about the trace stream.
	Log Logger
}

func (d ArtifactPullDeps) trace(ctx context.Context, entry string) {
	if d.Log == nil {
		return
	}
	_ = d.Log.Trace(ctx, entry)
}

// pulledCommon is the set of fields both HubIncident and HubRequirement
// share and resolve identically from a Tracker issue.
type pulledCommon struct {
	name              string
	description       string // HTML
	ownerID           *int
	detectedReleaseID *int
	resolvedReleaseID *int
	componentIDs      []int
	customProperties  map[int]types.TypedValue
	comments          []types.Comment
	attachments       []types.Attachment
	rawCustomFields   map[string]types.TypedValue
}

func pullCommonFields(ctx context.Context, deps ArtifactPullDeps, issue trackerclient.Issue, now time.Time) (pulledCommon, error) {
	var out pulledCommon
	out.name = issue.Fields.Summary
	out.description = plainTextToHTML(trackerclient.PlainTextFromDescription(issue.Fields.Description))

	if issue.Fields.Assignee != nil && issue.Fields.Assignee.Name != "" {
		if m, err := deps.Users.FindUserByExternalKey(ctx, issue.Fields.Assignee.Name); err == nil && m != nil {
			id := m.InternalID
			out.ownerID = &id
		}
	}

	for _, c := range issue.Fields.Components {
		if id, ok, err := hubComponentIDForName(ctx, deps.Enums, deps.HubProjectID, c.Name); err == nil && ok {
			out.componentIDs = append(out.componentIDs, id)
		}
	}

	if len(issue.Fields.Versions) > 0 {
		if id, err := resolveVersionRelease(ctx, deps, issue.Fields.Versions[0], now); err == nil {
			out.detectedReleaseID = &id
		}
	}
	if len(issue.Fields.FixVersions) > 0 {
		if id, err := resolveVersionRelease(ctx, deps, issue.Fields.FixVersions[0], now); err == nil {
			out.resolvedReleaseID = &id
		}
	}

	if issue.Fields.Comment != nil {
		out.comments = ConvertTrackerComments(issue.Fields.Comment.Comments)
	}
	for _, a := range issue.Fields.Attachment {
		out.attachments = append(out.attachments, types.Attachment{Filename: a.Filename, URL: a.Content, MimeType: a.MimeType})
	}

	resolver := OptionNameResolver(deps.Metadata, deps.ProjectKey)
	var unknownKeys []string
	out.rawCustomFields, unknownKeys = valuetransform.ReconstructCustomFields(issue.Fields.Raw, resolver)
	for _, key := range unknownKeys {
		deps.trace(ctx, (&types.UnknownFieldShapeError{CustomFieldID: customFieldNumericID(key)}).Error())
	}
	out.customProperties = pullCustomProperties(ctx, deps, issue, out.rawCustomFields)
	return out, nil
}

// customFieldNumericID extracts the numeric id from a "customfield_NNNNN"
// wire key for UnknownFieldShapeError's report. 0 if the key is malformed.
func customFieldNumericID(key string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(key, "customfield_"))
	return n
}

func pullCustomProperties(ctx context.Context, deps ArtifactPullDeps, issue trackerclient.Issue, customFields map[string]types.TypedValue) map[int]types.TypedValue {
	componentNames := make([]string, 0, len(issue.Fields.Components))
	for _, c := range issue.Fields.Components {
		componentNames = append(componentNames, c.Name)
	}
	resolutionID := ""
	if issue.Fields.Resolution != nil {
		resolutionID = issue.Fields.Resolution.ID
	}
	securityLevel := ""
	if issue.Fields.Security != nil {
		securityLevel = issue.Fields.Security.ID
	}
	in := valuetransform.PullInput{
		Environment:   issue.Fields.Environment,
		ResolutionID:  resolutionID,
		SecurityLevel: securityLevel,
		IssueKey:      issue.Key,
		Components:    componentNames,
		CustomFields:  customFields,
	}

	out := make(map[int]types.TypedValue)
	for _, cp := range deps.CustomProps {
		slot := valuetransform.HubSlot{Slot: cp.Slot, Kind: cp.Kind, ExternalKey: cp.ExternalKey}
		value, ok, err := valuetransform.PullValue(ctx, deps.Enums, deps.Users, deps.HubProjectID, slot, in)
		if err != nil {
			deps.trace(ctx, fmt.Sprintf("hub slot %d (%s): lookup failed, leaving absent: %v", cp.Slot, cp.ExternalKey, err))
			continue
		}
		if !ok {
			deps.trace(ctx, (&types.MappingMissingError{Scope: types.ScopeCustomPropertyValue, ExternalKey: cp.ExternalKey}).Error())
			continue
		}
		out[int(cp.Slot)] = *value
	}
	return out
}

func resolveVersionRelease(ctx context.Context, deps ArtifactPullDeps, v trackerclient.VersionRef, now time.Time) (int, error) {
	releaseDate, _ := parseOptionalDate(v.ReleaseDate)
	tv := types.TrackerVersion{ID: v.ID, Name: v.Name, ReleaseDate: releaseDate, Released: v.Released, Archived: v.Archived}
	return ResolveRelease(ctx, deps.Releases, deps.ReleaseAPI, deps.HubProjectID, tv, now, deps.PersistReleaseMappings)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := trackerclient.ParseTimestamp(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
