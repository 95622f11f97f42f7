package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

// HubClient is the subset of *hubclient.Client the engine drives. Kept
// narrow so engine tests can fake the Hub side without an RPC transport.
type HubClient interface {
	Authenticate(ctx context.Context) error
	ConnectToProject(ctx context.Context, projectID int) error

	ListAllIncidents(ctx context.Context, projectID int) ([]types.HubIncident, error)
	ListIncidentsUpdatedSince(ctx context.Context, projectID int, since time.Time) ([]types.HubIncident, error)
	CreateIncident(ctx context.Context, incident types.HubIncident) (int, error)
	UpdateIncident(ctx context.Context, incident types.HubIncident) error
	GetIncident(ctx context.Context, incidentID int) (*types.HubIncident, error)
	CreateRequirement(ctx context.Context, requirement types.HubRequirement) (int, error)
	UpdateRequirement(ctx context.Context, requirement types.HubRequirement) error
	GetRequirement(ctx context.Context, requirementID int) (*types.HubRequirement, error)

	FetchMappings(ctx context.Context, scope types.Scope) ([]types.Mapping, error)
	FetchCustomPropertyCatalog(ctx context.Context, projectID int, artifactKind string) ([]hubclient.CustomProperty, error)

	AddFileDocument(ctx context.Context, artifactID int, artifactKind, filename string, data []byte, mimeType string) error
	AddURLDocument(ctx context.Context, artifactID int, artifactKind, title, url string) error

	CreateRelease(ctx context.Context, release types.Release) (int, error)
}

// TrackerClient is the subset of *trackerclient.Client the engine drives.
type TrackerClient interface {
	Probe(ctx context.Context) (json.RawMessage, error)
	GetCreateMetadata(ctx context.Context, projectKey string) (*trackerclient.CreateMetadata, error)
	ListComponents(ctx context.Context, projectKey string) ([]trackerclient.NamedRef, error)

	CreateIssue(ctx context.Context, fields map[string]interface{}) (*trackerclient.Issue, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error
	GetIssueByKey(ctx context.Context, key string) (*trackerclient.Issue, error)
	SearchAll(ctx context.Context, jql string, pageSize int) ([]string, error)

	AddAttachment(ctx context.Context, key, filename string, data []byte) error
	FetchAttachmentContent(ctx context.Context, contentURL string) ([]byte, error)
	AddWebLink(ctx context.Context, key, targetURL, label string) error
	AddIssueLink(ctx context.Context, linkType, fromKey, toKey, comment string) error
}

// Mappings is the resolver surface the engine checkpoints against:
// point lookups during transform, buffered writes for newly discovered
// identities, and an explicit Flush at each checkpoint (spec.md §4.5).
type Mappings interface {
	FindByInternalID(ctx context.Context, scope types.Scope, hubProjectID, internalID int) (*types.Mapping, error)
	FindByExternalKey(ctx context.Context, scope types.Scope, hubProjectID int, externalKey string, onlyPrimary bool) (*types.Mapping, error)
	FindUserByInternalID(ctx context.Context, internalID int) (*types.Mapping, error)
	FindUserByExternalKey(ctx context.Context, login string) (*types.Mapping, error)
	AddMappings(mappings ...types.Mapping)
	Flush(ctx context.Context) error
}
