package hubclient

import (
	"context"

	"github.com/hubforge/sync-core/internal/types"
)

type listMappingsArgs struct {
	SessionToken string
	Scope        string
}

type listMappingsReply struct {
	Mappings []types.Mapping
}

// FetchMappings retrieves every mapping row of one scope, global
// (project/user) or project-scoped (artifact/custom-property), as
// currently recorded on the Hub side.
func (c *Client) FetchMappings(ctx context.Context, scope types.Scope) ([]types.Mapping, error) {
	var reply listMappingsReply
	err := c.call(ctx, "Mapping_List", listMappingsArgs{SessionToken: c.sessionToken, Scope: scope.String()}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.Mappings, nil
}

// CustomProperty describes one Hub custom-property slot's declared type
// and, for the sentinel fields, the recognized external key.
type CustomProperty struct {
	Slot        types.CustomPropertySlot
	Name        string
	Kind        types.ValueKind
	ExternalKey string // sentinel name ("Environment", "Resolution", ...) or a Tracker custom-field id
}

type customPropertyCatalogArgs struct {
	SessionToken string
	ProjectID    int
	ArtifactKind string
}

type customPropertyCatalogReply struct {
	Properties []CustomProperty
}

// FetchCustomPropertyCatalog fetches the project's custom-property
// catalog for one artifact kind. The catalog is never cached across runs
// — it is refetched every cycle, since the Hub has no custom-property
// schema-discovery guarantee.
func (c *Client) FetchCustomPropertyCatalog(ctx context.Context, projectID int, artifactKind string) ([]CustomProperty, error) {
	var reply customPropertyCatalogReply
	err := c.call(ctx, "CustomProperty_Catalog", customPropertyCatalogArgs{
		SessionToken: c.sessionToken,
		ProjectID:    projectID,
		ArtifactKind: artifactKind,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.Properties, nil
}

// FindUserByID implements mapping.HubUserLookup.
func (c *Client) FindUserByID(ctx context.Context, internalID int) (*types.User, error) {
	var reply struct {
		User *types.User
	}
	err := c.call(ctx, "User_RetrieveById", struct {
		SessionToken string
		UserID       int
	}{c.sessionToken, internalID}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.User, nil
}

// FindUserByLogin implements mapping.HubUserLookup.
func (c *Client) FindUserByLogin(ctx context.Context, login string) (*types.User, error) {
	var reply struct {
		User *types.User
	}
	err := c.call(ctx, "User_RetrieveByLogin", struct {
		SessionToken string
		Login        string
	}{c.sessionToken, login}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.User, nil
}
