package valuetransform

import (
	"context"

	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/types"
)

// EnumMapper translates one custom-field option value between its Hub
// option id and its Tracker option name/id, scoped to one project. It is
// satisfied by *mapping.Resolver using types.ScopeCustomPropertyValue.
type EnumMapper interface {
	FindByExternalKey(ctx context.Context, scope types.Scope, hubProjectID int, externalKey string, onlyPrimary bool) (*types.Mapping, error)
	FindByInternalID(ctx context.Context, scope types.Scope, hubProjectID, internalID int) (*types.Mapping, error)
}

// optionIDToHub maps a Tracker option id/value to the Hub's internal
// option id via the custom-property-value mapping table. Returns ok=false
// when no mapping exists (the caller warns and skips).
func optionIDToHub(ctx context.Context, enums EnumMapper, hubProjectID int, trackerOptionValue string) (int, bool, error) {
	m, err := enums.FindByExternalKey(ctx, types.ScopeCustomPropertyValue, hubProjectID, trackerOptionValue, false)
	if err != nil {
		return 0, false, err
	}
	if m == nil {
		return 0, false, nil
	}
	return m.InternalID, true, nil
}

// optionIDToTracker maps a Hub internal option id to its Tracker option
// value via the same mapping table, in the opposite direction.
func optionIDToTracker(ctx context.Context, enums EnumMapper, hubProjectID, hubOptionID int) (string, bool, error) {
	m, err := enums.FindByInternalID(ctx, types.ScopeCustomPropertyValue, hubProjectID, hubOptionID)
	if err != nil {
		return "", false, err
	}
	if m == nil {
		return "", false, nil
	}
	return m.ExternalKey, true, nil
}

var _ EnumMapper = (*mapping.Resolver)(nil)
