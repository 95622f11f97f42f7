package artifact

import (
	"context"

	"github.com/hubforge/sync-core/internal/types"
)

// componentNameForHubID resolves a Hub component id to the Tracker
// component name it mirrors, scoped to the real (positive) hub project id
// — the Hub's component catalog is per-project, unlike the negative-bucket
// global enumerations in buckets.go.
func componentNameForHubID(ctx context.Context, lookup MappingLookup, hubProjectID, hubComponentID int) (string, bool, error) {
	m, err := lookup.FindByInternalID(ctx, types.ScopeCustomPropertyValue, hubProjectID, hubComponentID)
	if err != nil || m == nil {
		return "", false, err
	}
	return m.ExternalKey, true, nil
}

// hubComponentIDForName is the inverse lookup, used on the pull path.
func hubComponentIDForName(ctx context.Context, lookup MappingLookup, hubProjectID int, name string) (int, bool, error) {
	m, err := lookup.FindByExternalKey(ctx, types.ScopeCustomPropertyValue, hubProjectID, name, false)
	if err != nil || m == nil {
		return 0, false, err
	}
	return m.InternalID, true, nil
}

// resolveComponentNames maps every Hub component id to its Tracker name,
// silently dropping ids with no recorded mapping (the caller warns via
// the event log, not this package).
func resolveComponentNames(ctx context.Context, lookup MappingLookup, hubProjectID int, componentIDs []int) []string {
	names := make([]string, 0, len(componentIDs))
	for _, id := range componentIDs {
		if name, ok, err := componentNameForHubID(ctx, lookup, hubProjectID, id); err == nil && ok {
			names = append(names, name)
		}
	}
	return names
}

func toComponentRefs(names []string) []map[string]string {
	refs := make([]map[string]string, 0, len(names))
	for _, name := range names {
		refs = append(refs, map[string]string{"name": name})
	}
	return refs
}
