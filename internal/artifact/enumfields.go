package artifact

import (
	"context"

	"github.com/hubforge/sync-core/internal/types"
	"github.com/hubforge/sync-core/internal/valuetransform"
)

func statusToHub(ctx context.Context, lookup MappingLookup, trackerStatusID string) (int, bool, error) {
	return enumToHub(ctx, lookup, statusBucket, trackerStatusID)
}

func statusToTracker(ctx context.Context, lookup MappingLookup, hubStatusID int) (string, bool, error) {
	return enumToTracker(ctx, lookup, statusBucket, hubStatusID)
}

func priorityToHub(ctx context.Context, lookup MappingLookup, trackerPriorityID string) (int, bool, error) {
	return enumToHub(ctx, lookup, priorityBucket, trackerPriorityID)
}

func priorityToTracker(ctx context.Context, lookup MappingLookup, hubPriorityID int) (string, bool, error) {
	return enumToTracker(ctx, lookup, priorityBucket, hubPriorityID)
}

func incidentTypeToHub(ctx context.Context, lookup MappingLookup, trackerIssueTypeID string) (int, bool, error) {
	return enumToHub(ctx, lookup, incidentTypeBucket, trackerIssueTypeID)
}

func incidentTypeToTracker(ctx context.Context, lookup MappingLookup, hubTypeID int) (string, bool, error) {
	return enumToTracker(ctx, lookup, incidentTypeBucket, hubTypeID)
}

func requirementTypeToHub(ctx context.Context, lookup MappingLookup, trackerIssueTypeID string) (int, bool, error) {
	return enumToHub(ctx, lookup, requirementTypeBucket, trackerIssueTypeID)
}

// ApplySeverityFromCustomField maps the Tracker custom field configured as
// the severity mirror (engine option custom01) into the Hub's native
// severityId, using only the first value when the field is multi-valued.
// ok is false when the field carries no value or no mapping is recorded.
func ApplySeverityFromCustomField(ctx context.Context, lookup MappingLookup, field types.TypedValue) (int, bool, error) {
	trackerValue, ok := valuetransform.SeverityFromTracker(field)
	if !ok {
		return 0, false, nil
	}
	return enumToHub(ctx, lookup, severityBucket, trackerValue)
}
