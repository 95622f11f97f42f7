package mapping

import (
	"context"
	"fmt"
	"time"

	"github.com/hubforge/sync-core/internal/types"
)

// Conflict reports a Hub artifact and its mirrored Tracker issue that
// were BOTH updated since lastSyncAt. This is read-only reporting: no
// automatic bidirectional field-level resolution is performed.
type Conflict struct {
	InternalID       int
	ExternalKey      string
	HubUpdatedAt     time.Time
	TrackerUpdatedAt time.Time
}

// HubUpdatedArtifact is one row of "artifacts updated since a timestamp"
// as the Hub client reports it.
type HubUpdatedArtifact struct {
	InternalID int
	UpdatedAt  time.Time
}

// HubArtifactLister lists Hub artifacts updated since a timestamp, scoped
// to one project.
type HubArtifactLister interface {
	ListUpdatedSince(ctx context.Context, hubProjectID int, since time.Time) ([]HubUpdatedArtifact, error)
}

// TrackerTimestampFetcher fetches the Tracker's updated timestamp for one
// issue key, used only for the conflict probe (not the main pull path,
// which fetches the full issue anyway).
type TrackerTimestampFetcher interface {
	FetchUpdatedAt(ctx context.Context, externalKey string) (time.Time, error)
}

// DetectConflicts compares, for every Hub artifact updated since
// lastSyncAt with an existing mapping, whether the mirrored Tracker issue
// was ALSO updated since lastSyncAt. Fetch failures are reported as
// conflicts for operator visibility rather than silently dropped: a
// Tracker issue that cannot be checked is treated as a potential
// conflict rather than assumed safe.
func DetectConflicts(
	ctx context.Context,
	resolver *Resolver,
	scope types.Scope,
	hub HubArtifactLister,
	tracker TrackerTimestampFetcher,
	hubProjectID int,
	lastSyncAt time.Time,
) ([]Conflict, error) {
	updated, err := hub.ListUpdatedSince(ctx, hubProjectID, lastSyncAt)
	if err != nil {
		return nil, fmt.Errorf("list hub artifacts updated since %s: %w", lastSyncAt, err)
	}

	var conflicts []Conflict
	for _, a := range updated {
		m, err := resolver.FindByInternalID(ctx, scope, hubProjectID, a.InternalID)
		if err != nil {
			return nil, fmt.Errorf("resolve mapping for artifact %d: %w", a.InternalID, err)
		}
		if m == nil {
			continue // never pushed to the Tracker, nothing to conflict with
		}

		trackerUpdated, err := tracker.FetchUpdatedAt(ctx, m.ExternalKey)
		if err != nil {
			conflicts = append(conflicts, Conflict{
				InternalID:   a.InternalID,
				ExternalKey:  m.ExternalKey,
				HubUpdatedAt: a.UpdatedAt,
			})
			continue
		}
		if trackerUpdated.After(lastSyncAt) {
			conflicts = append(conflicts, Conflict{
				InternalID:       a.InternalID,
				ExternalKey:      m.ExternalKey,
				HubUpdatedAt:     a.UpdatedAt,
				TrackerUpdatedAt: trackerUpdated,
			})
		}
	}
	return conflicts, nil
}
