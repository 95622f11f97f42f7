package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/types"
)

// ReleaseCreator is the subset of hubclient.Client the release resolver
// needs, kept narrow so tests can fake it.
type ReleaseCreator interface {
	CreateRelease(ctx context.Context, release types.Release) (int, error)
}

// ResolveRelease returns the Hub release id mirroring a Tracker version,
// auto-provisioning one when no mapping exists yet. persistMapping gates
// whether the new mapping is buffered on mappings for the engine's next
// flush (the PersistAutoCreatedReleaseMappings toggle) — when false the
// mapping is still returned for this run but not buffered, so a later run
// will auto-provision again.
func ResolveRelease(
	ctx context.Context,
	mappings MappingWriter,
	releases ReleaseCreator,
	hubProjectID int,
	version types.TrackerVersion,
	now time.Time,
	persistMapping bool,
) (int, error) {
	if m, err := mappings.FindByExternalKey(ctx, types.ScopeArtifactRelease, hubProjectID, version.ID, false); err != nil {
		return 0, fmt.Errorf("lookup release mapping for tracker version %s: %w", version.ID, err)
	} else if m != nil {
		return m.InternalID, nil
	}

	start, end := hubclient.DefaultReleaseWindow(version.ReleaseDate, now)
	release := types.Release{
		ProjectID:       hubProjectID,
		Name:            version.Name,
		VersionNumber:   types.TruncateVersionNumber(version.Name),
		Active:          !version.Archived,
		StartDate:       start,
		EndDate:         end,
		Released:        version.Released,
		Archived:        version.Archived,
		ReleaseStatusID: ReleaseStatusPlanned,
		ReleaseTypeID:   ReleaseTypeMajor,
	}
	hubReleaseID, err := releases.CreateRelease(ctx, release)
	if err != nil {
		return 0, fmt.Errorf("auto-provision release for tracker version %s: %w", version.ID, err)
	}

	if persistMapping {
		mappings.AddMappings(types.Mapping{
			Scope:        types.ScopeArtifactRelease,
			HubProjectID: hubProjectID,
			InternalID:   hubReleaseID,
			ExternalKey:  version.ID,
			Primary:      true,
		})
	}
	return hubReleaseID, nil
}
