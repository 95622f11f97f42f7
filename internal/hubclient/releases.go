package hubclient

import (
	"context"
	"time"

	"github.com/hubforge/sync-core/internal/types"
)

type retrieveReleasesArgs struct {
	SessionToken string
	ProjectID    int
}

type retrieveReleasesReply struct {
	Releases []types.Release
}

// FetchReleases lists every release/version defined on a Hub project.
// The engine does not call it: the pull phase decides whether a Tracker
// version already has a Hub release through the release mappings.
func (c *Client) FetchReleases(ctx context.Context, projectID int) ([]types.Release, error) {
	var reply retrieveReleasesReply
	err := c.call(ctx, "Release_Retrieve", retrieveReleasesArgs{SessionToken: c.sessionToken, ProjectID: projectID}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.Releases, nil
}

type createReleaseArgs struct {
	SessionToken string
	Release      types.Release
}

type createReleaseReply struct {
	ReleaseID       int
	ValidationFault *types.ValidationFault
}

// CreateRelease auto-provisions a Hub release for a Tracker version with
// no existing mapping. The release's VersionNumber is expected to
// already be truncated to types.MaxVersionNumberLen and its
// StartDate/EndDate already computed from the Tracker version's release
// date (or today/today+5d when the Tracker version has none).
func (c *Client) CreateRelease(ctx context.Context, release types.Release) (int, error) {
	if release.VersionNumber != types.TruncateVersionNumber(release.VersionNumber) {
		release.VersionNumber = types.TruncateVersionNumber(release.VersionNumber)
	}
	var reply createReleaseReply
	err := c.call(ctx, "Release_Create", createReleaseArgs{SessionToken: c.sessionToken, Release: release}, &reply)
	if err != nil {
		return 0, err
	}
	if reply.ValidationFault != nil {
		return 0, reply.ValidationFault
	}
	return reply.ReleaseID, nil
}

// DefaultReleaseWindow computes the [StartDate, EndDate] pair a
// newly auto-provisioned release should carry: mirroring
// [releaseDate-1, releaseDate] when the Tracker version names a release
// date, or [today, today+5d] otherwise.
func DefaultReleaseWindow(releaseDate *time.Time, today time.Time) (start, end time.Time) {
	if releaseDate != nil {
		return releaseDate.AddDate(0, 0, -1), *releaseDate
	}
	return today, today.AddDate(0, 0, 5)
}
