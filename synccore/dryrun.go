package synccore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hubforge/sync-core/internal/engine"
	"github.com/hubforge/sync-core/internal/eventlog"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

// dryRunHub decorates a real engine.HubClient, passing reads through
// unchanged and turning every mutating call into a trace-logged no-op.
type dryRunHub struct {
	engine.HubClient
	log *eventlog.Logger
}

func (d dryRunHub) CreateIncident(ctx context.Context, incident types.HubIncident) (int, error) {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would create Hub incident %q", incident.Name))
	return 0, nil
}

func (d dryRunHub) UpdateIncident(ctx context.Context, incident types.HubIncident) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would update Hub incident %d", incident.ID))
	return nil
}

func (d dryRunHub) CreateRequirement(ctx context.Context, requirement types.HubRequirement) (int, error) {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would create Hub requirement %q", requirement.Name))
	return 0, nil
}

func (d dryRunHub) UpdateRequirement(ctx context.Context, requirement types.HubRequirement) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would update Hub requirement %d", requirement.ID))
	return nil
}

func (d dryRunHub) AddFileDocument(ctx context.Context, artifactID int, artifactKind, filename string, _ []byte, _ string) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would attach %q to Hub %s %d", filename, artifactKind, artifactID))
	return nil
}

func (d dryRunHub) AddURLDocument(ctx context.Context, artifactID int, artifactKind, title, url string) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would link %q (%s) on Hub %s %d", title, url, artifactKind, artifactID))
	return nil
}

func (d dryRunHub) CreateRelease(ctx context.Context, release types.Release) (int, error) {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would create Hub release %q", release.VersionNumber))
	return 0, nil
}

// dryRunTracker decorates a real engine.TrackerClient the same way.
type dryRunTracker struct {
	engine.TrackerClient
	log *eventlog.Logger
}

func (d dryRunTracker) CreateIssue(ctx context.Context, fields map[string]interface{}) (*trackerclient.Issue, error) {
	b, _ := json.Marshal(fields)
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would create tracker issue: %s", b))
	return &trackerclient.Issue{Key: "DRY-RUN"}, nil
}

func (d dryRunTracker) UpdateIssue(ctx context.Context, key string, _ map[string]interface{}) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would update tracker issue %s", key))
	return nil
}

func (d dryRunTracker) AddAttachment(ctx context.Context, key, filename string, _ []byte) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would attach %q to tracker issue %s", filename, key))
	return nil
}

func (d dryRunTracker) AddWebLink(ctx context.Context, key, targetURL, label string) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would add web link %q (%s) to tracker issue %s", label, targetURL, key))
	return nil
}

func (d dryRunTracker) AddIssueLink(ctx context.Context, linkType, fromKey, toKey, _ string) error {
	d.log.Trace(ctx, fmt.Sprintf("dry-run: would add %s issue link %s -> %s", linkType, fromKey, toKey))
	return nil
}

var (
	_ engine.HubClient     = dryRunHub{}
	_ engine.TrackerClient = dryRunTracker{}
)
