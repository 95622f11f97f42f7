package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubforge/sync-core/internal/config"
	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

var conflictsSince string

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "report Hub artifacts and their mirrored Tracker issues both updated since a timestamp",
	Long: `conflicts is a read-only diagnostic (spec.md §9 open question,
resolved per DESIGN.md): it performs no reconciliation, only reports
artifacts that changed on both sides since --since, for an operator to
resolve by hand.

Like run and dry-run, this command has no Hub transport of its own to
bind (spec.md §6.3's SOAP bindings are host-supplied); it requires
embedding into a host process that provides one.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if conflictsSince == "" {
			return fmt.Errorf("--since is required")
		}
		since, err := time.Parse(time.RFC3339, conflictsSince)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}

		f, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if len(f.Projects) == 0 {
			return fmt.Errorf("no project pairs configured in %s", configPath)
		}

		// See the command's long description: this CLI build has no
		// SOAP transport to hand hubclient.New, so conflicts cannot run
		// standalone yet. A host embedding synccore supplies one and
		// can call mapping.DetectConflicts directly the same way this
		// command would.
		var transport hubclient.Transport
		if transport == nil {
			return fmt.Errorf("conflicts: no Hub transport available outside a host process (DESIGN.md decision 11)")
		}

		ctx := cmd.Context()

		mappingCfg := f.MappingConfig()
		if mappingCfg == nil {
			return fmt.Errorf("mapping_store is not configured in %s", configPath)
		}
		store, err := mapping.Open(ctx, mappingCfg)
		if err != nil {
			return fmt.Errorf("open mapping store: %w", err)
		}
		defer store.Close()

		hub := hubclient.New(transport, f.HubUser, f.HubPass)
		tracker := trackerclient.NewClient(f.TrackerBaseURL, f.TrackerUser, f.TrackerPass)
		resolver := mapping.New(store, nil, false)

		return reportConflicts(ctx, resolver, hub, tracker, f.Projects, since)
	},
}

func init() {
	conflictsCmd.Flags().StringVar(&conflictsSince, "since", "", "RFC3339 timestamp to check for double updates since")
}

func reportConflicts(
	ctx context.Context,
	resolver *mapping.Resolver,
	hub *hubclient.Client,
	tracker *trackerclient.Client,
	projects []config.ProjectPair,
	since time.Time,
) error {
	var total int
	for _, pair := range projects {
		conflicts, err := mapping.DetectConflicts(
			ctx, resolver, types.ScopeArtifactIncident,
			hubclient.IncidentLister{Client: hub}, tracker,
			pair.HubProjectID, since,
		)
		if err != nil {
			return fmt.Errorf("project %d: %w", pair.HubProjectID, err)
		}
		for _, c := range conflicts {
			fmt.Printf("project %d: incident %d / %s updated on both sides (hub=%s tracker=%s)\n",
				pair.HubProjectID, c.InternalID, c.ExternalKey, c.HubUpdatedAt, c.TrackerUpdatedAt)
		}
		total += len(conflicts)
	}
	fmt.Printf("%d conflict(s) found\n", total)
	return nil
}
