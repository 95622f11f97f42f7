package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubforge/sync-core/internal/config"
	"github.com/hubforge/sync-core/internal/trackerclient"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "check connectivity and credentials against the configured Tracker",
	Long: `probe exercises only the Tracker side of the configured pair: it has
no Hub transport to bind (spec.md §6.3 makes that host-supplied), so it
cannot probe the Hub from the command line the way run/dry-run/conflicts
would once embedded in a host process.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if f.TrackerBaseURL == "" {
			return fmt.Errorf("tracker_base_url is not set in %s", configPath)
		}

		tracker := trackerclient.NewClient(f.TrackerBaseURL, f.TrackerUser, f.TrackerPass)
		info, err := tracker.Probe(cmd.Context())
		if err != nil {
			return fmt.Errorf("probe tracker: %w", err)
		}
		fmt.Printf("tracker reachable at %s: %s\n", f.TrackerBaseURL, info)
		return nil
	},
}
