package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubforge/sync-core/internal/config"
	"github.com/hubforge/sync-core/internal/eventlog"
	"github.com/hubforge/sync-core/synccore"
)

var (
	sinceFlag string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run one reconciliation cycle against the configured project pairs",
	RunE:  runE,
}

var dryRunCmd = &cobra.Command{
	Use:   "dry-run",
	Short: "run one reconciliation cycle without writing to either system",
	RunE:  runE,
}

func init() {
	for _, c := range []*cobra.Command{runCmd, dryRunCmd} {
		c.Flags().StringVar(&sinceFlag, "since", "", "RFC3339 timestamp of the last successful sync (omit for a first run)")
	}
}

// runE backs both run and dry-run; it differs only in setupCfg.DryRun,
// which synccore.Plugin.Setup uses to decide whether the engine drives
// the live Hub/Tracker clients or the logged-no-op decorators, and in
// dry-run's use of an in-memory mapping store.
func runE(cmd *cobra.Command, _ []string) error {
	f, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := config.ValidateNoUnknownKeys(configPath); err != nil {
		return err
	}

	var lastSyncAt *time.Time
	if sinceFlag != "" {
		t, err := time.Parse(time.RFC3339, sinceFlag)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		lastSyncAt = &t
	}

	// cmd/synccli has no SOAP/WSDL transport of its own to bind to
	// hub_base_url — spec.md §6.3 documents the Hub transport as
	// host-provided, and no such binding exists outside a production
	// host process (DESIGN.md decision 11). Setup below will fail with
	// a clear message rather than silently skip the Hub side; this
	// command is primarily useful once wired into a host that supplies
	// cfg.HubTransport, or for exercising the Tracker-only "probe"
	// command instead.
	// dry-run keeps mappings in memory, so the placeholder ids and keys
	// the dry-run decorators return never reach the configured store.
	dryRun := cmd.Name() == dryRunCmd.Name()
	mappingCfg := f.MappingConfig()
	if dryRun {
		mappingCfg = nil
	}

	plugin := synccore.New()
	setupCfg := synccore.Config{
		EventLogSink:      eventlog.NewWriterSink(os.Stdout),
		TraceLogging:      f.TraceLogging,
		DataSyncSystemID:  f.DataSyncSystemID,
		HubUser:           f.HubUser,
		HubPass:           f.HubPass,
		TrackerBaseURL:    f.TrackerBaseURL,
		TrackerUser:       f.TrackerUser,
		TrackerPass:       f.TrackerPass,
		OffsetHours:       f.OffsetHours,
		AutoMapUsers:      f.AutoMapUsers,
		Custom01:          f.Custom01,
		Custom02:          f.Custom02,
		Custom03:          f.Custom03,
		Custom04:          f.Custom04,
		Custom05:          f.Custom05,
		Projects:          f.ProjectPairs(),
		MappingStore:      mappingCfg,
		DryRun:            dryRun,
	}

	ctx := cmd.Context()
	if err := plugin.Setup(ctx, setupCfg); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer plugin.Dispose()

	res, err := plugin.Execute(ctx, lastSyncAt, time.Now())
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("sync failed: %s", res.Error)
	}
	fmt.Printf("sync complete: created=%d updated=%d skipped=%d errors=%d\n",
		res.Stats.Created, res.Stats.Updated, res.Stats.Skipped, res.Stats.Errors)
	return nil
}
