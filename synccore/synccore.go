// Package synccore exposes the Hub/Tracker reconciliation engine as the
// three-operation Host Contract (spec.md §6.1): Setup, Execute, Dispose.
// A host process constructs a Plugin, calls Setup once with its
// connection details and event sink, then calls Execute once per sync
// cycle, and Dispose when tearing the integration down.
package synccore

import (
	"context"
	"fmt"
	"time"

	"github.com/hubforge/sync-core/internal/config"
	"github.com/hubforge/sync-core/internal/engine"
	"github.com/hubforge/sync-core/internal/eventlog"
	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

// Config carries every field spec.md §6.1's setup() call names, plus the
// project-pair list (administratively configured, per spec.md §3) and
// the mapping-store connection a production host's own persistence layer
// would otherwise stand in for.
type Config struct {
	// EventLogSink is the host-supplied destination for the trace and
	// error log streams (spec.md §6.5).
	EventLogSink eventlog.Sink
	TraceLogging bool

	// DataSyncSystemID identifies this integration instance to the host
	// when more than one sync system is configured against the same
	// Hub; the engine itself has no call that threads it through (Hub
	// mappings are scoped by project and artifact kind, not by
	// originating system, per internal/hubclient.FetchMappings), so
	// it is carried only as a log/trace correlation field. See
	// DESIGN.md.
	DataSyncSystemID int

	// HubTransport is the Hub's RPC transport, already bound to
	// hubBaseUrl. The transport's wire encoding (the host's SOAP
	// bindings, spec.md §6.3) is supplied by the host process; this
	// package only drives it through hubclient.Transport.
	HubTransport hubclient.Transport
	HubUser      string
	HubPass      string
	HubWebBaseURL string

	TrackerBaseURL         string
	TrackerUser            string
	TrackerPass            string
	TrackerUseDefaultCreds bool
	TrackerWebBaseURL      string

	OffsetHours  int
	AutoMapUsers bool

	// DryRun routes every mutating Hub/Tracker call through a decorator
	// that trace-logs the call instead of making it; reads still hit
	// both systems. Mirrors the teacher's --dry-run flag threaded into
	// tracker.SyncOptions.DryRun (cmd/bd/azuredevops.go), reworked as a
	// client decorator since this engine takes its dependencies as
	// narrow interfaces rather than one options struct field checked at
	// every call site.
	DryRun bool

	Custom01 string // Tracker custom-field id mirrored into Hub severityId
	Custom02 string // "true" enables security-level propagation
	Custom03 string // "true" restricts new artifacts to Hub->Tracker flow only
	Custom04 string // comma-separated Tracker issue-type ids routed to requirements
	Custom05 string // Tracker issue-link type for incident-incident associations

	// IssueKeySlot, when non-zero, names the Hub custom-property slot
	// the push phase writes the newly assigned Tracker key into.
	IssueKeySlot int
	// SyncFlagSlot/SyncFlagYesValue/ProjectKeyOverrideSlot resolve the
	// open questions documented in internal/engine/options.go and
	// DESIGN.md; zero/empty disables the corresponding gate.
	SyncFlagSlot           int
	SyncFlagYesValue       string
	ProjectKeyOverrideSlot int

	// PushWindow and PersistAutoCreatedReleaseMappings resolve the
	// spec.md §9 open questions the same way for every host; see
	// DESIGN.md decisions 1-2.
	PushWindow                        bool
	PersistAutoCreatedReleaseMappings bool

	Projects []types.ProjectPair

	// MappingStore configures the SQL-backed mapping table. Nil uses an
	// in-memory store instead, for --dry-run or tests.
	MappingStore *mapping.Config
}

// Result mirrors spec.md §4.5's terminal outcome plus the run's Stats
// (an ambient addition; every sync tool in the retrieval pack reports
// created/updated/skipped/error counts).
type Result struct {
	Success bool
	Error   string
	Stats   engine.Stats
}

// Plugin is the Host Contract object. The zero value is not usable;
// construct with New.
type Plugin struct {
	log    *eventlog.Logger
	hub    *hubclient.Client
	tracker *trackerclient.Client
	store  mappingStore
	engine *engine.Engine
}

type mappingStore interface {
	mapping.Store
	Close() error
}

// New constructs an unconfigured Plugin. Call Setup before Execute.
func New() *Plugin {
	return &Plugin{}
}

// Setup wires the Hub/Tracker clients, the mapping resolver, and the
// reconciliation engine from cfg. It does not contact either system —
// Execute's AUTHENTICATE_HUB/PROBE_TRACKER checkpoints do that.
func (p *Plugin) Setup(ctx context.Context, cfg Config) error {
	if cfg.HubTransport == nil {
		return fmt.Errorf("synccore: HubTransport is required")
	}
	if cfg.TrackerBaseURL == "" {
		return fmt.Errorf("synccore: TrackerBaseURL is required")
	}

	p.log = eventlog.New(cfg.EventLogSink, cfg.TraceLogging)
	p.hub = hubclient.New(cfg.HubTransport, cfg.HubUser, cfg.HubPass)
	p.tracker = trackerclient.NewClient(cfg.TrackerBaseURL, cfg.TrackerUser, cfg.TrackerPass)
	p.tracker.UseDefaultCreds = cfg.TrackerUseDefaultCreds

	store, err := newMappingStore(ctx, cfg.MappingStore)
	if err != nil {
		return fmt.Errorf("synccore: open mapping store: %w", err)
	}
	p.store = store

	var hubUsers mapping.HubUserLookup
	if cfg.AutoMapUsers {
		hubUsers = p.hub
	}
	resolver := mapping.New(store, hubUsers, cfg.AutoMapUsers)

	opts := engine.Options{
		AutoMapUsers:                      cfg.AutoMapUsers,
		SeverityFieldKey:                  customFieldKey(cfg.Custom01),
		PropagateSecurityLevel:            config.ParseBoolOption(cfg.Custom02),
		OnlyCreateNewItemsInTracker:       config.ParseBoolOption(cfg.Custom03),
		RequirementIssueTypes:             config.ParseRequirementIssueTypes(cfg.Custom04),
		IncidentLinkType:                  cfg.Custom05,
		PushWindow:                        cfg.PushWindow,
		PersistAutoCreatedReleaseMappings: cfg.PersistAutoCreatedReleaseMappings,
		TrackerTimezoneOffsetHours:        cfg.OffsetHours,
		SyncFlagSlot:                      cfg.SyncFlagSlot,
		SyncFlagYesValue:                  cfg.SyncFlagYesValue,
		ProjectKeyOverrideSlot:            cfg.ProjectKeyOverrideSlot,
		IssueKeySlot:                      cfg.IssueKeySlot,
		HubWebBaseURL:                     cfg.HubWebBaseURL,
		TrackerWebBaseURL:                 cfg.TrackerWebBaseURL,
	}

	var hubForEngine engine.HubClient = p.hub
	var trackerForEngine engine.TrackerClient = p.tracker
	if cfg.DryRun {
		hubForEngine = dryRunHub{HubClient: p.hub, log: p.log}
		trackerForEngine = dryRunTracker{TrackerClient: p.tracker, log: p.log}
	}

	p.engine = engine.New(hubForEngine, trackerForEngine, resolver, p.log, opts, cfg.Projects)
	return nil
}

// Execute runs one reconciliation cycle (spec.md §4.5). lastSyncAt is
// nil on the first run against a project pair.
func (p *Plugin) Execute(ctx context.Context, lastSyncAt *time.Time, now time.Time) (Result, error) {
	if p.engine == nil {
		return Result{}, fmt.Errorf("synccore: Setup was not called")
	}
	res := p.engine.Execute(ctx, lastSyncAt, now)
	if res.Outcome == engine.Error {
		return Result{Success: false, Error: res.Err.Error(), Stats: res.Stats}, nil
	}
	return Result{Success: true, Stats: res.Stats}, nil
}

// Dispose releases the mapping store's connection. The Hub and Tracker
// clients hold no resources beyond an HTTP client and a session token.
func (p *Plugin) Dispose() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

func customFieldKey(custom01 string) string {
	if custom01 == "" {
		return ""
	}
	return "customfield_" + custom01
}
