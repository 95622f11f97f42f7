// Package engine implements the reconciliation state machine that drives
// one Hub<->Tracker sync cycle: authenticate, probe, then for each
// configured project pair run the push phase (Hub -> Tracker, new
// incidents only) followed by the pull phase (Tracker -> Hub, updated
// since lastSyncAt), re-authenticating at every checkpoint and flushing
// newly discovered mappings before the next phase reads them again.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/hubforge/sync-core/internal/eventlog"
	"github.com/hubforge/sync-core/internal/types"
)

var engineTracer = otel.Tracer("github.com/hubforge/sync-core/engine")

var engineMetrics struct {
	phaseDuration metric.Float64Histogram
	artifacts     metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/hubforge/sync-core/engine")
	engineMetrics.phaseDuration, _ = m.Float64Histogram("sync.engine.phase_duration_ms",
		metric.WithDescription("duration of one reconciliation-engine phase"),
		metric.WithUnit("ms"),
	)
	engineMetrics.artifacts, _ = m.Int64Counter("sync.engine.artifacts_total",
		metric.WithDescription("artifacts processed per phase, labeled by outcome"),
		metric.WithUnit("{artifact}"),
	)
}

// Engine runs one reconciliation cycle per Execute call.
type Engine struct {
	Hub      HubClient
	Tracker  TrackerClient
	Mappings Mappings
	Log      *eventlog.Logger
	Options  Options
	Projects []types.ProjectPair
}

// New builds an Engine. All fields are required except Options, which
// defaults are applied to by the caller (synccore.Config).
func New(hub HubClient, tracker TrackerClient, mappings Mappings, log *eventlog.Logger, opts Options, projects []types.ProjectPair) *Engine {
	return &Engine{Hub: hub, Tracker: tracker, Mappings: mappings, Log: log, Options: opts, Projects: projects}
}

// Execute runs AUTHENTICATE_HUB -> PROBE_TRACKER -> LOAD_GLOBAL_MAPPINGS
// -> per-project{CONNECT_PROJECT -> LOAD_PROJECT_MAPPINGS -> PUSH_PHASE
// -> REAUTH -> RELOAD_INCIDENT_AND_REQUIREMENT_MAPPINGS -> PULL_PHASE ->
// REAUTH -> FLUSH_MAPPINGS} -> DONE, per spec.md §4.5.
func (e *Engine) Execute(ctx context.Context, lastSyncAt *time.Time, now time.Time) Result {
	ctx, span := engineTracer.Start(ctx, "engine.execute", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	var stats Stats

	if err := e.phase(ctx, "authenticate_hub", func(ctx context.Context) error {
		return e.Hub.Authenticate(ctx)
	}); err != nil {
		return e.fail(span, stats, fmt.Errorf("authenticate hub: %w", err))
	}

	if err := e.phase(ctx, "probe_tracker", func(ctx context.Context) error {
		_, err := e.Tracker.Probe(ctx)
		return err
	}); err != nil {
		return e.fail(span, stats, &types.ConnectivityError{Cause: err})
	}

	if err := e.phase(ctx, "load_global_mappings", func(ctx context.Context) error {
		return e.reloadHubMappings(ctx, types.ScopeUser, types.ScopeProject)
	}); err != nil {
		return e.fail(span, stats, fmt.Errorf("load global mappings: %w", err))
	}

	for _, pair := range e.Projects {
		pairStats, err := e.runProjectPair(ctx, pair, lastSyncAt, now)
		stats.add(pairStats)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Result{Outcome: Error, Err: err, Stats: stats}
		}
	}

	return Result{Outcome: Success, Stats: stats}
}

func (e *Engine) runProjectPair(ctx context.Context, pair types.ProjectPair, lastSyncAt *time.Time, now time.Time) (Stats, error) {
	var stats Stats

	if err := e.phase(ctx, "connect_project", func(ctx context.Context) error {
		return e.Hub.ConnectToProject(ctx, pair.HubProjectID)
	}); err != nil {
		_ = e.Log.Error(ctx, fmt.Sprintf("project %d connect failed, skipping pair: %v", pair.HubProjectID, err))
		return stats, nil // ProjectConnectFailure: skip this pair, continue others
	}

	if err := e.phase(ctx, "load_project_mappings", func(ctx context.Context) error {
		return e.reloadHubMappings(ctx, types.ScopeArtifactIncident, types.ScopeArtifactRequirement, types.ScopeArtifactRelease, types.ScopeCustomPropertyValue)
	}); err != nil {
		return stats, fmt.Errorf("load project mappings for %d: %w", pair.HubProjectID, err)
	}

	pushStats, err := e.pushPhase(ctx, pair, lastSyncAt)
	stats.add(pushStats)
	if err != nil {
		return stats, fmt.Errorf("push phase for project %d: %w", pair.HubProjectID, err)
	}

	if err := e.phase(ctx, "reauth", func(ctx context.Context) error {
		return e.Hub.Authenticate(ctx)
	}); err != nil {
		return stats, fmt.Errorf("reauth after push phase: %w", err)
	}

	if err := e.phase(ctx, "reload_incident_and_requirement_mappings", func(ctx context.Context) error {
		return e.reloadHubMappings(ctx, types.ScopeArtifactIncident, types.ScopeArtifactRequirement)
	}); err != nil {
		return stats, fmt.Errorf("reload incident/requirement mappings for %d: %w", pair.HubProjectID, err)
	}

	pullStats, err := e.pullPhase(ctx, pair, lastSyncAt, now)
	stats.add(pullStats)
	if err != nil {
		return stats, fmt.Errorf("pull phase for project %d: %w", pair.HubProjectID, err)
	}

	if err := e.phase(ctx, "reauth", func(ctx context.Context) error {
		return e.Hub.Authenticate(ctx)
	}); err != nil {
		return stats, fmt.Errorf("reauth after pull phase: %w", err)
	}

	if err := e.Mappings.Flush(ctx); err != nil {
		return stats, fmt.Errorf("flush mappings for project %d: %w", pair.HubProjectID, err)
	}

	return stats, nil
}

// reloadHubMappings pulls every mapping row the Hub currently carries for
// the given scopes into the local mapping store, so the resolver's point
// lookups see identities created on the Hub side outside this engine.
func (e *Engine) reloadHubMappings(ctx context.Context, scopes ...types.Scope) error {
	for _, scope := range scopes {
		rows, err := e.Hub.FetchMappings(ctx, scope)
		if err != nil {
			return fmt.Errorf("fetch %s mappings: %w", scope, err)
		}
		if len(rows) == 0 {
			continue
		}
		e.Mappings.AddMappings(rows...)
	}
	return e.Mappings.Flush(ctx)
}

// phase wraps one named checkpoint with a span and a duration metric.
func (e *Engine) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := engineTracer.Start(ctx, "engine."+name, trace.WithSpanKind(trace.SpanKindInternal))
	err := fn(ctx)
	engineMetrics.phaseDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attribute.String("phase", name)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}

func (e *Engine) fail(span trace.Span, stats Stats, err error) Result {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Result{Outcome: Error, Err: err, Stats: stats}
}

func (e *Engine) recordArtifact(ctx context.Context, phase, outcome string) {
	engineMetrics.artifacts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("outcome", outcome),
	))
}
