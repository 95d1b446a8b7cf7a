// Package syncer runs one reconciliation of the local collection against a
// guild's scheduled events.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eventsync/src-server/conflict"
	"eventsync/src-server/decision"
	"eventsync/src-server/model"
	"eventsync/src-server/resolve"
	"eventsync/src-server/store"
	"eventsync/src-server/transform"

	"github.com/google/uuid"
)

type External interface {
	List(ctx context.Context, guildID string) ([]model.ExternalEvent, error)
	resolve.External
}

// RunRecorder persists run summaries. Optional.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.SyncRun) error
}

// Metrics receives timings and the run summary. Optional.
type Metrics interface {
	ObserveDatabase(op string, d time.Duration)
	ObserveRun(run *model.SyncRun)
}

type Orchestrator struct {
	external    External
	store       store.Store
	decider     decision.Decider
	transformer *transform.Transformer
	guildID     string

	dryRun  bool
	runs    RunRecorder
	metrics Metrics
	now     func() time.Time
}

func New(external External, st store.Store, decider decision.Decider, transformer *transform.Transformer, guildID string) *Orchestrator {
	return &Orchestrator{
		external:    external,
		store:       st,
		decider:     decider,
		transformer: transformer,
		guildID:     guildID,
		now:         time.Now,
	}
}

// WithDryRun makes Run stop after detection: nothing is decided, written or
// flushed.
func (o *Orchestrator) WithDryRun(dryRun bool) *Orchestrator {
	o.dryRun = dryRun
	return o
}

func (o *Orchestrator) WithRunRecorder(runs RunRecorder) *Orchestrator {
	o.runs = runs
	return o
}

func (o *Orchestrator) WithMetrics(metrics Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run performs list, load, detect, decide, resolve and flush. Failed
// conflicts are reported, not returned; the error is only set when the run
// could not complete: a failed list, a *model.LocalStoreError from load or
// flush, or a cancelled decision step.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := newReport(o.guildID, o.dryRun, o.now())

	externals, err := o.external.List(ctx, o.guildID)
	if err != nil {
		return nil, &model.ExternalServiceError{Op: "list", Err: err}
	}

	start := time.Now()
	locals, err := o.store.Load(ctx)
	o.observeDatabase("load", start)
	if err != nil {
		return nil, asStoreError("load", err)
	}
	slog.Debug("sync: loaded", "local", len(locals), "discord", len(externals))

	conflicts := conflict.NewDetector(o.transformer).Detect(locals, externals)
	report.addConflicts(conflicts)
	if len(conflicts) == 0 {
		slog.Info("sync: in sync", "guild", o.guildID)
		return o.finish(ctx, report), nil
	}
	if o.dryRun {
		slog.Info("sync: dry run, nothing applied", "conflicts", len(conflicts))
		return o.finish(ctx, report), nil
	}

	decisions, err := o.decider.Decide(ctx, conflicts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		slog.Warn("sync: decision step ended early, undecided conflicts are skipped", "error", err)
	}

	engine := resolve.New(o.external, o.guildID, o.transformer, locals)
	for _, c := range conflicts {
		d, ok := decisions[c.Key()]
		if !ok {
			d = model.DecisionSkip
		}
		report.addResult(engine.Resolve(ctx, c, d))
	}

	start = time.Now()
	err = o.store.Flush(ctx, engine.Events())
	o.observeDatabase("flush", start)
	if err != nil {
		storeErr := asStoreError("flush", err)
		slog.Error("sync: flush failed, local changes of this run are lost", "events", len(engine.Events()), "error", storeErr)
		return nil, storeErr
	}

	return o.finish(ctx, report), nil
}

func (o *Orchestrator) finish(ctx context.Context, report *Report) *Report {
	report.FinishedAt = o.now()
	run := report.SyncRun(uuid.NewString())
	if o.runs != nil {
		if err := o.runs.RecordRun(ctx, run); err != nil {
			slog.Warn("sync: can't record run", "error", err)
		}
	}
	if o.metrics != nil {
		o.metrics.ObserveRun(run)
	}
	return report
}

func (o *Orchestrator) observeDatabase(op string, start time.Time) {
	if o.metrics != nil {
		o.metrics.ObserveDatabase(op, time.Since(start))
	}
}

func asStoreError(op string, err error) error {
	var storeErr *model.LocalStoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &model.LocalStoreError{Op: op, Err: err}
}
