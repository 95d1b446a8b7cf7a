// Package metric collects sync run statistics and writes them in the
// Prometheus text format for node_exporter's textfile collector.
package metric

import (
	"fmt"
	"log/slog"
	"time"

	"eventsync/src-server/model"
	"eventsync/src-server/resolve"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	registry *prometheus.Registry

	discordCalls    *prometheus.CounterVec
	discordLatency  *prometheus.HistogramVec
	databaseLatency *prometheus.HistogramVec

	conflicts   *prometheus.GaugeVec
	outcomes    *prometheus.GaugeVec
	runDuration prometheus.Gauge
	lastRun     prometheus.Gauge
	dryRun      prometheus.Gauge
}

// New registers every metric on a private registry, so a process only ever
// writes what it collected itself.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		discordCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventsync_discord_calls_total",
			Help: "Discord scheduled event API calls by operation and result",
		}, []string{"op", "result"}),
		discordLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventsync_discord_call_seconds",
			Help:    "Latency of Discord scheduled event API calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		databaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventsync_database_seconds",
			Help:    "Latency of local store loads and flushes",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
		conflicts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventsync_conflicts",
			Help: "Conflicts detected by the last run, by type",
		}, []string{"type"}),
		outcomes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventsync_outcomes",
			Help: "Conflict outcomes of the last run",
		}, []string{"outcome"}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "eventsync_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "eventsync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		dryRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "eventsync_last_run_dry",
			Help: "1 if the last run was a dry run",
		}),
	}
	slog.Debug("metrics registered")
	return m
}

func (m *Metrics) ObserveDiscordCall(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.discordCalls.WithLabelValues(op, result).Inc()
	m.discordLatency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) ObserveDatabase(op string, d time.Duration) {
	m.databaseLatency.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveRun sets the last-run gauges from a finished run's summary.
func (m *Metrics) ObserveRun(run *model.SyncRun) {
	m.conflicts.WithLabelValues(string(model.ConflictMissingLocal)).Set(float64(run.MissingLocal))
	m.conflicts.WithLabelValues(string(model.ConflictMissingDiscord)).Set(float64(run.MissingDiscord))
	m.conflicts.WithLabelValues(string(model.ConflictMismatch)).Set(float64(run.Mismatch))

	m.outcomes.WithLabelValues(string(resolve.OutcomeSkipped)).Set(float64(run.Skipped))
	m.outcomes.WithLabelValues(string(resolve.OutcomeAppliedLocal)).Set(float64(run.AppliedLocal))
	m.outcomes.WithLabelValues(string(resolve.OutcomeAppliedDiscord)).Set(float64(run.AppliedDiscord))
	m.outcomes.WithLabelValues(string(resolve.OutcomeFailed)).Set(float64(run.Failed))

	m.runDuration.Set(run.FinishedAt.Sub(run.StartedAt).Seconds())
	m.lastRun.Set(float64(run.FinishedAt.Unix()))
	if run.DryRun {
		m.dryRun.Set(1)
	} else {
		m.dryRun.Set(0)
	}
}

// WriteTextfile writes everything collected so far to path. The file is
// replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("(*Metrics).WriteTextfile: %w", err)
	}
	slog.Debug("metrics written", "path", path)
	return nil
}
