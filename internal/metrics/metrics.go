// Package metrics records per-run Prometheus metrics and writes them to a
// node_exporter textfile, since a one-shot run has no endpoint to scrape.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JakeFAU/pageviews/internal/pageviews"
)

// Recorder holds the run collectors on a private registry.
type Recorder struct {
	path     string
	registry *prometheus.Registry

	total       prometheus.Gauge
	lastSuccess prometheus.Gauge
	duration    prometheus.Gauge
	runs        *prometheus.CounterVec
}

// New creates a Recorder that flushes to path. An empty path keeps the
// metrics in memory only.
func New(path string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		path:     path,
		registry: reg,
		total: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pageviews_total",
			Help: "Total pageviews reported by the analytics page on the last successful run.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pageviews_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pageviews_run_duration_seconds",
			Help: "Wall-clock duration of the last run.",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pageviews_runs_total",
			Help: "Runs executed, labeled by outcome.",
		}, []string{"outcome"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records one run. The total and success time only move on success.
func (r *Recorder) ObserveRun(outcome string, total int64, duration time.Duration, finishedAt time.Time) {
	r.runs.WithLabelValues(outcome).Inc()
	r.duration.Set(duration.Seconds())
	if outcome != pageviews.OutcomeSuccess {
		return
	}
	r.total.Set(float64(total))
	r.lastSuccess.Set(float64(finishedAt.Unix()))
}

// Flush writes the registry to the textfile. It is a no-op without a path.
func (r *Recorder) Flush() error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
