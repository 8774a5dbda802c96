package util

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// RunMetrics collects the metrics of a single planner run. They're written in the
// prometheus text format so that a node exporter textfile collector can pick them up
// after the process exits.
type RunMetrics struct {
	registry *prometheus.Registry

	MovesPlanned     prometheus.Gauge
	BatchesPlanned   *prometheus.GaugeVec
	BatchesExecuted  *prometheus.CounterVec
	ActionDuration   *prometheus.GaugeVec
	LastRunTimestamp prometheus.Gauge
}

// NewRunMetrics returns a RunMetrics with all metrics registered on a private registry.
func NewRunMetrics(namespace string) *RunMetrics {
	metrics := &RunMetrics{
		registry: prometheus.NewRegistry(),
		MovesPlanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "moves_planned",
				Help:      "Number of partitions whose replicas changed in the proposed cluster",
			},
		),
		BatchesPlanned: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batches_planned",
				Help:      "Number of batches in the plan, by kind",
			},
			[]string{"kind"},
		),
		BatchesExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_executed_total",
				Help:      "Number of batches handed to the executor, by kind",
			},
			[]string{"kind"},
		),
		ActionDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Time spent processing each action",
			},
			[]string{"action"},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the end of the last run",
			},
		),
	}

	metrics.registry.MustRegister(
		metrics.MovesPlanned,
		metrics.BatchesPlanned,
		metrics.BatchesExecuted,
		metrics.ActionDuration,
		metrics.LastRunTimestamp,
	)

	return metrics
}

// ObserveAction records the time spent in a single action.
func (m *RunMetrics) ObserveAction(action string, start time.Time) {
	if m == nil {
		return
	}
	m.ActionDuration.WithLabelValues(action).Set(time.Since(start).Seconds())
}

// Gatherer returns the registry that holds the metrics.
func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics to the argument path.
func (m *RunMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	m.LastRunTimestamp.SetToCurrentTime()

	log.Debugf("Writing run metrics to %s", path)
	return prometheus.WriteToTextfile(path, m.Gatherer())
}
