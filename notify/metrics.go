package notify

import (
	"errors"

	"github.com/poiesic/vectorize/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vectorize"

// Metrics exports run telemetry as Prometheus metrics.
type Metrics struct {
	progress      prometheus.Gauge
	processed     prometheus.Gauge
	speed         prometheus.Gauge
	memory        prometheus.Gauge
	batchFailures prometheus.Counter
	records       prometheus.Counter
	runs          *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg means the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		progress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_progress_percent",
			Help:      "Progress of the current run in percent",
		}),
		processed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_items_processed",
			Help:      "Records attempted in the current run",
		}),
		speed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_speed_items_per_second",
			Help:      "Records attempted per second in the current run",
		}),
		memory: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_memory_megabytes",
			Help:      "Resident memory sampled after the last batch",
		}),
		batchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_failures_total",
			Help:      "Batches the encoding engine failed on",
		}),
		records: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_embedded_total",
			Help:      "Records written to completed artifacts",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 14),
		}),
	}
}

func (m *Metrics) OnProgress(s core.Snapshot) {
	m.progress.Set(s.Progress)
	m.processed.Set(float64(s.ItemsProcessed))
	m.speed.Set(s.Speed)
	m.memory.Set(s.MemoryMB)
}

func (m *Metrics) OnCompleted(_ string, final core.Snapshot) {
	m.runs.WithLabelValues(core.StateCompleted.String()).Inc()
	m.records.Add(float64(final.TotalItems - final.ErrorCount))
	m.duration.Observe(final.Elapsed.Seconds())
}

func (m *Metrics) OnError(err error) {
	switch {
	case !core.IsFatal(err):
		m.batchFailures.Inc()
	case errors.Is(err, core.ErrCancelled):
		m.runs.WithLabelValues(core.StateCancelled.String()).Inc()
	default:
		m.runs.WithLabelValues(core.StateFailed.String()).Inc()
	}
}
