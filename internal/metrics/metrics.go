// Package metrics provides Prometheus collectors for training and prediction
// runs. Batch binaries write them to a node-exporter textfile on exit.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricSweepsTotal        = "ltr_inference_sweeps_total"
	MetricSweepDuration      = "ltr_inference_sweep_duration_seconds"
	MetricDatasetSize        = "ltr_dataset_size"
	MetricPredictedQueries   = "ltr_predicted_queries_total"
	MetricNoisePrecisionMean = "ltr_noise_precision_mean"
)

// Dataset size kinds.
const (
	KindQueries = "queries"
	KindItems   = "items"
	KindPairs   = "pairs"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	sweepsTotal      prometheus.Counter
	sweepDuration    prometheus.Histogram
	datasetSize      *prometheus.GaugeVec
	predictedQueries prometheus.Counter
	noiseMean        prometheus.Gauge
}

// NewMetrics creates the collectors without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		sweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSweepsTotal,
			Help: "Total number of inference sweeps over the training set",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricSweepDuration,
			Help:    "Histogram of inference sweep duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0},
		}),
		datasetSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricDatasetSize,
			Help: "Size of the loaded dataset by kind",
		}, []string{"kind"}),
		predictedQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPredictedQueries,
			Help: "Total number of queries whose rank distributions were predicted",
		}),
		noiseMean: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricNoisePrecisionMean,
			Help: "Posterior mean of the score-noise precision after the latest sweep",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.sweepsTotal,
		m.sweepDuration,
		m.datasetSize,
		m.predictedQueries,
		m.noiseMean,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveSweep(d time.Duration, noiseMean float64) {
	if m == nil {
		return
	}
	m.sweepsTotal.Inc()
	m.sweepDuration.Observe(d.Seconds())
	m.noiseMean.Set(noiseMean)
}

func (m *Metrics) SetDatasetSize(queries, items, pairs int) {
	if m == nil {
		return
	}
	m.datasetSize.WithLabelValues(KindQueries).Set(float64(queries))
	m.datasetSize.WithLabelValues(KindItems).Set(float64(items))
	m.datasetSize.WithLabelValues(KindPairs).Set(float64(pairs))
}

func (m *Metrics) AddPredictedQueries(n int) {
	if m == nil {
		return
	}
	m.predictedQueries.Add(float64(n))
}

// WriteTextfile registers m on a fresh registry and writes it to path in the
// text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
