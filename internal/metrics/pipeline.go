// Package metrics provides Prometheus metrics for the frame pipeline.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains all Prometheus metrics of the frame pipeline
type PipelineMetrics struct {
	FramesTotal       prometheus.Counter
	RegionsTotal      prometheus.Counter
	LabelsTotal       *prometheus.CounterVec
	RegionFailures    *prometheus.CounterVec
	InferenceErrors   prometheus.Counter
	IterationDuration prometheus.Histogram
	InferenceDuration prometheus.Histogram
	RegionsPerFrame   prometheus.Histogram
	RunningGauge      prometheus.Gauge

	registry *prometheus.Registry
}

// NewPipelineMetrics creates the metrics and registers them on registry
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, errors.Wrap(err, "failed to register pipeline metrics")
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.FramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emotion_frames_processed_total",
		Help: "Total number of frames published to the display.",
	})
	m.RegionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emotion_regions_detected_total",
		Help: "Total number of face regions detected.",
	})
	m.LabelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_labels_total",
			Help: "Total number of classified regions partitioned by emotion label.",
		},
		[]string{"label"},
	)
	m.RegionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_region_failures_total",
			Help: "Total number of regions left unlabeled partitioned by failure kind.",
		},
		[]string{"kind"},
	)
	m.InferenceErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emotion_inference_errors_total",
		Help: "Total number of failed classifier invocations.",
	})
	m.IterationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emotion_iteration_duration_seconds",
		Help:    "Time taken to process and publish one frame.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
	})
	m.InferenceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emotion_inference_duration_seconds",
		Help:    "Time taken for one classifier invocation.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
	})
	m.RegionsPerFrame = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emotion_regions_per_frame",
		Help:    "Number of face regions detected per frame.",
		Buckets: []float64{0, 1, 2, 3, 5, 8},
	})
	m.RunningGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "emotion_pipeline_running",
		Help: "1 while the pipeline loop is running, 0 when idle.",
	})
}

// Describe implements prometheus.Collector
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.FramesTotal.Describe(ch)
	m.RegionsTotal.Describe(ch)
	m.LabelsTotal.Describe(ch)
	m.RegionFailures.Describe(ch)
	m.InferenceErrors.Describe(ch)
	m.IterationDuration.Describe(ch)
	m.InferenceDuration.Describe(ch)
	m.RegionsPerFrame.Describe(ch)
	m.RunningGauge.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.FramesTotal.Collect(ch)
	m.RegionsTotal.Collect(ch)
	m.LabelsTotal.Collect(ch)
	m.RegionFailures.Collect(ch)
	m.InferenceErrors.Collect(ch)
	m.IterationDuration.Collect(ch)
	m.InferenceDuration.Collect(ch)
	m.RegionsPerFrame.Collect(ch)
	m.RunningGauge.Collect(ch)
}

// RecordFrame records one published frame
func (m *PipelineMetrics) RecordFrame(duration time.Duration, regions int) {
	m.FramesTotal.Inc()
	m.RegionsTotal.Add(float64(regions))
	m.RegionsPerFrame.Observe(float64(regions))
	m.IterationDuration.Observe(duration.Seconds())
}

// RecordLabel counts a classified region
func (m *PipelineMetrics) RecordLabel(label string) {
	m.LabelsTotal.WithLabelValues(label).Inc()
}

// RecordRegionFailure counts a region left unlabeled
func (m *PipelineMetrics) RecordRegionFailure(kind string) {
	m.RegionFailures.WithLabelValues(kind).Inc()
}

// RecordInference records one classifier call
func (m *PipelineMetrics) RecordInference(duration time.Duration, err error) {
	m.InferenceDuration.Observe(duration.Seconds())
	if err != nil {
		m.InferenceErrors.Inc()
	}
}

// SetRunning updates the running gauge
func (m *PipelineMetrics) SetRunning(running bool) {
	if running {
		m.RunningGauge.Set(1)
		return
	}
	m.RunningGauge.Set(0)
}
