package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineMetrics_RegistersOnce(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewPipelineMetrics(registry)
	require.NoError(t, err)

	_, err = NewPipelineMetrics(registry)
	assert.Error(t, err, "a second registration collides")
}

func TestPipelineMetrics_Record(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(registry)
	require.NoError(t, err)

	m.SetRunning(true)
	m.RecordFrame(12*time.Millisecond, 2)
	m.RecordFrame(8*time.Millisecond, 0)
	m.RecordLabel("Happy")
	m.RecordLabel("Happy")
	m.RecordLabel("Sad")
	m.RecordRegionFailure("invalid_region")
	m.RecordInference(3*time.Millisecond, nil)
	m.RecordInference(3*time.Millisecond, assert.AnError)

	assert.InDelta(t, 2, testutil.ToFloat64(m.FramesTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.RegionsTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.LabelsTotal.WithLabelValues("Happy")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LabelsTotal.WithLabelValues("Sad")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RegionFailures.WithLabelValues("invalid_region")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.InferenceErrors), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunningGauge), 0)

	m.SetRunning(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RunningGauge), 0)

	assert.Equal(t, uint64(2), sampleCount(t, m.IterationDuration))
	assert.Equal(t, uint64(2), sampleCount(t, m.InferenceDuration))
}

func TestPipelineMetrics_Exposition(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(registry)
	require.NoError(t, err)

	m.RecordLabel("Fear")

	expected := `
# HELP emotion_labels_total Total number of classified regions partitioned by emotion label.
# TYPE emotion_labels_total counter
emotion_labels_total{label="Fear"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "emotion_labels_total"))
}

func sampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, h.Write(&metric))
	return metric.GetHistogram().GetSampleCount()
}
