// internal/core/pipeline_debug.go
// Pipeline debugging and performance monitoring
package core

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// debugWindow bounds the number of durations kept per category
const debugWindow = 256

// PipelineDebugger records per-frame timings and outcomes in memory and
// reports them through the logger. It implements MetricsRecorder.
type PipelineDebugger struct {
	mu     sync.Mutex
	logger *logrus.Logger

	frameTimes     []time.Duration
	inferenceTimes []time.Duration

	frames          int
	regions         int
	inferenceErrors int
	labels          map[string]int
	failures        map[string]int
	running         bool
	startedAt       time.Time
}

// DebugStats is a snapshot of the debugger counters
type DebugStats struct {
	Frames           int
	Regions          int
	InferenceErrors  int
	Labels           map[string]int
	Failures         map[string]int
	AvgFrameTime     time.Duration
	AvgInferenceTime time.Duration
	Running          bool
}

func NewPipelineDebugger(logger *logrus.Logger) *PipelineDebugger {
	return &PipelineDebugger{
		logger:   logger,
		labels:   make(map[string]int),
		failures: make(map[string]int),
	}
}

func (pd *PipelineDebugger) RecordFrame(duration time.Duration, regions int) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.frames++
	pd.regions += regions
	pd.frameTimes = appendWindow(pd.frameTimes, duration)
}

func (pd *PipelineDebugger) RecordLabel(label string) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.labels[label]++
}

func (pd *PipelineDebugger) RecordRegionFailure(kind string) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.failures[kind]++
}

func (pd *PipelineDebugger) RecordInference(duration time.Duration, err error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.inferenceTimes = appendWindow(pd.inferenceTimes, duration)
	if err != nil {
		pd.inferenceErrors++
	}
}

// SetRunning logs a status summary whenever a run ends
func (pd *PipelineDebugger) SetRunning(running bool) {
	pd.mu.Lock()
	wasRunning := pd.running
	pd.running = running
	if running && !wasRunning {
		pd.startedAt = time.Now()
	}
	pd.mu.Unlock()

	if wasRunning && !running {
		pd.LogStatus()
	}
}

// Stats returns a copy of the current counters
func (pd *PipelineDebugger) Stats() DebugStats {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	stats := DebugStats{
		Frames:           pd.frames,
		Regions:          pd.regions,
		InferenceErrors:  pd.inferenceErrors,
		Labels:           make(map[string]int, len(pd.labels)),
		Failures:         make(map[string]int, len(pd.failures)),
		AvgFrameTime:     averageDuration(pd.frameTimes),
		AvgInferenceTime: averageDuration(pd.inferenceTimes),
		Running:          pd.running,
	}
	for k, v := range pd.labels {
		stats.Labels[k] = v
	}
	for k, v := range pd.failures {
		stats.Failures[k] = v
	}
	return stats
}

// LogStatus writes the current counters at info level
func (pd *PipelineDebugger) LogStatus() {
	stats := pd.Stats()

	pd.mu.Lock()
	startedAt := pd.startedAt
	pd.mu.Unlock()

	fields := logrus.Fields{
		"frames":           stats.Frames,
		"regions":          stats.Regions,
		"inference_errors": stats.InferenceErrors,
		"avg_frame":        stats.AvgFrameTime,
		"avg_inference":    stats.AvgInferenceTime,
	}
	if !startedAt.IsZero() {
		fields["uptime"] = time.Since(startedAt).Round(time.Millisecond)
	}
	if top := topLabel(stats.Labels); top != "" {
		fields["top_label"] = top
	}
	for kind, n := range stats.Failures {
		fields["failures_"+kind] = n
	}
	pd.logger.WithFields(fields).Info("PIPELINE: Debug status")
}

func appendWindow(window []time.Duration, d time.Duration) []time.Duration {
	if len(window) >= debugWindow {
		copy(window, window[1:])
		window = window[:len(window)-1]
	}
	return append(window, d)
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return total / time.Duration(len(durations))
}

// topLabel returns the most frequent label; ties resolve alphabetically
func topLabel(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestCount := "", 0
	for _, name := range names {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}

// Recorders fans measurements out to several recorders
type Recorders []MetricsRecorder

func (rs Recorders) RecordFrame(duration time.Duration, regions int) {
	for _, r := range rs {
		r.RecordFrame(duration, regions)
	}
}

func (rs Recorders) RecordLabel(label string) {
	for _, r := range rs {
		r.RecordLabel(label)
	}
}

func (rs Recorders) RecordRegionFailure(kind string) {
	for _, r := range rs {
		r.RecordRegionFailure(kind)
	}
}

func (rs Recorders) RecordInference(duration time.Duration, err error) {
	for _, r := range rs {
		r.RecordInference(duration, err)
	}
}

func (rs Recorders) SetRunning(running bool) {
	for _, r := range rs {
		r.SetRunning(running)
	}
}
