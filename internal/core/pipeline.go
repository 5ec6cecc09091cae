// internal/core/pipeline.go
// Per-frame processing loop: acquire, detect, classify, annotate, publish, yield
package core

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"emotion-recognition/internal/overlay"
)

// State is the lifecycle state of the pipeline
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	default:
		return "idle"
	}
}

// CapabilityLoader loads the detector and classifier. It is called once per
// pipeline lifetime; a failed load is retried on the next Start.
type CapabilityLoader func() (RegionDetector, Classifier, error)

// MetricsRecorder receives pipeline measurements
type MetricsRecorder interface {
	RecordFrame(duration time.Duration, regions int)
	RecordLabel(label string)
	RecordRegionFailure(kind string)
	RecordInference(duration time.Duration, err error)
	SetRunning(running bool)
}

// Options are the tunables of the per-frame loop
type Options struct {
	ScaleFactor   float64
	MinNeighbors  int
	YieldInterval time.Duration
	Labels        LabelTable
}

// DefaultOptions returns the reference detection parameters
func DefaultOptions() Options {
	return Options{
		ScaleFactor:   1.2,
		MinNeighbors:  4,
		YieldInterval: time.Millisecond,
		Labels:        DefaultLabels,
	}
}

// Pipeline drives one frame source through detection and classification
type Pipeline struct {
	// ctrl serializes Start, Stop and Close.
	ctrl sync.Mutex
	mu   sync.Mutex

	opener    SourceOpener
	loader    CapabilityLoader
	display   Display
	annotator *overlay.Annotator
	recorder  MetricsRecorder
	logger    *logrus.Logger
	opts      Options

	detector   RegionDetector
	classifier Classifier

	state    State
	sourceID int
	source   FrameSource
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPipeline creates an idle pipeline. Capabilities are not loaded until
// the first Start.
func NewPipeline(opener SourceOpener, loader CapabilityLoader, display Display, opts Options, logger *logrus.Logger) *Pipeline {
	if opts.YieldInterval <= 0 {
		opts.YieldInterval = time.Millisecond
	}
	if len(opts.Labels) == 0 {
		opts.Labels = DefaultLabels
	}
	return &Pipeline{
		opener:    opener,
		loader:    loader,
		display:   display,
		annotator: overlay.NewAnnotator(overlay.DefaultStyle()),
		recorder:  noopRecorder{},
		logger:    logger,
		opts:      opts,
		sourceID:  -1,
	}
}

// SetAnnotator replaces the overlay annotator
func (p *Pipeline) SetAnnotator(annotator *overlay.Annotator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if annotator != nil {
		p.annotator = annotator
	}
}

// SetRecorder installs a metrics recorder
func (p *Pipeline) SetRecorder(recorder MetricsRecorder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if recorder == nil {
		recorder = noopRecorder{}
	}
	p.recorder = recorder
}

// State returns the current lifecycle state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SourceID returns the device index of the running source, or -1
func (p *Pipeline) SourceID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateRunning {
		return -1
	}
	return p.sourceID
}

// Start opens the given source and begins the frame loop. When already
// running, the current source is released first.
func (p *Pipeline) Start(sourceID int) error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	log := p.logger.WithField("source_id", sourceID)

	if sourceID < 0 {
		log.Warn("PIPELINE: Start requested without a source")
		return errors.Wrapf(ErrNoSourceSelected, "source id %d", sourceID)
	}

	if p.State() == StateRunning {
		log.Info("PIPELINE: Releasing current source before reselection")
		p.halt(false)
	}

	if err := p.ensureCapabilities(); err != nil {
		log.WithError(err).Error("PIPELINE: Failed to load capabilities")
		return err
	}

	source, err := p.opener.Open(sourceID)
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = errors.Wrapf(ErrDeviceUnavailable, "open source %d: %v", sourceID, err)
		}
		log.WithError(err).Error("PIPELINE: Failed to open source")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.state = StateRunning
	p.sourceID = sourceID
	p.source = source
	p.cancel = cancel
	p.done = done
	recorder := p.recorder
	p.mu.Unlock()

	recorder.SetRunning(true)
	log.Info("PIPELINE: Started")

	go p.run(ctx, source, done)
	return nil
}

// Stop ends the loop, releases the source and clears the display. It is
// safe to call at any time, including while a frame is being read.
func (p *Pipeline) Stop() {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	p.logger.Debug("PIPELINE: Stopping")
	p.halt(true)
}

// Close stops the pipeline and releases the detector and classifier
func (p *Pipeline) Close() error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	p.halt(true)

	p.mu.Lock()
	detector, classifier := p.detector, p.classifier
	p.detector, p.classifier = nil, nil
	p.mu.Unlock()

	var firstErr error
	if detector != nil {
		if err := detector.Close(); err != nil {
			firstErr = errors.Wrap(err, "close detector")
		}
	}
	if classifier != nil {
		if err := classifier.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "close classifier")
		}
	}
	return firstErr
}

// halt must be called with ctrl held
func (p *Pipeline) halt(clearDisplay bool) {
	p.mu.Lock()
	source, cancel, done := p.source, p.cancel, p.done
	wasRunning := p.state == StateRunning
	p.state = StateIdle
	p.source = nil
	p.cancel = nil
	p.done = nil
	recorder := p.recorder
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if source != nil {
		if err := source.Close(); err != nil {
			p.logger.WithError(err).Warn("PIPELINE: Failed to release source")
		}
	}
	if done != nil {
		<-done
	}
	if wasRunning {
		recorder.SetRunning(false)
		p.logger.Info("PIPELINE: Stopped")
	}
	if clearDisplay {
		p.display.Clear()
	}
}

func (p *Pipeline) ensureCapabilities() error {
	p.mu.Lock()
	loaded := p.detector != nil && p.classifier != nil
	p.mu.Unlock()
	if loaded {
		return nil
	}

	start := time.Now()
	detector, classifier, err := p.loader()
	if err != nil {
		if !errors.Is(err, ErrModelLoad) {
			err = errors.Wrapf(ErrModelLoad, "%v", err)
		}
		return err
	}
	if detector == nil || classifier == nil {
		closeCapabilities(detector, classifier)
		return errors.Wrap(ErrModelLoad, "loader returned no detector or classifier")
	}

	if classes := classifier.Classes(); classes > 0 && classes != len(p.opts.Labels) {
		closeCapabilities(detector, classifier)
		return errors.Wrapf(ErrLabelMismatch, "model produces %d scores for %d labels", classes, len(p.opts.Labels))
	}

	p.mu.Lock()
	p.detector = detector
	p.classifier = classifier
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"labels":      len(p.opts.Labels),
	}).Info("PIPELINE: Capabilities loaded")
	return nil
}

func closeCapabilities(detector RegionDetector, classifier Classifier) {
	if detector != nil {
		_ = detector.Close()
	}
	if classifier != nil {
		_ = classifier.Close()
	}
}

func (p *Pipeline) run(ctx context.Context, source FrameSource, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(p.opts.YieldInterval)
	timer.Stop()
	defer timer.Stop()

	frames := 0
	for {
		if ctx.Err() != nil {
			return
		}

		frame, err := source.Read()
		if err != nil {
			frame.Close()
			if ctx.Err() != nil {
				return
			}
			p.finish(source, frames, err)
			return
		}

		p.processFrame(ctx, frame)
		frame.Close()
		frames++

		// Bounded yield between iterations so the host stays responsive.
		timer.Reset(p.opts.YieldInterval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// finish moves the pipeline to Idle after the source ran dry. The last
// published frame stays on the display.
func (p *Pipeline) finish(source FrameSource, frames int, err error) {
	log := p.logger.WithField("frames", frames)
	if errors.Is(err, ErrStreamEnded) {
		log.Info("PIPELINE: Stream ended")
	} else {
		log.WithError(err).Error("PIPELINE: Frame read failed, ending stream")
	}

	p.mu.Lock()
	current := p.source == source
	var cancel context.CancelFunc
	if current {
		cancel = p.cancel
		p.state = StateIdle
		p.source = nil
		p.cancel = nil
		p.done = nil
	}
	recorder := p.recorder
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if current {
		if err := source.Close(); err != nil {
			log.WithError(err).Warn("PIPELINE: Failed to release source")
		}
		recorder.SetRunning(false)
	}
}

func (p *Pipeline) processFrame(ctx context.Context, frame gocv.Mat) {
	start := time.Now()

	p.mu.Lock()
	detector, annotator, recorder := p.detector, p.annotator, p.recorder
	p.mu.Unlock()

	if err := ValidateFrame(frame); err != nil {
		p.logger.WithError(err).Warn("PIPELINE: Skipping invalid frame")
		return
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := ToGray(frame, &gray); err != nil {
		p.logger.WithError(err).Warn("PIPELINE: Grayscale conversion failed")
		return
	}

	regions := detector.Detect(gray, p.opts.ScaleFactor, p.opts.MinNeighbors)

	stack := overlay.NewStack()
	var last ClassLabel
	labeled := false
	for _, region := range regions {
		label, err := p.classifyRegion(ctx, gray, region, recorder)
		if err != nil {
			p.logger.WithFields(logrus.Fields{
				"region": region.String(),
				"kind":   RegionErrorKind(err),
			}).WithError(err).Warn("PIPELINE: Region left unlabeled")
			recorder.RecordRegionFailure(RegionErrorKind(err))
			stack.Add(region)
			continue
		}
		stack.AddLabeled(region, string(label))
		recorder.RecordLabel(string(label))
		last, labeled = label, true
	}

	if ctx.Err() != nil {
		return
	}

	if err := annotator.Apply(&frame, stack); err != nil {
		p.logger.WithError(err).Warn("PIPELINE: Annotation failed")
	}

	published, err := frame.ToImage()
	if err != nil {
		p.logger.WithError(err).Error("PIPELINE: Failed to convert frame for display")
		return
	}
	p.display.Publish(published, last, labeled)

	recorder.RecordFrame(time.Since(start), len(regions))
	p.logger.WithFields(logrus.Fields{
		"regions":  len(regions),
		"labels":   stack.Labels(),
		"label":    last,
		"duration": time.Since(start),
	}).Debug("PIPELINE: Frame published")
}

func (p *Pipeline) classifyRegion(ctx context.Context, gray gocv.Mat, region image.Rectangle, recorder MetricsRecorder) (ClassLabel, error) {
	tensor, err := Preprocess(gray, region)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	classifier := p.classifier
	p.mu.Unlock()

	start := time.Now()
	scores, err := classifier.Infer(ctx, tensor)
	recorder.RecordInference(time.Since(start), err)
	if err != nil {
		if !errors.Is(err, ErrInference) {
			err = errors.Wrapf(ErrInference, "%v", err)
		}
		return "", err
	}

	label, _, err := Select(scores, p.opts.Labels)
	return label, err
}

type noopRecorder struct{}

func (noopRecorder) RecordFrame(time.Duration, int)       {}
func (noopRecorder) RecordLabel(string)                   {}
func (noopRecorder) RecordRegionFailure(string)           {}
func (noopRecorder) RecordInference(time.Duration, error) {}
func (noopRecorder) SetRunning(bool)                      {}
