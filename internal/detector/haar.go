package detector

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

// Haar detects faces with an OpenCV cascade classifier
type Haar struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	minSize    image.Point
	maxSize    image.Point
	closed     bool
	logger     *logrus.Logger
}

// NewHaar loads the cascade once; the classifier is reused for every frame
func NewHaar(opts Options) (core.RegionDetector, error) {
	loader := modelio.NewModelLoader(opts.Logger)
	if err := loader.Validate(opts.CascadePath, modelio.KindCascadeXML); err != nil {
		return nil, err
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(opts.CascadePath) {
		classifier.Close()
		return nil, errors.Wrapf(core.ErrModelLoad, "unable to load cascade %s", opts.CascadePath)
	}

	opts.Logger.WithFields(logrus.Fields{
		"cascade":  opts.CascadePath,
		"min_size": opts.MinSize,
		"max_size": opts.MaxSize,
	}).Info("DETECTOR: Haar cascade loaded")

	return &Haar{
		classifier: classifier,
		minSize:    image.Pt(opts.MinSize, opts.MinSize),
		maxSize:    image.Pt(opts.MaxSize, opts.MaxSize),
		logger:     opts.Logger,
	}, nil
}

// Detect runs multi-scale detection on a grayscale frame
func (h *Haar) Detect(gray gocv.Mat, scaleFactor float64, minNeighbors int) []image.Rectangle {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || gray.Empty() {
		return nil
	}

	rects := h.classifier.DetectMultiScaleWithParams(gray, scaleFactor, minNeighbors, 0, h.minSize, h.maxSize)
	return clipToFrame(rects, core.FrameBounds(gray))
}

func (h *Haar) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	return h.classifier.Close()
}

func clipToFrame(rects []image.Rectangle, bounds image.Rectangle) []image.Rectangle {
	regions := make([]image.Rectangle, 0, len(rects))
	for _, r := range rects {
		if clipped, ok := core.ClipRegion(bounds, r); ok {
			regions = append(regions, clipped)
		}
	}
	return regions
}
