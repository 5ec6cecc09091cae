package detector

import (
	"image"
	"sync"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

const (
	defaultShiftFactor  = 0.1
	defaultIoUThreshold = 0.2
	defaultMinSize      = 20
)

// Pigo detects faces with the pure Go pixel intensity comparison cascade
type Pigo struct {
	mu         sync.Mutex
	classifier *pigo.Pigo
	opts       Options
	closed     bool
	logger     *logrus.Logger
}

// NewPigo unpacks the cascade once; the classifier is reused for every frame
func NewPigo(opts Options) (core.RegionDetector, error) {
	loader := modelio.NewModelLoader(opts.Logger)
	data, err := loader.ReadModel(opts.CascadePath, modelio.KindPigoCascade)
	if err != nil {
		return nil, err
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, errors.Wrapf(core.ErrModelLoad, "unpack pigo cascade %s: %v", opts.CascadePath, err)
	}

	if opts.ShiftFactor <= 0 {
		opts.ShiftFactor = defaultShiftFactor
	}
	if opts.IoUThreshold <= 0 {
		opts.IoUThreshold = defaultIoUThreshold
	}
	if opts.MinSize <= 0 {
		opts.MinSize = defaultMinSize
	}

	opts.Logger.WithFields(logrus.Fields{
		"cascade":       opts.CascadePath,
		"shift_factor":  opts.ShiftFactor,
		"iou_threshold": opts.IoUThreshold,
	}).Info("DETECTOR: Pigo cascade loaded")

	return &Pigo{
		classifier: classifier,
		opts:       opts,
		logger:     opts.Logger,
	}, nil
}

// Detect scans the image pyramid, clusters raw hits and keeps clusters
// supported by more than minNeighbors overlapping raw detections.
func (p *Pigo) Detect(gray gocv.Mat, scaleFactor float64, minNeighbors int) []image.Rectangle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gray.Empty() || gray.Channels() != 1 {
		return nil
	}

	pixels := gray.ToBytes()
	if !gray.IsContinuous() {
		continuous := gray.Clone()
		pixels = continuous.ToBytes()
		continuous.Close()
	}

	maxSize := p.opts.MaxSize
	if maxSize <= 0 {
		maxSize = max(gray.Rows(), gray.Cols())
	}

	params := pigo.CascadeParams{
		MinSize:     p.opts.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: p.opts.ShiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   gray.Rows(),
			Cols:   gray.Cols(),
			Dim:    gray.Cols(),
		},
	}

	raw := p.classifier.RunCascade(params, 0.0)
	clusters := p.classifier.ClusterDetections(raw, p.opts.IoUThreshold)

	return acceptClusters(raw, clusters, minNeighbors, p.opts.IoUThreshold, p.opts.MinQuality, core.FrameBounds(gray))
}

func (p *Pigo) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.classifier = nil
	return nil
}

func detectionRegion(d pigo.Detection) image.Rectangle {
	return core.SquareRegion(image.Pt(d.Col, d.Row), d.Scale)
}

// acceptClusters keeps clusters whose quality reaches minQuality and that
// overlap more than minNeighbors raw detections, clipped to the frame.
func acceptClusters(raw, clusters []pigo.Detection, minNeighbors int, iou float64, minQuality float32, bounds image.Rectangle) []image.Rectangle {
	regions := make([]image.Rectangle, 0, len(clusters))
	for _, cluster := range clusters {
		if cluster.Q < minQuality {
			continue
		}
		region := detectionRegion(cluster)
		if countNeighbors(region, raw, iou) <= minNeighbors {
			continue
		}
		if clipped, ok := core.ClipRegion(bounds, region); ok {
			regions = append(regions, clipped)
		}
	}
	return regions
}

func countNeighbors(region image.Rectangle, raw []pigo.Detection, iou float64) int {
	n := 0
	for _, d := range raw {
		if core.IoU(region, detectionRegion(d)) > iou {
			n++
		}
	}
	return n
}
