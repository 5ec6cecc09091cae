// Face region detector backends selected by name
package detector

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"emotion-recognition/internal/core"
)

// Options configure a detector backend
type Options struct {
	// CascadePath is the cascade model file of the backend.
	CascadePath string
	// MinSize and MaxSize bound the face edge length in pixels; zero means
	// no bound.
	MinSize int
	MaxSize int
	// ShiftFactor is the sliding window step of the pigo backend.
	ShiftFactor float64
	// IoUThreshold groups overlapping pigo detections.
	IoUThreshold float64
	// MinQuality drops pigo clusters below this score.
	MinQuality float32
	Logger     *logrus.Logger
}

// Factory builds a detector backend
type Factory func(opts Options) (core.RegionDetector, error)

var backends = make(map[string]Factory)

func Register(name string, factory Factory) {
	backends[name] = factory
}

// New builds the named backend
func New(name string, opts Options) (core.RegionDetector, error) {
	factory, exists := backends[name]
	if !exists {
		return nil, errors.Wrapf(core.ErrModelLoad, "detector backend not found: %s", name)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return factory(opts)
}

func IsValidBackend(name string) bool {
	_, exists := backends[name]
	return exists
}

// Backends returns the registered backend names in sorted order
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateParameters checks the detection knobs shared by all backends
func ValidateParameters(scaleFactor float64, minNeighbors int) error {
	if scaleFactor <= 1.0 {
		return errors.Errorf("scale factor must be greater than 1.0, got %g", scaleFactor)
	}
	if minNeighbors < 0 {
		return errors.Errorf("min neighbors must not be negative, got %d", minNeighbors)
	}
	return nil
}

func init() {
	Register("haar", NewHaar)
	Register("pigo", NewPigo)
}
