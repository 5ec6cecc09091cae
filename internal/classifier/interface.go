// Emotion classifier backends selected by name
package classifier

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"emotion-recognition/internal/core"
)

// Options configure a classifier backend
type Options struct {
	ModelPath string
	// InputName and OutputName address the graph tensors of the onnx
	// backend. An empty OutputName selects the last layer.
	InputName  string
	OutputName string
	// Backend and Target select the OpenCV dnn compute path, e.g. "opencv"
	// and "cpu", or "cuda" and "cuda".
	Backend string
	Target  string
	// Threads is the interpreter thread count of the tflite backend.
	Threads int
	Logger  *logrus.Logger
}

// Factory builds a classifier backend
type Factory func(opts Options) (core.Classifier, error)

var backends = make(map[string]Factory)

func Register(name string, factory Factory) {
	backends[name] = factory
}

// New builds the named backend
func New(name string, opts Options) (core.Classifier, error) {
	factory, exists := backends[name]
	if !exists {
		return nil, errors.Wrapf(core.ErrModelLoad, "classifier backend not found: %s", name)
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

func init() {
	Register("onnx", NewONNX)
	Register("tflite", NewTFLite)
}
