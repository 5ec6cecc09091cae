package classifier

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

// DefaultInputName is the input tensor name of the bundled emotion model
const DefaultInputName = "conv2d_1_input"

// ONNX runs an ONNX graph through the OpenCV dnn module
type ONNX struct {
	mu         sync.Mutex
	net        gocv.Net
	inputName  string
	outputName string
	classes    int
	closed     bool
	logger     *logrus.Logger
}

// NewONNX reads the network once and probes its output width with a zero
// tensor so label table mismatches surface at load time.
func NewONNX(opts Options) (core.Classifier, error) {
	loader := modelio.NewModelLoader(opts.Logger)
	if err := loader.Validate(opts.ModelPath, modelio.KindONNX); err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, errors.Wrapf(core.ErrModelLoad, "error reading network model from %s", opts.ModelPath)
	}

	if opts.Backend != "" {
		net.SetPreferableBackend(gocv.ParseNetBackend(opts.Backend))
	}
	if opts.Target != "" {
		net.SetPreferableTarget(gocv.ParseNetTarget(opts.Target))
	}

	inputName := opts.InputName
	if inputName == "" {
		inputName = DefaultInputName
	}

	c := &ONNX{
		net:        net,
		inputName:  inputName,
		outputName: opts.OutputName,
		logger:     opts.Logger,
	}

	scores, err := c.forward(core.NewTensor())
	if err != nil {
		net.Close()
		return nil, errors.Wrapf(core.ErrModelLoad, "probe %s: %v", opts.ModelPath, err)
	}
	c.classes = len(scores)

	opts.Logger.WithFields(logrus.Fields{
		"model":   opts.ModelPath,
		"input":   inputName,
		"classes": c.classes,
		"backend": opts.Backend,
		"target":  opts.Target,
	}).Info("CLASSIFIER: ONNX model loaded")

	return c, nil
}

// Infer runs one forward pass. The network is not safe for concurrent use,
// so calls are serialized.
func (c *ONNX) Infer(ctx context.Context, tensor core.Tensor) (core.ScoreVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(core.ErrInference, "%v", err)
	}
	if err := tensor.Validate(); err != nil {
		return nil, err
	}
	return c.forward(tensor)
}

func (c *ONNX) forward(tensor core.Tensor) (core.ScoreVector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.Wrap(core.ErrInference, "classifier closed")
	}

	blob := gocv.NewMatWithSizes(tensor.Shape[:], gocv.MatTypeCV32F)
	defer blob.Close()

	samples, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrapf(core.ErrInference, "prepare input blob: %v", err)
	}
	copy(samples, tensor.Data)

	c.net.SetInput(blob, c.inputName)
	output := c.net.Forward(c.outputName)
	defer output.Close()

	if output.Empty() {
		return nil, errors.Wrap(core.ErrInference, "network returned an empty output")
	}

	predictions, err := output.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrapf(core.ErrInference, "read output: %v", err)
	}

	scores := make(core.ScoreVector, len(predictions))
	copy(scores, predictions)
	return scores, nil
}

// Classes returns the output width measured at load time
func (c *ONNX) Classes() int {
	return c.classes
}

func (c *ONNX) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.net.Close()
}
