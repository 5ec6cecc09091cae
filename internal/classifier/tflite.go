package classifier

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tphakala/go-tflite"

	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

// TFLite runs a TensorFlow Lite model
type TFLite struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	classes     int
	closed      bool
	logger      *logrus.Logger
}

// NewTFLite loads the model and allocates the interpreter once
func NewTFLite(opts Options) (core.Classifier, error) {
	loader := modelio.NewModelLoader(opts.Logger)
	if err := loader.Validate(opts.ModelPath, modelio.KindTFLite); err != nil {
		return nil, err
	}

	model := tflite.NewModelFromFile(opts.ModelPath)
	if model == nil {
		return nil, errors.Wrapf(core.ErrModelLoad, "cannot load TensorFlow Lite model %s", opts.ModelPath)
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = max(1, runtime.NumCPU()/2)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, _ any) {
		opts.Logger.WithField("message", msg).Error("CLASSIFIER: TFLite error")
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, errors.Wrap(core.ErrModelLoad, "cannot create interpreter")
	}

	c := &TFLite{
		model:       model,
		options:     options,
		interpreter: interpreter,
		logger:      opts.Logger,
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		c.release()
		return nil, errors.Wrap(core.ErrModelLoad, "tensor allocation failed")
	}

	if err := c.checkInput(); err != nil {
		c.release()
		return nil, err
	}

	output := interpreter.GetOutputTensor(0)
	if output == nil {
		c.release()
		return nil, errors.Wrap(core.ErrModelLoad, "cannot get output tensor")
	}
	c.classes = output.Dim(output.NumDims() - 1)

	opts.Logger.WithFields(logrus.Fields{
		"model":   opts.ModelPath,
		"threads": threads,
		"classes": c.classes,
	}).Info("CLASSIFIER: TFLite model loaded")

	return c, nil
}

// checkInput verifies the model takes a (1,48,48,1) float32 tensor
func (c *TFLite) checkInput() error {
	input := c.interpreter.GetInputTensor(0)
	if input == nil {
		return errors.Wrap(core.ErrModelLoad, "cannot get input tensor")
	}
	if input.Type() != tflite.Float32 {
		return errors.Wrapf(core.ErrModelLoad, "input tensor type %v, want float32", input.Type())
	}
	if input.NumDims() != len(core.TensorShape) {
		return errors.Wrapf(core.ErrModelLoad, "input tensor has %d dims, want %d", input.NumDims(), len(core.TensorShape))
	}
	for i, want := range core.TensorShape {
		if got := input.Dim(i); got != want {
			return errors.Wrapf(core.ErrModelLoad, "input dim %d is %d, want %d", i, got, want)
		}
	}
	return nil
}

// Infer copies the tensor into the interpreter and invokes it. The
// interpreter is not safe for concurrent use, so calls are serialized.
func (c *TFLite) Infer(ctx context.Context, tensor core.Tensor) (core.ScoreVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(core.ErrInference, "%v", err)
	}
	if err := tensor.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.Wrap(core.ErrInference, "classifier closed")
	}

	input := c.interpreter.GetInputTensor(0)
	if input == nil {
		return nil, errors.Wrap(core.ErrInference, "cannot get input tensor")
	}
	copy(input.Float32s(), tensor.Data)

	if status := c.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Wrapf(core.ErrInference, "tensor invoke failed: %v", status)
	}

	output := c.interpreter.GetOutputTensor(0)
	if output == nil {
		return nil, errors.Wrap(core.ErrInference, "cannot get output tensor")
	}

	scores := make(core.ScoreVector, output.Dim(output.NumDims()-1))
	copy(scores, output.Float32s())
	return scores, nil
}

func (c *TFLite) Classes() int {
	return c.classes
}

func (c *TFLite) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.release()
	return nil
}

func (c *TFLite) release() {
	if c.interpreter != nil {
		c.interpreter.Delete()
		c.interpreter = nil
	}
	if c.options != nil {
		c.options.Delete()
		c.options = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
}
