// Shared data model for the frame pipeline
package core

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// TensorSize is the edge length of the square classifier input
const TensorSize = 48

// TensorShape is the (batch, height, width, channels) layout the classifier expects
var TensorShape = [4]int{1, TensorSize, TensorSize, 1}

// ClassLabel is one named emotion category
type ClassLabel string

// LabelTable maps score vector indices to labels
type LabelTable []ClassLabel

// DefaultLabels is the table the bundled emotion model was trained with
var DefaultLabels = LabelTable{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprised"}

// NewLabelTable builds a table from plain strings
func NewLabelTable(names []string) LabelTable {
	table := make(LabelTable, len(names))
	for i, name := range names {
		table[i] = ClassLabel(name)
	}
	return table
}

// ScoreVector holds one confidence value per label
type ScoreVector []float32

// Tensor is a dense float32 array in row-major order
type Tensor struct {
	Shape [4]int
	Data  []float32
}

// NewTensor allocates a zeroed tensor with the classifier input shape
func NewTensor() Tensor {
	return Tensor{
		Shape: TensorShape,
		Data:  make([]float32, TensorShape[0]*TensorShape[1]*TensorShape[2]*TensorShape[3]),
	}
}

// Validate checks the tensor against the classifier input contract
func (t Tensor) Validate() error {
	if t.Shape != TensorShape {
		return errors.Wrapf(ErrInference, "tensor shape %v, want %v", t.Shape, TensorShape)
	}
	want := TensorShape[0] * TensorShape[1] * TensorShape[2] * TensorShape[3]
	if len(t.Data) != want {
		return errors.Wrapf(ErrInference, "tensor holds %d values, want %d", len(t.Data), want)
	}
	return nil
}

// At returns the sample at (row, col) of the single-batch, single-channel tensor
func (t Tensor) At(row, col int) float32 {
	return t.Data[row*t.Shape[2]+col]
}

// FrameSource produces frames from a capture device
type FrameSource interface {
	// Read returns the next frame; ErrStreamEnded when none is available.
	// The returned Mat is owned by the caller, also on error.
	Read() (gocv.Mat, error)
	// Close releases the device. Safe to call more than once.
	Close() error
}

// SourceOpener opens frame sources by device index
type SourceOpener interface {
	Open(deviceIndex int) (FrameSource, error)
}

// RegionDetector locates face regions in a grayscale frame
type RegionDetector interface {
	Detect(gray gocv.Mat, scaleFactor float64, minNeighbors int) []image.Rectangle
	Close() error
}

// Classifier maps a preprocessed tensor to per-class scores
type Classifier interface {
	Infer(ctx context.Context, tensor Tensor) (ScoreVector, error)
	// Classes reports the score vector width the model produces.
	Classes() int
	Close() error
}

// Display receives finished frames
type Display interface {
	// Publish hands over an annotated frame and, when labeled is true,
	// the most recently selected label of that frame.
	Publish(frame image.Image, label ClassLabel, labeled bool)
	// Clear removes the last published frame.
	Clear()
}
