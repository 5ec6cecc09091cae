package core

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ResizeInterpolation is the interpolation used when scaling a face region
// down (or up) to the classifier input. It is bilinear, matching the
// OpenCV default the emotion model was trained against.
const ResizeInterpolation = gocv.InterpolationLinear

// Preprocess converts one region of a grayscale frame into the classifier
// input tensor: crop, bilinear resize to 48x48, convert to float32,
// divide by 255 and copy out in row-major order.
func Preprocess(gray gocv.Mat, region image.Rectangle) (Tensor, error) {
	if gray.Empty() {
		return Tensor{}, errors.Wrap(ErrInvalidRegion, "source frame is empty")
	}
	if gray.Channels() != 1 {
		return Tensor{}, errors.Wrapf(ErrInvalidRegion, "expected grayscale frame, got %d channels", gray.Channels())
	}
	if err := ValidateRegion(FrameBounds(gray), region); err != nil {
		return Tensor{}, err
	}

	roi := gray.Region(region)
	defer roi.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	if err := gocv.Resize(roi, &resized, image.Pt(TensorSize, TensorSize), 0, 0, ResizeInterpolation); err != nil {
		return Tensor{}, errors.Wrapf(ErrInvalidRegion, "resize region %v: %v", region, err)
	}

	normalized := gocv.NewMat()
	defer normalized.Close()
	resized.ConvertTo(&normalized, gocv.MatTypeCV32F)
	normalized.DivideFloat(255.0)

	if normalized.Rows() != TensorSize || normalized.Cols() != TensorSize {
		return Tensor{}, errors.Wrapf(ErrInvalidRegion, "resized region is %dx%d", normalized.Cols(), normalized.Rows())
	}

	samples, err := normalized.DataPtrFloat32()
	if err != nil {
		return Tensor{}, errors.Wrapf(ErrInvalidRegion, "read normalized samples: %v", err)
	}

	tensor := NewTensor()
	copy(tensor.Data, samples)
	return tensor, nil
}

// ToGray derives the single-channel frame used for detection and inference
func ToGray(frame gocv.Mat, gray *gocv.Mat) error {
	switch frame.Channels() {
	case 1:
		frame.CopyTo(gray)
		return nil
	case 4:
		return gocv.CvtColor(frame, gray, gocv.ColorBGRAToGray)
	default:
		return gocv.CvtColor(frame, gray, gocv.ColorBGRToGray)
	}
}
