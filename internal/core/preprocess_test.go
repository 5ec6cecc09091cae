package core

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidGray(t *testing.T, rows, cols int, value float64) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	t.Cleanup(func() { mat.Close() })
	return mat
}

func TestPreprocess_SolidRegions(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		want   float32
		rows   int
		cols   int
		region image.Rectangle
	}{
		{"white", 255, 1.0, 120, 160, image.Rect(10, 10, 110, 110)},
		{"black", 0, 0.0, 120, 160, image.Rect(10, 10, 110, 110)},
		{"mid gray", 51, 0.2, 120, 160, image.Rect(10, 10, 110, 110)},
		{"white exact size", 255, 1.0, TensorSize, TensorSize, image.Rect(0, 0, TensorSize, TensorSize)},
		{"black exact size", 0, 0.0, TensorSize, TensorSize, image.Rect(0, 0, TensorSize, TensorSize)},
		{"white exact size crop", 255, 1.0, 120, 160, image.Rect(30, 20, 30+TensorSize, 20+TensorSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gray := solidGray(t, tt.rows, tt.cols, tt.value)

			tensor, err := Preprocess(gray, tt.region)
			require.NoError(t, err)
			require.NoError(t, tensor.Validate())

			for i, v := range tensor.Data {
				if !assert.InDelta(t, tt.want, v, 1e-6, "sample %d", i) {
					break
				}
			}
		})
	}
}

func TestPreprocess_ShapeIndependentOfRegionSize(t *testing.T) {
	gray := solidGray(t, 480, 640, 128)

	regions := []image.Rectangle{
		image.Rect(0, 0, 48, 48),
		image.Rect(0, 0, 13, 13),
		image.Rect(100, 50, 400, 350),
		image.Rect(0, 0, 640, 480),
		image.Rect(5, 5, 37, 90),
	}

	for _, region := range regions {
		tensor, err := Preprocess(gray, region)
		require.NoError(t, err, "region %v", region)
		assert.Equal(t, [4]int{1, 48, 48, 1}, tensor.Shape)
		assert.Len(t, tensor.Data, 48*48)
	}
}

func TestPreprocess_RowMajorLayout(t *testing.T) {
	// Left half black, right half white.
	gray := solidGray(t, 48, 48, 0)
	right := gray.Region(image.Rect(24, 0, 48, 48))
	right.SetTo(gocv.NewScalar(255, 0, 0, 0))
	right.Close()

	tensor, err := Preprocess(gray, image.Rect(0, 0, 48, 48))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, tensor.At(0, 0), 1e-6)
	assert.InDelta(t, 0.0, tensor.At(47, 10), 1e-6)
	assert.InDelta(t, 1.0, tensor.At(0, 47), 1e-6)
	assert.InDelta(t, 1.0, tensor.At(30, 40), 1e-6)
}

func TestPreprocess_InvalidInput(t *testing.T) {
	gray := solidGray(t, 100, 100, 10)

	_, err := Preprocess(gray, image.Rect(50, 50, 150, 150))
	require.ErrorIs(t, err, ErrInvalidRegion, "out of bounds regions are rejected, not clamped")

	_, err = Preprocess(gray, image.Rect(10, 10, 10, 10))
	require.ErrorIs(t, err, ErrInvalidRegion)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = Preprocess(empty, image.Rect(0, 0, 10, 10))
	require.ErrorIs(t, err, ErrInvalidRegion)

	color := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer color.Close()
	_, err = Preprocess(color, image.Rect(0, 0, 10, 10))
	require.ErrorIs(t, err, ErrInvalidRegion)
}

func TestToGray(t *testing.T) {
	bgr := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 20, 30, gocv.MatTypeCV8UC3)
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()

	require.NoError(t, ToGray(bgr, &gray))
	assert.Equal(t, 1, gray.Channels())
	assert.Equal(t, 20, gray.Rows())
	assert.Equal(t, 30, gray.Cols())
	assert.Equal(t, uint8(255), gray.GetUCharAt(5, 5))

	single := solidGray(t, 10, 10, 7)
	copied := gocv.NewMat()
	defer copied.Close()
	require.NoError(t, ToGray(single, &copied))
	assert.Equal(t, uint8(7), copied.GetUCharAt(0, 0))
}

func TestTensorValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewTensor().Validate())

	short := NewTensor()
	short.Data = short.Data[:10]
	require.ErrorIs(t, short.Validate(), ErrInference)

	wrong := Tensor{Shape: [4]int{1, 64, 64, 1}, Data: make([]float32, 64*64)}
	require.ErrorIs(t, wrong.Validate(), ErrInference)
}
