package core

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())

	tests := []struct {
		name      string
		scores    ScoreVector
		wantLabel ClassLabel
		wantIndex int
	}{
		{"happy wins", ScoreVector{0.1, 0, 0, 0.8, 0.05, 0.03, 0.02}, "Happy", 3},
		{"tie resolves to first index", ScoreVector{0.5, 0.9, 0.9, 0.1, 0, 0, 0}, "Disgust", 1},
		{"last index", ScoreVector{0, 0, 0, 0, 0, 0, 0.2}, "Surprised", 6},
		{"all equal picks first", ScoreVector{0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3}, "Angry", 0},
		{"negative scores", ScoreVector{-3, -1, -2, -5, -4, -6, -7}, "Disgust", 1},
		{"nan is skipped", ScoreVector{nan, 0.2, 0.1, 0, 0, 0, 0}, "Disgust", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			label, index, err := Select(tt.scores, DefaultLabels)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantIndex, index)
		})
	}
}

func TestSelect_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty score vector", func(t *testing.T) {
		_, index, err := Select(ScoreVector{}, DefaultLabels)
		require.ErrorIs(t, err, ErrEmptyScoreVector)
		assert.Equal(t, -1, index)
	})

	t.Run("nil score vector", func(t *testing.T) {
		_, _, err := Select(nil, DefaultLabels)
		require.ErrorIs(t, err, ErrEmptyScoreVector)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, _, err := Select(ScoreVector{0.1, 0.9}, DefaultLabels)
		require.ErrorIs(t, err, ErrLabelMismatch)
	})

	t.Run("only nan", func(t *testing.T) {
		nan := float32(math.NaN())
		_, _, err := Select(ScoreVector{nan, nan}, LabelTable{"a", "b"})
		require.ErrorIs(t, err, ErrInference)
	})
}

func TestRegionErrorKind(t *testing.T) {
	t.Parallel()

	_, _, mismatch := Select(ScoreVector{1}, DefaultLabels)

	assert.Equal(t, "none", RegionErrorKind(nil))
	assert.Equal(t, "invalid_region", RegionErrorKind(ValidateRegion(image.Rect(0, 0, 10, 10), image.Rect(0, 0, 20, 20))))
	assert.Equal(t, "empty_scores", RegionErrorKind(ErrEmptyScoreVector))
	assert.Equal(t, "label_mismatch", RegionErrorKind(mismatch))
	assert.Equal(t, "inference", RegionErrorKind(Tensor{Shape: [4]int{1, 1, 1, 1}}.Validate()))
	assert.Equal(t, "other", RegionErrorKind(assert.AnError))
}

func TestNewLabelTable(t *testing.T) {
	t.Parallel()

	table := NewLabelTable([]string{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprised"})
	assert.Equal(t, DefaultLabels, table)
	assert.Empty(t, NewLabelTable(nil))
}
