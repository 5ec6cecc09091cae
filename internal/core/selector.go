package core

import (
	"math"

	"github.com/pkg/errors"
)

// Select returns the label at the first index holding the maximum score.
// NaN scores never win.
func Select(scores ScoreVector, labels LabelTable) (ClassLabel, int, error) {
	if len(scores) == 0 {
		return "", -1, ErrEmptyScoreVector
	}
	if len(scores) != len(labels) {
		return "", -1, errors.Wrapf(ErrLabelMismatch, "%d scores for %d labels", len(scores), len(labels))
	}

	best := -1
	for i, score := range scores {
		if math.IsNaN(float64(score)) {
			continue
		}
		if best < 0 || score > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return "", -1, errors.Wrap(ErrInference, "score vector holds no finite values")
	}
	return labels[best], best, nil
}
