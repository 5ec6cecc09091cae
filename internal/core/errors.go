package core

import (
	"github.com/pkg/errors"
)

var (
	// ErrDeviceUnavailable means the capture device could not be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrStreamEnded signals that no further frames are available. It ends
	// the loop gracefully and is not reported as a failure.
	ErrStreamEnded = errors.New("stream ended")
	// ErrInvalidRegion means a region does not lie within the frame.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrInference covers tensor shape mismatches and backend failures.
	ErrInference = errors.New("inference failed")
	// ErrEmptyScoreVector is returned when selecting from zero scores.
	ErrEmptyScoreVector = errors.New("empty score vector")
	// ErrLabelMismatch means score vector and label table lengths differ.
	ErrLabelMismatch = errors.New("score vector does not match label table")
	// ErrModelLoad means the detector or classifier could not be loaded.
	ErrModelLoad = errors.New("model load failed")
	// ErrNoSourceSelected means start was invoked without a valid source id.
	ErrNoSourceSelected = errors.New("no source selected")
)

// RegionErrorKind returns a short label for a region-scoped failure
func RegionErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidRegion):
		return "invalid_region"
	case errors.Is(err, ErrEmptyScoreVector):
		return "empty_scores"
	case errors.Is(err, ErrLabelMismatch):
		return "label_mismatch"
	case errors.Is(err, ErrInference):
		return "inference"
	default:
		return "other"
	}
}
