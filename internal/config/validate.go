package config

import (
	"strings"

	"github.com/pkg/errors"

	"emotion-recognition/internal/classifier"
	"emotion-recognition/internal/detector"
)

// ValidationError collects every problem found in the settings
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return "validation errors: " + strings.Join(ve.Errors, "; ")
}

// ValidateSettings checks the settings for values the pipeline cannot use
func ValidateSettings(s *Settings) error {
	ve := ValidationError{}

	if s.Camera.ProbeLimit <= 0 {
		ve.Errors = append(ve.Errors, "camera.probe_limit must be positive")
	}
	if s.Camera.Device < 0 {
		ve.Errors = append(ve.Errors, "camera.device must not be negative")
	}

	if !detector.IsValidBackend(s.Detector.Backend) {
		ve.Errors = append(ve.Errors, "detector.backend must be one of "+strings.Join(detector.Backends(), ", "))
	}
	if err := detector.ValidateParameters(s.Detector.ScaleFactor, s.Detector.MinNeighbors); err != nil {
		ve.Errors = append(ve.Errors, "detector: "+err.Error())
	}
	if s.Detector.MinSize < 0 || s.Detector.MaxSize < 0 {
		ve.Errors = append(ve.Errors, "detector.min_size and detector.max_size must not be negative")
	}
	if s.Detector.MaxSize > 0 && s.Detector.MinSize > s.Detector.MaxSize {
		ve.Errors = append(ve.Errors, "detector.min_size must not exceed detector.max_size")
	}
	if s.Detector.IoUThreshold < 0 || s.Detector.IoUThreshold > 1 {
		ve.Errors = append(ve.Errors, "detector.iou_threshold must be within [0, 1]")
	}

	if !classifier.IsValidBackend(s.Classifier.Backend) {
		ve.Errors = append(ve.Errors, "classifier.backend must be one of "+strings.Join(classifier.Backends(), ", "))
	}
	if s.Classifier.Threads < 0 {
		ve.Errors = append(ve.Errors, "classifier.threads must not be negative")
	}
	if s.Classifier.Timeout < 0 {
		ve.Errors = append(ve.Errors, "classifier.timeout must not be negative")
	}

	if s.Pipeline.YieldInterval <= 0 {
		ve.Errors = append(ve.Errors, "pipeline.yield_interval must be positive")
	}

	if len(s.Labels) == 0 {
		ve.Errors = append(ve.Errors, "labels must not be empty")
	}
	seen := make(map[string]bool, len(s.Labels))
	for _, label := range s.Labels {
		if strings.TrimSpace(label) == "" {
			ve.Errors = append(ve.Errors, "labels must not contain blank entries")
			break
		}
		if seen[label] {
			ve.Errors = append(ve.Errors, "duplicate label "+label)
		}
		seen[label] = true
	}

	if len(ve.Errors) > 0 {
		return errors.WithStack(ve)
	}
	return nil
}
