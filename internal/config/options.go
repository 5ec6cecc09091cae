package config

import (
	"github.com/sirupsen/logrus"

	"emotion-recognition/internal/classifier"
	"emotion-recognition/internal/core"
	"emotion-recognition/internal/detector"
	"emotion-recognition/internal/overlay"
)

// DetectorOptions converts the detector settings for detector.New
func (s *Settings) DetectorOptions(logger *logrus.Logger) detector.Options {
	return detector.Options{
		CascadePath:  s.Detector.CascadePath,
		MinSize:      s.Detector.MinSize,
		MaxSize:      s.Detector.MaxSize,
		ShiftFactor:  s.Detector.ShiftFactor,
		IoUThreshold: s.Detector.IoUThreshold,
		MinQuality:   float32(s.Detector.MinQuality),
		Logger:       logger,
	}
}

// ClassifierOptions converts the classifier settings for classifier.New
func (s *Settings) ClassifierOptions(logger *logrus.Logger) classifier.Options {
	return classifier.Options{
		ModelPath:  s.Classifier.ModelPath,
		InputName:  s.Classifier.InputName,
		OutputName: s.Classifier.OutputName,
		Backend:    s.Classifier.DNNBackend,
		Target:     s.Classifier.DNNTarget,
		Threads:    s.Classifier.Threads,
		Logger:     logger,
	}
}

// PipelineOptions converts the loop settings for core.NewPipeline
func (s *Settings) PipelineOptions() core.Options {
	return core.Options{
		ScaleFactor:   s.Detector.ScaleFactor,
		MinNeighbors:  s.Detector.MinNeighbors,
		YieldInterval: s.Pipeline.YieldInterval,
		Labels:        core.NewLabelTable(s.Labels),
	}
}

// AnnotationStyle returns the overlay style with configured sizes
func (s *Settings) AnnotationStyle() overlay.Style {
	style := overlay.DefaultStyle()
	style.BoxThickness = s.Annotation.BoxThickness
	style.FontScale = s.Annotation.FontScale
	style.TextThickness = s.Annotation.TextThickness
	return style
}

// CapabilityLoader returns a loader that builds the configured detector and
// classifier. It is handed to the pipeline, which calls it once.
func (s *Settings) CapabilityLoader(logger *logrus.Logger) core.CapabilityLoader {
	return func() (core.RegionDetector, core.Classifier, error) {
		det, err := detector.New(s.Detector.Backend, s.DetectorOptions(logger))
		if err != nil {
			return nil, nil, err
		}
		cls, err := classifier.New(s.Classifier.Backend, s.ClassifierOptions(logger))
		if err != nil {
			_ = det.Close()
			return nil, nil, err
		}
		return det, classifier.WithTimeout(cls, s.Classifier.Timeout), nil
	}
}
