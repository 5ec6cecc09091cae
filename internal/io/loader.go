// Model file validation and frame snapshot saving
package io

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"emotion-recognition/internal/core"
)

// ModelKind identifies the format a model file must have
type ModelKind int

const (
	KindCascadeXML ModelKind = iota
	KindPigoCascade
	KindONNX
	KindTFLite
)

func (k ModelKind) String() string {
	switch k {
	case KindCascadeXML:
		return "cascade-xml"
	case KindPigoCascade:
		return "pigo-cascade"
	case KindONNX:
		return "onnx"
	case KindTFLite:
		return "tflite"
	default:
		return "unknown"
	}
}

// extensions lists accepted file extensions per kind; an empty entry
// accepts files without an extension.
var extensions = map[ModelKind][]string{
	KindCascadeXML:  {".xml"},
	KindPigoCascade: {"", ".bin", ".cascade"},
	KindONNX:        {".onnx"},
	KindTFLite:      {".tflite"},
}

// ModelLoader checks and reads model files before backends load them
type ModelLoader struct {
	logger *logrus.Logger
}

func NewModelLoader(logger *logrus.Logger) *ModelLoader {
	return &ModelLoader{
		logger: logger,
	}
}

// Validate checks that path names a non-empty regular file of the given kind
func (ml *ModelLoader) Validate(path string, kind ModelKind) error {
	if path == "" {
		return errors.Wrapf(core.ErrModelLoad, "no %s model path configured", kind)
	}

	if !isSupportedModelFormat(path, kind) {
		return errors.Wrapf(core.ErrModelLoad, "unsupported %s model format: %s", kind, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(core.ErrModelLoad, "stat %s: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return errors.Wrapf(core.ErrModelLoad, "%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return errors.Wrapf(core.ErrModelLoad, "%s is empty", path)
	}

	ml.logger.WithFields(logrus.Fields{
		"path":       path,
		"kind":       kind.String(),
		"size_bytes": info.Size(),
	}).Debug("Model file validated")
	return nil
}

// ReadModel validates and reads a model file into memory
func (ml *ModelLoader) ReadModel(path string, kind ModelKind) ([]byte, error) {
	if err := ml.Validate(path, kind); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(core.ErrModelLoad, "read %s: %v", path, err)
	}

	ml.logger.WithFields(logrus.Fields{
		"path": path,
		"kind": kind.String(),
	}).Info("Model file loaded")
	return data, nil
}

// SaveFrame writes a published frame to disk
func (ml *ModelLoader) SaveFrame(frame image.Image, path string) error {
	ml.logger.WithField("filepath", path).Debug("Saving frame")

	if frame == nil || frame.Bounds().Empty() {
		return errors.New("cannot save empty frame")
	}

	if !isSupportedImageFormat(path) {
		return errors.Errorf("unsupported image format: %s", path)
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return errors.Wrap(err, "convert frame")
	}
	defer mat.Close()

	if ok := gocv.IMWrite(path, mat); !ok {
		return errors.Errorf("failed to save frame: %s", path)
	}

	ml.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("Frame saved successfully")
	return nil
}

func isSupportedModelFormat(path string, kind ModelKind) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range extensions[kind] {
		if ext == allowed {
			return true
		}
	}
	return false
}

func isSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	supportedFormats := []string{".jpg", ".jpeg", ".png", ".bmp"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}

	return false
}
