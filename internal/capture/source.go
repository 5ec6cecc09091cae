// Camera-backed frame source
package capture

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"emotion-recognition/internal/core"
)

// Source wraps an opened capture device. Read and Close share a mutex so
// a Close issued from another goroutine waits for an in-flight Read and the
// device is released exactly once.
type Source struct {
	mu     sync.Mutex
	device *gocv.VideoCapture
	index  int
	closed bool
	frames uint64
	logger *logrus.Logger
}

// Open opens the capture device with the given index
func Open(index int, logger *logrus.Logger) (*Source, error) {
	log := logger.WithField("device", index)
	log.Debug("CAPTURE: Opening device")

	if index < 0 {
		return nil, errors.Wrapf(core.ErrDeviceUnavailable, "invalid device index %d", index)
	}

	device, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, errors.Wrapf(core.ErrDeviceUnavailable, "device %d: %v", index, err)
	}
	if !device.IsOpened() {
		device.Close()
		return nil, errors.Wrapf(core.ErrDeviceUnavailable, "device %d did not open", index)
	}

	log.WithFields(logrus.Fields{
		"width":  device.Get(gocv.VideoCaptureFrameWidth),
		"height": device.Get(gocv.VideoCaptureFrameHeight),
		"fps":    device.Get(gocv.VideoCaptureFPS),
	}).Info("CAPTURE: Device opened")

	return &Source{
		device: device,
		index:  index,
		logger: logger,
	}, nil
}

// Read returns the next frame. A closed source, a failed grab or an empty
// frame all end the stream.
func (s *Source) Read() (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gocv.NewMat(), core.ErrStreamEnded
	}

	frame := gocv.NewMat()
	if ok := s.device.Read(&frame); !ok {
		frame.Close()
		return gocv.NewMat(), errors.Wrapf(core.ErrStreamEnded, "device %d read failed", s.index)
	}
	if frame.Empty() {
		frame.Close()
		return gocv.NewMat(), errors.Wrapf(core.ErrStreamEnded, "device %d returned an empty frame", s.index)
	}

	s.frames++
	return frame, nil
}

// Close releases the device. Subsequent calls are no-ops.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.WithFields(logrus.Fields{
		"device": s.index,
		"frames": s.frames,
	}).Info("CAPTURE: Device released")

	if err := s.device.Close(); err != nil {
		return errors.Wrapf(err, "close device %d", s.index)
	}
	return nil
}

// DeviceOpener opens camera devices for the pipeline
type DeviceOpener struct {
	logger *logrus.Logger
}

func NewDeviceOpener(logger *logrus.Logger) *DeviceOpener {
	return &DeviceOpener{logger: logger}
}

// Open implements core.SourceOpener
func (o *DeviceOpener) Open(index int) (core.FrameSource, error) {
	source, err := Open(index, o.logger)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// SourceName is the display name of a device index
func SourceName(index int) string {
	return fmt.Sprintf("Camera %d", index)
}
