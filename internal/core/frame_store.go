// Thread-safe holder for the most recently published frame
package core

import (
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameMetadata describes the stored frame
type FrameMetadata struct {
	Width       int
	Height      int
	Label       ClassLabel
	Labeled     bool
	Sequence    uint64
	PublishedAt time.Time
}

// FrameStore keeps the latest published frame. It satisfies Display and
// backs the headless runner and tests.
type FrameStore struct {
	mu       sync.RWMutex
	frame    image.Image
	hasFrame bool
	metadata FrameMetadata
	sequence uint64
	clears   int
}

// NewFrameStore creates an empty frame store
func NewFrameStore() *FrameStore {
	return &FrameStore{}
}

// Publish replaces the stored frame
func (fs *FrameStore) Publish(frame image.Image, label ClassLabel, labeled bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if frame == nil {
		return
	}

	fs.sequence++
	fs.frame = frame
	fs.hasFrame = true

	// A frame without faces keeps the previous label, as the label display
	// is only updated when a region was classified.
	label, labeled = fs.keepLabel(label, labeled)

	bounds := frame.Bounds()
	fs.metadata = FrameMetadata{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Label:       label,
		Labeled:     labeled,
		Sequence:    fs.sequence,
		PublishedAt: time.Now(),
	}
}

func (fs *FrameStore) keepLabel(label ClassLabel, labeled bool) (ClassLabel, bool) {
	if labeled {
		return label, true
	}
	return fs.metadata.Label, fs.metadata.Labeled
}

// Clear drops the stored frame
func (fs *FrameStore) Clear() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.frame = nil
	fs.hasFrame = false
	fs.metadata = FrameMetadata{}
	fs.clears++
}

// Latest returns the stored frame and its metadata
func (fs *FrameStore) Latest() (image.Image, FrameMetadata, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.frame, fs.metadata, fs.hasFrame
}

// HasFrame reports whether a frame is stored
func (fs *FrameStore) HasFrame() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.hasFrame
}

// Published returns how many frames were published since creation
func (fs *FrameStore) Published() uint64 {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.sequence
}

// ValidateFrame checks a captured frame for basic requirements
func ValidateFrame(mat gocv.Mat) error {
	if mat.Empty() {
		return errors.New("frame is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return errors.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	channels := mat.Channels()
	if channels != 1 && channels != 3 && channels != 4 {
		return errors.Errorf("unsupported channel count: %d", channels)
	}

	const maxDimension = 16384
	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return errors.Errorf("frame too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}

// Displays publishes to several displays in order
type Displays []Display

func (ds Displays) Publish(frame image.Image, label ClassLabel, labeled bool) {
	for _, d := range ds {
		d.Publish(frame, label, labeled)
	}
}

func (ds Displays) Clear() {
	for _, d := range ds {
		d.Clear()
	}
}
