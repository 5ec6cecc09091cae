// Region geometry helpers shared by detectors and the preprocessor
package core

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameBounds returns the rectangle covering the whole frame
func FrameBounds(frame gocv.Mat) image.Rectangle {
	return image.Rect(0, 0, frame.Cols(), frame.Rows())
}

// ValidateRegion rejects empty regions and regions that leave the frame.
// Regions are never clamped here; callers that want clamping use ClipRegion.
func ValidateRegion(frame, region image.Rectangle) error {
	if region.Empty() {
		return errors.Wrapf(ErrInvalidRegion, "region %v is empty", region)
	}
	if !region.In(frame) {
		return errors.Wrapf(ErrInvalidRegion, "region %v exceeds frame %v", region, frame)
	}
	return nil
}

// ClipRegion intersects a region with the frame. The boolean is false when
// nothing of the region remains.
func ClipRegion(frame, region image.Rectangle) (image.Rectangle, bool) {
	clipped := region.Intersect(frame)
	return clipped, !clipped.Empty()
}

// SquareRegion builds a square region of the given size around a center point
func SquareRegion(center image.Point, size int) image.Rectangle {
	half := size / 2
	return image.Rect(center.X-half, center.Y-half, center.X-half+size, center.Y-half+size)
}

// IoU returns the intersection over union of two regions
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := area(inter)
	union := area(a) + area(b) - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
