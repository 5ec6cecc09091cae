package overlay

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Style controls how regions and labels are drawn
type Style struct {
	BoxColor      color.RGBA
	BoxThickness  int
	TextColor     color.RGBA
	Font          gocv.HersheyFont
	FontScale     float64
	TextThickness int
}

// DefaultStyle draws blue boxes and large green labels
func DefaultStyle() Style {
	return Style{
		BoxColor:      color.RGBA{R: 0, G: 0, B: 255, A: 0},
		BoxThickness:  2,
		TextColor:     color.RGBA{R: 0, G: 255, B: 0, A: 0},
		Font:          gocv.FontHersheySimplex,
		FontScale:     2,
		TextThickness: 3,
	}
}

// Annotator draws overlays onto frames in place. It never moves or resizes
// frame content; only box and text pixels change.
type Annotator struct {
	style Style
}

func NewAnnotator(style Style) *Annotator {
	if style.BoxThickness <= 0 {
		style.BoxThickness = 1
	}
	if style.TextThickness <= 0 {
		style.TextThickness = 1
	}
	if style.FontScale <= 0 {
		style.FontScale = 1
	}
	return &Annotator{style: style}
}

// Style returns the drawing style
func (a *Annotator) Style() Style {
	return a.style
}

// Annotate draws one region and, when labeled, its label
func (a *Annotator) Annotate(frame *gocv.Mat, region image.Rectangle, label string, labeled bool) error {
	if frame == nil || frame.Empty() {
		return errors.New("cannot annotate empty frame")
	}

	gocv.Rectangle(frame, region, a.style.BoxColor, a.style.BoxThickness)

	if !labeled || label == "" {
		return nil
	}

	gocv.PutText(frame, label, a.labelOrigin(region, label), a.style.Font, a.style.FontScale, a.style.TextColor, a.style.TextThickness)
	return nil
}

// Apply draws every overlay of the stack in order. An empty stack leaves
// the frame untouched.
func (a *Annotator) Apply(frame *gocv.Mat, stack *Stack) error {
	if stack == nil || stack.Len() == 0 {
		return nil
	}
	for _, o := range stack.Overlays() {
		if err := a.Annotate(frame, o.Region, o.Label, o.Labeled); err != nil {
			return errors.Wrapf(err, "annotate region %v", o.Region)
		}
	}
	return nil
}

// labelOrigin places the text baseline at the region's top-left corner.
// When that would push the text above the frame, the baseline moves just
// inside the box instead.
func (a *Annotator) labelOrigin(region image.Rectangle, label string) image.Point {
	size := gocv.GetTextSize(label, a.style.Font, a.style.FontScale, a.style.TextThickness)
	origin := region.Min
	if origin.Y-size.Y < 0 {
		origin.Y = region.Min.Y + size.Y
	}
	return origin
}
