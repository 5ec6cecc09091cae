// internal/gui/canvas.go
// Live camera view with the current emotion label
package gui

import (
	"image"
	"image/color"
	"image/draw"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"emotion-recognition/internal/core"
)

const noEmotionText = "Emotion: -"

// LiveCanvas shows the most recent annotated frame. It satisfies
// core.Display; all widget updates are marshalled onto the UI thread.
type LiveCanvas struct {
	logger *logrus.Logger

	image       *canvas.Image
	emotion     *widget.Label
	view        *widget.Card
	placeholder image.Image
}

func NewLiveCanvas(logger *logrus.Logger) *LiveCanvas {
	lc := &LiveCanvas{logger: logger}
	lc.initializeUI()
	return lc
}

func (lc *LiveCanvas) initializeUI() {
	lc.placeholder = newPlaceholder(640, 480)

	lc.image = canvas.NewImageFromImage(lc.placeholder)
	lc.image.FillMode = canvas.ImageFillContain
	lc.image.ScaleMode = canvas.ImageScaleFastest
	lc.image.SetMinSize(fyne.NewSize(640, 480))

	lc.emotion = widget.NewLabelWithStyle(noEmotionText, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	lc.view = widget.NewCard("Camera", "", container.NewBorder(nil, lc.emotion, nil, nil, lc.image))
}

func (lc *LiveCanvas) GetContainer() fyne.CanvasObject {
	return lc.view
}

// Publish swaps in a new frame. The label only changes when a region was
// classified in this frame.
func (lc *LiveCanvas) Publish(frame image.Image, label core.ClassLabel, labeled bool) {
	if frame == nil || frame.Bounds().Empty() {
		lc.logger.Warn("CANVAS: Ignoring empty frame")
		return
	}

	fyne.Do(func() {
		lc.image.Image = frame
		lc.image.Refresh()
		if labeled {
			lc.emotion.SetText(emotionText(label))
		}
	})
}

// Clear restores the placeholder and resets the label
func (lc *LiveCanvas) Clear() {
	fyne.Do(func() {
		lc.image.Image = lc.placeholder
		lc.image.Refresh()
		lc.emotion.SetText(noEmotionText)
	})
}

func emotionText(label core.ClassLabel) string {
	if label == "" {
		return noEmotionText
	}
	return "Emotion: " + string(label)
}

func newPlaceholder(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 32, G: 32, B: 32, A: 255}}, image.Point{}, draw.Src)
	return img
}
