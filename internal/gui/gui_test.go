package gui

import (
	"image"
	"io"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No camera selected.", userMessage(errors.Wrap(core.ErrNoSourceSelected, "source id -1")))
	assert.Equal(t, "Failed to open the selected camera.", userMessage(errors.Wrap(core.ErrDeviceUnavailable, "device 3")))
	assert.Equal(t, "Failed to load the detection or classification models.", userMessage(core.ErrModelLoad))
	assert.Equal(t, "The emotion model does not match the configured labels.", userMessage(core.ErrLabelMismatch))
	assert.Equal(t, "boom", userMessage(errors.New("boom")))
}

func TestSourceAt(t *testing.T) {
	t.Parallel()

	sources := []int{0, 2, 5}
	assert.Equal(t, 2, sourceAt(sources, 1))
	assert.Equal(t, -1, sourceAt(sources, -1), "nothing selected")
	assert.Equal(t, -1, sourceAt(sources, 3))
	assert.Equal(t, -1, sourceAt(nil, 0))
}

func TestEmotionText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Emotion: Happy", emotionText("Happy"))
	assert.Equal(t, noEmotionText, emotionText(""))
}

func TestControlPanel(t *testing.T) {
	test.NewTempApp(t)

	panel := NewControlPanel([]int{1, 4})
	assert.Equal(t, 1, panel.SelectedSource(), "first camera is preselected")

	var started []int
	stopped := 0
	panel.SetCallbacks(func(id int) { started = append(started, id) }, func() { stopped++ })

	panel.cameraSelect.SetSelectedIndex(1)
	test.Tap(panel.startBtn)
	assert.Equal(t, []int{4}, started)

	panel.SetRunning(true)
	assert.False(t, panel.stopBtn.Disabled())
	test.Tap(panel.stopBtn)
	assert.Equal(t, 1, stopped)

	panel.SetRunning(false)
	assert.True(t, panel.stopBtn.Disabled())
}

func TestControlPanel_NoCameras(t *testing.T) {
	test.NewTempApp(t)

	panel := NewControlPanel(nil)
	assert.Equal(t, -1, panel.SelectedSource())

	var started []int
	panel.SetCallbacks(func(id int) { started = append(started, id) }, nil)
	test.Tap(panel.startBtn)
	assert.Equal(t, []int{-1}, started, "start reports the missing selection to the pipeline")
}

func TestApplication_DisplayFeedsFrameStore(t *testing.T) {
	a := NewApplication(test.NewTempApp(t), []int{0}, modelio.NewModelLoader(quietLogger()), quietLogger())

	a.Publish(image.NewRGBA(image.Rect(0, 0, 16, 9)), "Surprised", true)
	_, meta, ok := a.store.Latest()
	require.True(t, ok)
	assert.Equal(t, core.ClassLabel("Surprised"), meta.Label)

	a.Clear()
	assert.False(t, a.store.HasFrame())
}
