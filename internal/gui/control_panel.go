// internal/gui/control_panel.go
// Camera selection and start/stop controls
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"emotion-recognition/internal/capture"
)

type ControlPanel struct {
	container *fyne.Container

	sources      []int
	cameraSelect *widget.Select
	startBtn     *widget.Button
	stopBtn      *widget.Button

	onStart func(sourceID int)
	onStop  func()
}

func NewControlPanel(sources []int) *ControlPanel {
	panel := &ControlPanel{sources: sources}
	panel.initializeUI()
	return panel
}

func (cp *ControlPanel) initializeUI() {
	cp.cameraSelect = widget.NewSelect(capture.SourceNames(cp.sources), nil)
	cp.cameraSelect.PlaceHolder = "Select a camera"
	if len(cp.sources) > 0 {
		cp.cameraSelect.SetSelectedIndex(0)
	}

	cp.startBtn = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		if cp.onStart != nil {
			cp.onStart(cp.SelectedSource())
		}
	})
	cp.startBtn.Importance = widget.HighImportance

	cp.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		if cp.onStop != nil {
			cp.onStop()
		}
	})
	cp.stopBtn.Disable()

	cp.container = container.NewHBox(
		widget.NewLabel("Camera:"),
		cp.cameraSelect,
		widget.NewSeparator(),
		cp.startBtn,
		cp.stopBtn,
	)
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func (cp *ControlPanel) SetCallbacks(onStart func(int), onStop func()) {
	cp.onStart = onStart
	cp.onStop = onStop
}

// SelectedSource returns the device index of the selected camera, or -1
func (cp *ControlPanel) SelectedSource() int {
	return sourceAt(cp.sources, cp.cameraSelect.SelectedIndex())
}

// SetRunning toggles the buttons for the given state. Must run on the UI thread.
func (cp *ControlPanel) SetRunning(running bool) {
	if running {
		cp.startBtn.SetText("Switch")
		cp.stopBtn.Enable()
		return
	}
	cp.startBtn.SetText("Start")
	cp.stopBtn.Disable()
}

func sourceAt(sources []int, selected int) int {
	if selected < 0 || selected >= len(sources) {
		return -1
	}
	return sources[selected]
}
