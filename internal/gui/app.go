// Main application window: live camera view, camera selection, start/stop
package gui

import (
	"context"
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"emotion-recognition/internal/capture"
	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

const statusPollInterval = 500 * time.Millisecond

// Application is the fyne front end. It is the pipeline's display: every
// published frame goes to the live canvas and to a frame store used for
// snapshots.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger

	pipeline *core.Pipeline
	store    *core.FrameStore
	sources  []int

	canvas      *LiveCanvas
	controls    *ControlPanel
	menuHandler *MenuHandler
	statusCard  *widget.Card

	stopStatus context.CancelFunc
}

func NewApplication(app fyne.App, sources []int, loader *modelio.ModelLoader, logger *logrus.Logger) *Application {
	window := app.NewWindow("Emotion Recognition")
	window.Resize(fyne.NewSize(900, 700))
	window.CenterOnScreen()

	a := &Application{
		app:     app,
		window:  window,
		logger:  logger,
		store:   core.NewFrameStore(),
		sources: sources,
	}

	a.canvas = NewLiveCanvas(logger)
	a.controls = NewControlPanel(sources)
	a.menuHandler = NewMenuHandler(window, a.store, loader, logger)

	a.setupLayout()
	a.setupCallbacks()
	return a
}

// Bind attaches the pipeline driven by the controls
func (a *Application) Bind(pipeline *core.Pipeline) {
	a.pipeline = pipeline
}

// Publish implements core.Display
func (a *Application) Publish(frame image.Image, label core.ClassLabel, labeled bool) {
	a.store.Publish(frame, label, labeled)
	a.canvas.Publish(frame, label, labeled)
}

// Clear implements core.Display
func (a *Application) Clear() {
	a.store.Clear()
	a.canvas.Clear()
}

func (a *Application) setupLayout() {
	a.statusCard = widget.NewCard("", "", widget.NewLabel(a.initialStatus()))

	top := container.NewVBox(
		a.controls.GetContainer(),
		widget.NewSeparator(),
	)

	content := container.NewBorder(
		top,          // top
		a.statusCard, // bottom
		nil,          // left
		nil,          // right
		container.NewPadded(a.canvas.GetContainer()),
	)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(content)
}

func (a *Application) initialStatus() string {
	if len(a.sources) == 0 {
		return "No cameras found"
	}
	return fmt.Sprintf("%d camera(s) available", len(a.sources))
}

func (a *Application) setupCallbacks() {
	a.controls.SetCallbacks(
		// onStart
		func(sourceID int) {
			go a.start(sourceID)
		},
		// onStop
		func() {
			go a.stop()
		},
	)

	a.menuHandler.SetSavedCallback(func(path string) {
		fyne.Do(func() {
			a.updateStatusMessage("Snapshot saved: " + path)
		})
	})
}

// start runs off the UI thread: opening a camera can block
func (a *Application) start(sourceID int) {
	if a.pipeline == nil {
		return
	}

	err := a.pipeline.Start(sourceID)
	fyne.Do(func() {
		if err != nil {
			a.showError(err)
			a.controls.SetRunning(false)
			return
		}
		a.controls.SetRunning(true)
		a.updateStatusMessage("Running: " + capture.SourceName(sourceID))
	})
}

func (a *Application) stop() {
	if a.pipeline == nil {
		return
	}

	a.pipeline.Stop()
	fyne.Do(func() {
		a.controls.SetRunning(false)
		a.updateStatusMessage("Stopped")
	})
}

// watchState reflects a stream that ended on its own in the controls
func (a *Application) watchState(ctx context.Context) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	last := core.StateIdle
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if a.pipeline == nil {
			continue
		}
		state := a.pipeline.State()
		if state == last {
			continue
		}
		last = state
		if state == core.StateIdle {
			fyne.Do(func() {
				a.controls.SetRunning(false)
				a.updateStatusMessage("Idle")
			})
		}
	}
}

func (a *Application) updateStatusMessage(message string) {
	if a.statusCard != nil {
		a.statusCard.SetContent(widget.NewLabel(message))
	}
}

func (a *Application) ShowAndRun() {
	a.logger.Info("GUI: Showing main window")

	ctx, cancel := context.WithCancel(context.Background())
	a.stopStatus = cancel
	go a.watchState(ctx)

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("GUI: Cleaning up application resources")
	if a.stopStatus != nil {
		a.stopStatus()
	}
	if a.pipeline != nil {
		if err := a.pipeline.Close(); err != nil {
			a.logger.WithError(err).Warn("GUI: Failed to release pipeline resources")
		}
	}
}

func (a *Application) showError(err error) {
	message := userMessage(err)
	a.logger.WithError(err).Error("GUI: " + message)
	dialog.ShowError(errors.New(message), a.window)
	a.updateStatusMessage("Error: " + message)
}

// userMessage maps pipeline-scoped failures to dialog text
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrNoSourceSelected):
		return "No camera selected."
	case errors.Is(err, core.ErrDeviceUnavailable):
		return "Failed to open the selected camera."
	case errors.Is(err, core.ErrLabelMismatch):
		return "The emotion model does not match the configured labels."
	case errors.Is(err, core.ErrModelLoad):
		return "Failed to load the detection or classification models."
	default:
		return err.Error()
	}
}
