package main

import (
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/spf13/cobra"

	"emotion-recognition/internal/capture"
	"emotion-recognition/internal/gui"
	modelio "emotion-recognition/internal/io"
)

func guiCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the camera window (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runGUI()
		},
	}
}

func (a *appContext) runGUI() error {
	sources := capture.Probe(capture.NewDeviceOpener(a.logger), a.settings.Camera.ProbeLimit, a.logger)

	fyneApp := fyneapp.NewWithID(AppID)
	fyneApp.SetIcon(theme.MediaVideoIcon())
	fyneApp.Settings().SetTheme(theme.DefaultTheme())

	window := gui.NewApplication(fyneApp, sources, modelio.NewModelLoader(a.logger), a.logger)
	pipeline := a.newPipeline(window)
	window.Bind(pipeline)

	window.ShowAndRun()

	// The close intercept already released the pipeline; Close is idempotent.
	return pipeline.Close()
}
