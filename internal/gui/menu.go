// Menu handler for application actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	store  *core.FrameStore
	loader *modelio.ModelLoader
	logger *logrus.Logger

	onSnapshotSaved func(string)
}

func NewMenuHandler(window fyne.Window, store *core.FrameStore, loader *modelio.ModelLoader, logger *logrus.Logger) *MenuHandler {
	return &MenuHandler{
		window: window,
		store:  store,
		loader: loader,
		logger: logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Save Snapshot...", mh.saveSnapshot),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) saveSnapshot() {
	frame, meta, ok := mh.store.Latest()
	if !ok {
		mh.showError("No Frame", errors.New("no frame has been captured yet"))
		return
	}

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}

		path := writer.URI().Path()
		// The dialog creates the file; the encoder rewrites it by path.
		_ = writer.Close()

		if err := mh.loader.SaveFrame(frame, path); err != nil {
			mh.showError("Failed to Save Snapshot", err)
			return
		}

		mh.logger.WithFields(logrus.Fields{
			"path":     path,
			"sequence": meta.Sequence,
			"label":    meta.Label,
		}).Info("GUI: Snapshot saved")

		if mh.onSnapshotSaved != nil {
			mh.onSnapshotSaved(path)
		}
	}, mh.window)

	fileDialog.SetFileName("snapshot.png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".bmp"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Emotion Recognition"),
		widget.NewSeparator(),
		widget.NewLabel("Real-time facial emotion recognition from a local camera."),
		widget.NewLabel("Built with Go, Fyne v2.6, and OpenCV 4.11"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 200))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error("GUI: " + title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetSavedCallback(onSnapshotSaved func(string)) {
	mh.onSnapshotSaved = onSnapshotSaved
}
