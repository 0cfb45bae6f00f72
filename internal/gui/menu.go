// Menu handler for application actions
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pixelbench/internal/core"
	"pixelbench/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	loader io.Loader
	logger logrus.FieldLogger

	// result returns the image to save, false when there is none
	result func() (core.Image, bool)

	onImageLoaded func(img core.Image, path string)
	onImageSaved  func(path string)
}

func NewMenuHandler(window fyne.Window, loader io.Loader, result func() (core.Image, bool), logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window: window,
		loader: loader,
		result: result,
		logger: logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.openImage),
		fyne.NewMenuItem("Save Result...", mh.saveImage),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)
	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) openImage() {
	mh.logger.Info("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		// decoding can take a while for large files
		go func() {
			img, err := mh.loader.LoadImage(path)
			fyne.Do(func() {
				if err != nil {
					mh.showError("Failed to Load Image", err)
					return
				}
				if mh.onImageLoaded != nil {
					mh.onImageLoaded(img, path)
				}
			})
		}()
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(core.SupportedExtensions))
	fileDialog.Show()
}

func (mh *MenuHandler) saveImage() {
	img, ok := mh.result()
	if !ok {
		mh.showError("No Result", fmt.Errorf("apply a filter before saving"))
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
		writer.Close()

		if err := mh.loader.SaveImage(img, path); err != nil {
			mh.showError("Failed to Save Image", err)
			return
		}
		if mh.onImageSaved != nil {
			mh.onImageSaved(path)
		}
	}, mh.window)

	fileDialog.SetFileName("result.png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".bmp"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Pixel Bench"),
		widget.NewSeparator(),
		widget.NewLabel("Grayscale, Gaussian blur and Sobel filters"),
		widget.NewLabel("on a managed and a raw linear-memory backend,"),
		widget.NewLabel("timed side by side."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go and Fyne v2.6"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 250))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onImageLoaded func(core.Image, string), onImageSaved func(string)) {
	mh.onImageLoaded = onImageLoaded
	mh.onImageSaved = onImageSaved
}
