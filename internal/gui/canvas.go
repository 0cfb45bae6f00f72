// internal/gui/canvas.go
// Side-by-side display of the source image and the latest filter result
package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pixelbench/internal/core"
)

// ImageCanvas shows the original and the result in two cards.
type ImageCanvas struct {
	logger logrus.FieldLogger

	split        *container.Split
	originalView *widget.Card
	resultView   *widget.Card
	original     *canvas.Image
	result       *canvas.Image
}

func NewImageCanvas(logger logrus.FieldLogger) *ImageCanvas {
	ic := &ImageCanvas{logger: logger}
	ic.initializeUI()
	return ic
}

func (ic *ImageCanvas) initializeUI() {
	ic.original = newDisplayImage()
	ic.result = newDisplayImage()

	ic.originalView = widget.NewCard("Original", "No image loaded", ic.original)
	ic.resultView = widget.NewCard("Result", "", ic.result)

	ic.split = container.NewHSplit(ic.originalView, ic.resultView)
	ic.split.SetOffset(0.5)
}

func newDisplayImage() *canvas.Image {
	img := canvas.NewImageFromImage(placeholder())
	img.FillMode = canvas.ImageFillContain
	// nearest neighbour, so single-pixel edges stay visible
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(fyne.NewSize(320, 240))
	return img
}

func placeholder() image.Image {
	img := image.NewUniform(color.NRGBA{240, 240, 240, 255})
	return &boundedUniform{Uniform: img, rect: image.Rect(0, 0, 200, 150)}
}

// boundedUniform gives image.Uniform finite bounds for display.
type boundedUniform struct {
	*image.Uniform
	rect image.Rectangle
}

func (b *boundedUniform) Bounds() image.Rectangle { return b.rect }

func (ic *ImageCanvas) GetContainer() fyne.CanvasObject {
	return ic.split
}

// SetOriginal displays img and clears the result. Must run on the UI thread.
func (ic *ImageCanvas) SetOriginal(img core.Image, caption string) {
	ic.original.Image = img.ToNRGBA()
	ic.original.Refresh()
	ic.originalView.SetSubTitle(caption)
	ic.ClearResult()
}

// SetResult displays a filter output. Must run on the UI thread.
func (ic *ImageCanvas) SetResult(img core.Image, caption string) {
	ic.result.Image = img.ToNRGBA()
	ic.result.Refresh()
	ic.resultView.SetSubTitle(caption)
	ic.logger.WithFields(logrus.Fields{
		"resolution": img.Resolution(),
		"caption":    caption,
	}).Debug("Result displayed")
}

func (ic *ImageCanvas) ClearResult() {
	ic.result.Image = placeholder()
	ic.result.Refresh()
	ic.resultView.SetSubTitle("")
}
