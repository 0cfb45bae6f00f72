// Image loading and saving through OpenCV
package io

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"pixelbench/internal/core"
	"pixelbench/internal/logging"
)

// Loader reads and writes RGBA pixel buffers.
type Loader interface {
	LoadImage(path string) (core.Image, error)
	SaveImage(img core.Image, path string) error
}

// ImageLoader handles image files with OpenCV and converts them to RGBA.
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logging.OrDiscard(logger),
	}
}

func (il *ImageLoader) LoadImage(path string) (core.Image, error) {
	il.logger.WithField("path", path).Debug("Loading image")

	if !isSupportedImageFormat(path) {
		return core.Image{}, fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return core.Image{}, fmt.Errorf("failed to load image: %s", path)
	}

	// 16-bit and float inputs are reloaded as 8-bit colour
	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		mat.Close()
		mat = gocv.IMRead(path, gocv.IMReadColor)
		if mat.Empty() {
			return core.Image{}, fmt.Errorf("failed to load image: %s", path)
		}
	}

	img, err := matToImage(mat)
	if err != nil {
		return core.Image{}, fmt.Errorf("%s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"path":     path,
		"width":    img.Width,
		"height":   img.Height,
		"channels": mat.Channels(),
	}).Info("Image loaded successfully")
	return img, nil
}

func (il *ImageLoader) SaveImage(img core.Image, path string) error {
	il.logger.WithField("path", path).Debug("Saving image")

	if img.Empty() {
		return fmt.Errorf("cannot save empty image")
	}
	if err := img.Validate(); err != nil {
		return err
	}
	if !isSupportedImageFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	rgba, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC4, img.Pix)
	if err != nil {
		return fmt.Errorf("failed to wrap pixels: %w", err)
	}
	defer rgba.Close()

	bgra := gocv.NewMat()
	defer bgra.Close()
	gocv.CvtColor(rgba, &bgra, gocv.ColorRGBAToBGRA)

	if !gocv.IMWrite(path, bgra) {
		return fmt.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  img.Width,
		"height": img.Height,
	}).Info("Image saved successfully")
	return nil
}

func matToImage(mat gocv.Mat) (core.Image, error) {
	var code gocv.ColorConversionCode
	switch mat.Channels() {
	case 1:
		code = gocv.ColorGrayToRGBA
	case 3:
		code = gocv.ColorBGRToRGBA
	case 4:
		code = gocv.ColorBGRAToRGBA
	default:
		return core.Image{}, fmt.Errorf("unsupported channel count %d", mat.Channels())
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(mat, &rgba, code)

	data, err := rgba.DataPtrUint8()
	if err != nil {
		return core.Image{}, err
	}
	pix := make([]byte, len(data))
	copy(pix, data)
	return core.Wrap(pix, rgba.Cols(), rgba.Rows())
}

// OpenCV's writers share this list with its readers.
var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp"}

func isSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

func (il *ImageLoader) GetSupportedFormats() []string {
	return []string{"JPEG", "PNG", "TIFF", "BMP", "WebP"}
}
