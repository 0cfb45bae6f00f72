package io

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"pixelbench/internal/core"
	"pixelbench/internal/logging"
)

const (
	LoaderNative = "native"
	LoaderOpenCV = "opencv"
)

// NativeLoader decodes and encodes in pure Go, with no OpenCV dependency at
// run time.
type NativeLoader struct {
	logger logrus.FieldLogger
}

func NewNativeLoader(logger logrus.FieldLogger) *NativeLoader {
	return &NativeLoader{logger: logging.OrDiscard(logger)}
}

func (nl *NativeLoader) LoadImage(path string) (core.Image, error) {
	img, format, err := core.DecodeFile(path)
	if err != nil {
		return core.Image{}, err
	}
	nl.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": format,
		"width":  img.Width,
		"height": img.Height,
	}).Info("Image loaded successfully")
	return img, nil
}

// SaveImage encodes by extension: PNG, JPEG, BMP or TIFF.
func (nl *NativeLoader) SaveImage(img core.Image, path string) (err error) {
	if err := img.Validate(); err != nil {
		return err
	}
	if img.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	var encode func(f *os.File) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img.ToNRGBA()) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img.ToNRGBA(), &jpeg.Options{Quality: 95}) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img.ToNRGBA()) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error {
			return tiff.Encode(f, img.ToNRGBA(), &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("unsupported image format: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := encode(f); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	nl.logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  img.Width,
		"height": img.Height,
	}).Info("Image saved successfully")
	return nil
}

// NewLoader returns the loader registered under kind.
func NewLoader(kind string, logger logrus.FieldLogger) (Loader, error) {
	switch kind {
	case LoaderNative, "":
		return NewNativeLoader(logger), nil
	case LoaderOpenCV:
		return NewImageLoader(logger), nil
	default:
		return nil, fmt.Errorf("unknown loader %q, want %s or %s", kind, LoaderNative, LoaderOpenCV)
	}
}
