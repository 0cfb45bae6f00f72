package io

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelbench/internal/core"
)

func TestNewLoader(t *testing.T) {
	l, err := NewLoader(LoaderNative, nil)
	require.NoError(t, err)
	assert.IsType(t, &NativeLoader{}, l)

	l, err = NewLoader(LoaderOpenCV, nil)
	require.NoError(t, err)
	assert.IsType(t, &ImageLoader{}, l)

	_, err = NewLoader("imagemagick", nil)
	assert.Error(t, err)
}

func TestNativeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img := core.Gradient(7, 5)
	l := NewNativeLoader(nil)

	for _, ext := range []string{".png", ".tiff"} {
		path := filepath.Join(dir, "img"+ext)
		require.NoError(t, l.SaveImage(img, path))
		got, err := l.LoadImage(path)
		require.NoError(t, err, ext)
		assert.True(t, img.Equal(got), ext)
	}

	// lossy and alpha-less formats keep the dimensions
	for _, ext := range []string{".jpg", ".bmp"} {
		path := filepath.Join(dir, "img"+ext)
		require.NoError(t, l.SaveImage(img, path))
		got, err := l.LoadImage(path)
		require.NoError(t, err, ext)
		assert.Equal(t, img.Resolution(), got.Resolution(), ext)
	}
}

func TestNativeSaveErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewNativeLoader(nil)

	assert.Error(t, l.SaveImage(core.Image{}, filepath.Join(dir, "empty.png")))
	assert.Error(t, l.SaveImage(core.Gradient(2, 2), filepath.Join(dir, "img.xyz")))
	assert.ErrorIs(t, l.SaveImage(core.Image{Width: 2, Height: 2}, filepath.Join(dir, "bad.png")), core.ErrInvalidDimensions)

	_, err := l.LoadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestOpenCVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	img := core.Checkerboard(12, 9, 3)
	img.Set(1, 1, [4]byte{10, 200, 30, 255})
	l := NewImageLoader(nil)

	require.NoError(t, l.SaveImage(img, path))
	got, err := l.LoadImage(path)
	require.NoError(t, err)
	assert.True(t, img.Equal(got))

	// the pure Go decoder reads the same pixels
	native, _, err := core.DecodeFile(path)
	require.NoError(t, err)
	assert.True(t, img.Equal(native))
}

func TestOpenCVErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewImageLoader(nil)

	_, err := l.LoadImage(filepath.Join(dir, "img.gif"))
	assert.Error(t, err)
	_, err = l.LoadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
	assert.Error(t, l.SaveImage(core.Image{}, filepath.Join(dir, "out.png")))
	assert.Error(t, l.SaveImage(core.Gradient(2, 2), filepath.Join(dir, "out.gif")))
	assert.Contains(t, l.GetSupportedFormats(), "PNG")
}
