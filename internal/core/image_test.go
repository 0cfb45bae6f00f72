package core

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil, 0, 0))
	assert.NoError(t, Validate([]byte{}, 0, 7))
	assert.NoError(t, Validate(make([]byte, 24), 3, 2))

	assert.ErrorIs(t, Validate(make([]byte, 23), 3, 2), ErrInvalidDimensions)
	assert.ErrorIs(t, Validate(nil, -1, 0), ErrInvalidDimensions)
	assert.ErrorIs(t, Validate(make([]byte, 4), 1, 0), ErrInvalidDimensions)

	// products that overflow int
	assert.ErrorIs(t, Validate(nil, 1<<62, 1), ErrInvalidDimensions)
	assert.ErrorIs(t, Validate(nil, 1<<31, 1<<31), ErrInvalidDimensions)
	assert.ErrorIs(t, Validate(nil, math.MaxInt, math.MaxInt), ErrInvalidDimensions)
	assert.NoError(t, Validate(nil, math.MaxInt, 0))
}

func TestNewImageAndWrap(t *testing.T) {
	img, err := NewImage(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 48, img.Len())
	assert.Equal(t, "4x3", img.Resolution())
	assert.False(t, img.Empty())

	_, err = NewImage(-2, 3)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = NewImage(1<<62, 1)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	pix := make([]byte, 8)
	w, err := Wrap(pix, 2, 1)
	require.NoError(t, err)
	w.Pix[0] = 9
	assert.Equal(t, byte(9), pix[0], "Wrap must not copy")

	_, err = Wrap(pix, 3, 1)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestCloneIsDeep(t *testing.T) {
	img := Gradient(3, 3)
	c := img.Clone()
	require.True(t, img.Equal(c))
	c.Pix[0]++
	assert.False(t, img.Equal(c))

	assert.True(t, Image{}.Equal(Image{}.Clone()))
	assert.False(t, Solid(2, 1, [4]byte{}).Equal(Solid(1, 2, [4]byte{})))
}

func TestAtSet(t *testing.T) {
	img, _ := NewImage(3, 2)
	img.Set(2, 1, [4]byte{1, 2, 3, 4})
	assert.Equal(t, [4]byte{1, 2, 3, 4}, img.At(2, 1))
	assert.Equal(t, []byte{1, 2, 3, 4}, img.Pix[20:24])
}

func TestMetadata(t *testing.T) {
	m := Solid(640, 480, [4]byte{}).Metadata()
	assert.Equal(t, 640, m.Width)
	assert.Equal(t, 4, m.Channels)
	assert.Equal(t, int64(640*480*4), m.Size)
	assert.Equal(t, "640x480 rgba (4 channels, 1.2 MiB)", m.String())
}

func TestFromImage(t *testing.T) {
	// premultiplied input is converted to straight alpha
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 100, A: 200})
	src.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
	img := FromImage(src)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, [4]byte{127, 0, 0, 200}, img.At(0, 0))
	assert.Equal(t, [4]byte{0, 255, 0, 255}, img.At(1, 0))

	// sub-images start at their own origin
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(2, 3, color.Gray{Y: 77})
	sub := FromImage(gray.SubImage(image.Rect(2, 2, 4, 4)))
	assert.Equal(t, "2x2", sub.Resolution())
	assert.Equal(t, [4]byte{77, 77, 77, 255}, sub.At(0, 1))

	rt := FromImage(Gradient(5, 4).ToNRGBA())
	assert.True(t, Gradient(5, 4).Equal(rt))
}

func TestThumbnail(t *testing.T) {
	img := Solid(64, 48, [4]byte{10, 20, 30, 255})
	th, err := img.Thumbnail(3, 3)
	require.NoError(t, err)
	assert.Equal(t, "3x3", th.Resolution())
	assert.True(t, Solid(3, 3, [4]byte{10, 20, 30, 255}).Equal(th))

	th, err = Image{}.Thumbnail(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 36, th.Len())

	_, err = img.Thumbnail(-1, 3)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestSynthetic(t *testing.T) {
	board := Checkerboard(4, 4, 2)
	assert.Equal(t, [4]byte{255, 255, 255, 255}, board.At(0, 0))
	assert.Equal(t, [4]byte{0, 0, 0, 255}, board.At(2, 0))
	assert.Equal(t, [4]byte{0, 0, 0, 255}, board.At(1, 3))
	assert.Equal(t, [4]byte{255, 255, 255, 255}, board.At(3, 3))

	g := Gradient(4, 4)
	assert.Equal(t, byte(0), g.At(0, 0)[0])
	assert.Equal(t, byte(255), g.At(3, 0)[0])
	assert.Equal(t, byte(255), g.At(0, 3)[1])
	assert.Equal(t, byte(128), g.At(0, 0)[3])

	assert.Equal(t, 0, Solid(-3, 2, [4]byte{}).Len())
}

func TestDecode(t *testing.T) {
	want := Gradient(6, 5)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, want.ToNRGBA()))

	got, format, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.True(t, want.Equal(got))

	_, _, err = Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.PNG")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, Checkerboard(3, 3, 1).ToNRGBA()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	img, _, err := DecodeFile(path)
	require.NoError(t, err)
	assert.True(t, Checkerboard(3, 3, 1).Equal(img))

	_, _, err = DecodeFile(filepath.Join(dir, "img.psd"))
	assert.Error(t, err)
	_, _, err = DecodeFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	assert.True(t, IsSupported("a/b.WebP"))
	assert.False(t, IsSupported("noext"))
}
