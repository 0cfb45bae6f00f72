// Core pixel buffer type shared by both filter backends
package core

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"
)

// BytesPerPixel is the fixed RGBA sample count of every pixel buffer.
const BytesPerPixel = 4

// ErrInvalidDimensions is returned when a buffer length does not match
// width*height*4 or when a dimension is negative.
var ErrInvalidDimensions = errors.New("invalid dimensions")

// Image is a flat RGBA pixel buffer, row-major, with no padding between rows.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// ImageMetadata contains image information
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
	Size     int64 // Buffer size in bytes
	Format   string
}

// String renders the metadata the way the front ends display it.
func (m ImageMetadata) String() string {
	return fmt.Sprintf("%dx%d %s (%d channels, %s)",
		m.Width, m.Height, m.Format, m.Channels, humanize.IBytes(uint64(m.Size)))
}

// Validate checks the pixel buffer invariant for the given dimensions.
// Zero-area images with an empty buffer are valid.
func Validate(pix []byte, width, height int) error {
	want, err := byteLen(width, height)
	if err != nil {
		return err
	}
	if len(pix) != want {
		return fmt.Errorf("%w: buffer is %d bytes, %dx%d needs %d",
			ErrInvalidDimensions, len(pix), width, height, want)
	}
	return nil
}

// NewImage allocates a zeroed (transparent black) image.
func NewImage(width, height int) (Image, error) {
	n, err := byteLen(width, height)
	if err != nil {
		return Image{}, err
	}
	return Image{
		Width:  width,
		Height: height,
		Pix:    make([]byte, n),
	}, nil
}

// byteLen returns width*height*4, rejecting negative dimensions and products
// that do not fit in an int.
func byteLen(width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if height != 0 && width > math.MaxInt/BytesPerPixel/height {
		return 0, fmt.Errorf("%w: %dx%d overflows", ErrInvalidDimensions, width, height)
	}
	return width * height * BytesPerPixel, nil
}

// Wrap validates pix against the dimensions and wraps it without copying.
func Wrap(pix []byte, width, height int) (Image, error) {
	if err := Validate(pix, width, height); err != nil {
		return Image{}, err
	}
	return Image{Width: width, Height: height, Pix: pix}, nil
}

// Validate checks the image against its own dimensions.
func (img Image) Validate() error {
	return Validate(img.Pix, img.Width, img.Height)
}

// Clone returns a deep copy.
func (img Image) Clone() Image {
	pix := make([]byte, len(img.Pix))
	copy(pix, img.Pix)
	return Image{Width: img.Width, Height: img.Height, Pix: pix}
}

// Len returns the buffer length in bytes.
func (img Image) Len() int {
	return len(img.Pix)
}

// Empty reports whether the image has no pixels.
func (img Image) Empty() bool {
	return img.Width == 0 || img.Height == 0
}

// Resolution formats the dimensions as WxH.
func (img Image) Resolution() string {
	return fmt.Sprintf("%dx%d", img.Width, img.Height)
}

// Metadata describes the buffer.
func (img Image) Metadata() ImageMetadata {
	return ImageMetadata{
		Width:    img.Width,
		Height:   img.Height,
		Channels: BytesPerPixel,
		Size:     int64(len(img.Pix)),
		Format:   "rgba",
	}
}

// Equal reports whether both images have the same dimensions and bytes.
func (img Image) Equal(other Image) bool {
	if img.Width != other.Width || img.Height != other.Height || len(img.Pix) != len(other.Pix) {
		return false
	}
	for i := range img.Pix {
		if img.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// At returns the RGBA samples of pixel (x, y).
func (img Image) At(x, y int) [4]byte {
	i := (y*img.Width + x) * BytesPerPixel
	return [4]byte{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

// Set writes the RGBA samples of pixel (x, y).
func (img Image) Set(x, y int, px [4]byte) {
	i := (y*img.Width + x) * BytesPerPixel
	copy(img.Pix[i:i+BytesPerPixel], px[:])
}

// FromImage converts any image.Image into a non-premultiplied RGBA buffer.
func FromImage(src image.Image) Image {
	b := src.Bounds()
	if nrgba, ok := src.(*image.NRGBA); ok && nrgba.Stride == b.Dx()*BytesPerPixel && b.Min == (image.Point{}) {
		out := Image{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, len(nrgba.Pix))}
		copy(out.Pix, nrgba.Pix)
		return out
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return Image{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// ToNRGBA exposes the buffer as an image.NRGBA sharing the same bytes.
func (img Image) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pix,
		Stride: img.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// Thumbnail resamples the image to width x height. An empty source yields a
// zeroed image of the requested size.
func (img Image) Thumbnail(width, height int) (Image, error) {
	out, err := NewImage(width, height)
	if err != nil {
		return Image{}, err
	}
	if img.Empty() || out.Empty() {
		return out, nil
	}
	dst := out.ToNRGBA()
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img.ToNRGBA(), image.Rect(0, 0, img.Width, img.Height), draw.Src, nil)
	return out, nil
}
