package core

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedExtensions lists the file extensions Decode understands.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Decode reads an encoded image and returns its RGBA pixel buffer along with
// the format name reported by the decoder.
func Decode(r io.Reader) (Image, string, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return Image{}, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(src), format, nil
}

// DecodeFile opens and decodes the file at path.
func DecodeFile(path string) (Image, string, error) {
	if !IsSupported(path) {
		return Image{}, "", fmt.Errorf("unsupported image format: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return Image{}, "", err
	}
	defer f.Close()
	return Decode(f)
}

// IsSupported reports whether the extension of path is decodable.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}
