package core

// Solid returns an image filled with a single color.
func Solid(width, height int, px [4]byte) Image {
	img, _ := NewImage(max(width, 0), max(height, 0))
	for i := 0; i < len(img.Pix); i += BytesPerPixel {
		copy(img.Pix[i:i+BytesPerPixel], px[:])
	}
	return img
}

// Checkerboard alternates pure black and pure white opaque cells of the given
// size in pixels.
func Checkerboard(width, height, cell int) Image {
	if cell < 1 {
		cell = 1
	}
	img, _ := NewImage(max(width, 0), max(height, 0))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := byte(0)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			img.Set(x, y, [4]byte{v, v, v, 255})
		}
	}
	return img
}

// Gradient produces a deterministic pattern exercising every channel,
// including a varying alpha.
func Gradient(width, height int) Image {
	img, _ := NewImage(max(width, 0), max(height, 0))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Set(x, y, [4]byte{
				byte(x * 255 / max(img.Width-1, 1)),
				byte(y * 255 / max(img.Height-1, 1)),
				byte((x*7 + y*13) % 256),
				byte(128 + (x+y)%128),
			})
		}
	}
	return img
}
