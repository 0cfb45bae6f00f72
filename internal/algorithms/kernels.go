package algorithms

import "math"

var (
	gaussianKernel = [3][3]int{
		{1, 2, 1},
		{2, 4, 2},
		{1, 2, 1},
	}

	sobelX = [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	sobelY = [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// gaussianWeight is the sum of gaussianKernel.
const gaussianWeight = 16

// luminosity is floor(0.299R + 0.587G + 0.114B), computed exactly in
// integers. Equal channels map to themselves.
func luminosity(r, g, b byte) int {
	return (299*int(r) + 587*int(g) + 114*int(b)) / 1000
}

// magnitude is the truncated gradient length clamped to 255.
func magnitude(gx, gy int) byte {
	m := int(math.Sqrt(float64(gx*gx + gy*gy)))
	if m > 255 {
		m = 255
	}
	return byte(m)
}
