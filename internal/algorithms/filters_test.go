package algorithms

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelbench/internal/core"
	"pixelbench/internal/memory"
)

func newRawBackend(t testing.TB, maxBytes int) *RawBackend {
	t.Helper()
	heap, err := memory.NewHeap(memory.Config{InitialPages: 1, MaxBytes: maxBytes}, nil)
	require.NoError(t, err)
	return NewRawBackend(heap, nil)
}

func backendsUnderTest(t testing.TB) []Backend {
	return []Backend{NewManagedBackend(), newRawBackend(t, 64<<20)}
}

func randomImage(rng *rand.Rand, width, height int) core.Image {
	img, _ := core.NewImage(width, height)
	rng.Read(img.Pix)
	return img
}

func TestGrayscaleWhiteUnchanged(t *testing.T) {
	white := core.Solid(3, 3, [4]byte{255, 255, 255, 255})
	for _, b := range backendsUnderTest(t) {
		t.Run(b.Name(), func(t *testing.T) {
			out, err := Apply(b, Grayscale, white)
			require.NoError(t, err)
			assert.Equal(t, white.Pix, out.Pix)
		})
	}
}

func TestGrayscaleKnownValue(t *testing.T) {
	img := core.Solid(2, 1, [4]byte{10, 20, 30, 77})
	for _, b := range backendsUnderTest(t) {
		t.Run(b.Name(), func(t *testing.T) {
			require.NoError(t, b.Grayscale(img.Clone().Pix, 2, 1))

			out, err := Apply(b, Grayscale, img)
			require.NoError(t, err)
			// floor(2.99 + 11.74 + 3.42) = 18
			assert.Equal(t, [4]byte{18, 18, 18, 77}, out.At(0, 0))
			assert.Equal(t, [4]byte{18, 18, 18, 77}, out.At(1, 0))
		})
	}
}

func TestGrayscaleIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := randomImage(rng, 31, 17)
	for _, b := range backendsUnderTest(t) {
		t.Run(b.Name(), func(t *testing.T) {
			once, err := Apply(b, Grayscale, img)
			require.NoError(t, err)
			twice, err := Apply(b, Grayscale, once)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(once.Pix, twice.Pix))

			for i := 0; i < len(once.Pix); i += 4 {
				require.Equal(t, once.Pix[i], once.Pix[i+1])
				require.Equal(t, once.Pix[i], once.Pix[i+2])
				require.Equal(t, img.Pix[i+3], once.Pix[i+3], "alpha must be untouched")
			}
		})
	}
}

func TestDimensionPreservation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sizes := [][2]int{{0, 0}, {0, 5}, {1, 1}, {2, 2}, {3, 3}, {5, 2}, {64, 48}}
	for _, b := range backendsUnderTest(t) {
		for _, name := range Names() {
			for _, size := range sizes {
				img := randomImage(rng, size[0], size[1])
				out, err := Apply(b, name, img)
				require.NoError(t, err, "%s/%s %v", b.Name(), name, size)
				assert.Equal(t, img.Len(), out.Len())
				assert.Equal(t, img.Width, out.Width)
				assert.Equal(t, img.Height, out.Height)
			}
		}
	}
}

// TestBackendEquivalence is the conformance test: both backends must produce
// identical bytes for identical inputs and identically seeded destinations.
func TestBackendEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	managed := NewManagedBackend()
	raw := newRawBackend(t, 64<<20)

	sizes := [][2]int{{0, 0}, {1, 1}, {2, 5}, {3, 3}, {7, 4}, {16, 9}, {33, 17}, {128, 3}}
	for _, name := range Names() {
		for _, size := range sizes {
			w, h := size[0], size[1]
			src := randomImage(rng, w, h)
			seed := randomImage(rng, w, h)

			managedDst := seed.Clone()
			rawDst := seed.Clone()
			require.NoError(t, Run(managed, name, src.Pix, managedDst.Pix, w, h))
			require.NoError(t, Run(raw, name, src.Pix, rawDst.Pix, w, h))

			if diff := cmp.Diff(managedDst.Pix, rawDst.Pix); diff != "" {
				t.Errorf("%s %dx%d: backends differ (-managed +raw):\n%s", name, w, h, diff)
			}
		}
	}

	assert.Equal(t, 0, raw.Heap().Stats().Live)
}

func TestOverlappingBuffersRejected(t *testing.T) {
	for _, b := range backendsUnderTest(t) {
		img := core.Checkerboard(8, 8, 1)
		before := img.Clone()

		assert.ErrorIs(t, b.GaussianBlur(img.Pix, img.Pix, 8, 8), ErrOverlappingBuffers, b.Name())
		assert.ErrorIs(t, b.Sobel(img.Pix, img.Pix, 8, 8), ErrOverlappingBuffers, b.Name())
		assert.ErrorIs(t, Run(b, Sobel, img.Pix, img.Pix, 8, 8), ErrOverlappingBuffers, b.Name())
		assert.True(t, before.Equal(img), "%s: rejected call must not write", b.Name())

		// partial overlap through a shifted view of the same array
		big := make([]byte, 8*8*4+4)
		err := b.GaussianBlur(big[:8*8*4], big[4:], 8, 8)
		assert.ErrorIs(t, err, ErrOverlappingBuffers, b.Name())

		// in-place filters accept the same buffer
		require.NoError(t, Run(b, Grayscale, img.Pix, img.Pix, 8, 8))
	}
}

func TestOverlaps(t *testing.T) {
	buf := make([]byte, 16)
	assert.True(t, overlaps(buf, buf))
	assert.True(t, overlaps(buf[:8], buf[7:]))
	assert.False(t, overlaps(buf[:8], buf[8:]))
	assert.False(t, overlaps(buf[:0], buf))
	assert.False(t, overlaps(make([]byte, 4), make([]byte, 4)))
}

func TestAlphaPolicy(t *testing.T) {
	img := core.Gradient(12, 9)
	for _, b := range backendsUnderTest(t) {
		t.Run(b.Name(), func(t *testing.T) {
			blurred, err := Apply(b, GaussianBlur, img)
			require.NoError(t, err)
			edges, err := Apply(b, Sobel, img)
			require.NoError(t, err)

			for y := 1; y < img.Height-1; y++ {
				for x := 1; x < img.Width-1; x++ {
					assert.Equal(t, img.At(x, y)[3], blurred.At(x, y)[3])
					assert.Equal(t, byte(255), edges.At(x, y)[3])
				}
			}
		})
	}
}

func TestBorderNotOverwritten(t *testing.T) {
	const w, h = 6, 5
	src := core.Gradient(w, h)
	for _, b := range backendsUnderTest(t) {
		for _, name := range []string{GaussianBlur, Sobel} {
			dst := core.Solid(w, h, [4]byte{0xAB, 0xCD, 0xEF, 0x01})
			require.NoError(t, Run(b, name, src.Pix, dst.Pix, w, h))

			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					border := x == 0 || y == 0 || x == w-1 || y == h-1
					if border {
						assert.Equal(t, [4]byte{0xAB, 0xCD, 0xEF, 0x01}, dst.At(x, y), "%s/%s (%d,%d)", b.Name(), name, x, y)
					} else {
						assert.NotEqual(t, [4]byte{0xAB, 0xCD, 0xEF, 0x01}, dst.At(x, y), "%s/%s (%d,%d)", b.Name(), name, x, y)
					}
				}
			}
		}
	}
}

func TestApplyBorderCopiesSource(t *testing.T) {
	src := core.Gradient(5, 4)
	for _, b := range backendsUnderTest(t) {
		out, err := Apply(b, Sobel, src)
		require.NoError(t, err)
		assert.Equal(t, src.At(0, 0), out.At(0, 0))
		assert.Equal(t, src.At(4, 3), out.At(4, 3))
	}
}

func TestGaussianBlurKnownValues(t *testing.T) {
	uniform := core.Solid(4, 4, [4]byte{200, 100, 50, 9})

	spot, _ := core.NewImage(3, 3)
	spot.Set(1, 1, [4]byte{160, 161, 15, 33})

	for _, b := range backendsUnderTest(t) {
		t.Run(b.Name(), func(t *testing.T) {
			out, err := Apply(b, GaussianBlur, uniform)
			require.NoError(t, err)
			assert.Equal(t, uniform.Pix, out.Pix)

			out, err = Apply(b, GaussianBlur, spot)
			require.NoError(t, err)
			// 4/16 of the centre, truncated: 40, 40.25, 3.75
			assert.Equal(t, [4]byte{40, 40, 3, 33}, out.At(1, 1))
		})
	}
}

func TestSobelSingleBlackPixel(t *testing.T) {
	img := core.Solid(4, 4, [4]byte{255, 255, 255, 255})
	img.Set(1, 1, [4]byte{0, 0, 0, 255})

	for _, b := range backendsUnderTest(t) {
		t.Run(b.Name(), func(t *testing.T) {
			out, err := Apply(b, Sobel, img)
			require.NoError(t, err)

			// the black pixel is the centre tap of its own window: weight 0
			assert.Equal(t, [4]byte{0, 0, 0, 255}, out.At(1, 1))
			assert.Equal(t, [4]byte{255, 255, 255, 255}, out.At(2, 1))
			assert.Equal(t, [4]byte{255, 255, 255, 255}, out.At(1, 2))
			assert.Equal(t, [4]byte{255, 255, 255, 255}, out.At(2, 2))
		})
	}
}

func TestSobelUniformIsZero(t *testing.T) {
	img := core.Solid(5, 5, [4]byte{90, 12, 200, 0})
	for _, b := range backendsUnderTest(t) {
		out, err := Apply(b, Sobel, img)
		require.NoError(t, err)
		for y := 1; y < 4; y++ {
			for x := 1; x < 4; x++ {
				assert.Equal(t, [4]byte{0, 0, 0, 255}, out.At(x, y))
			}
		}
	}
}

func TestSobelMagnitudeClamp(t *testing.T) {
	assert.Equal(t, byte(5), magnitude(3, 4))
	assert.Equal(t, byte(5), magnitude(-3, -4))
	assert.Equal(t, byte(255), magnitude(1020, 0))
	assert.Equal(t, byte(255), magnitude(-1020, 1020))

	board := core.Checkerboard(8, 8, 2)
	for _, b := range backendsUnderTest(t) {
		out, err := Apply(b, Sobel, board)
		require.NoError(t, err)
		// sqrt(510² + 510²) here, clamped
		assert.Equal(t, [4]byte{255, 255, 255, 255}, out.At(1, 1))
	}
}

func TestLuminosity(t *testing.T) {
	for v := 0; v < 256; v++ {
		require.Equal(t, v, luminosity(byte(v), byte(v), byte(v)))
	}
	assert.Equal(t, 76, luminosity(255, 0, 0))
	assert.Equal(t, 149, luminosity(0, 255, 0))
	assert.Equal(t, 29, luminosity(0, 0, 255))
}

func TestInvalidDimensions(t *testing.T) {
	for _, b := range backendsUnderTest(t) {
		_, err := Apply(b, Grayscale, core.Image{Width: 2, Height: 2, Pix: make([]byte, 15)})
		assert.ErrorIs(t, err, core.ErrInvalidDimensions)

		_, err = Apply(b, Sobel, core.Image{Width: -1, Height: 2})
		assert.ErrorIs(t, err, core.ErrInvalidDimensions)

		err = b.GaussianBlur(make([]byte, 16), make([]byte, 12), 2, 2)
		assert.ErrorIs(t, err, core.ErrInvalidDimensions)

		err = Run(b, Sobel, make([]byte, 36), make([]byte, 32), 3, 3)
		assert.ErrorIs(t, err, core.ErrInvalidDimensions)

		// width*height*4 would wrap to zero and accept an empty buffer
		assert.ErrorIs(t, b.Grayscale(nil, 1<<62, 1), core.ErrInvalidDimensions, b.Name())
		assert.ErrorIs(t, b.Sobel(nil, nil, 1<<61, 2), core.ErrInvalidDimensions, b.Name())
	}
}

func TestUnknownFilter(t *testing.T) {
	_, err := Apply(NewManagedBackend(), "emboss", core.Solid(1, 1, [4]byte{}))
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestApplyChain(t *testing.T) {
	img := core.Gradient(9, 9)
	for _, b := range backendsUnderTest(t) {
		chained, err := ApplyChain(b, []string{Grayscale, GaussianBlur}, img)
		require.NoError(t, err)

		gray, err := Apply(b, Grayscale, img)
		require.NoError(t, err)
		want, err := Apply(b, GaussianBlur, gray)
		require.NoError(t, err)
		assert.Equal(t, want.Pix, chained.Pix)
	}
}
