// Managed backend: straightforward loops over Go slices
package algorithms

import (
	"fmt"
	"unsafe"

	"pixelbench/internal/core"
)

// ManagedBackendName is the registry name of ManagedBackend.
const ManagedBackendName = "managed"

// ManagedBackend runs the filters directly on caller-owned slices. There is
// no allocation step and every access is bounds checked by the runtime.
type ManagedBackend struct {
	observer PhaseObserver
}

// NewManagedBackend creates a managed backend.
func NewManagedBackend() *ManagedBackend {
	return &ManagedBackend{}
}

func (m *ManagedBackend) Name() string {
	return ManagedBackendName
}

// SetPhaseObserver reports compute time of every call to o.
func (m *ManagedBackend) SetPhaseObserver(o PhaseObserver) {
	m.observer = o
}

func (m *ManagedBackend) Grayscale(pix []byte, width, height int) error {
	if err := core.Validate(pix, width, height); err != nil {
		return fmt.Errorf("managed %s: %w", Grayscale, err)
	}
	clock := newPhaseClock(m.observer, Grayscale)
	grayscaleManaged(pix, width, height)
	clock.lap(PhaseCompute)
	return nil
}

func (m *ManagedBackend) GaussianBlur(src, dst []byte, width, height int) error {
	if err := validatePair(src, dst, width, height); err != nil {
		return fmt.Errorf("managed %s: %w", GaussianBlur, err)
	}
	clock := newPhaseClock(m.observer, GaussianBlur)
	gaussianBlurManaged(src, dst, width, height)
	clock.lap(PhaseCompute)
	return nil
}

func (m *ManagedBackend) Sobel(src, dst []byte, width, height int) error {
	if err := validatePair(src, dst, width, height); err != nil {
		return fmt.Errorf("managed %s: %w", Sobel, err)
	}
	clock := newPhaseClock(m.observer, Sobel)
	sobelManaged(src, dst, width, height)
	clock.lap(PhaseCompute)
	return nil
}

// validatePair checks both buffers of a two-buffer filter. The kernels read
// neighbours of pixels they write, so the buffers must not overlap.
func validatePair(src, dst []byte, width, height int) error {
	if err := validateDims(src, dst, width, height); err != nil {
		return err
	}
	if overlaps(src, dst) {
		return ErrOverlappingBuffers
	}
	return nil
}

func validateDims(src, dst []byte, width, height int) error {
	if err := core.Validate(src, width, height); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := core.Validate(dst, width, height); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	return nil
}

// overlaps reports whether a and b share any backing bytes.
func overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	aStart := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	bStart := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return aStart < bStart+uintptr(len(b)) && bStart < aStart+uintptr(len(a))
}

func grayscaleManaged(pix []byte, width, height int) {
	total := width * height
	for i := 0; i < total; i++ {
		idx := i * 4
		gray := byte(luminosity(pix[idx], pix[idx+1], pix[idx+2]))
		pix[idx] = gray
		pix[idx+1] = gray
		pix[idx+2] = gray
		// alpha untouched
	}
}

func gaussianBlurManaged(src, dst []byte, width, height int) {
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var r, g, b int

			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					idx := ((y+ky)*width + (x + kx)) * 4
					weight := gaussianKernel[ky+1][kx+1]

					r += int(src[idx]) * weight
					g += int(src[idx+1]) * weight
					b += int(src[idx+2]) * weight
				}
			}

			out := (y*width + x) * 4
			dst[out] = byte(r / gaussianWeight)
			dst[out+1] = byte(g / gaussianWeight)
			dst[out+2] = byte(b / gaussianWeight)
			dst[out+3] = src[out+3]
		}
	}
}

func sobelManaged(src, dst []byte, width, height int) {
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var gx, gy int

			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					idx := ((y+ky)*width + (x + kx)) * 4
					gray := luminosity(src[idx], src[idx+1], src[idx+2])

					gx += gray * sobelX[ky+1][kx+1]
					gy += gray * sobelY[ky+1][kx+1]
				}
			}

			m := magnitude(gx, gy)
			out := (y*width + x) * 4
			dst[out] = m
			dst[out+1] = m
			dst[out+2] = m
			dst[out+3] = 255
		}
	}
}
