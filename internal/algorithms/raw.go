// Raw backend: kernels over a linear memory region reached through handles
package algorithms

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"pixelbench/internal/core"
	"pixelbench/internal/logging"
	"pixelbench/internal/memory"
)

// RawBackendName is the registry name of RawBackend.
const RawBackendName = "raw"

// rawKernel runs on the whole region; src and dst are offsets into it and
// are equal for in-place filters.
type rawKernel func(mem []byte, src, dst memory.Handle, width, height int)

// RawBackend copies pixels into a heap it owns, runs the kernel there and
// copies the result back. Buffers never outlive the call that allocates
// them. Like the heap, it is not safe for concurrent use.
type RawBackend struct {
	heap     *memory.Heap
	logger   logrus.FieldLogger
	observer PhaseObserver
}

// NewRawBackend creates a raw backend on heap.
func NewRawBackend(heap *memory.Heap, logger logrus.FieldLogger) *RawBackend {
	return &RawBackend{
		heap:   heap,
		logger: logging.OrDiscard(logger),
	}
}

func (r *RawBackend) Name() string {
	return RawBackendName
}

// Heap exposes the backing heap for statistics.
func (r *RawBackend) Heap() *memory.Heap {
	return r.heap
}

// SetPhaseObserver reports the duration of every bridging phase to o.
func (r *RawBackend) SetPhaseObserver(o PhaseObserver) {
	r.observer = o
}

// Allocate reserves a raw buffer. The caller owns it and must Release it.
func (r *RawBackend) Allocate(size int) (memory.Handle, error) {
	return r.heap.Allocate(size)
}

// Release gives a raw buffer back. Releasing twice is a defect and panics.
func (r *RawBackend) Release(handle memory.Handle) {
	r.heap.Release(handle)
}

func (r *RawBackend) Grayscale(pix []byte, width, height int) error {
	if err := core.Validate(pix, width, height); err != nil {
		return fmt.Errorf("raw %s: %w", Grayscale, err)
	}
	return r.bridge(Grayscale, pix, nil, false, width, height, func(mem []byte, src, _ memory.Handle, w, h int) {
		grayscaleRaw(mem, src, w, h)
	})
}

func (r *RawBackend) GaussianBlur(src, dst []byte, width, height int) error {
	if err := validatePair(src, dst, width, height); err != nil {
		return fmt.Errorf("raw %s: %w", GaussianBlur, err)
	}
	return r.bridge(GaussianBlur, src, dst, true, width, height, gaussianBlurRaw)
}

func (r *RawBackend) Sobel(src, dst []byte, width, height int) error {
	if err := validatePair(src, dst, width, height); err != nil {
		return fmt.Errorf("raw %s: %w", Sobel, err)
	}
	return r.bridge(Sobel, src, dst, true, width, height, sobelRaw)
}

// bridge runs the full sequence: allocate source, copy in, allocate
// destination (skipped for in-place filters), copy the
// caller's destination in so its border survives, run the kernel, copy the
// result out and release. The scope releases on every exit path.
func (r *RawBackend) bridge(filter string, src, dst []byte, twoBuffers bool, width, height int, kernel rawKernel) error {
	clock := newPhaseClock(r.observer, filter)
	scope := r.heap.NewScope()
	defer func() {
		clock.reset()
		scope.Close()
		clock.lap(PhaseRelease)
	}()

	srcPtr, err := scope.Allocate(len(src))
	if err != nil {
		return fmt.Errorf("raw %s: source buffer: %w", filter, err)
	}
	clock.lap(PhaseAlloc)

	copy(r.heap.Bytes(srcPtr), src)
	clock.lap(PhaseCopyIn)

	dstPtr, out := srcPtr, src
	if twoBuffers {
		if dstPtr, err = scope.Allocate(len(dst)); err != nil {
			return fmt.Errorf("raw %s: destination buffer: %w", filter, err)
		}
		clock.lap(PhaseAlloc)

		copy(r.heap.Bytes(dstPtr), dst)
		clock.lap(PhaseCopyIn)
		out = dst
	}

	// fetched after the last allocation, which may have grown the region
	kernel(r.heap.Memory(), srcPtr, dstPtr, width, height)
	clock.lap(PhaseCompute)

	copy(out, r.heap.Bytes(dstPtr))
	clock.lap(PhaseCopyOut)

	r.logger.WithFields(logrus.Fields{
		"filter": filter,
		"width":  width,
		"height": height,
	}).Trace("Raw filter complete")
	return nil
}

func grayscaleRaw(mem []byte, p memory.Handle, width, height int) {
	n := width * height * 4
	if n == 0 {
		return
	}
	base := int(p)
	end := base + n
	_ = mem[end-1]
	for i := base; i < end; i += 4 {
		px := mem[i : i+3 : i+3]
		gray := byte(luminosity(px[0], px[1], px[2]))
		px[0] = gray
		px[1] = gray
		px[2] = gray
	}
}

func gaussianBlurRaw(mem []byte, src, dst memory.Handle, width, height int) {
	if width < 3 || height < 3 {
		return
	}
	stride := width * 4
	s, d := int(src), int(dst)
	_ = mem[s+height*stride-1]
	_ = mem[d+height*stride-1]

	for y := 1; y < height-1; y++ {
		up := s + (y-1)*stride
		mid := up + stride
		down := mid + stride
		out := d + y*stride

		for x := 4; x < stride-4; x += 4 {
			for c := 0; c < 3; c++ {
				l, m, r := x-4+c, x+c, x+4+c
				sum := int(mem[up+l]) + 2*int(mem[up+m]) + int(mem[up+r]) +
					2*int(mem[mid+l]) + 4*int(mem[mid+m]) + 2*int(mem[mid+r]) +
					int(mem[down+l]) + 2*int(mem[down+m]) + int(mem[down+r])
				mem[out+x+c] = byte(sum >> 4)
			}
			mem[out+x+3] = mem[mid+x+3]
		}
	}
}

func sobelRaw(mem []byte, src, dst memory.Handle, width, height int) {
	if width < 3 || height < 3 {
		return
	}
	stride := width * 4
	s, d := int(src), int(dst)
	_ = mem[s+height*stride-1]
	_ = mem[d+height*stride-1]

	for y := 1; y < height-1; y++ {
		up := s + (y-1)*stride
		mid := up + stride
		down := mid + stride
		out := d + y*stride

		for x := 4; x < stride-4; x += 4 {
			l, r := x-4, x+4
			l00, l01, l02 := lumAt(mem, up+l), lumAt(mem, up+x), lumAt(mem, up+r)
			l10, l12 := lumAt(mem, mid+l), lumAt(mem, mid+r)
			l20, l21, l22 := lumAt(mem, down+l), lumAt(mem, down+x), lumAt(mem, down+r)

			// the centre tap has weight 0 in both kernels
			gx := (l02 + 2*l12 + l22) - (l00 + 2*l10 + l20)
			gy := (l20 + 2*l21 + l22) - (l00 + 2*l01 + l02)

			m := magnitude(gx, gy)
			o := out + x
			mem[o] = m
			mem[o+1] = m
			mem[o+2] = m
			mem[o+3] = 255
		}
	}
}

func lumAt(mem []byte, i int) int {
	return luminosity(mem[i], mem[i+1], mem[i+2])
}
