// Linear memory region with explicit allocate/release for the raw backend
package memory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"pixelbench/internal/logging"
)

const (
	// PageSize is the growth granularity of the region.
	PageSize = 64 * 1024

	// Alignment of every allocation. Offsets below it are never handed out,
	// so the zero handle stays null.
	Alignment = 8

	// DefaultInitialPages reserves 16 MiB on first use.
	DefaultInitialPages = 256

	// DefaultMaxBytes is the growth ceiling, 2 GiB.
	DefaultMaxBytes = 2 << 30

	// maxAddressable keeps every offset representable as a Handle.
	maxAddressable = 1<<32 - PageSize
)

// ErrAllocationFailure is returned when a request cannot be satisfied by the
// region, including after growing it up to the ceiling.
var ErrAllocationFailure = errors.New("allocation failure")

// Handle addresses an allocation inside the region. It stays valid across
// growth of the region and becomes invalid once released.
type Handle uint32

// Null is never returned by Allocate.
const Null Handle = 0

// Config controls the size of the region.
type Config struct {
	InitialPages int
	MaxBytes     int
}

// DefaultConfig returns the default region limits.
func DefaultConfig() Config {
	return Config{
		InitialPages: DefaultInitialPages,
		MaxBytes:     DefaultMaxBytes,
	}
}

// Validate checks the limits.
func (c Config) Validate() error {
	if c.InitialPages < 0 {
		return fmt.Errorf("initial pages must not be negative: %d", c.InitialPages)
	}
	if c.MaxBytes < PageSize || c.MaxBytes > maxAddressable {
		return fmt.Errorf("max bytes must be between %d and %d: %d", PageSize, maxAddressable, c.MaxBytes)
	}
	return nil
}

type block struct {
	off  int
	size int
}

type allocation struct {
	size     int // requested
	reserved int // aligned
}

// Heap is a single growable byte region carved into allocations by a
// first-fit free list. It is not safe for concurrent use: each allocation is
// owned by exactly one call frame.
type Heap struct {
	config Config
	logger logrus.FieldLogger

	mem  []byte
	free []block // sorted by offset, coalesced
	live map[Handle]allocation

	inUse       int
	peak        int
	allocations uint64
	releases    uint64
	grows       int
	failures    uint64
}

// Stats is a snapshot of region usage.
type Stats struct {
	RegionBytes int
	InUseBytes  int
	PeakBytes   int
	Live        int
	Allocations uint64
	Releases    uint64
	Grows       int
	Failures    uint64
}

// String formats the snapshot for logs and front ends.
func (s Stats) String() string {
	return fmt.Sprintf("region %s, in use %s, peak %s, live %d, allocs %d, releases %d, grows %d",
		humanize.IBytes(uint64(s.RegionBytes)), humanize.IBytes(uint64(s.InUseBytes)),
		humanize.IBytes(uint64(s.PeakBytes)), s.Live, s.Allocations, s.Releases, s.Grows)
}

// NewHeap creates a heap. The region itself is reserved lazily by the first
// allocation.
func NewHeap(config Config, logger logrus.FieldLogger) (*Heap, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Heap{
		config: config,
		logger: logging.OrDiscard(logger),
		live:   make(map[Handle]allocation),
	}, nil
}

// Initialized reports whether the region has been reserved.
func (h *Heap) Initialized() bool {
	return h.mem != nil
}

func (h *Heap) init() {
	size := min(max(h.config.InitialPages, 1)*PageSize, h.config.MaxBytes)
	size -= size % PageSize
	h.mem = make([]byte, size)
	h.free = []block{{off: Alignment, size: size - Alignment}}
	h.logger.WithField("region", humanize.IBytes(uint64(size))).Debug("Linear memory reserved")
}

// Allocate reserves size bytes and returns their handle. A zero size is valid
// and still yields a distinct handle that must be released.
func (h *Heap) Allocate(size int) (Handle, error) {
	if size < 0 {
		h.failures++
		return Null, fmt.Errorf("%w: negative size %d", ErrAllocationFailure, size)
	}
	if h.mem == nil {
		h.init()
	}

	// size is bounded before aligning so values near math.MaxInt cannot wrap
	reserved := 0
	if size <= h.config.MaxBytes {
		reserved = alignUp(max(size, 1))
	}
	if reserved == 0 || reserved > h.config.MaxBytes {
		h.failures++
		return Null, fmt.Errorf("%w: %d bytes exceeds ceiling %d", ErrAllocationFailure, size, h.config.MaxBytes)
	}

	idx := h.findFit(reserved)
	if idx < 0 {
		if err := h.grow(reserved); err != nil {
			h.failures++
			h.logger.WithFields(logrus.Fields{
				"size":    size,
				"region":  len(h.mem),
				"ceiling": h.config.MaxBytes,
			}).Warn("Allocation failed")
			return Null, err
		}
		idx = h.findFit(reserved)
	}

	b := h.free[idx]
	if b.size == reserved {
		h.free = append(h.free[:idx], h.free[idx+1:]...)
	} else {
		h.free[idx] = block{off: b.off + reserved, size: b.size - reserved}
	}

	handle := Handle(b.off)
	h.live[handle] = allocation{size: size, reserved: reserved}
	h.inUse += reserved
	h.peak = max(h.peak, h.inUse)
	h.allocations++
	return handle, nil
}

// Release returns the allocation to the free list. Releasing a handle that is
// not live is a defect and panics.
func (h *Heap) Release(handle Handle) {
	a, ok := h.live[handle]
	if !ok {
		panic(fmt.Sprintf("memory: release of unknown or already released handle %d", handle))
	}
	delete(h.live, handle)
	h.inUse -= a.reserved
	h.releases++
	h.insertFree(block{off: int(handle), size: a.reserved})
}

// Bytes returns a view of the allocation limited to its requested size. The
// view is only valid until the next allocation that grows the region.
func (h *Heap) Bytes(handle Handle) []byte {
	a, ok := h.live[handle]
	if !ok {
		panic(fmt.Sprintf("memory: access to unknown or released handle %d", handle))
	}
	off := int(handle)
	return h.mem[off : off+a.size : off+a.size]
}

// Memory returns the whole region. Kernels index it by handle offset. Like
// Bytes, the slice goes stale when the region grows.
func (h *Heap) Memory() []byte {
	return h.mem
}

// Size returns the requested size of a live allocation.
func (h *Heap) Size(handle Handle) (int, bool) {
	a, ok := h.live[handle]
	return a.size, ok
}

// Stats returns a usage snapshot.
func (h *Heap) Stats() Stats {
	return Stats{
		RegionBytes: len(h.mem),
		InUseBytes:  h.inUse,
		PeakBytes:   h.peak,
		Live:        len(h.live),
		Allocations: h.allocations,
		Releases:    h.releases,
		Grows:       h.grows,
		Failures:    h.failures,
	}
}

func (h *Heap) findFit(size int) int {
	for i, b := range h.free {
		if b.size >= size {
			return i
		}
	}
	return -1
}

// grow extends the region so that a block of size bytes fits at its end.
func (h *Heap) grow(size int) error {
	tail := 0
	if n := len(h.free); n > 0 && h.free[n-1].off+h.free[n-1].size == len(h.mem) {
		tail = h.free[n-1].size
	}
	needed := len(h.mem) + size - tail
	newSize := (needed + PageSize - 1) / PageSize * PageSize
	if newSize > h.config.MaxBytes {
		return fmt.Errorf("%w: %d bytes needs a %d byte region, ceiling is %d",
			ErrAllocationFailure, size, newSize, h.config.MaxBytes)
	}

	oldSize := len(h.mem)
	mem := make([]byte, newSize)
	copy(mem, h.mem)
	h.mem = mem
	h.grows++
	h.insertFree(block{off: oldSize, size: newSize - oldSize})

	h.logger.WithFields(logrus.Fields{
		"from": humanize.IBytes(uint64(oldSize)),
		"to":   humanize.IBytes(uint64(newSize)),
	}).Debug("Linear memory grown")
	return nil
}

func (h *Heap) insertFree(b block) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].off > b.off })
	h.free = append(h.free, block{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = b

	// merge with the successor, then the predecessor
	if i+1 < len(h.free) && h.free[i].off+h.free[i].size == h.free[i+1].off {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].off+h.free[i-1].size == h.free[i].off {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}
