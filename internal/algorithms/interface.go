// Filter contract shared by the managed and raw backends
package algorithms

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"pixelbench/internal/memory"
)

var (
	// ErrUnknownFilter is returned when a filter name is not registered.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrOverlappingBuffers is returned when a two-buffer filter is given a
	// destination that shares memory with its source.
	ErrOverlappingBuffers = errors.New("source and destination overlap")
)

// Backend implements every filter of the contract in one execution style.
// Two-buffer filters only write interior pixels of dst; its border keeps
// whatever the caller put there.
type Backend interface {
	Name() string
	Grayscale(pix []byte, width, height int) error
	GaussianBlur(src, dst []byte, width, height int) error
	Sobel(src, dst []byte, width, height int) error
}

// Style tells whether a filter rewrites its input or fills a second buffer.
type Style int

const (
	InPlace Style = iota
	SourceToDest
)

func (s Style) String() string {
	switch s {
	case InPlace:
		return "in-place"
	case SourceToDest:
		return "source-to-destination"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// Descriptor identifies a filter.
type Descriptor struct {
	Name        string
	Style       Style
	Radius      int
	Description string

	run func(b Backend, src, dst []byte, width, height int) error
}

const (
	Grayscale    = "grayscale"
	GaussianBlur = "gaussian_blur"
	Sobel        = "sobel"
)

// descriptors is ordered; the benchmark harness walks it in this order.
var descriptors = []Descriptor{
	{
		Name:        Grayscale,
		Style:       InPlace,
		Radius:      0,
		Description: "Luminosity grayscale, 0.299R + 0.587G + 0.114B",
		run: func(b Backend, _, dst []byte, width, height int) error {
			return b.Grayscale(dst, width, height)
		},
	},
	{
		Name:        GaussianBlur,
		Style:       SourceToDest,
		Radius:      1,
		Description: "3x3 binomial Gaussian blur, alpha copied from source",
		run: func(b Backend, src, dst []byte, width, height int) error {
			return b.GaussianBlur(src, dst, width, height)
		},
	},
	{
		Name:        Sobel,
		Style:       SourceToDest,
		Radius:      1,
		Description: "Sobel gradient magnitude on luminosity, opaque output",
		run: func(b Backend, src, dst []byte, width, height int) error {
			return b.Sobel(src, dst, width, height)
		},
	},
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns all filters in their fixed order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Names returns the filter names in their fixed order.
func Names() []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names
}

// IsValidFilter reports whether name is a registered filter.
func IsValidFilter(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// BackendFactory builds a backend. The raw backend uses cfg for its heap.
type BackendFactory func(cfg memory.Config, logger logrus.FieldLogger) (Backend, error)

var backends = make(map[string]BackendFactory)

// RegisterBackend makes a backend constructible by name.
func RegisterBackend(name string, factory BackendFactory) {
	backends[name] = factory
}

// NewBackend constructs the backend registered under name.
func NewBackend(name string, cfg memory.Config, logger logrus.FieldLogger) (Backend, error) {
	factory, exists := backends[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	return factory(cfg, logger)
}

// BackendNames returns the registered backend names, sorted.
func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterBackend(ManagedBackendName, func(memory.Config, logrus.FieldLogger) (Backend, error) {
		return NewManagedBackend(), nil
	})
	RegisterBackend(RawBackendName, func(cfg memory.Config, logger logrus.FieldLogger) (Backend, error) {
		heap, err := memory.NewHeap(cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewRawBackend(heap, logger), nil
	})
}
