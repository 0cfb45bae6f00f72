package algorithms

import (
	"fmt"

	"pixelbench/internal/core"
)

// Run resolves name and executes it on backend, writing the result into dst.
// In-place filters first copy src into dst and then rewrite dst; two-buffer
// filters leave the border of dst as the caller seeded it and reject a dst
// that overlaps src.
func Run(backend Backend, name string, src, dst []byte, width, height int) error {
	d, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	check := validatePair
	if d.Style == InPlace {
		check = validateDims
	}
	if err := check(src, dst, width, height); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d.Style == InPlace {
		copy(dst, src)
	}
	return d.run(backend, src, dst, width, height)
}

// Apply runs the named filter on a copy of img and returns the result. The
// output starts as a copy of the source, so the border of two-buffer filters
// equals the source border.
func Apply(backend Backend, name string, img core.Image) (core.Image, error) {
	if err := img.Validate(); err != nil {
		return core.Image{}, fmt.Errorf("%s: %w", name, err)
	}
	out := img.Clone()
	if err := Run(backend, name, img.Pix, out.Pix, img.Width, img.Height); err != nil {
		return core.Image{}, err
	}
	return out, nil
}

// ApplyChain runs several filters in sequence, feeding each output into the
// next one.
func ApplyChain(backend Backend, names []string, img core.Image) (core.Image, error) {
	out := img
	for _, name := range names {
		next, err := Apply(backend, name, out)
		if err != nil {
			return core.Image{}, err
		}
		out = next
	}
	return out, nil
}
