package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeReleasesEverything(t *testing.T) {
	h := newTestHeap(t, 1, 4*PageSize)

	scope := h.NewScope()
	for i := 0; i < 4; i++ {
		_, err := scope.Allocate(256)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, scope.Len())
	assert.Equal(t, 4, h.Stats().Live)

	scope.Close()
	assert.Equal(t, 0, h.Stats().Live)

	// closing twice does not double release
	assert.NotPanics(t, scope.Close)
	assert.Panics(t, func() { _, _ = scope.Allocate(1) })
}

func TestWithReleasesOnError(t *testing.T) {
	h := newTestHeap(t, 1, 2*PageSize)
	boom := errors.New("boom")

	err := h.With(func(s *Scope) error {
		if _, err := s.Allocate(128); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, h.Stats().Live)
}

func TestWithReleasesOnAllocationFailure(t *testing.T) {
	h := newTestHeap(t, 1, 2*PageSize)

	err := h.With(func(s *Scope) error {
		if _, err := s.Allocate(PageSize); err != nil {
			return err
		}
		_, err := s.Allocate(4 * PageSize)
		return err
	})
	assert.True(t, errors.Is(err, ErrAllocationFailure))
	assert.Equal(t, 0, h.Stats().Live)
	assert.Equal(t, 0, h.Stats().InUseBytes)
}

func TestWithReleasesOnPanic(t *testing.T) {
	h := newTestHeap(t, 1, PageSize)

	assert.Panics(t, func() {
		_ = h.With(func(s *Scope) error {
			_, _ = s.Allocate(64)
			panic("kernel defect")
		})
	})
	assert.Equal(t, 0, h.Stats().Live)
}
