package memory

// Scope owns the allocations made through it and releases each of them
// exactly once when closed. Callers defer Close right after creating it so
// every exit path, including errors and panics, gives the memory back.
//
//	scope := heap.NewScope()
//	defer scope.Close()
type Scope struct {
	heap    *Heap
	handles []Handle
	closed  bool
}

// NewScope starts a scope on the heap.
func (h *Heap) NewScope() *Scope {
	return &Scope{heap: h}
}

// Allocate reserves size bytes owned by the scope.
func (s *Scope) Allocate(size int) (Handle, error) {
	if s.closed {
		panic("memory: allocate on closed scope")
	}
	handle, err := s.heap.Allocate(size)
	if err != nil {
		return Null, err
	}
	s.handles = append(s.handles, handle)
	return handle, nil
}

// Heap returns the heap the scope allocates from.
func (s *Scope) Heap() *Heap {
	return s.heap
}

// Len returns the number of allocations currently owned.
func (s *Scope) Len() int {
	return len(s.handles)
}

// Close releases the owned allocations in reverse order. Further calls are
// no-ops.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.handles) - 1; i >= 0; i-- {
		s.heap.Release(s.handles[i])
	}
	s.handles = nil
}

// With runs fn inside a fresh scope and releases everything fn allocated
// before returning.
func (h *Heap) With(fn func(s *Scope) error) error {
	s := h.NewScope()
	defer s.Close()
	return fn(s)
}
