package algorithms

import (
	"fmt"
	"time"
)

// Phase is one step of a filter invocation. Managed calls only have a
// compute phase; raw calls go through all of them.
type Phase int

const (
	PhaseAlloc Phase = iota
	PhaseCopyIn
	PhaseCompute
	PhaseCopyOut
	PhaseRelease
)

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseAlloc, PhaseCopyIn, PhaseCompute, PhaseCopyOut, PhaseRelease}

func (p Phase) String() string {
	switch p {
	case PhaseAlloc:
		return "alloc"
	case PhaseCopyIn:
		return "copy_in"
	case PhaseCompute:
		return "compute"
	case PhaseCopyOut:
		return "copy_out"
	case PhaseRelease:
		return "release"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PhaseObserver receives the duration of each phase of a filter call.
type PhaseObserver interface {
	ObservePhase(filter string, phase Phase, d time.Duration)
}

// PhaseObserverFunc adapts a function to PhaseObserver.
type PhaseObserverFunc func(filter string, phase Phase, d time.Duration)

func (f PhaseObserverFunc) ObservePhase(filter string, phase Phase, d time.Duration) {
	f(filter, phase, d)
}

// Observable is implemented by backends that report phase timings.
type Observable interface {
	SetPhaseObserver(o PhaseObserver)
}

type phaseClock struct {
	observer PhaseObserver
	filter   string
	start    time.Time
}

func newPhaseClock(o PhaseObserver, filter string) phaseClock {
	c := phaseClock{observer: o, filter: filter}
	c.reset()
	return c
}

// lap reports the time since the previous lap as phase.
func (c *phaseClock) lap(phase Phase) {
	if c.observer == nil {
		return
	}
	now := time.Now()
	c.observer.ObservePhase(c.filter, phase, now.Sub(c.start))
	c.start = now
}

// reset restarts the clock without reporting.
func (c *phaseClock) reset() {
	if c.observer != nil {
		c.start = time.Now()
	}
}
