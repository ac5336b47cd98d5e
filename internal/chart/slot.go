package chart

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// View is a visualization attached to a Slot. Dispose is called exactly once,
// when the view is replaced or the slot is cleared.
type View interface {
	Dispose()
}

// Slot owns at most one active view for a render target.
type Slot struct {
	mu      sync.Mutex
	current View
	active  prometheus.Gauge
}

// NewSlot creates an empty slot. active, if not nil, tracks how many slots
// hold a view.
func NewSlot(active prometheus.Gauge) *Slot {
	return &Slot{active: active}
}

// Replace disposes the current view, if any, then attaches v. A nil v clears
// the slot.
func (s *Slot) Replace(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Dispose()
		s.current = nil
		s.track(-1)
	}
	if v != nil {
		s.current = v
		s.track(1)
	}
}

// Current returns the attached view, or nil.
func (s *Slot) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Slot) track(delta float64) {
	if s.active != nil {
		s.active.Add(delta)
	}
}
