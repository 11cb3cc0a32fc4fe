package control

import (
	"sync"

	"github.com/san-kum/wheelsim/internal/vehicle"
)

// Manual passes through whatever input was last set. Set may be called from
// another goroutine, such as a keyboard handler. Edge events (shifts, engine
// start) are delivered once.
type Manual struct {
	mu sync.Mutex
	in vehicle.Input
}

func NewManual() *Manual {
	return &Manual{}
}

// Set replaces the held axes and queues any edge events in in.
func (m *Manual) Set(in vehicle.Input) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in = in
}

// Update edits the held input in place.
func (m *Manual) Update(fn func(in *vehicle.Input)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.in)
}

func (m *Manual) Input(Observation, float64) vehicle.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := m.in
	m.in.ShiftUp = false
	m.in.ShiftDown = false
	m.in.ShiftInto = nil
	m.in.EngineStartStop = false
	return in
}
