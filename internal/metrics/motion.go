package metrics

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

// TopSpeed is the largest forward speed magnitude in m/s.
type TopSpeed struct {
	top float64
}

func NewTopSpeed() *TopSpeed { return &TopSpeed{} }

func (m *TopSpeed) Name() string { return "top_speed" }

func (m *TopSpeed) Observe(x dynamo.State, u dynamo.Control, t float64) {
	m.top = math.Max(m.top, math.Abs(x[vehicle.ColSpeed]))
}

func (m *TopSpeed) Value() float64 { return m.top }
func (m *TopSpeed) Reset()         { m.top = 0 }

// Distance is the path length travelled over the ground plane.
type Distance struct {
	total float64
	last  [2]float64
	seen  bool
}

func NewDistance() *Distance { return &Distance{} }

func (m *Distance) Name() string { return "distance" }

func (m *Distance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	p := [2]float64{x[vehicle.ColPosX], x[vehicle.ColPosZ]}
	if m.seen {
		m.total += math.Hypot(p[0]-m.last[0], p[1]-m.last[1])
	}
	m.last = p
	m.seen = true
}

func (m *Distance) Value() float64 { return m.total }

func (m *Distance) Reset() {
	m.total = 0
	m.seen = false
}

// StoppingDistance measures how far the car travels from the first brake
// application above MinSpeed until it slows below StopSpeed. Until the car
// stops it reports the distance so far; without braking it reports 0.
type StoppingDistance struct {
	MinSpeed  float64
	StopSpeed float64

	braking  bool
	stopped  bool
	distance Distance
}

func NewStoppingDistance() *StoppingDistance {
	return &StoppingDistance{MinSpeed: 1, StopSpeed: 0.1}
}

func (m *StoppingDistance) Name() string { return "stopping_distance" }

func (m *StoppingDistance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if m.stopped {
		return
	}
	speed := math.Abs(x[vehicle.ColSpeed])
	if !m.braking {
		if x[vehicle.ColBrake] <= 0 || speed < m.MinSpeed {
			return
		}
		m.braking = true
	}
	m.distance.Observe(x, u, t)
	if speed < m.StopSpeed {
		m.stopped = true
	}
}

func (m *StoppingDistance) Value() float64 { return m.distance.Value() }

// Stopped reports whether the car came to rest after braking.
func (m *StoppingDistance) Stopped() bool { return m.stopped }

func (m *StoppingDistance) Reset() {
	m.braking = false
	m.stopped = false
	m.distance.Reset()
}
