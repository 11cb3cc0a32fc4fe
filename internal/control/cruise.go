package control

import (
	"math"

	"github.com/san-kum/wheelsim/internal/vehicle"
)

// Cruise holds a forward speed with a PID on the speed error. Positive
// output is throttle, negative output past the deadband is brake.
type Cruise struct {
	// Target speed in m/s.
	Target   float64
	Steering float64
	PID      *PID
	Deadband float64

	prevT   float64
	started bool
}

func NewCruise(target float64) *Cruise {
	return &Cruise{
		Target:   target,
		PID:      NewPID(0.5, 0.1, 0.02),
		Deadband: 0.05,
	}
}

func (c *Cruise) Input(obs Observation, t float64) vehicle.Input {
	return vehicle.Input{Steering: c.Steering}.WithPedals(c.pedal(obs, t))
}

func (c *Cruise) pedal(obs Observation, t float64) float64 {
	dt := 0.0
	if c.started {
		dt = t - c.prevT
	}
	c.prevT = t
	c.started = true
	u := c.PID.Update(c.Target-obs.Speed, dt)
	if u < 0 && u > -c.Deadband {
		return 0
	}
	return u
}

func (c *Cruise) Reset() {
	c.PID.Reset()
	c.started = false
	c.prevT = 0
}

// Circle cruises at a fixed steering input, ramped in over Ramp seconds.
type Circle struct {
	Cruise
	Ramp float64
}

func NewCircle(speed, steering float64) *Circle {
	c := &Circle{Cruise: *NewCruise(speed), Ramp: 1}
	c.Steering = steering
	return c
}

func (c *Circle) Input(obs Observation, t float64) vehicle.Input {
	in := c.Cruise.Input(obs, t)
	if c.Ramp > 0 {
		in.Steering *= math.Min(1, t/c.Ramp)
	}
	return in
}

// Slalom cruises while weaving the steering on a sine.
type Slalom struct {
	Cruise
	Amplitude float64
	// Period of one full left-right cycle in seconds.
	Period float64
}

func NewSlalom(speed, amplitude, period float64) *Slalom {
	return &Slalom{Cruise: *NewCruise(speed), Amplitude: amplitude, Period: period}
}

func (s *Slalom) Input(obs Observation, t float64) vehicle.Input {
	in := s.Cruise.Input(obs, t)
	if s.Period > 0 {
		in.Steering = s.Amplitude * math.Sin(2*math.Pi*t/s.Period)
	}
	return in
}
