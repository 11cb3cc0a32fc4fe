package control

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrUnknownDriver = errors.New("control: unknown driver")

// Kinds understood by Spec.Build.
const (
	KindIdle     = "idle"
	KindConstant = "constant"
	KindCruise   = "cruise"
	KindCircle   = "circle"
	KindSlalom   = "slalom"
	KindScript   = "script"
	KindLane     = "lane"
)

// Gains is the yaml form of a PID's gains.
type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

// Spec describes a driver in a config or scenario file. Only the fields
// relevant to Kind are read.
type Spec struct {
	Kind     string   `yaml:"kind"`
	Constant Constant `yaml:"constant,omitempty"`
	// Speed is the cruise target in m/s.
	Speed     float64 `yaml:"speed,omitempty"`
	Steering  float64 `yaml:"steering,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty"`
	Period    float64 `yaml:"period,omitempty"`
	Gains     *Gains  `yaml:"gains,omitempty"`
	// Heading of the lane in degrees; the lane passes through the origin.
	Heading float64 `yaml:"heading,omitempty"`

	Smooth bool       `yaml:"smooth,omitempty"`
	Keys   []Keyframe `yaml:"keys,omitempty"`
}

// Build returns a fresh driver for s. Each call returns independent state,
// so one Spec can drive many parallel runs.
func (s Spec) Build() (Driver, error) {
	switch s.Kind {
	case "", KindIdle:
		return Idle{}, nil
	case KindConstant:
		return s.Constant, nil
	case KindCruise:
		c := NewCruise(s.Speed)
		c.Steering = s.Steering
		s.tune(c.PID)
		return c, nil
	case KindCircle:
		c := NewCircle(s.Speed, s.Steering)
		s.tune(c.PID)
		return c, nil
	case KindSlalom:
		sl := NewSlalom(s.Speed, s.Amplitude, s.Period)
		s.tune(sl.PID)
		return sl, nil
	case KindScript:
		return NewScript(s.Smooth, s.Keys...), nil
	case KindLane:
		l := NewLane(s.Speed, mgl64.Vec3{}, s.Heading)
		s.tune(l.PID)
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, s.Kind)
}

func (s Spec) tune(p *PID) {
	if s.Gains == nil {
		return
	}
	p.Kp, p.Ki, p.Kd = s.Gains.Kp, s.Gains.Ki, s.Gains.Kd
}

// Kinds lists the driver kinds Build accepts.
func Kinds() []string {
	return []string{KindIdle, KindConstant, KindCruise, KindCircle, KindSlalom, KindScript, KindLane}
}
