package control

import (
	"math"

	"github.com/samber/lo"
)

// PID is a textbook PID with output limits and conditional-integration
// anti-windup: the integral stops growing while the output is saturated in
// the direction of the error.
type PID struct {
	Kp  float64 `yaml:"kp"`
	Ki  float64 `yaml:"ki"`
	Kd  float64 `yaml:"kd"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		Min:   -1,
		Max:   1,
		first: true,
	}
}

// Update advances the controller by dt with the current error.
func (p *PID) Update(err, dt float64) float64 {
	if p.first || dt <= 0 {
		p.prevErr = err
		p.first = false
		return lo.Clamp(p.Kp*err+p.Ki*p.integral, p.Min, p.Max)
	}

	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	integral := p.integral + err*dt
	raw := p.Kp*err + p.Ki*integral + p.Kd*derivative
	u := lo.Clamp(raw, p.Min, p.Max)
	if u == raw || math.Signbit(err) != math.Signbit(raw) {
		p.integral = integral
	}
	return u
}

// Integral exposes the accumulated error for inspection.
func (p *PID) Integral() float64 { return p.integral }

func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// Params returns the tunable gains.
func (p *PID) Params() map[string]float64 {
	return map[string]float64{
		"kp": p.Kp,
		"ki": p.Ki,
		"kd": p.Kd,
	}
}

// SetParam adjusts a gain by name and reports whether the name was known.
func (p *PID) SetParam(name string, value float64) bool {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	default:
		return false
	}
	return true
}
