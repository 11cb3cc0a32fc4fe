package vehicle

import (
	"math"

	"github.com/samber/lo"
)

// Input is one step of normalized driver input. Shift and start requests
// are edges: they act once on the step they are set.
type Input struct {
	Throttle  float64
	Brake     float64
	Steering  float64
	Handbrake float64
	Clutch    float64

	ShiftUp   bool
	ShiftDown bool
	// ShiftInto selects a gear directly when non-nil.
	ShiftInto       *int
	EngineStartStop bool
}

// Clamped returns the input with every axis in range.
func (in Input) Clamped() Input {
	in.Throttle = axis(in.Throttle, 0)
	in.Brake = axis(in.Brake, 0)
	in.Steering = axis(in.Steering, -1)
	in.Handbrake = axis(in.Handbrake, 0)
	in.Clutch = axis(in.Clutch, 0)
	return in
}

func axis(v, min float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return lo.Clamp(v, min, 1)
}

// WithPedals maps a signed pedal command onto throttle (positive) or
// brake (negative).
func (in Input) WithPedals(u float64) Input {
	in.Throttle, in.Brake = 0, 0
	if u > 0 {
		in.Throttle = u
	} else {
		in.Brake = -u
	}
	return in
}

// Gear is a helper for ShiftInto.
func Gear(g int) *int { return &g }
