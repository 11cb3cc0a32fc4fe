package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// AddScaled returns s + other*factor without allocating an intermediate.
func (s State) AddScaled(other State, factor float64) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]*factor
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Control holds the driver inputs of one step, see ControlThrottle and friends.
type Control []float64

const (
	ControlThrottle = iota
	ControlBrake
	ControlSteering
	ControlHandbrake
	ControlClutch
	ControlDim
)

// ControlNames labels the Control columns in files and plots.
var ControlNames = [ControlDim]string{"throttle_input", "brake_input", "steering_input", "handbrake_input", "clutch_input"}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Metric observes one telemetry row per step.
type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	RecordEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		RecordEvery:   1,
		ValidateState: true,
	}
}

type Result struct {
	Telemetry  []State
	Controls   []Control
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Column returns one telemetry column across all recorded rows.
func (r *Result) Column(idx int) []float64 {
	out := make([]float64, 0, len(r.Telemetry))
	for _, row := range r.Telemetry {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}
