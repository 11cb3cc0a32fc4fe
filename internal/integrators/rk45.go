package integrators

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	dpB5 = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	dpB4 = [7]float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40}
)

// RK45 is Dormand-Prince with an error estimate. Step takes one fixed step
// so it fits the fixed-rate vehicle loop; StepAdaptive also suggests the
// next step size.
type RK45 struct {
	Tolerance float64
	safety    float64
	minScale  float64
	maxScale  float64

	k       [7]dynamo.State
	scratch dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		Tolerance: 1e-6,
		safety:    0.9,
		minScale:  0.2,
		maxScale:  10.0,
	}
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next, _ := r.StepAdaptive(dyn, x, u, t, dt)
	return next
}

// StepAdaptive advances by dt and returns the step size the error
// estimate suggests for next time.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, float64) {
	n := len(x)
	if len(r.scratch) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.scratch = make(dynamo.State, n)
	}

	for s := 0; s < 7; s++ {
		copy(r.scratch, x)
		for j := 0; j < s; j++ {
			if a := dpA[s][j]; a != 0 {
				for i := 0; i < n; i++ {
					r.scratch[i] += dt * a * r.k[j][i]
				}
			}
		}
		copy(r.k[s], dyn.Derive(r.scratch, u, t+dpC[s]*dt))
	}

	// the last stage is evaluated at the fifth-order solution
	next := r.scratch.Clone()

	errMax := 0.0
	for i := 0; i < n; i++ {
		var e float64
		for s := 0; s < 7; s++ {
			e += (dpB5[s] - dpB4[s]) * r.k[s][i]
		}
		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*e)/scale)
	}

	tol := r.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}
	ratio := errMax / tol
	switch {
	case ratio > 1:
		return next, dt * math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
	case ratio > 0:
		return next, dt * math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2))
	default:
		return next, dt * r.maxScale
	}
}
