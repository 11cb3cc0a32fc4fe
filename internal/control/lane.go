package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

// LQR is full state feedback, u = -K(x - Target).
type LQR struct {
	K      [][]float64
	Target dynamo.State
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.State) dynamo.Control {
	u := make(dynamo.Control, len(l.K))
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

// laneGains act on lateral offset (m), heading error (rad) and yaw rate
// (rad/s), giving normalized steering.
var laneGains = [][]float64{{0.12, 0.9, 0.15}}

// Lane cruises along a straight line, steering with an LQR on the
// lateral error.
type Lane struct {
	Cruise
	// Origin and Heading (degrees, clockwise from +z) define the line.
	Origin  mgl64.Vec3
	Heading float64
	LQR     *LQR
}

func NewLane(speed float64, origin mgl64.Vec3, heading float64) *Lane {
	return &Lane{
		Cruise:  *NewCruise(speed),
		Origin:  origin,
		Heading: heading,
		LQR:     NewLQR(laneGains, dynamo.State{0, 0, 0}),
	}
}

// Errors returns the lateral offset (positive right of the line), the
// heading error in radians and the yaw rate in rad/s.
func (l *Lane) Errors(obs Observation) dynamo.State {
	h := mgl64.DegToRad(l.Heading)
	right := mgl64.Vec3{math.Cos(h), 0, -math.Sin(h)}
	offset := obs.Position.Sub(l.Origin).Dot(right)
	psi := math.Remainder(mgl64.DegToRad(obs.Yaw)-h, 2*math.Pi)
	return dynamo.State{offset, psi, mgl64.DegToRad(obs.YawRate)}
}

func (l *Lane) Input(obs Observation, t float64) vehicle.Input {
	in := l.Cruise.Input(obs, t)
	x := l.Errors(obs)
	// reversing flips which way the steering moves the car sideways
	if obs.Speed < 0 {
		x[0] = -x[0]
	}
	in.Steering = lo.Clamp(l.LQR.Compute(x)[0], -1, 1)
	return in
}
