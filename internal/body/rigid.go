package body

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/integrators"
)

var ErrInvalidBody = errors.New("body: invalid rigid body")

// State layout of a Rigid.
const (
	PosX = iota
	PosY
	PosZ
	VelX
	VelY
	VelZ
	RotW
	RotX
	RotY
	RotZ
	AngX
	AngY
	AngZ
	StateDim
)

var Gravity = mgl64.Vec3{0, -9.81, 0}

// Rigid is a single rigid body with principal inertia aligned to its local
// axes. Forces accumulate between steps and are cleared by Step.
type Rigid struct {
	Inertia mgl64.Vec3
	Gravity mgl64.Vec3
	// LinearDrag and AngularDrag are simple velocity-proportional damping.
	LinearDrag  float64
	AngularDrag float64

	State dynamo.State

	mass       float64
	integrator dynamo.Integrator
	force      mgl64.Vec3
	torque     mgl64.Vec3
}

// NewBox builds a solid box of the given size (width, height, length).
func NewBox(mass float64, size mgl64.Vec3, integrator string) (*Rigid, error) {
	if mass <= 0 {
		return nil, fmt.Errorf("%w: mass %v", ErrInvalidBody, mass)
	}
	if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
		return nil, fmt.Errorf("%w: size %v", ErrInvalidBody, size)
	}
	integ, err := integrators.ByName(integrator)
	if err != nil {
		return nil, err
	}
	x, y, z := size.X(), size.Y(), size.Z()
	b := &Rigid{
		mass: mass,
		Inertia: mgl64.Vec3{
			mass / 12 * (y*y + z*z),
			mass / 12 * (x*x + z*z),
			mass / 12 * (x*x + y*y),
		},
		Gravity:    Gravity,
		State:      make(dynamo.State, StateDim),
		integrator: integ,
	}
	b.State[RotW] = 1
	return b, nil
}

func (b *Rigid) Mass() float64 { return b.mass }

func (b *Rigid) Position() mgl64.Vec3 {
	return mgl64.Vec3{b.State[PosX], b.State[PosY], b.State[PosZ]}
}

func (b *Rigid) Velocity() mgl64.Vec3 {
	return mgl64.Vec3{b.State[VelX], b.State[VelY], b.State[VelZ]}
}

func (b *Rigid) Rotation() mgl64.Quat {
	return mgl64.Quat{W: b.State[RotW], V: mgl64.Vec3{b.State[RotX], b.State[RotY], b.State[RotZ]}}
}

// AngularVelocity is in world space.
func (b *Rigid) AngularVelocity() mgl64.Vec3 {
	return mgl64.Vec3{b.State[AngX], b.State[AngY], b.State[AngZ]}
}

func (b *Rigid) SetPosition(p mgl64.Vec3) { copy(b.State[PosX:PosZ+1], p[:]) }

func (b *Rigid) SetVelocity(v mgl64.Vec3) { copy(b.State[VelX:VelZ+1], v[:]) }

func (b *Rigid) SetAngularVelocity(w mgl64.Vec3) { copy(b.State[AngX:AngZ+1], w[:]) }

func (b *Rigid) SetRotation(q mgl64.Quat) {
	q = q.Normalize()
	b.State[RotW] = q.W
	copy(b.State[RotX:RotZ+1], q.V[:])
}

// TransformPoint maps a local point to world space.
func (b *Rigid) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return b.Position().Add(b.Rotation().Rotate(local))
}

func (b *Rigid) TransformDirection(local mgl64.Vec3) mgl64.Vec3 {
	return b.Rotation().Rotate(local)
}

func (b *Rigid) InverseTransformDirection(world mgl64.Vec3) mgl64.Vec3 {
	return b.Rotation().Inverse().Rotate(world)
}

func (b *Rigid) Forward() mgl64.Vec3 { return b.TransformDirection(mgl64.Vec3{0, 0, 1}) }
func (b *Rigid) Up() mgl64.Vec3      { return b.TransformDirection(mgl64.Vec3{0, 1, 0}) }
func (b *Rigid) Right() mgl64.Vec3   { return b.TransformDirection(mgl64.Vec3{1, 0, 0}) }

// VelocityAtPoint is the world velocity of a world-space point on the body.
func (b *Rigid) VelocityAtPoint(p mgl64.Vec3) mgl64.Vec3 {
	return b.Velocity().Add(b.AngularVelocity().Cross(p.Sub(b.Position())))
}

func (b *Rigid) ApplyForce(f mgl64.Vec3) {
	b.force = b.force.Add(f)
}

// ApplyForceAt accumulates a world force at a world point.
func (b *Rigid) ApplyForceAt(p, f mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.Position()).Cross(f))
}

func (b *Rigid) ApplyTorque(t mgl64.Vec3) {
	b.torque = b.torque.Add(t)
}

// AccumulatedForce returns the force and torque applied since the last step.
func (b *Rigid) AccumulatedForce() (mgl64.Vec3, mgl64.Vec3) {
	return b.force, b.torque
}

// Step integrates the accumulated force and torque over dt and clears them.
func (b *Rigid) Step(t, dt float64) {
	u := dynamo.Control{
		b.force.X(), b.force.Y(), b.force.Z(),
		b.torque.X(), b.torque.Y(), b.torque.Z(),
	}
	b.State = b.integrator.Step(b, b.State, u, t, dt)
	b.SetRotation(b.Rotation())
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

func (b *Rigid) StateDim() int   { return StateDim }
func (b *Rigid) ControlDim() int { return 6 }

// Derive is the Newton-Euler equations with the control vector holding the
// world force and torque.
func (b *Rigid) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, StateDim)
	vel := mgl64.Vec3{x[VelX], x[VelY], x[VelZ]}
	q := mgl64.Quat{W: x[RotW], V: mgl64.Vec3{x[RotX], x[RotY], x[RotZ]}}
	w := mgl64.Vec3{x[AngX], x[AngY], x[AngZ]}
	force := mgl64.Vec3{u[0], u[1], u[2]}
	torque := mgl64.Vec3{u[3], u[4], u[5]}

	acc := force.Mul(1 / b.mass).Add(b.Gravity).Sub(vel.Mul(b.LinearDrag))
	copy(dx[PosX:PosZ+1], vel[:])
	copy(dx[VelX:VelZ+1], acc[:])

	qdot := mgl64.Quat{V: w}.Mul(q).Scale(0.5)
	dx[RotW] = qdot.W
	copy(dx[RotX:RotZ+1], qdot.V[:])

	// work in body space where the inertia tensor is diagonal
	inv := q.Inverse()
	wb := inv.Rotate(w)
	tb := inv.Rotate(torque)
	lb := mul(b.Inertia, wb)
	alphaB := div(tb.Sub(wb.Cross(lb)), b.Inertia)
	alpha := q.Rotate(alphaB).Sub(w.Mul(b.AngularDrag))
	copy(dx[AngX:AngZ+1], alpha[:])
	return dx
}

func mul(a, b mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]} }

func div(a, b mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{a[0] / b[0], a[1] / b[1], a[2] / b[2]} }
