package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/drivetrain"
	"github.com/san-kum/wheelsim/internal/friction"
	"github.com/san-kum/wheelsim/internal/ground"
	"github.com/san-kum/wheelsim/internal/suspension"
	"github.com/san-kum/wheelsim/internal/tire"
)

// Wheel is one corner: probe, suspension and tire, plus the torques the
// stepper and drivetrain feed it each step.
type Wheel struct {
	Name     string
	Axle     Axle
	Position mgl64.Vec3
	Radius   float64
	Width    float64
	Mass     float64
	Steered  bool
	Driven   bool

	AngularVelocity     float64
	PrevAngularVelocity float64
	// SteerAngle is in degrees, positive turns right.
	SteerAngle        float64
	MotorTorque       float64
	BrakeTorque       float64
	RollingResistance float64
	CounterTorque     float64
	Load              float64
	LoadContribution  float64
	// AxleAngle is the visual spin angle in degrees.
	AxleAngle float64

	Suspension *suspension.Unit
	Probe      ground.Probe
	Tire       *tire.Solver
	Contact    ground.ContactSample
	Curve      friction.Curve
	// CurveStiffness scales the surface curve, 1 for none.
	CurveStiffness float64

	ForwardFriction friction.Friction
	SideFriction    friction.Friction
	Force           mgl64.Vec3
	ForcePoint      mgl64.Vec3

	body   Body
	pose   ground.Pose
	solved bool
}

func newWheel(cfg WheelConfig, c *Config) *Wheel {
	unit := suspension.NewUnit(c.Suspension.Spring, c.Suspension.Damper)
	solver := c.Tire
	solver.Reset()
	return &Wheel{
		Name:              cfg.Name,
		Axle:              cfg.Axle,
		Position:          cfg.Anchor(),
		Radius:            cfg.Radius,
		Width:             cfg.Width,
		Mass:              cfg.Mass,
		Steered:           cfg.Steered,
		RollingResistance: c.Brakes.RollingResistance,
		Suspension:        unit,
		Probe:             c.Probe,
		Tire:              &solver,
		Curve:             friction.Get(friction.Default),
		CurveStiffness:    1,
	}
}

// Inertia is the rotational inertia of a uniform disc.
func (w *Wheel) Inertia() float64 { return 0.5 * w.Mass * w.Radius * w.Radius }

func (w *Wheel) Grounded() bool { return w.Suspension.Grounded() }

// tractor exposes a wheel to the drivetrain.
type tractor struct{ *Wheel }

var _ drivetrain.Tractor = tractor{}

func (t tractor) AngularVelocity() float64 { return t.Wheel.AngularVelocity }

// probe runs ground detection and the suspension for this step.
func (w *Wheel) probe(c ground.Caster, dt float64) {
	w.pose = ground.Pose{
		Anchor:   w.body.Position().Add(w.body.Rotation().Rotate(w.Position)),
		Rotation: w.body.Rotation(),
		Steer:    w.SteerAngle,
	}
	spring := &w.Suspension.Spring
	w.Contact = w.Probe.Cast(c, w.pose, w.Radius, w.Width, spring.MaxLength, spring.MinLength)
	distance := math.NaN()
	if w.Contact.Hit {
		distance = w.Contact.Distance
	}
	w.Load, _ = w.Suspension.Update(distance, w.Radius, w.Contact.Hit, dt)

	curve := friction.Get(w.Contact.Surface.Preset)
	if w.CurveStiffness != 1 {
		curve = curve.WithStiffness(w.CurveStiffness)
	}
	w.Curve = curve
	w.MotorTorque = 0
	w.solved = false
}

// Solve runs the tire for this step. Driven wheels are solved from inside
// the drivetrain through a tractor.
func (w *Wheel) Solve(motorTorque, effectiveInertia, dt float64) float64 {
	w.MotorTorque = motorTorque
	w.PrevAngularVelocity = w.AngularVelocity
	w.Tire.AngularVelocity = w.AngularVelocity

	up, fwd, _ := w.pose.Axes()
	surface := w.Contact.Surface.Friction
	if !w.Contact.Hit {
		surface = 0
	}
	out := w.Tire.Solve(tire.Input{
		MotorTorque:       motorTorque,
		BrakeTorque:       w.BrakeTorque,
		RollingResistance: w.RollingResistance,
		Radius:            w.Radius,
		Inertia:           effectiveInertia,
		Load:              w.Load,
		LoadContribution:  w.LoadContribution,
		BodyMass:          w.body.Mass(),
		Grounded:          w.Grounded(),
		ContactVelocity:   w.body.VelocityAtPoint(w.Contact.Point),
		ContactPoint:      w.Contact.Point,
		ContactNormal:     w.Contact.Normal,
		Forward:           fwd,
		Up:                up,
		Curve:             w.Curve,
		SurfaceFriction:   surface,
		Travel:            w.Suspension.Spring.Length,
		Dt:                dt,
	})

	w.AngularVelocity = out.AngularVelocity
	w.CounterTorque = out.CounterTorque
	w.ForwardFriction = out.Forward
	w.SideFriction = out.Side
	w.Force = out.Force
	w.ForcePoint = out.Point
	w.AxleAngle = math.Mod(w.AxleAngle+mgl64.RadToDeg(w.AngularVelocity*dt), 360)
	w.solved = true
	return w.CounterTorque
}

// applyForces pushes the suspension load along the contact normal and the
// tire force at its application point.
func (w *Wheel) applyForces() {
	if !w.Grounded() {
		return
	}
	w.body.ApplyForceAt(w.Contact.Point, w.Contact.Normal.Mul(w.Load))
	w.body.ApplyForceAt(w.ForcePoint, w.Force)
}

// AddBrakeTorque adds torque up to the vehicle's brake limit.
func (w *Wheel) AddBrakeTorque(t, max float64) {
	if t <= 0 {
		return
	}
	w.BrakeTorque = math.Min(w.BrakeTorque+t, max)
}

// Center is the world position of the wheel hub.
func (w *Wheel) Center() mgl64.Vec3 {
	up, _, _ := w.pose.Axes()
	depth := w.Suspension.Spring.MinLength + w.Suspension.Spring.Length
	return w.pose.Anchor.Sub(up.Mul(depth))
}

// Reset zeroes the dynamic state.
func (w *Wheel) Reset() {
	w.AngularVelocity = 0
	w.PrevAngularVelocity = 0
	w.SteerAngle = 0
	w.MotorTorque = 0
	w.BrakeTorque = 0
	w.CounterTorque = 0
	w.Load = 0
	w.LoadContribution = 0
	w.Contact = ground.ContactSample{}
	w.ForwardFriction.Reset()
	w.SideFriction.Reset()
	w.Suspension.Reset()
	w.Tire.Reset()
}
