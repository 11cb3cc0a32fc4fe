package drivetrain_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/drivetrain"
	"github.com/san-kum/wheelsim/internal/friction"
	"github.com/san-kum/wheelsim/internal/tire"
)

const (
	carMass     = 1200.0
	wheelRadius = 0.33
	wheelMass   = 20.0
)

// road is a one-dimensional car: every tire pushes the same body along z.
type road struct {
	v, z   float64
	force  float64
	curve  friction.Curve
	tires  []*tire.Solver
	loaded float64
}

func (r *road) solve(s *tire.Solver, motor, inertia, dt float64) tire.Output {
	out := s.Solve(tire.Input{
		MotorTorque:      motor,
		Radius:           wheelRadius,
		Inertia:          inertia,
		Load:             r.loaded,
		LoadContribution: 0.25,
		BodyMass:         carMass,
		Grounded:         true,
		ContactVelocity:  mgl64.Vec3{0, 0, r.v},
		ContactPoint:     mgl64.Vec3{0, 0, r.z},
		ContactNormal:    mgl64.Vec3{0, 1, 0},
		Forward:          mgl64.Vec3{0, 0, 1},
		Up:               mgl64.Vec3{0, 1, 0},
		Curve:            r.curve,
		SurfaceFriction:  1,
		Dt:               dt,
	})
	r.force += out.Forward.Force
	return out
}

type roadWheel struct {
	road *road
	tire *tire.Solver
}

func (w *roadWheel) Solve(motor, inertia, dt float64) float64 {
	return w.road.solve(w.tire, motor, inertia, dt).CounterTorque
}

func (w *roadWheel) AngularVelocity() float64 { return w.tire.AngularVelocity }
func (w *roadWheel) Inertia() float64         { return 0.5 * wheelMass * wheelRadius * wheelRadius }

type rwdCar struct {
	road    *road
	engine  *drivetrain.Engine
	clutch  *drivetrain.Clutch
	gearbox *drivetrain.Gearbox
	rear    []*roadWheel
	front   []*tire.Solver
}

func newRWDCar(t *testing.T) *rwdCar {
	t.Helper()
	r := &road{curve: friction.Get(friction.Asphalt), loaded: carMass * 9.81 / 4}
	c := &rwdCar{
		road:    r,
		engine:  drivetrain.NewEngine(),
		clutch:  drivetrain.NewClutch(),
		gearbox: drivetrain.NewGearbox(),
	}
	for i := 0; i < 2; i++ {
		c.rear = append(c.rear, &roadWheel{road: r, tire: tire.NewSolver()})
		c.front = append(c.front, tire.NewSolver())
	}

	g := drivetrain.NewGraph()
	cl := g.Add(c.clutch)
	gb := g.Add(c.gearbox)
	df := g.Add(drivetrain.NewDifferential())
	l := g.Add(drivetrain.NewWheelNode("rear_left", c.rear[0]))
	rr := g.Add(drivetrain.NewWheelNode("rear_right", c.rear[1]))
	if _, err := c.engine.Attach(g, cl); err != nil {
		t.Fatal(err)
	}
	for _, err := range []error{g.Connect(cl, gb), g.Connect(gb, df), g.ConnectDifferential(df, l, rr)} {
		if err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func (c *rwdCar) step(throttle, dt float64) {
	c.road.force = 0
	c.engine.Step(throttle, dt)
	for _, f := range c.front {
		c.road.solve(f, 0, 0.5*wheelMass*wheelRadius*wheelRadius, dt)
	}
	c.road.v += c.road.force / carMass * dt
	c.road.z += c.road.v * dt
}

func TestIdleCreepMatchesGearing(t *testing.T) {
	car := newRWDCar(t)
	const dt = 0.01
	for i := 0; i < 600; i++ {
		car.step(0, dt)
	}

	wheel := car.rear[0].AngularVelocity()
	want := car.engine.AngularVelocity / (3.59 * 4.3)
	if math.Abs(wheel-want) > 0.01*want {
		t.Errorf("wheel av = %.4f, want %.4f within 1%%", wheel, want)
	}
	if rpm := car.engine.RPM(); rpm < 700 || rpm > 900 {
		t.Errorf("engine rpm = %.1f, want near idle", rpm)
	}
	if math.Abs(car.road.v-wheel*wheelRadius) > 0.05 {
		t.Errorf("body speed %.3f does not match rolling speed %.3f", car.road.v, wheel*wheelRadius)
	}
}

func TestFullThrottleStaysFinite(t *testing.T) {
	car := newRWDCar(t)
	const dt = 0.01
	limit := car.engine.RevLimiterAV() * 1.05
	for i := 0; i < 1000; i++ {
		car.step(1, dt)
		av := car.engine.AngularVelocity
		if math.IsNaN(av) || av < 0 || av > limit+1e-9 {
			t.Fatalf("step %d: engine av %v out of range", i, av)
		}
	}
	if car.road.v <= 5 {
		t.Errorf("car speed = %.2f after 10 s of full throttle", car.road.v)
	}
}

func TestRevLimiter(t *testing.T) {
	e := drivetrain.NewEngine()
	limit := e.RevLimiterAV() * 1.05
	hit := false
	for i := 0; i < 500; i++ {
		e.Step(1, 0.01)
		hit = hit || e.RevLimiterActive
		if e.AngularVelocity > limit {
			t.Fatalf("step %d: av %.2f above %.2f", i, e.AngularVelocity, limit)
		}
		if e.RevLimiterActive && e.GeneratedTorque != 0 {
			t.Fatalf("step %d: limiter active but generating %.2f", i, e.GeneratedTorque)
		}
	}
	if !hit {
		t.Error("rev limiter never engaged")
	}
}

func TestIdleHoldsWithoutLoad(t *testing.T) {
	e := drivetrain.NewEngine()
	for i := 0; i < 500; i++ {
		e.Step(0, 0.01)
	}
	if rpm := e.RPM(); math.Abs(rpm-800) > 80 {
		t.Errorf("idle rpm = %.1f", rpm)
	}
	if e.Stalled {
		t.Error("engine stalled at idle")
	}
}

func TestStarterSpinsUpToIdle(t *testing.T) {
	e := drivetrain.NewEngine()
	e.FlyingStart = false
	e.Stop()
	e.AngularVelocity = 0
	e.Start()
	if !e.Starting() {
		t.Fatal("starter not engaged")
	}
	for i := 0; i < 50; i++ {
		e.Step(0, 0.01)
	}
	if math.Abs(e.AngularVelocity-e.IdleAV()) > 0.05*e.IdleAV() {
		t.Errorf("av after start = %.2f, want %.2f", e.AngularVelocity, e.IdleAV())
	}
}

func TestStall(t *testing.T) {
	e := drivetrain.NewEngine()
	e.AngularVelocity = e.IdleAV() * 0.3
	e.Step(1, 0.01)
	if !e.Stalled {
		t.Fatal("expected stall below 40% idle")
	}
	if e.GeneratedTorque != 0 {
		t.Errorf("stalled engine generated %.2f", e.GeneratedTorque)
	}

	e.StallingEnabled = false
	e.AngularVelocity = e.IdleAV() * 0.3
	e.Step(1, 0.01)
	if e.Stalled || e.GeneratedTorque <= 0 {
		t.Errorf("stalled=%v torque=%.2f with stalling disabled", e.Stalled, e.GeneratedTorque)
	}
}

func TestIgnitionOff(t *testing.T) {
	e := drivetrain.NewEngine()
	e.Stop()
	for i := 0; i < 300; i++ {
		e.Step(1, 0.01)
		if e.GeneratedTorque != 0 {
			t.Fatalf("generated %.2f with ignition off", e.GeneratedTorque)
		}
	}
	if e.AngularVelocity >= e.IdleAV() {
		t.Errorf("engine did not spin down: %.2f", e.AngularVelocity)
	}
}

func TestElectricMotor(t *testing.T) {
	m := drivetrain.NewElectricMotor()
	m.Step(1, 0.01)
	if m.GeneratedTorque <= 0 || math.IsInf(m.GeneratedTorque, 0) {
		t.Fatalf("torque from standstill = %v", m.GeneratedTorque)
	}
	for i := 0; i < 1000; i++ {
		m.Step(1, 0.01)
	}
	if m.Stalled || m.RevLimiterActive {
		t.Error("electric motor should neither stall nor hit a limiter")
	}
	if m.AngularVelocity > m.RevLimiterAV()*1.05 {
		t.Errorf("av %.2f above cap", m.AngularVelocity)
	}
}

func TestPeakTorqueAndPower(t *testing.T) {
	e := drivetrain.NewEngine()
	torque, rpm := e.PeakTorque()
	if math.Abs(torque-353.527) > 0.01 || math.Abs(rpm-1880) > 1e-6 {
		t.Errorf("peak torque = %.3f @ %.1f", torque, rpm)
	}
	power, rpm := e.PeakPower()
	if math.Abs(power-120) > 1e-9 || math.Abs(rpm-3760) > 1e-6 {
		t.Errorf("peak power = %.3f @ %.1f", power, rpm)
	}
}

func TestEngineValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*drivetrain.Engine)
		ok     bool
	}{
		{"default", func(*drivetrain.Engine) {}, true},
		{"no inertia", func(e *drivetrain.Engine) { e.Inertia = 0 }, false},
		{"no power", func(e *drivetrain.Engine) { e.MaxPower = 0 }, false},
		{"limiter below idle", func(e *drivetrain.Engine) { e.RevLimiterRPM = 500 }, false},
		{"empty curve", func(e *drivetrain.Engine) { e.PowerCurve = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := drivetrain.NewEngine()
			tt.mutate(e)
			if err := e.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestUnits(t *testing.T) {
	if got := drivetrain.AngularVelocityToRPM(drivetrain.RPMToAngularVelocity(1234)); math.Abs(got-1234) > 1e-9 {
		t.Errorf("rpm round trip = %v", got)
	}
	if got := drivetrain.PowerToTorque(0, 1); got != 1000 {
		t.Errorf("torque at standstill = %v", got)
	}
	if got := drivetrain.TorqueToPower(100, drivetrain.PowerToTorque(100, 50)); math.Abs(got-50) > 1e-9 {
		t.Errorf("power round trip = %v", got)
	}
}
