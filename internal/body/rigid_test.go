package body

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// vecNear compares componentwise with an absolute tolerance.
func vecNear(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func newTestBox(t *testing.T) *Rigid {
	t.Helper()
	b, err := NewBox(1200, mgl64.Vec3{1.8, 1.2, 4.2}, "rk4")
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestFreeFall(t *testing.T) {
	b := newTestBox(t)
	for i := 0; i < 100; i++ {
		b.Step(float64(i)*0.01, 0.01)
	}
	want := -0.5 * 9.81
	if got := b.Position().Y(); math.Abs(got-want) > 1e-9 {
		t.Errorf("fell to %.6f, want %.6f", got, want)
	}
	if b.AngularVelocity().Len() != 0 {
		t.Errorf("free fall picked up spin %v", b.AngularVelocity())
	}
}

func TestForceAtCenterDoesNotRotate(t *testing.T) {
	b := newTestBox(t)
	b.Gravity = mgl64.Vec3{}
	b.ApplyForceAt(b.Position(), mgl64.Vec3{0, 0, 1200})
	b.Step(0, 0.1)
	if got := b.Velocity().Z(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("vz = %v", got)
	}
	if b.AngularVelocity().Len() > 1e-12 {
		t.Errorf("unexpected spin %v", b.AngularVelocity())
	}
}

func TestOffsetForceSpins(t *testing.T) {
	b := newTestBox(t)
	b.Gravity = mgl64.Vec3{}
	// pushing the right side forward yaws about -y
	b.ApplyForceAt(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 100})
	b.Step(0, 0.01)
	w := b.AngularVelocity()
	if w.Y() >= 0 {
		t.Errorf("yaw rate %v, want negative", w.Y())
	}
	want := -100.0 / b.Inertia.Y() * 0.01
	if math.Abs(w.Y()-want) > 1e-9 {
		t.Errorf("yaw rate %v, want %v", w.Y(), want)
	}
}

func TestRotationStaysUnit(t *testing.T) {
	b := newTestBox(t)
	b.Gravity = mgl64.Vec3{}
	b.SetAngularVelocity(mgl64.Vec3{1, 2, 0.5})
	for i := 0; i < 1000; i++ {
		b.Step(float64(i)*0.01, 0.01)
	}
	if l := b.Rotation().Len(); math.Abs(l-1) > 1e-9 {
		t.Errorf("|q| = %v", l)
	}
	if !b.State.IsValid() {
		t.Error("state went invalid")
	}
}

func TestVelocityAtPoint(t *testing.T) {
	b := newTestBox(t)
	b.SetVelocity(mgl64.Vec3{0, 0, 2})
	b.SetAngularVelocity(mgl64.Vec3{0, 1, 0})
	v := b.VelocityAtPoint(mgl64.Vec3{1, 0, 0})
	if !vecNear(v, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("v = %v", v)
	}
}

func TestTransforms(t *testing.T) {
	b := newTestBox(t)
	b.SetPosition(mgl64.Vec3{1, 2, 3})
	b.SetRotation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))
	if f := b.Forward(); !vecNear(f, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("forward = %v", f)
	}
	p := b.TransformPoint(mgl64.Vec3{0, 0, 1})
	if !vecNear(p, mgl64.Vec3{2, 2, 3}, 1e-12) {
		t.Errorf("point = %v", p)
	}
	if d := b.InverseTransformDirection(mgl64.Vec3{1, 0, 0}); !vecNear(d, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("inverse = %v", d)
	}
}

func TestAccumulatorsClearAfterStep(t *testing.T) {
	b := newTestBox(t)
	b.ApplyForce(mgl64.Vec3{1, 2, 3})
	b.ApplyTorque(mgl64.Vec3{4, 5, 6})
	b.Step(0, 0.01)
	f, tq := b.AccumulatedForce()
	if f.Len() != 0 || tq.Len() != 0 {
		t.Errorf("accumulators not cleared: %v %v", f, tq)
	}
}

func TestNewBoxRejectsBadInput(t *testing.T) {
	if _, err := NewBox(0, mgl64.Vec3{1, 1, 1}, "rk4"); !errors.Is(err, ErrInvalidBody) {
		t.Errorf("zero mass: %v", err)
	}
	if _, err := NewBox(1, mgl64.Vec3{1, 0, 1}, "rk4"); !errors.Is(err, ErrInvalidBody) {
		t.Errorf("flat box: %v", err)
	}
	if _, err := NewBox(1, mgl64.Vec3{1, 1, 1}, "midpoint"); err == nil {
		t.Error("unknown integrator accepted")
	}
}
