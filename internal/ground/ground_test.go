package ground

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/friction"
)

const (
	wheelRadius = 0.33
	wheelWidth  = 0.25
	maxLength   = 0.3
)

func vecNear(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func pose(anchor mgl64.Vec3) Pose {
	return Pose{Anchor: anchor, Rotation: mgl64.QuatIdent()}
}

func TestPlaneRayCast(t *testing.T) {
	p := Flat(0, DefaultSurface())
	h, ok := p.Cast(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, -1, 0}, 5, 0)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(h.Distance-2) > 1e-12 {
		t.Errorf("distance = %v, want 2", h.Distance)
	}
	if !vecNear(h.Point, mgl64.Vec3{1, 0, 3}, 1e-12) {
		t.Errorf("point = %v", h.Point)
	}
}

func TestPlaneSphereCast(t *testing.T) {
	p := Flat(0, DefaultSurface())
	h, ok := p.Cast(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -1, 0}, 5, 0.5)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(h.Distance-1.5) > 1e-12 {
		t.Errorf("distance = %v, want 1.5", h.Distance)
	}
	if math.Abs(h.Point.Y()) > 1e-12 {
		t.Errorf("contact should lie on the plane, got %v", h.Point)
	}
}

func TestPlaneMisses(t *testing.T) {
	p := Flat(0, DefaultSurface())
	tests := []struct {
		name   string
		origin mgl64.Vec3
		dir    mgl64.Vec3
		max    float64
	}{
		{"too short", mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -1, 0}, 1},
		{"pointing away", mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 1, 0}, 10},
		{"below plane", mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -1, 0}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := p.Cast(tt.origin, tt.dir, tt.max, 0); ok {
				t.Error("expected miss")
			}
		})
	}
}

func TestBoxCast(t *testing.T) {
	b := &Box{Name: "curb", Min: mgl64.Vec3{-1, -1, 0}, Max: mgl64.Vec3{1, 0.1, 1}, Surface: DefaultSurface()}

	h, ok := b.Cast(mgl64.Vec3{0, 1, 0.5}, mgl64.Vec3{0, -1, 0}, 5, 0)
	if !ok {
		t.Fatal("expected top hit")
	}
	if math.Abs(h.Distance-0.9) > 1e-12 || !vecNear(h.Normal, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("hit = %+v", h)
	}

	h, ok = b.Cast(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 1}, 5, 0)
	if !ok {
		t.Fatal("expected face hit")
	}
	if math.Abs(h.Distance-1) > 1e-12 || !vecNear(h.Normal, mgl64.Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("hit = %+v", h)
	}

	if _, ok := b.Cast(mgl64.Vec3{5, 1, 0.5}, mgl64.Vec3{0, -1, 0}, 5, 0); ok {
		t.Error("expected miss beside the box")
	}
}

func TestHeightfieldCast(t *testing.T) {
	hf := &Heightfield{
		Name:     "ramp",
		CellSize: 1,
		Heights:  [][]float64{{0, 0, 0}, {0.5, 0.5, 0.5}, {1, 1, 1}},
		Surface:  DefaultSurface(),
	}
	if got := hf.Height(1, 1.5); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("Height = %v, want 0.75", got)
	}

	h, ok := hf.Cast(mgl64.Vec3{1, 3, 1}, mgl64.Vec3{0, -1, 0}, 5, 0)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(h.Point.Y()-0.5) > 1e-6 || math.Abs(h.Distance-2.5) > 1e-6 {
		t.Errorf("hit = %+v", h)
	}
	if h.Normal.Z() >= 0 {
		t.Errorf("normal should lean against the rise, got %v", h.Normal)
	}
}

func TestTerrainNearest(t *testing.T) {
	low := Flat(0, Surface{Name: "ice", Friction: 0.2, Preset: friction.Ice})
	high := &Box{Name: "step", Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 0.2, 1}, Surface: DefaultSurface()}
	terr := NewTerrain(low, high)

	h, ok := terr.Cast(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}, 5, 0)
	if !ok || h.Shape != "step" {
		t.Fatalf("expected step hit, got %+v %v", h, ok)
	}
	h, ok = terr.Cast(mgl64.Vec3{3, 1, 0}, mgl64.Vec3{0, -1, 0}, 5, 0)
	if !ok || h.Shape != "flat" || h.Surface.Preset != friction.Ice {
		t.Fatalf("expected flat ice hit, got %+v %v", h, ok)
	}
}

func TestProbeFlatGround(t *testing.T) {
	terr := Flat(0, DefaultSurface())
	anchor := mgl64.Vec3{0, 0.6, 0}

	fan := DefaultProbe().Cast(terr, pose(anchor), wheelRadius, wheelWidth, maxLength, 0)
	single := Probe{Mode: Single, Offset: 1.1}.Cast(terr, pose(anchor), wheelRadius, wheelWidth, maxLength, 0)

	if !fan.Hit || !single.Hit {
		t.Fatal("expected both probes to hit")
	}
	if math.Abs(fan.Distance-0.6) > 1e-9 || math.Abs(single.Distance-0.6) > 1e-9 {
		t.Errorf("distances fan=%v single=%v, want 0.6", fan.Distance, single.Distance)
	}
	if math.Abs(fan.HubDistance-wheelRadius) > 1e-9 {
		t.Errorf("hub distance = %v, want radius", fan.HubDistance)
	}
}

func TestProbeFanSeesCurbEdge(t *testing.T) {
	terr := NewTerrain(
		Flat(0, DefaultSurface()),
		&Box{Name: "curb", Min: mgl64.Vec3{-2, -1, 0.1}, Max: mgl64.Vec3{2, 0.1, 3}, Surface: DefaultSurface()},
	)
	anchor := mgl64.Vec3{0, 0.6, 0}

	fan := DefaultProbe().Cast(terr, pose(anchor), wheelRadius, wheelWidth, maxLength, 0)
	single := Probe{Mode: Single, Offset: 1.1}.Cast(terr, pose(anchor), wheelRadius, wheelWidth, maxLength, 0)

	if math.Abs(single.Distance-0.6) > 1e-9 {
		t.Fatalf("single ray should only see the road, got %v", single.Distance)
	}
	if fan.Distance >= single.Distance-0.03 {
		t.Errorf("fan distance %v should be well above the road (single %v)", fan.Distance, single.Distance)
	}
	// exact tire-on-edge contact
	exact := 0.5 - math.Sqrt(wheelRadius*wheelRadius-0.01) + wheelRadius
	if fan.Distance < exact-1e-9 {
		t.Errorf("fan distance %v closer than geometric contact %v", fan.Distance, exact)
	}
	if fan.Shape != "curb" {
		t.Errorf("fan should contact the curb, got %q", fan.Shape)
	}
}

func TestProbeMissWhenOutOfReach(t *testing.T) {
	terr := Flat(-5, DefaultSurface())
	s := DefaultProbe().Cast(terr, pose(mgl64.Vec3{0, 0.6, 0}), wheelRadius, wheelWidth, maxLength, 0)
	if s.Hit {
		t.Errorf("expected miss, got %+v", s)
	}
}

func TestProbeFollowsBodyRotation(t *testing.T) {
	terr := Flat(0, DefaultSurface())
	p := Pose{
		Anchor:   mgl64.Vec3{0, 0.6, 0},
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(10), mgl64.Vec3{0, 0, 1}),
	}
	s := DefaultProbe().Cast(terr, p, wheelRadius, wheelWidth, maxLength, 0)
	if !s.Hit {
		t.Fatal("expected hit")
	}
	// rolled 10 degrees: the probe runs along the body's down axis
	want := 0.6/math.Cos(mgl64.DegToRad(10)) - wheelRadius + wheelRadius
	if math.Abs(s.Distance-want) > 0.02 {
		t.Errorf("distance = %v, want about %v", s.Distance, want)
	}
}

func TestPoseAxesSteer(t *testing.T) {
	tests := []struct {
		steer      float64
		fwd, right mgl64.Vec3
	}{
		{0, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}},
		{90, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, -1}},
		{-90, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		p := Pose{Rotation: mgl64.QuatIdent(), Steer: tt.steer}
		up, fwd, right := p.Axes()
		if !vecNear(up, mgl64.Vec3{0, 1, 0}, 1e-9) {
			t.Errorf("steer %v: up = %v", tt.steer, up)
		}
		if !vecNear(fwd, tt.fwd, 1e-9) {
			t.Errorf("steer %v: fwd = %v, want %v", tt.steer, fwd, tt.fwd)
		}
		if !vecNear(right, tt.right, 1e-9) {
			t.Errorf("steer %v: right = %v, want %v", tt.steer, right, tt.right)
		}
	}
}

func TestSpecBuild(t *testing.T) {
	spec := Spec{Shapes: []ShapeSpec{
		{Kind: "flat", Height: -1},
		{Kind: "box", Name: "curb", Min: [3]float64{-1, -1, 2}, Max: [3]float64{1, 0.1, 3}, Surface: Surface{Name: "ice", Friction: 0.5, Preset: friction.Ice}},
		{Kind: "bumps", Length: 10, Width: 4, Amplitude: 0.05, Wavelength: 2, Cell: 0.25},
	}}
	terrain, err := spec.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(terrain.Shapes) != 3 {
		t.Fatalf("expected 3 shapes, got %d", len(terrain.Shapes))
	}

	h, ok := terrain.Cast(mgl64.Vec3{0, 2, 2.5}, mgl64.Vec3{0, -1, 0}, 5, 0)
	if !ok || h.Shape != "curb" || h.Surface.Preset != friction.Ice {
		t.Errorf("expected to land on the curb, got %+v ok=%v", h, ok)
	}
	if h, ok := terrain.Cast(mgl64.Vec3{50, 2, 50}, mgl64.Vec3{0, -1, 0}, 5, 0); !ok || h.Surface.Name != "asphalt" {
		t.Errorf("unnamed surfaces should default to asphalt, got %+v", h)
	}
}

func TestSpecRejectsBadShapes(t *testing.T) {
	tests := []ShapeSpec{
		{Kind: "lava"},
		{Kind: "box", Min: [3]float64{1, 0, 0}},
		{Kind: "bumps", Length: 10, Width: 4},
	}
	for _, sh := range tests {
		if _, err := (Spec{Shapes: []ShapeSpec{sh}}).Build(); err == nil {
			t.Errorf("expected error for %+v", sh)
		}
	}
}
