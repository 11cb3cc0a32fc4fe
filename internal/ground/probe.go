package ground

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// Mode selects how many probes a wheel casts.
type Mode int

const (
	// Fan casts the central probe plus a fan around the axle.
	Fan Mode = iota
	// Single casts only the central probe.
	Single
)

func (m Mode) String() string {
	if m == Single {
		return "single"
	}
	return "fan"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "single":
		*m = Single
	default:
		*m = Fan
	}
	return nil
}

// Pose places a wheel's suspension anchor in the world.
type Pose struct {
	Anchor   mgl64.Vec3
	Rotation mgl64.Quat
	// Steer is the steer angle in degrees, positive turns right.
	Steer float64
}

// Axes returns the steered wheel's up, forward and right directions.
func (p Pose) Axes() (up, fwd, right mgl64.Vec3) {
	rot := p.Rotation.Mul(mgl64.QuatRotate(mgl64.DegToRad(p.Steer), mgl64.Vec3{0, 1, 0}))
	return rot.Rotate(mgl64.Vec3{0, 1, 0}), rot.Rotate(mgl64.Vec3{0, 0, 1}), rot.Rotate(mgl64.Vec3{1, 0, 0})
}

// ContactSample is one step's ground contact for one wheel.
type ContactSample struct {
	Hit    bool
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	// Distance runs from the anchor down to where the tire bottom would sit.
	Distance float64
	// HubDistance is the wheel center to contact point distance, at most the radius.
	HubDistance float64
	Surface     Surface
	Shape       string
}

type Probe struct {
	Mode Mode `yaml:"mode"`
	Rays int  `yaml:"rays"`
	// Spread is the half angle of the fan in degrees.
	Spread float64 `yaml:"spread"`
	// Offset raises the cast origin above the anchor, in wheel radii.
	Offset     float64 `yaml:"offset"`
	CastRadius float64 `yaml:"cast_radius"`
}

func DefaultProbe() Probe {
	return Probe{Mode: Fan, Rays: 20, Spread: 70, Offset: 1.1}
}

// Cast finds the ground point the tire would touch first as the wheel
// descends from its anchor. A single straight-down ray under-reports
// contact on curbs and slopes, so Fan mode also samples around the axle
// and keeps the hit that implies the highest wheel center.
func (p Probe) Cast(c Caster, pose Pose, radius, width, maxLength, minLength float64) ContactSample {
	if c == nil || radius <= 0 {
		return ContactSample{}
	}
	up, fwd, _ := pose.Axes()
	down := up.Mul(-1)

	offset := radius * p.Offset
	origin := pose.Anchor.Add(up.Mul(offset))
	reach := minLength + maxLength + radius

	var best ContactSample
	bestDepth := math.Inf(1)
	consider := func(h Hit) {
		rel := h.Point.Sub(pose.Anchor)
		hUp := rel.Dot(up)
		hFwd := rel.Dot(fwd) / radius
		if math.Abs(hFwd) > 1 {
			return
		}
		// wheel center depth that would just touch this point
		depth := -(hUp + radius*math.Cos(math.Asin(hFwd)))
		if depth < bestDepth {
			bestDepth = depth
			best = ContactSample{
				Hit:      true,
				Point:    h.Point,
				Normal:   h.Normal,
				Distance: depth + radius,
				Surface:  h.Surface,
				Shape:    h.Shape,
			}
		}
	}

	if h, ok := c.Cast(origin, down, offset+reach, p.CastRadius); ok {
		consider(h)
	}

	if p.Mode == Fan && p.Rays > 1 {
		fanLen := offset + maxLength + minLength + radius*2.2
		spread := mgl64.DegToRad(p.Spread)
		for i := 0; i < p.Rays; i++ {
			a := -spread + 2*spread*float64(i)/float64(p.Rays-1)
			dir := down.Mul(math.Cos(a)).Add(fwd.Mul(math.Sin(a)))
			if h, ok := c.Cast(origin, dir, fanLen, p.CastRadius); ok {
				consider(h)
			}
		}
	}

	if !best.Hit || best.Distance > reach {
		return ContactSample{}
	}

	centerDepth := lo.Clamp(best.Distance-radius, minLength, minLength+maxLength)
	center := pose.Anchor.Sub(up.Mul(centerDepth))
	best.HubDistance = math.Min(best.Point.Sub(center).Len(), radius)
	return best
}
