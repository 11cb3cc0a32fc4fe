package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/vehicle"
)

// Camera orbits the origin looking at it.
type Camera struct {
	Distance float64
	Zoom     float64
	// Yaw and Pitch are the orbit angles in radians.
	Yaw, Pitch float64
	Near       float64
}

// NewCamera looks at the car from behind, left and above.
func NewCamera() *Camera {
	return &Camera{Distance: 9, Zoom: 1, Yaw: -0.6, Pitch: 0.35, Near: 0.1}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -1.4, 1.4)
}
func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view maps a world point into camera space, +z toward the viewer.
func (c *Camera) view(p mgl64.Vec3) mgl64.Vec3 {
	rot := mgl64.QuatRotate(-c.Pitch, mgl64.Vec3{1, 0, 0}).Mul(mgl64.QuatRotate(math.Pi-c.Yaw, mgl64.Vec3{0, 1, 0}))
	return rot.Rotate(p)
}

// Project converts a world point to canvas pixels. It returns the pixel,
// the camera-space depth and whether the pixel is on screen.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	v := c.view(p)
	if v.Z() >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - v.Z()) * c.Zoom
	pScale := float64(min(sw, sh)) / 8
	sx := int(v.X()*scale*pScale) + sw/2
	sy := int(-v.Y()*scale*pScale) + sh/2
	return sx, sy, v.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }

// AddBox adds the twelve edges of a box of the given size.
func (w *Wireframe) AddBox(center, size mgl64.Vec3, rot mgl64.Quat) {
	h := size.Mul(0.5)
	var v [8]mgl64.Vec3
	for i := range v {
		corner := mgl64.Vec3{h.X(), h.Y(), h.Z()}
		if i&1 != 0 {
			corner[0] = -corner[0]
		}
		if i&2 != 0 {
			corner[1] = -corner[1]
		}
		if i&4 != 0 {
			corner[2] = -corner[2]
		}
		v[i] = center.Add(rot.Rotate(corner))
	}
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				w.AddEdge(v[i], v[i|bit])
			}
		}
	}
}

// AddWheel adds a wheel outline of the given radius in the plane spanned
// by fwd and up.
func (w *Wireframe) AddWheel(center, fwd, up mgl64.Vec3, radius float64) {
	const segments = 10
	prev := center.Add(fwd.Mul(radius))
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		p := center.Add(fwd.Mul(radius * math.Cos(a))).Add(up.Mul(radius * math.Sin(a)))
		w.AddEdge(prev, p)
		prev = p
	}
}

// CarWireframe draws v relative to its own position and heading, so roll,
// pitch, steering and suspension travel are what move on screen.
func CarWireframe(v *vehicle.Vehicle) *Wireframe {
	wf := NewWireframe()
	rot := v.Body.Rotation()
	fwd := rot.Rotate(mgl64.Vec3{0, 0, 1})
	yaw := mgl64.QuatRotate(math.Atan2(fwd.X(), fwd.Z()), mgl64.Vec3{0, 1, 0}).Inverse()
	origin := v.Body.Position()
	local := func(p mgl64.Vec3) mgl64.Vec3 { return yaw.Rotate(p.Sub(origin)) }

	bodyRot := yaw.Mul(rot)
	wf.AddBox(mgl64.Vec3{}, mgl64.Vec3(v.Config.Body.Size), bodyRot)

	for _, w := range v.Wheels {
		steer := bodyRot.Mul(mgl64.QuatRotate(mgl64.DegToRad(w.SteerAngle), mgl64.Vec3{0, 1, 0}))
		wf.AddWheel(local(w.Center()), steer.Rotate(mgl64.Vec3{0, 0, 1}), steer.Rotate(mgl64.Vec3{0, 1, 0}), w.Radius)
		if w.Grounded() {
			wf.AddPoint(local(w.Contact.Point))
		}
	}
	return wf
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe far edges first.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.PixelWidth(), c.PixelHeight()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}
