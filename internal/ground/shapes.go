package ground

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const castEpsilon = 1e-9

// Plane is an infinite one-sided plane.
type Plane struct {
	Name    string
	Point   mgl64.Vec3
	Normal  mgl64.Vec3
	Surface Surface
}

// NewPlane builds a plane through point; normal is normalized.
func NewPlane(name string, point, normal mgl64.Vec3, surface Surface) *Plane {
	return &Plane{Name: name, Point: point, Normal: normal.Normalize(), Surface: surface}
}

// Flat is the horizontal plane y = height.
func Flat(height float64, surface Surface) *Plane {
	return NewPlane("flat", mgl64.Vec3{0, height, 0}, mgl64.Vec3{0, 1, 0}, surface)
}

// Slope is a plane through the origin rising along +z by angle degrees.
func Slope(angle float64, surface Surface) *Plane {
	a := mgl64.DegToRad(angle)
	return NewPlane("slope", mgl64.Vec3{}, mgl64.Vec3{0, math.Cos(a), -math.Sin(a)}, surface)
}

func (p *Plane) Cast(origin, dir mgl64.Vec3, maxDist, radius float64) (Hit, bool) {
	n := p.Normal
	denom := dir.Dot(n)
	d0 := origin.Sub(p.Point).Dot(n)
	if d0 < 0 {
		return Hit{}, false
	}

	t := 0.0
	if d0 > radius {
		if denom >= -castEpsilon {
			return Hit{}, false
		}
		t = (d0 - radius) / -denom
	}
	if t > maxDist {
		return Hit{}, false
	}

	center := origin.Add(dir.Mul(t))
	point := center.Sub(n.Mul(center.Sub(p.Point).Dot(n)))
	return Hit{Point: point, Normal: n, Distance: t, Surface: p.Surface, Shape: p.Name}, true
}

// Box is an axis-aligned solid block, used for curbs, steps and split-friction strips.
type Box struct {
	Name    string
	Min     mgl64.Vec3
	Max     mgl64.Vec3
	Surface Surface
}

func (b *Box) Cast(origin, dir mgl64.Vec3, maxDist, radius float64) (Hit, bool) {
	lo := b.Min.Sub(mgl64.Vec3{radius, radius, radius})
	hi := b.Max.Add(mgl64.Vec3{radius, radius, radius})

	tNear, tFar := math.Inf(-1), math.Inf(1)
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < castEpsilon {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return Hit{}, false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tNear {
			tNear, axis, sign = t1, i, s
		}
		tFar = math.Min(tFar, t2)
		if tNear > tFar {
			return Hit{}, false
		}
	}
	// starting inside the block is a miss
	if axis < 0 || tNear < 0 || tNear > maxDist {
		return Hit{}, false
	}

	var n mgl64.Vec3
	n[axis] = sign
	point := origin.Add(dir.Mul(tNear)).Sub(n.Mul(radius))
	return Hit{Point: point, Normal: n, Distance: tNear, Surface: b.Surface, Shape: b.Name}, true
}

// Heightfield is a regular grid of heights over the xz plane.
// Heights[row][col] sits at (Origin.x + col*CellSize, Origin.z + row*CellSize).
type Heightfield struct {
	Name     string
	OriginX  float64
	OriginZ  float64
	CellSize float64
	Heights  [][]float64
	Surface  Surface
}

// Height returns the bilinear height at (x, z), clamped to the grid edge.
func (h *Heightfield) Height(x, z float64) float64 {
	rows := len(h.Heights)
	if rows == 0 || len(h.Heights[0]) == 0 {
		return 0
	}
	cols := len(h.Heights[0])

	fx := (x - h.OriginX) / h.CellSize
	fz := (z - h.OriginZ) / h.CellSize
	fx = math.Max(0, math.Min(fx, float64(cols-1)))
	fz = math.Max(0, math.Min(fz, float64(rows-1)))

	c0, r0 := int(fx), int(fz)
	c1, r1 := min(c0+1, cols-1), min(r0+1, rows-1)
	tx, tz := fx-float64(c0), fz-float64(r0)

	top := h.Heights[r0][c0]*(1-tx) + h.Heights[r0][c1]*tx
	bot := h.Heights[r1][c0]*(1-tx) + h.Heights[r1][c1]*tx
	return top*(1-tz) + bot*tz
}

// Normal estimates the surface normal by central differences.
func (h *Heightfield) Normal(x, z float64) mgl64.Vec3 {
	e := h.CellSize * 0.5
	dx := h.Height(x+e, z) - h.Height(x-e, z)
	dz := h.Height(x, z+e) - h.Height(x, z-e)
	return mgl64.Vec3{-dx, 2 * e, -dz}.Normalize()
}

func (h *Heightfield) Cast(origin, dir mgl64.Vec3, maxDist, radius float64) (Hit, bool) {
	gap := func(t float64) float64 {
		p := origin.Add(dir.Mul(t))
		return p.Y() - h.Height(p.X(), p.Z()) - radius
	}

	if origin.Y() < h.Height(origin.X(), origin.Z()) {
		return Hit{}, false
	}

	step := h.CellSize * 0.25
	if step <= 0 {
		return Hit{}, false
	}

	t := 0.0
	if gap(0) > 0 {
		prev, hit := 0.0, false
		for prev < maxDist {
			next := math.Min(prev+step, maxDist)
			if gap(next) <= 0 {
				lo, hi := prev, next
				for i := 0; i < 30; i++ {
					mid := 0.5 * (lo + hi)
					if gap(mid) > 0 {
						lo = mid
					} else {
						hi = mid
					}
				}
				t, hit = hi, true
				break
			}
			prev = next
		}
		if !hit {
			return Hit{}, false
		}
	}

	c := origin.Add(dir.Mul(t))
	point := mgl64.Vec3{c.X(), h.Height(c.X(), c.Z()), c.Z()}
	return Hit{
		Point:    point,
		Normal:   h.Normal(c.X(), c.Z()),
		Distance: t,
		Surface:  h.Surface,
		Shape:    h.Name,
	}, true
}

// Bumps builds a heightfield of sinusoidal bumps along z.
func Bumps(length, width, amplitude, wavelength, cell float64, surface Surface) *Heightfield {
	rows := int(length/cell) + 1
	cols := int(width/cell) + 1
	heights := make([][]float64, rows)
	for r := range heights {
		heights[r] = make([]float64, cols)
		z := float64(r) * cell
		for c := range heights[r] {
			heights[r][c] = amplitude * 0.5 * (1 - math.Cos(2*math.Pi*z/wavelength))
		}
	}
	return &Heightfield{
		Name:     "bumps",
		OriginX:  -width / 2,
		CellSize: cell,
		Heights:  heights,
		Surface:  surface,
	}
}
