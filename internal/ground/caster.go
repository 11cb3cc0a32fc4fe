package ground

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/friction"
)

// Surface describes what a wheel touches.
type Surface struct {
	Name     string          `yaml:"name"`
	Friction float64         `yaml:"friction"`
	Preset   friction.Preset `yaml:"preset"`
}

func DefaultSurface() Surface {
	return Surface{Name: "asphalt", Friction: 1, Preset: friction.Asphalt}
}

// Hit is the result of a successful shape cast.
type Hit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
	Surface  Surface
	Shape    string
}

// Caster answers sphere casts against the world. A radius of zero is a ray.
type Caster interface {
	Cast(origin, dir mgl64.Vec3, maxDist, radius float64) (Hit, bool)
}

// Terrain is a set of shapes; a cast returns the nearest hit among them.
type Terrain struct {
	Shapes []Caster
}

func NewTerrain(shapes ...Caster) *Terrain {
	return &Terrain{Shapes: shapes}
}

func (t *Terrain) Add(c Caster) { t.Shapes = append(t.Shapes, c) }

func (t *Terrain) Cast(origin, dir mgl64.Vec3, maxDist, radius float64) (Hit, bool) {
	var best Hit
	found := false
	for _, s := range t.Shapes {
		h, ok := s.Cast(origin, dir, maxDist, radius)
		if !ok {
			continue
		}
		if !found || h.Distance < best.Distance {
			best = h
			found = true
		}
	}
	return best, found
}
