package ground

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrUnknownShape = errors.New("ground: unknown shape")

// ShapeSpec describes one terrain shape in a config file. Only the fields
// relevant to Kind are read.
type ShapeSpec struct {
	Kind    string  `yaml:"kind"`
	Name    string  `yaml:"name,omitempty"`
	Surface Surface `yaml:"surface"`

	// flat
	Height float64 `yaml:"height,omitempty"`
	// slope, degrees rising along +z
	Angle float64 `yaml:"angle,omitempty"`
	// box
	Min [3]float64 `yaml:"min,omitempty"`
	Max [3]float64 `yaml:"max,omitempty"`
	// bumps
	Length     float64 `yaml:"length,omitempty"`
	Width      float64 `yaml:"width,omitempty"`
	Amplitude  float64 `yaml:"amplitude,omitempty"`
	Wavelength float64 `yaml:"wavelength,omitempty"`
	Cell       float64 `yaml:"cell,omitempty"`
}

type Spec struct {
	Shapes []ShapeSpec `yaml:"shapes"`
}

// DefaultSpec is flat asphalt at y = 0.
func DefaultSpec() Spec {
	return Spec{Shapes: []ShapeSpec{{Kind: "flat", Surface: DefaultSurface()}}}
}

// Build turns the spec into a Terrain.
func (s Spec) Build() (*Terrain, error) {
	t := NewTerrain()
	for i, sh := range s.Shapes {
		c, err := sh.build()
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		t.Add(c)
	}
	return t, nil
}

func (s ShapeSpec) build() (Caster, error) {
	surface := s.Surface
	if surface.Name == "" {
		surface = DefaultSurface()
	}
	switch s.Kind {
	case "flat":
		p := Flat(s.Height, surface)
		p.Name = s.name("flat")
		return p, nil
	case "slope":
		p := Slope(s.Angle, surface)
		p.Name = s.name("slope")
		return p, nil
	case "box":
		lo, hi := mgl64.Vec3(s.Min), mgl64.Vec3(s.Max)
		if lo.X() > hi.X() || lo.Y() > hi.Y() || lo.Z() > hi.Z() {
			return nil, fmt.Errorf("%w: box min %v above max %v", ErrUnknownShape, s.Min, s.Max)
		}
		return &Box{Name: s.name("box"), Min: lo, Max: hi, Surface: surface}, nil
	case "bumps":
		if s.Cell <= 0 || s.Wavelength <= 0 || s.Length <= 0 || s.Width <= 0 {
			return nil, fmt.Errorf("%w: bumps need positive length, width, wavelength and cell", ErrUnknownShape)
		}
		h := Bumps(s.Length, s.Width, s.Amplitude, s.Wavelength, s.Cell, surface)
		h.Name = s.name("bumps")
		return h, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownShape, s.Kind)
}

func (s ShapeSpec) name(fallback string) string {
	if s.Name != "" {
		return s.Name
	}
	return fallback
}
