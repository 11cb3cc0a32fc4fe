package suspension

import (
	"math"

	"github.com/samber/lo"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

const minDt = 1e-4

// State is the extension state of a spring, a pure function of its length.
type State int

const (
	Normal State = iota
	OverExtended
	BottomedOut
)

func (s State) String() string {
	switch s {
	case OverExtended:
		return "over_extended"
	case BottomedOut:
		return "bottomed_out"
	default:
		return "normal"
	}
}

type Spring struct {
	MaxLength float64 `yaml:"max_length"`
	MinLength float64 `yaml:"min_length"`
	MaxForce  float64 `yaml:"max_force"`
	// ExtensionSpeed limits how fast the spring may extend, in MaxLengths per
	// second. Zero disables the limit.
	ExtensionSpeed float64      `yaml:"extension_speed"`
	ForceCurve     dynamo.Curve `yaml:"force_curve,omitempty"`

	Length              float64 `yaml:"-"`
	PrevLength          float64 `yaml:"-"`
	CompressionVelocity float64 `yaml:"-"`
	Force               float64 `yaml:"-"`
	State               State   `yaml:"-"`
}

func DefaultSpring() Spring {
	return Spring{
		MaxLength:      0.3,
		MaxForce:       16000,
		ExtensionSpeed: 6,
		ForceCurve:     dynamo.LinearCurve(),
		Length:         0.3,
		PrevLength:     0.3,
	}
}

// Progressive returns a rising-rate force curve x^exponent.
func Progressive(exponent float64) dynamo.Curve {
	keys := make([]dynamo.Key, 11)
	for i := range keys {
		x := float64(i) / 10
		keys[i] = dynamo.Key{T: x, V: math.Pow(x, exponent)}
	}
	return dynamo.NewCurve(keys...)
}

// Update moves the spring to the length implied by contactDistance and
// reports whether the wheel still counts as grounded. Without contact the
// spring extends toward MaxLength, no faster than ExtensionSpeed allows.
func (s *Spring) Update(contactDistance, radius float64, grounded bool, dt float64) bool {
	dt = math.Max(dt, minDt)
	s.PrevLength = s.Length

	target := s.MaxLength
	if grounded && !math.IsNaN(contactDistance) {
		target = contactDistance - radius - s.MinLength
	} else {
		grounded = false
	}
	if s.ExtensionSpeed > 0 {
		target = math.Min(target, s.PrevLength+s.MaxLength*s.ExtensionSpeed*dt)
	}
	s.Length = lo.Clamp(target, 0, s.MaxLength)

	switch {
	case s.Length <= 0:
		s.Length = 0
		s.State = BottomedOut
	case s.Length >= s.MaxLength:
		s.Length = s.MaxLength
		s.State = OverExtended
		grounded = false
	default:
		s.State = Normal
	}

	s.CompressionVelocity = (s.PrevLength - s.Length) / dt

	s.Force = 0
	if grounded && s.MaxLength > 0 {
		s.Force = s.MaxForce * s.curve().Evaluate((s.MaxLength-s.Length)/s.MaxLength)
	}
	return grounded
}

// Compression is the fraction of travel used, 0 fully extended, 1 bottomed out.
func (s *Spring) Compression() float64 {
	if s.MaxLength <= 0 {
		return 0
	}
	return (s.MaxLength - s.Length) / s.MaxLength
}

func (s *Spring) Reset() {
	s.Length = s.MaxLength
	s.PrevLength = s.MaxLength
	s.CompressionVelocity = 0
	s.Force = 0
	s.State = OverExtended
}

func (s *Spring) curve() dynamo.Curve {
	if len(s.ForceCurve) == 0 {
		return dynamo.LinearCurve()
	}
	return s.ForceCurve
}
