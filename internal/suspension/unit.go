package suspension

import "math"

// Unit is one corner's spring and damper.
type Unit struct {
	Spring Spring `yaml:"spring"`
	Damper Damper `yaml:"damper"`

	Load     float64 `yaml:"-"`
	grounded bool
}

func NewUnit(spring Spring, damper Damper) *Unit {
	spring.Length = spring.MaxLength
	spring.PrevLength = spring.MaxLength
	return &Unit{Spring: spring, Damper: damper}
}

// Update advances the unit one step and returns the non-negative load it
// pushes along the contact normal.
func (u *Unit) Update(contactDistance, radius float64, grounded bool, dt float64) (float64, State) {
	u.grounded = u.Spring.Update(contactDistance, radius, grounded, dt)
	if !u.grounded {
		u.Damper.Force = 0
		u.Load = 0
		return 0, u.Spring.State
	}

	damper := u.Damper.Update(u.Spring.CompressionVelocity)
	load := u.Spring.Force + damper
	if load < 0 || math.IsNaN(load) {
		load = 0
	}
	u.Load = load
	return u.Load, u.Spring.State
}

// Grounded reports whether the last update kept the wheel on the ground.
func (u *Unit) Grounded() bool { return u.grounded }

func (u *Unit) Reset() {
	u.Spring.Reset()
	u.Damper.Force = 0
	u.Load = 0
	u.grounded = false
}
