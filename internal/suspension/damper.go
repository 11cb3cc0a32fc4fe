package suspension

// Damper is a two-slope bump/rebound damper. Velocity is positive while
// the spring compresses.
type Damper struct {
	BumpRate        float64 `yaml:"bump_rate"`
	ReboundRate     float64 `yaml:"rebound_rate"`
	SlowBump        float64 `yaml:"slow_bump"`
	FastBump        float64 `yaml:"fast_bump"`
	BumpDivision    float64 `yaml:"bump_division"`
	SlowRebound     float64 `yaml:"slow_rebound"`
	FastRebound     float64 `yaml:"fast_rebound"`
	ReboundDivision float64 `yaml:"rebound_division"`

	Force float64 `yaml:"-"`
}

func DefaultDamper() Damper {
	return Damper{
		BumpRate:        3000,
		ReboundRate:     3000,
		SlowBump:        1.4,
		FastBump:        0.6,
		BumpDivision:    0.06,
		SlowRebound:     1.6,
		FastRebound:     0.6,
		ReboundDivision: 0.05,
	}
}

func (d *Damper) Update(velocity float64) float64 {
	switch {
	case velocity > 0:
		d.Force = twoSlope(velocity, d.BumpDivision, d.SlowBump, d.FastBump) * d.BumpRate
	case velocity < 0:
		d.Force = -twoSlope(-velocity, d.ReboundDivision, d.SlowRebound, d.FastRebound) * d.ReboundRate
	default:
		d.Force = 0
	}
	return d.Force
}

func twoSlope(v, div, slow, fast float64) float64 {
	if v < div {
		return v * slow
	}
	return div*slow + (v-div)*fast
}
