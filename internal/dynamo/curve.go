package dynamo

import (
	"math"
	"sort"
)

// Key is one sample of a Curve.
type Key struct {
	T float64 `yaml:"t" json:"t"`
	V float64 `yaml:"v" json:"v"`
}

// Curve is a keyframed function evaluated by linear interpolation.
// Inputs outside the key range clamp to the first or last value.
type Curve []Key

// NewCurve returns a curve with its keys sorted by T.
func NewCurve(keys ...Key) Curve {
	c := make(Curve, len(keys))
	copy(c, keys)
	sort.Slice(c, func(i, j int) bool { return c[i].T < c[j].T })
	return c
}

// LinearCurve maps [0, 1] onto itself.
func LinearCurve() Curve {
	return Curve{{0, 0}, {1, 1}}
}

func (c Curve) Evaluate(t float64) float64 {
	n := len(c)
	switch {
	case n == 0:
		return 0
	case t <= c[0].T || math.IsNaN(t):
		return c[0].V
	case t >= c[n-1].T:
		return c[n-1].V
	}

	i := sort.Search(n, func(i int) bool { return c[i].T > t })
	k0, k1 := c[i-1], c[i]
	span := k1.T - k0.T
	if span <= 0 {
		return k1.V
	}
	frac := (t - k0.T) / span
	return k0.V + (k1.V-k0.V)*frac
}

// Max returns the largest key value.
func (c Curve) Max() float64 {
	if len(c) == 0 {
		return 0
	}
	m := c[0].V
	for _, k := range c[1:] {
		if k.V > m {
			m = k.V
		}
	}
	return m
}
