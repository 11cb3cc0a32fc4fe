package friction

import "math"

const (
	numKeys      = 20
	fineKeys     = 11
	fineStep     = 0.02
	coarseStart  = fineStep * fineKeys
	coarseStep   = 0.1
	peakSearchTo = 1.0
)

type key struct {
	t, v float64
}

// Curve is a sampled magic-formula tire curve.
// The zero value is not usable; build one with NewCurve or Get.
type Curve struct {
	B, C, D, E float64

	keys     [numKeys]key
	peak     float64
	peakSlip float64
}

// NewCurve samples D·sin(C·atan(B·t − E·(B·t − atan(B·t)))) on a grid that is
// finer below slip 0.22.
func NewCurve(b, c, d, e float64) Curve {
	cv := Curve{B: b, C: c, D: d, E: e}
	for i := range cv.keys {
		t := fineStep * float64(i)
		if i > fineKeys {
			t = coarseStart + coarseStep*float64(i-fineKeys)
		}
		cv.keys[i] = key{t: t, v: magic(b, c, d, e, t)}
	}
	cv.findPeak()
	return cv
}

func magic(b, c, d, e, t float64) float64 {
	bt := b * t
	return d * math.Sin(c*math.Atan(bt-e*(bt-math.Atan(bt))))
}

func (cv *Curve) findPeak() {
	best, bestSlip := 0.0, -1.0
	for _, k := range cv.keys {
		if k.t > peakSearchTo {
			break
		}
		if k.v > best {
			best, bestSlip = k.v, k.t
		}
	}
	if v := cv.Evaluate(peakSearchTo); v > best {
		best, bestSlip = v, peakSearchTo
	}
	if bestSlip <= 0 {
		bestSlip = 1
	}
	cv.peak = best
	cv.peakSlip = bestSlip
}

// Evaluate returns the normalized force at |slip|.
func (cv Curve) Evaluate(slip float64) float64 {
	x := math.Abs(slip)
	if math.IsNaN(x) {
		return 0
	}
	last := cv.keys[numKeys-1]
	if x >= last.t {
		return last.v
	}

	var i int
	if x < coarseStart {
		i = int(x / fineStep)
	} else {
		i = fineKeys + int((x-coarseStart)/coarseStep)
	}
	if i > numKeys-2 {
		i = numKeys - 2
	}

	k0, k1 := cv.keys[i], cv.keys[i+1]
	frac := (x - k0.t) / (k1.t - k0.t)
	return k0.v + (k1.v-k0.v)*frac
}

// Peak is the largest value of the curve on [0, 1].
func (cv Curve) Peak() float64 { return cv.peak }

// PeakSlip is the slip at which Peak occurs.
func (cv Curve) PeakSlip() float64 { return cv.peakSlip }

// WithStiffness returns a copy with B scaled by k.
func (cv Curve) WithStiffness(k float64) Curve {
	if k == 1 {
		return cv
	}
	return NewCurve(cv.B*k, cv.C, cv.D, cv.E)
}

// Equal reports whether both curves share the same shape parameters.
func (cv Curve) Equal(other Curve) bool {
	return cv.B == other.B && cv.C == other.C && cv.D == other.D && cv.E == other.E
}

// Samples returns n evenly spaced (slip, value) pairs on [0, max].
func (cv Curve) Samples(n int, max float64) (slips, values []float64) {
	if n < 2 {
		n = 2
	}
	slips = make([]float64, n)
	values = make([]float64, n)
	for i := 0; i < n; i++ {
		s := max * float64(i) / float64(n-1)
		slips[i] = s
		values[i] = cv.Evaluate(s)
	}
	return slips, values
}
