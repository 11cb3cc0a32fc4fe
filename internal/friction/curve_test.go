package friction

import (
	"math"
	"testing"
)

func TestCurveZeroAtZeroSlip(t *testing.T) {
	for _, p := range Presets() {
		t.Run(p.String(), func(t *testing.T) {
			if v := Get(p).Evaluate(0); v != 0 {
				t.Errorf("Evaluate(0) = %v, want 0", v)
			}
		})
	}
}

func TestCurvePeakIsGlobalMax(t *testing.T) {
	for _, p := range Presets() {
		t.Run(p.String(), func(t *testing.T) {
			c := Get(p)
			atPeak := c.Evaluate(c.PeakSlip())
			if math.Abs(atPeak-c.Peak()) > 1e-9 {
				t.Errorf("Evaluate(PeakSlip) = %v, Peak = %v", atPeak, c.Peak())
			}
			for i := 0; i <= 2000; i++ {
				s := float64(i) / 2000
				if v := c.Evaluate(s); v > atPeak+1e-9 {
					t.Fatalf("Evaluate(%v) = %v exceeds peak %v at %v", s, v, atPeak, c.PeakSlip())
				}
			}
		})
	}
}

func TestCurveSymmetric(t *testing.T) {
	c := Get(Asphalt)
	for _, s := range []float64{0.01, 0.1, 0.35, 0.9, 3} {
		if c.Evaluate(s) != c.Evaluate(-s) {
			t.Errorf("Evaluate(%v) != Evaluate(%v)", s, -s)
		}
	}
}

func TestCurveDeterministic(t *testing.T) {
	a := NewCurve(9, 2.15, 0.933, 0.871)
	b := NewCurve(9, 2.15, 0.933, 0.871)
	for i := 0; i <= 300; i++ {
		s := float64(i) * 0.005
		if a.Evaluate(s) != b.Evaluate(s) {
			t.Fatalf("curves with equal parameters differ at %v", s)
		}
	}
	if !a.Equal(b) {
		t.Error("Equal() = false for identical parameters")
	}
}

func TestCurveMatchesFormulaAtKeys(t *testing.T) {
	c := NewCurve(9, 2.15, 0.933, 0.871)
	for _, s := range []float64{0.02, 0.1, 0.22, 0.52, 0.92} {
		want := magic(9, 2.15, 0.933, 0.871, s)
		if got := c.Evaluate(s); math.Abs(got-want) > 1e-9 {
			t.Errorf("Evaluate(%v) = %v, want %v", s, got, want)
		}
	}
}

func TestCurveConstantPastLastKey(t *testing.T) {
	c := Get(Gravel)
	if c.Evaluate(1.02) != c.Evaluate(50) {
		t.Error("curve should hold its last value past the last key")
	}
}

func TestAsphaltPeakSlip(t *testing.T) {
	c := Get(Asphalt)
	if c.PeakSlip() <= 0 || c.PeakSlip() > 0.3 {
		t.Errorf("asphalt peak slip = %v, want in (0, 0.3]", c.PeakSlip())
	}
	if c.Peak() < 0.9 || c.Peak() > 0.94 {
		t.Errorf("asphalt peak = %v, want close to D", c.Peak())
	}
}

func TestWithStiffness(t *testing.T) {
	c := Get(Street)
	soft := c.WithStiffness(0.5)
	if soft.B != c.B*0.5 {
		t.Errorf("B = %v, want %v", soft.B, c.B*0.5)
	}
	if soft.PeakSlip() <= c.PeakSlip() {
		t.Errorf("softer curve should peak later: %v <= %v", soft.PeakSlip(), c.PeakSlip())
	}
	if same := c.WithStiffness(1); !same.Equal(c) {
		t.Error("unit stiffness should return the same curve")
	}
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset(" Ice ")
	if err != nil || p != Ice {
		t.Errorf("ParsePreset(Ice) = %v, %v", p, err)
	}
	if _, err := ParsePreset("lava"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetTextRoundTrip(t *testing.T) {
	for _, p := range Presets() {
		b, _ := p.MarshalText()
		var got Preset
		if err := got.UnmarshalText(b); err != nil || got != p {
			t.Errorf("round trip %v: got %v, %v", p, got, err)
		}
	}
}

func BenchmarkCurveEvaluate(b *testing.B) {
	c := Get(Asphalt)
	s := 0.0
	for i := 0; i < b.N; i++ {
		s += c.Evaluate(float64(i%100) * 0.011)
	}
	_ = s
}
