package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

func sine(hz, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*hz*float64(i)*dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		hz float64
		dt float64
		n  int
	}{
		{1.5, 0.01, 1000},
		{2, 0.01, 1024},
		{8, 0.005, 999},
	}
	for _, tt := range tests {
		got := DominantFrequency(sine(tt.hz, tt.dt, tt.n), tt.dt, 0.2)
		resolution := 1 / (float64(tt.n) * tt.dt)
		if math.Abs(got-tt.hz) > resolution {
			t.Errorf("%v Hz: got %.3f (resolution %.3f)", tt.hz, got, resolution)
		}
	}
}

func TestSpectrumAmplitude(t *testing.T) {
	freqs, power := Spectrum(sine(5, 0.01, 1000), 0.01)
	if len(freqs) != 501 || len(power) != 501 {
		t.Fatalf("expected 501 bins, got %d", len(freqs))
	}
	if math.Abs(freqs[500]-50) > 1e-9 {
		t.Errorf("expected Nyquist at 50 Hz, got %f", freqs[500])
	}
	if power[0] > 1e-6 {
		t.Errorf("expected the mean removed, got DC %f", power[0])
	}
	// the Hann window halves a bin-centered tone
	if math.Abs(power[50]-0.5) > 0.05 {
		t.Errorf("expected amplitude 0.5 at 5 Hz, got %f", power[50])
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	flat := make([]float64, 256)
	if got := DominantFrequency(flat, 0.01, 0); got != 0 {
		t.Errorf("expected 0 for a flat signal, got %f", got)
	}
	if f, p := Spectrum([]float64{1}, 0.01); f != nil || p != nil {
		t.Error("expected no spectrum for one sample")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, math.NaN(), 3, -1, 5})
	if s.N != 4 || s.Min != -1 || s.Max != 5 || s.Mean != 2 || s.Final != 5 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.RMS-math.Sqrt(9)) > 1e-12 {
		t.Errorf("expected rms 3, got %f", s.RMS)
	}
	if math.Abs(s.Std-math.Sqrt(20.0/3)) > 1e-12 {
		t.Errorf("expected sample std, got %f", s.Std)
	}
	if (Summarize(nil) != Summary{}) {
		t.Error("expected zero summary for no data")
	}
	if one := Summarize([]float64{2}); one.Std != 0 || one.Mean != 2 {
		t.Errorf("unexpected single sample summary %+v", one)
	}
}

func circleResult(n int) *dynamo.Result {
	r := &dynamo.Result{}
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n) * 3
		r.Telemetry = append(r.Telemetry, dynamo.State{math.Cos(a), math.Sin(a), a})
	}
	return r
}

func TestScatter(t *testing.T) {
	s := NewScatter(circleResult(90), 0, 1)
	if s == nil || len(s.Points) != 90 {
		t.Fatal("expected one point per row")
	}
	art := s.ASCII(40, 20)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 20 {
		t.Errorf("expected 20 lines, got %d", len(lines))
	}
	if !strings.Contains(art, "•") || !strings.Contains(art, "│") {
		t.Error("expected points and a y axis")
	}
	if NewScatter(circleResult(5), 0, 7) != nil {
		t.Error("expected nil for a missing column")
	}
}

func TestSection(t *testing.T) {
	// column 1 is sin(a) over three turns, so it crosses 0 upward twice
	// after the first row
	s := NewSection(circleResult(90), 1, 0, 0, 2)
	if s == nil || len(s.Points) != 2 {
		t.Fatalf("expected 2 crossings, got %v", s)
	}
	for _, p := range s.Points {
		if math.Abs(p.X-1) > 0.05 {
			t.Errorf("expected crossings at cos=1, got %f", p.X)
		}
	}
	var empty *Scatter
	if empty.ASCII(10, 5) != "no points" {
		t.Error("expected placeholder for nil scatter")
	}
}
